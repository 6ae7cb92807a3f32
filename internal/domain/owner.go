package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// OwnerKind identifies the entity collection an attachment belongs to.
// It doubles as the top-level object storage prefix.
type OwnerKind string

const (
	OwnerKindSite     OwnerKind = "sites"
	OwnerKindCategory OwnerKind = "categories"
	OwnerKindIncome   OwnerKind = "incomes"
	OwnerKindExpense  OwnerKind = "expenses"
	OwnerKindDiary    OwnerKind = "diaries"
)

// OwnerKinds lists every collection that can carry attachments
var OwnerKinds = []OwnerKind{
	OwnerKindSite,
	OwnerKindCategory,
	OwnerKindIncome,
	OwnerKindExpense,
	OwnerKindDiary,
}

// IsValid reports whether k is a known owner kind
func (k OwnerKind) IsValid() bool {
	for _, known := range OwnerKinds {
		if k == known {
			return true
		}
	}
	return false
}

// StoragePrefix returns the object storage prefix for this kind, with trailing slash
func (k OwnerKind) StoragePrefix() string {
	return string(k) + "/"
}

// OwnerRef points at the entity that owns an attachment
type OwnerRef struct {
	Kind OwnerKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

func (o OwnerRef) String() string {
	return fmt.Sprintf("%s/%s", o.Kind, o.ID)
}

// ParseOwnerRef builds an OwnerRef from its string parts
func ParseOwnerRef(kind string, id string) (OwnerRef, error) {
	k := OwnerKind(kind)
	if !k.IsValid() {
		return OwnerRef{}, fmt.Errorf("%w: unknown owner kind %q", ErrInvalidInput, kind)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return OwnerRef{}, fmt.Errorf("%w: invalid owner id", ErrInvalidInput)
	}
	return OwnerRef{Kind: k, ID: parsed}, nil
}
