package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestParseOwnerRef(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		kind    string
		id      string
		wantErr bool
	}{
		{"expense", "expenses", id.String(), false},
		{"diary", "diaries", id.String(), false},
		{"unknown kind", "invoices", id.String(), true},
		{"bad id", "sites", "42", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseOwnerRef(tt.kind, tt.id)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("ParseOwnerRef() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOwnerRef() unexpected error: %v", err)
			}
			if ref.ID != id || string(ref.Kind) != tt.kind {
				t.Errorf("ParseOwnerRef() = %v", ref)
			}
			if ref.String() != tt.kind+"/"+id.String() {
				t.Errorf("String() = %q", ref.String())
			}
		})
	}
}

func TestOwnerKind_StoragePrefix(t *testing.T) {
	if got := OwnerKindCategory.StoragePrefix(); got != "categories/" {
		t.Errorf("StoragePrefix() = %q, want categories/", got)
	}
}
