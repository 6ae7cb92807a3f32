package localstore

import (
	"fmt"
	"strings"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/google/uuid"
)

// Key prefixes of the device-local store. All namespacing rules live here.
const (
	documentKeyPrefix = "document_"
	imageKeyPrefix    = "transaction_image_"

	// IntegrityLastResultKey holds the most recent integrity report
	IntegrityLastResultKey = "integrity_check_last_result"
	// IntegrityHistoryKey holds the capped list of integrity run summaries
	IntegrityHistoryKey = "integrity_check_history"
)

// AttachmentKey builds the key of a locally stored attachment:
// document_<ownerId>_<documentId> or transaction_image_<ownerId>_<imageId>
func AttachmentKey(kind domain.AttachmentKind, ownerID uuid.UUID, attachmentID string) string {
	return OwnerPrefix(kind, ownerID) + attachmentID
}

// OwnerPrefix is the key prefix shared by every attachment of one kind for one owner
func OwnerPrefix(kind domain.AttachmentKind, ownerID uuid.UUID) string {
	return fmt.Sprintf("%s%s_", kindPrefix(kind), ownerID)
}

// ParseAttachmentKey splits an attachment key back into its parts
func ParseAttachmentKey(key string) (kind domain.AttachmentKind, ownerID uuid.UUID, attachmentID string, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(key, imageKeyPrefix):
		kind, rest = domain.AttachmentKindImage, strings.TrimPrefix(key, imageKeyPrefix)
	case strings.HasPrefix(key, documentKeyPrefix):
		kind, rest = domain.AttachmentKindDocument, strings.TrimPrefix(key, documentKeyPrefix)
	default:
		return "", uuid.Nil, "", false
	}

	// uuid strings are fixed width, so the owner id never swallows the separator
	if len(rest) < 38 || rest[36] != '_' {
		return "", uuid.Nil, "", false
	}
	owner, err := uuid.Parse(rest[:36])
	if err != nil {
		return "", uuid.Nil, "", false
	}
	return kind, owner, rest[37:], true
}

func kindPrefix(kind domain.AttachmentKind) string {
	if kind == domain.AttachmentKindDocument {
		return documentKeyPrefix
	}
	return imageKeyPrefix
}
