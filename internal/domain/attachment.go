package domain

import (
	"context"
	"errors"
	"fmt"
)

// AttachmentKind is the storage sub-folder of an attachment
type AttachmentKind string

const (
	AttachmentKindImage    AttachmentKind = "images"
	AttachmentKindDocument AttachmentKind = "documents"
)

// IsValid reports whether k is a known attachment kind
func (k AttachmentKind) IsValid() bool {
	return k == AttachmentKindImage || k == AttachmentKindDocument
}

// StorageLocation tags where an attachment's bytes live
type StorageLocation string

const (
	LocationLocal StorageLocation = "local"
	LocationCloud StorageLocation = "cloud"
)

var (
	ErrInvalidAttachment     = errors.New("attachment must have exactly one of id or url matching its location")
	ErrAttachmentNotFound    = errors.New("attachment not found")
	ErrLocalStorageFull      = errors.New("storage capacity insufficient")
	ErrFileTooLarge          = errors.New("file too large")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
	ErrInvalidImageData      = errors.New("invalid image data")
	ErrStorageNotConfigured  = errors.New("attachment storage not configured")
	ErrInvalidAttachmentKind = errors.New("invalid attachment kind")
)

// SavedAttachment is the tagged result of persisting one file.
// Cloud results carry a URL, local results carry a device-local id, never both.
type SavedAttachment struct {
	Kind     AttachmentKind  `json:"kind"`
	Location StorageLocation `json:"location"`
	ID       string          `json:"id,omitempty"`
	URL      string          `json:"url,omitempty"`
}

// NewCloudAttachment builds a cloud-tagged attachment
func NewCloudAttachment(kind AttachmentKind, url string) SavedAttachment {
	return SavedAttachment{Kind: kind, Location: LocationCloud, URL: url}
}

// NewLocalAttachment builds a local-tagged attachment
func NewLocalAttachment(kind AttachmentKind, id string) SavedAttachment {
	return SavedAttachment{Kind: kind, Location: LocationLocal, ID: id}
}

// Validate enforces the local XOR cloud invariant
func (a SavedAttachment) Validate() error {
	if !a.Kind.IsValid() {
		return ErrInvalidAttachmentKind
	}
	switch a.Location {
	case LocationCloud:
		if a.URL == "" || a.ID != "" {
			return ErrInvalidAttachment
		}
	case LocationLocal:
		if a.ID == "" || a.URL != "" {
			return ErrInvalidAttachment
		}
	default:
		return ErrInvalidAttachment
	}
	return nil
}

// LocalAttachment is an attachment stored in the device-local store
type LocalAttachment struct {
	Kind AttachmentKind `json:"kind"`
	ID   string         `json:"id"`
}

// CloudAttachment is an attachment stored in object storage
type CloudAttachment struct {
	Kind AttachmentKind `json:"kind"`
	URL  string         `json:"url"`
}

// AttachmentSet is the full attachment set of one entity: local-only and cloud-only entries.
// Persisted as the image_ids/image_urls/document_ids/document_urls columns.
type AttachmentSet struct {
	Local []LocalAttachment `json:"local"`
	Cloud []CloudAttachment `json:"cloud"`
}

// NewAttachmentSet builds a set from the four persisted arrays
func NewAttachmentSet(imageIDs, imageURLs, documentIDs, documentURLs []string) AttachmentSet {
	var set AttachmentSet
	for _, id := range imageIDs {
		set.Add(NewLocalAttachment(AttachmentKindImage, id))
	}
	for _, url := range imageURLs {
		set.Add(NewCloudAttachment(AttachmentKindImage, url))
	}
	for _, id := range documentIDs {
		set.Add(NewLocalAttachment(AttachmentKindDocument, id))
	}
	for _, url := range documentURLs {
		set.Add(NewCloudAttachment(AttachmentKindDocument, url))
	}
	return set
}

// Add inserts an attachment. Empty or duplicate entries are ignored.
func (s *AttachmentSet) Add(a SavedAttachment) {
	switch a.Location {
	case LocationLocal:
		if a.ID == "" || s.HasLocal(a.Kind, a.ID) {
			return
		}
		s.Local = append(s.Local, LocalAttachment{Kind: a.Kind, ID: a.ID})
	case LocationCloud:
		if a.URL == "" || s.HasURL(a.URL) {
			return
		}
		s.Cloud = append(s.Cloud, CloudAttachment{Kind: a.Kind, URL: a.URL})
	}
}

// HasURL reports whether the set references url
func (s AttachmentSet) HasURL(url string) bool {
	for _, c := range s.Cloud {
		if c.URL == url {
			return true
		}
	}
	return false
}

// CloudKind returns the kind of the cloud entry with the given URL
func (s AttachmentSet) CloudKind(url string) (AttachmentKind, bool) {
	for _, c := range s.Cloud {
		if c.URL == url {
			return c.Kind, true
		}
	}
	return "", false
}

// HasLocal reports whether the set references the local id of the given kind
func (s AttachmentSet) HasLocal(kind AttachmentKind, id string) bool {
	for _, l := range s.Local {
		if l.Kind == kind && l.ID == id {
			return true
		}
	}
	return false
}

// Remove drops the attachment, returning false when it was not present
func (s *AttachmentSet) Remove(a SavedAttachment) bool {
	if a.Location == LocationLocal {
		return s.RemoveLocal(a.Kind, a.ID)
	}
	return s.RemoveURL(a.URL)
}

// RemoveURL drops every cloud entry with the given URL
func (s *AttachmentSet) RemoveURL(url string) bool {
	kept := make([]CloudAttachment, 0, len(s.Cloud))
	removed := false
	for _, c := range s.Cloud {
		if c.URL == url {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	s.Cloud = kept
	return removed
}

// RemoveLocal drops the local entry with the given kind and id
func (s *AttachmentSet) RemoveLocal(kind AttachmentKind, id string) bool {
	kept := make([]LocalAttachment, 0, len(s.Local))
	removed := false
	for _, l := range s.Local {
		if l.Kind == kind && l.ID == id {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	s.Local = kept
	return removed
}

// IDs returns the local ids of the given kind in insertion order
func (s AttachmentSet) IDs(kind AttachmentKind) []string {
	ids := []string{}
	for _, l := range s.Local {
		if l.Kind == kind {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// URLs returns the cloud URLs of the given kind in insertion order
func (s AttachmentSet) URLs(kind AttachmentKind) []string {
	urls := []string{}
	for _, c := range s.Cloud {
		if c.Kind == kind {
			urls = append(urls, c.URL)
		}
	}
	return urls
}

// All returns every attachment as tagged results, local first
func (s AttachmentSet) All() []SavedAttachment {
	all := make([]SavedAttachment, 0, s.Len())
	for _, l := range s.Local {
		all = append(all, NewLocalAttachment(l.Kind, l.ID))
	}
	for _, c := range s.Cloud {
		all = append(all, NewCloudAttachment(c.Kind, c.URL))
	}
	return all
}

// Len returns the number of attachments in the set
func (s AttachmentSet) Len() int {
	return len(s.Local) + len(s.Cloud)
}

// IsEmpty reports whether the set has no attachments
func (s AttachmentSet) IsEmpty() bool {
	return s.Len() == 0
}

// AttachmentReference is one attachment referenced by a database record
type AttachmentReference struct {
	Owner      OwnerRef
	Attachment SavedAttachment
}

// AttachmentOwnerRepository reads and rewrites the attachment columns of any owner record
type AttachmentOwnerRepository interface {
	GetAttachments(ctx context.Context, owner OwnerRef) (AttachmentSet, error)
	SetAttachments(ctx context.Context, owner OwnerRef, set AttachmentSet) error
	ListReferences(ctx context.Context) ([]AttachmentReference, error)
}

// DeletionStatus is the outcome of deleting a stored attachment
type DeletionStatus string

const (
	DeletionDeleted  DeletionStatus = "deleted"
	DeletionNotFound DeletionStatus = "not_found"
	DeletionFailed   DeletionStatus = "failed"
)

// DeletionResult distinguishes confirmed deletes from already-gone and failed ones
type DeletionResult struct {
	Status DeletionStatus `json:"status"`
	Err    error          `json:"-"`
}

// Error returns the failure message, empty unless the deletion failed
func (r DeletionResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// UploadErrorCode classifies object storage upload failures
type UploadErrorCode string

const (
	UploadErrorUnauthorized       UploadErrorCode = "unauthorized"
	UploadErrorCanceled           UploadErrorCode = "canceled"
	UploadErrorRetryLimitExceeded UploadErrorCode = "retry_limit_exceeded"
	UploadErrorUnknown            UploadErrorCode = "unknown"
)

// UploadError is a classified object storage failure
type UploadError struct {
	Code UploadErrorCode
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed (%s): %v", e.Code, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// UserMessage maps the error code to a message suitable for end users
func (e *UploadError) UserMessage() string {
	switch e.Code {
	case UploadErrorUnauthorized:
		return "You do not have permission to upload files."
	case UploadErrorCanceled:
		return "The upload was canceled."
	case UploadErrorRetryLimitExceeded:
		return "The upload timed out. Please check your connection and try again."
	default:
		return "An unknown error occurred during upload."
	}
}
