package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrConfirmationRequired = errors.New("deleting stored objects requires explicit confirmation")
	ErrObjectNotFound       = errors.New("object not found")
	ErrNoIntegrityReport    = errors.New("no integrity check has been run yet")
	ErrUnknownIssueKind     = errors.New("unknown integrity issue kind")
)

// IssueKind classifies a reconciliation mismatch
type IssueKind string

const (
	// IssueBrokenURL is a referenced URL that cannot be resolved to an object
	IssueBrokenURL IssueKind = "broken_url"
	// IssueMissingInStorage is a referenced attachment whose object is gone
	IssueMissingInStorage IssueKind = "missing_in_storage"
	// IssueMissingInDB is a stored object no record references
	IssueMissingInDB IssueKind = "missing_in_db"
)

// IssueKinds lists every issue kind
var IssueKinds = []IssueKind{IssueBrokenURL, IssueMissingInStorage, IssueMissingInDB}

// IsValid reports whether k is a known issue kind
func (k IssueKind) IsValid() bool {
	return k == IssueBrokenURL || k == IssueMissingInStorage || k == IssueMissingInDB
}

// IsStaleReference reports whether the repair for k rewrites the owning record
func (k IssueKind) IsStaleReference() bool {
	return k == IssueBrokenURL || k == IssueMissingInStorage
}

// StoredObject is one object found while listing object storage
type StoredObject struct {
	Path         string    `json:"path"`
	URL          string    `json:"url,omitempty"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// IntegrityIssue is one flagged mismatch between records and storage
type IntegrityIssue struct {
	ID         string           `json:"id"`
	Kind       IssueKind        `json:"kind"`
	Owner      *OwnerRef        `json:"owner,omitempty"`
	Attachment *SavedAttachment `json:"attachment,omitempty"`
	ObjectPath string           `json:"objectPath,omitempty"`
	Detail     string           `json:"detail"`
}

// IntegritySummary is the compact per-run record kept in history
type IntegritySummary struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"startedAt"`
	CompletedAt      time.Time `json:"completedAt"`
	ReferencedCount  int       `json:"referencedCount"`
	StoredCount      int       `json:"storedCount"`
	BrokenURL        int       `json:"brokenUrl"`
	MissingInStorage int       `json:"missingInStorage"`
	MissingInDB      int       `json:"missingInDb"`
}

// TotalIssues returns the number of issues found in the run
func (s IntegritySummary) TotalIssues() int {
	return s.BrokenURL + s.MissingInStorage + s.MissingInDB
}

// IntegrityReport is the full result of one reconciliation run
type IntegrityReport struct {
	IntegritySummary
	Issues []IntegrityIssue `json:"issues"`
}

// IssuesOfKind filters the report's issues; no kinds means all
func (r *IntegrityReport) IssuesOfKind(kinds ...IssueKind) []IntegrityIssue {
	if len(kinds) == 0 {
		return r.Issues
	}
	wanted := make(map[IssueKind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}
	var filtered []IntegrityIssue
	for _, issue := range r.Issues {
		if wanted[issue.Kind] {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}

// RepairOutcome is the result of repairing one issue
type RepairOutcome string

const (
	RepairFixed           RepairOutcome = "fixed"
	RepairAlreadyResolved RepairOutcome = "already_resolved"
)

// BatchRepairResult aggregates a sequential batch repair
type BatchRepairResult struct {
	Attempted       int      `json:"attempted"`
	Fixed           int      `json:"fixed"`
	AlreadyResolved int      `json:"alreadyResolved"`
	Failed          int      `json:"failed"`
	Errors          []string `json:"errors"`
}

// ObjectStorage is the object storage port used by attachments and the integrity checker
type ObjectStorage interface {
	// Upload stores data at objectPath and returns a token-bearing download URL
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	// Delete removes the object; deleting a missing object is not an error
	Delete(ctx context.Context, objectPath string) error
	// Exists reports whether the object is present
	Exists(ctx context.Context, objectPath string) (bool, error)
	// List enumerates every object under prefix
	List(ctx context.Context, prefix string) ([]StoredObject, error)
	// ResolveURL returns a fresh download URL, or ErrObjectNotFound
	ResolveURL(ctx context.Context, objectPath string) (string, error)
	// ObjectPathFromURL extracts the object path embedded in a download URL
	ObjectPathFromURL(rawURL string) (string, bool)
}

// LocalStore is the device-local string-keyed store
type LocalStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}
