package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dafibh/sitebook/sitebook-backend/internal/config"
	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/repository/localstore"
	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"
)

const (
	CloudImageMaxDimension = 1920
	CloudImageQuality      = 85
	LocalImageMaxDimension = 1024
	LocalImageQuality      = 60
)

// AllowedDocumentTypes lists the MIME types accepted for document attachments
var AllowedDocumentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
	"text/csv",
}

// FileUpload is one file submitted for attachment
type FileUpload struct {
	Filename string
	Data     []byte
}

// BatchItemError records why one file of a batch was not saved
type BatchItemError struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

// BatchSaveResult is the outcome of saving a batch of files
type BatchSaveResult struct {
	Saved  []domain.SavedAttachment `json:"saved"`
	Errors []BatchItemError         `json:"errors"`
}

// AttachResult is the outcome of attaching files to a record
type AttachResult struct {
	BatchSaveResult
	Attachments domain.AttachmentSet `json:"attachments"`
}

// DetachResult is the outcome of removing one attachment from a record
type DetachResult struct {
	Attachments domain.AttachmentSet   `json:"attachments"`
	Deletion    *domain.DeletionResult `json:"deletion,omitempty"`
}

// preparedFile is a validated file ready for upload
type preparedFile struct {
	name        string
	contentType string
	data        []byte
	img         image.Image
}

// AttachmentService persists attachments cloud-first with a device-local fallback
type AttachmentService struct {
	storage        domain.ObjectStorage
	local          domain.LocalStore
	owners         domain.AttachmentOwnerRepository
	cfg            config.AttachmentConfig
	logger         zerolog.Logger
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewAttachmentService creates a new AttachmentService. storage may be nil, in which case
// every file goes to the local store.
func NewAttachmentService(
	storage domain.ObjectStorage,
	local domain.LocalStore,
	owners domain.AttachmentOwnerRepository,
	cfg config.AttachmentConfig,
	logger zerolog.Logger,
) *AttachmentService {
	return &AttachmentService{
		storage: storage,
		local:   local,
		owners:  owners,
		cfg:     cfg,
		logger:  logger.With().Str("component", "attachment_service").Logger(),
		now:     time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *AttachmentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AttachmentService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(websocket.GlobalChannel, event)
	}
}

// Save validates one file and stores it in object storage, falling back to the local store
// when the upload fails. The result is tagged with where the bytes ended up.
func (s *AttachmentService) Save(ctx context.Context, owner domain.OwnerRef, kind domain.AttachmentKind, file FileUpload) (*domain.SavedAttachment, error) {
	if !owner.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown owner kind %q", domain.ErrInvalidInput, owner.Kind)
	}
	if !kind.IsValid() {
		return nil, domain.ErrInvalidAttachmentKind
	}

	prepared, err := s.prepare(kind, file)
	if err != nil {
		return nil, err
	}

	if s.storage != nil {
		objectPath := s.objectPath(owner, kind, prepared.name)
		url, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(prepared.data), prepared.contentType, int64(len(prepared.data)))
		if err == nil {
			saved := domain.NewCloudAttachment(kind, url)
			return &saved, nil
		}
		s.logUploadFailure(err, owner, file.Filename)
	}

	return s.saveLocal(ctx, owner, kind, prepared)
}

// SaveBatch saves files one at a time, paced by a token bucket. Per-file failures are
// collected and never abort the batch.
func (s *AttachmentService) SaveBatch(ctx context.Context, owner domain.OwnerRef, kind domain.AttachmentKind, files []FileUpload) BatchSaveResult {
	result := BatchSaveResult{
		Saved:  []domain.SavedAttachment{},
		Errors: []BatchItemError{},
	}
	limiter := rate.NewLimiter(rate.Every(s.cfg.UploadInterval), 1)

	for i, file := range files {
		if err := limiter.Wait(ctx); err != nil {
			for _, skipped := range files[i:] {
				result.Errors = append(result.Errors, BatchItemError{Filename: skipped.Filename, Message: err.Error(), Err: err})
			}
			break
		}

		saved, err := s.Save(ctx, owner, kind, file)
		if err != nil {
			s.logger.Warn().Err(err).Str("owner", owner.String()).Str("filename", file.Filename).Msg("Failed to save attachment")
			result.Errors = append(result.Errors, BatchItemError{Filename: file.Filename, Message: err.Error(), Err: err})
			continue
		}
		result.Saved = append(result.Saved, *saved)
	}
	return result
}

// Delete removes a stored attachment. Failures are reported in the result, never returned.
func (s *AttachmentService) Delete(ctx context.Context, owner domain.OwnerRef, att domain.SavedAttachment) domain.DeletionResult {
	result := s.delete(ctx, owner, att)
	if result.Status == domain.DeletionFailed {
		s.logger.Warn().
			Err(result.Err).
			Str("owner", owner.String()).
			Str("location", string(att.Location)).
			Msg("Failed to delete attachment")
	}
	return result
}

func (s *AttachmentService) delete(ctx context.Context, owner domain.OwnerRef, att domain.SavedAttachment) domain.DeletionResult {
	if err := att.Validate(); err != nil {
		return domain.DeletionResult{Status: domain.DeletionFailed, Err: err}
	}

	if att.Location == domain.LocationLocal {
		err := s.local.Delete(ctx, localstore.AttachmentKey(att.Kind, owner.ID, att.ID))
		switch {
		case err == nil:
			return domain.DeletionResult{Status: domain.DeletionDeleted}
		case errors.Is(err, domain.ErrNotFound):
			return domain.DeletionResult{Status: domain.DeletionNotFound}
		default:
			return domain.DeletionResult{Status: domain.DeletionFailed, Err: err}
		}
	}

	if s.storage == nil {
		return domain.DeletionResult{Status: domain.DeletionFailed, Err: domain.ErrStorageNotConfigured}
	}
	objectPath, ok := s.storage.ObjectPathFromURL(att.URL)
	if !ok {
		return domain.DeletionResult{Status: domain.DeletionFailed, Err: fmt.Errorf("cannot extract object path from %q", att.URL)}
	}
	exists, err := s.storage.Exists(ctx, objectPath)
	if err != nil {
		return domain.DeletionResult{Status: domain.DeletionFailed, Err: err}
	}
	if !exists {
		return domain.DeletionResult{Status: domain.DeletionNotFound}
	}
	if err := s.storage.Delete(ctx, objectPath); err != nil {
		return domain.DeletionResult{Status: domain.DeletionFailed, Err: err}
	}
	return domain.DeletionResult{Status: domain.DeletionDeleted}
}

// PurgeAll deletes every stored file of a set, best effort
func (s *AttachmentService) PurgeAll(ctx context.Context, owner domain.OwnerRef, set domain.AttachmentSet) {
	for _, att := range set.All() {
		s.Delete(ctx, owner, att)
	}
}

// Resolve returns a viewable reference: a fresh download URL for cloud attachments or the
// stored data URL for local ones.
func (s *AttachmentService) Resolve(ctx context.Context, owner domain.OwnerRef, att domain.SavedAttachment) (string, error) {
	if att.Location == domain.LocationCloud && att.Kind == "" {
		set, err := s.owners.GetAttachments(ctx, owner)
		if err != nil {
			return "", err
		}
		if att, err = withCloudKind(set, att); err != nil {
			return "", err
		}
	}
	if err := att.Validate(); err != nil {
		return "", err
	}

	if att.Location == domain.LocationLocal {
		value, err := s.local.Get(ctx, localstore.AttachmentKey(att.Kind, owner.ID, att.ID))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", domain.ErrAttachmentNotFound
			}
			return "", err
		}
		return value, nil
	}

	if s.storage == nil {
		return "", domain.ErrStorageNotConfigured
	}
	objectPath, ok := s.storage.ObjectPathFromURL(att.URL)
	if !ok {
		return "", domain.ErrAttachmentNotFound
	}
	url, err := s.storage.ResolveURL(ctx, objectPath)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) {
			return "", domain.ErrAttachmentNotFound
		}
		return "", err
	}
	return url, nil
}

// Attach saves files and appends every saved attachment to the owner's attachment set
func (s *AttachmentService) Attach(ctx context.Context, owner domain.OwnerRef, kind domain.AttachmentKind, files []FileUpload) (*AttachResult, error) {
	set, err := s.owners.GetAttachments(ctx, owner)
	if err != nil {
		return nil, err
	}

	batch := s.SaveBatch(ctx, owner, kind, files)
	for _, saved := range batch.Saved {
		set.Add(saved)
	}

	if len(batch.Saved) > 0 {
		if err := s.owners.SetAttachments(ctx, owner, set); err != nil {
			// Files that no record references would only become orphans
			for _, saved := range batch.Saved {
				s.Delete(ctx, owner, saved)
			}
			return nil, err
		}
		s.publishEvent(websocket.AttachmentAttached(map[string]interface{}{
			"owner": owner,
			"saved": batch.Saved,
		}))
	}

	return &AttachResult{BatchSaveResult: batch, Attachments: set}, nil
}

// Detach removes one attachment from the owner's set. With purge the stored file is deleted
// too; without it the stored file stays behind.
func (s *AttachmentService) Detach(ctx context.Context, owner domain.OwnerRef, att domain.SavedAttachment, purge bool) (*DetachResult, error) {
	set, err := s.owners.GetAttachments(ctx, owner)
	if err != nil {
		return nil, err
	}
	if att, err = withCloudKind(set, att); err != nil {
		return nil, err
	}
	if err := att.Validate(); err != nil {
		return nil, err
	}
	if !set.Remove(att) {
		return nil, domain.ErrAttachmentNotFound
	}
	if err := s.owners.SetAttachments(ctx, owner, set); err != nil {
		return nil, err
	}

	result := &DetachResult{Attachments: set}
	if purge {
		deletion := s.Delete(ctx, owner, att)
		result.Deletion = &deletion
	}

	s.publishEvent(websocket.AttachmentDetached(map[string]interface{}{
		"owner":      owner,
		"attachment": att,
		"purged":     purge,
	}))
	return result, nil
}

// withCloudKind fills in the kind of a cloud attachment addressed by URL alone from the owner's set
func withCloudKind(set domain.AttachmentSet, att domain.SavedAttachment) (domain.SavedAttachment, error) {
	if att.Location != domain.LocationCloud || att.Kind != "" {
		return att, nil
	}
	kind, ok := set.CloudKind(att.URL)
	if !ok {
		return att, domain.ErrAttachmentNotFound
	}
	att.Kind = kind
	return att, nil
}

// prepare validates a file and produces the bytes to upload
func (s *AttachmentService) prepare(kind domain.AttachmentKind, file FileUpload) (*preparedFile, error) {
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	name := SanitizeFilename(file.Filename)

	if kind == domain.AttachmentKindImage {
		if int64(len(file.Data)) > s.cfg.MaxImageSize {
			return nil, domain.ErrFileTooLarge
		}
		img, err := imaging.Decode(bytes.NewReader(file.Data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, domain.ErrInvalidImageData
		}
		data, err := encodeJPEG(imaging.Fit(img, CloudImageMaxDimension, CloudImageMaxDimension, imaging.Lanczos), CloudImageQuality)
		if err != nil {
			return nil, err
		}
		return &preparedFile{
			name:        strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg",
			contentType: "image/jpeg",
			data:        data,
			img:         img,
		}, nil
	}

	if int64(len(file.Data)) > s.cfg.MaxDocumentSize {
		return nil, domain.ErrFileTooLarge
	}
	mtype := mimetype.Detect(file.Data)
	if !isAllowedDocument(mtype) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, mtype.String())
	}
	return &preparedFile{
		name:        name,
		contentType: mtype.String(),
		data:        file.Data,
	}, nil
}

// saveLocal stores the file as a data URL in the local store under a fresh id
func (s *AttachmentService) saveLocal(ctx context.Context, owner domain.OwnerRef, kind domain.AttachmentKind, file *preparedFile) (*domain.SavedAttachment, error) {
	data, contentType := file.data, file.contentType
	if file.img != nil {
		encoded, err := encodeJPEG(imaging.Fit(file.img, LocalImageMaxDimension, LocalImageMaxDimension, imaging.Lanczos), LocalImageQuality)
		if err != nil {
			return nil, err
		}
		data, contentType = encoded, "image/jpeg"
	}

	id := uuid.New().String()
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	if err := s.local.Set(ctx, localstore.AttachmentKey(kind, owner.ID, id), dataURL); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("owner", owner.String()).
		Str("kind", string(kind)).
		Str("id", id).
		Msg("Attachment saved to local store")

	saved := domain.NewLocalAttachment(kind, id)
	return &saved, nil
}

func (s *AttachmentService) objectPath(owner domain.OwnerRef, kind domain.AttachmentKind, name string) string {
	return fmt.Sprintf("%s/%s/%s/%d_%s", owner.Kind, owner.ID, kind, s.now().UnixMilli(), name)
}

func (s *AttachmentService) logUploadFailure(err error, owner domain.OwnerRef, filename string) {
	event := s.logger.Warn().Err(err).Str("owner", owner.String()).Str("filename", filename)
	var uploadErr *domain.UploadError
	if errors.As(err, &uploadErr) {
		event = event.Str("code", string(uploadErr.Code)).Str("user_message", uploadErr.UserMessage())
	}
	event.Msg("Cloud upload failed, falling back to local store")
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func isAllowedDocument(mtype *mimetype.MIME) bool {
	for _, allowed := range AllowedDocumentTypes {
		if mtype.Is(allowed) {
			return true
		}
	}
	return false
}

// SanitizeFilename folds a filename to [A-Za-z0-9._-], replacing everything else with '_'
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	// Chained transformers are stateful, so each call builds its own
	stripMarks := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	sanitized := b.String()
	if strings.Trim(sanitized, "._") == "" {
		return "file"
	}
	return sanitized
}
