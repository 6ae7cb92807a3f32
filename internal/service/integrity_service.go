package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dafibh/sitebook/sitebook-backend/internal/config"
	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/repository/localstore"
	"github.com/dafibh/sitebook/sitebook-backend/internal/util"
	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// issueNamespace seeds deterministic issue ids, so repeated checks report stable ids
var issueNamespace = uuid.MustParse("6f2c1a3e-91d4-4b7a-8c55-2e0f3d9a7b18")

// BatchRepairOptions selects which issues a batch repair touches
type BatchRepairOptions struct {
	Kinds   []domain.IssueKind
	Confirm bool
}

// IntegrityService reconciles the attachments records reference against what storage holds
type IntegrityService struct {
	owners         domain.AttachmentOwnerRepository
	storage        domain.ObjectStorage
	local          domain.LocalStore
	cfg            config.IntegrityConfig
	logger         zerolog.Logger
	eventPublisher websocket.EventPublisher
	mu             sync.Mutex
	now            func() time.Time
}

// NewIntegrityService creates a new IntegrityService
func NewIntegrityService(
	owners domain.AttachmentOwnerRepository,
	storage domain.ObjectStorage,
	local domain.LocalStore,
	cfg config.IntegrityConfig,
	logger zerolog.Logger,
) *IntegrityService {
	return &IntegrityService{
		owners:  owners,
		storage: storage,
		local:   local,
		cfg:     cfg,
		logger:  logger.With().Str("component", "integrity_service").Logger(),
		now:     time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *IntegrityService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *IntegrityService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(websocket.GlobalChannel, event)
	}
}

// storedIndex indexes the stored set for the three match strategies
type storedIndex struct {
	byURL        map[string]string
	byNormalized map[string]string
	byPath       map[string]bool
}

func newStoredIndex(objects []domain.StoredObject) storedIndex {
	idx := storedIndex{
		byURL:        make(map[string]string, len(objects)),
		byNormalized: make(map[string]string, len(objects)),
		byPath:       make(map[string]bool, len(objects)),
	}
	for _, obj := range objects {
		idx.byPath[obj.Path] = true
		if obj.URL != "" {
			idx.byURL[obj.URL] = obj.Path
			idx.byNormalized[util.NormalizeStorageURL(obj.URL)] = obj.Path
		}
	}
	return idx
}

// match returns the stored path a referenced URL matches: exact URL, then normalized URL,
// then extracted object path
func (idx storedIndex) match(rawURL string, objectPath string, hasPath bool) (string, bool) {
	if path, ok := idx.byURL[rawURL]; ok {
		return path, true
	}
	if path, ok := idx.byNormalized[util.NormalizeStorageURL(rawURL)]; ok {
		return path, true
	}
	if hasPath && idx.byPath[objectPath] {
		return objectPath, true
	}
	return "", false
}

// Check runs a full reconciliation, caches the report and appends it to the history
func (s *IntegrityService) Check(ctx context.Context) (*domain.IntegrityReport, error) {
	if s.storage == nil {
		return nil, domain.ErrStorageNotConfigured
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := &domain.IntegrityReport{Issues: []domain.IntegrityIssue{}}
	report.ID = uuid.New().String()
	report.StartedAt = s.now().UTC()

	refs, err := s.owners.ListReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect referenced attachments: %w", err)
	}

	var stored []domain.StoredObject
	for _, kind := range domain.OwnerKinds {
		objects, err := s.storage.List(ctx, kind.StoragePrefix())
		if err != nil {
			return nil, fmt.Errorf("failed to list stored objects: %w", err)
		}
		stored = append(stored, objects...)
	}

	report.ReferencedCount = len(refs)
	report.StoredCount = len(stored)

	idx := newStoredIndex(stored)
	referencedPaths := make(map[string]bool, len(refs))

	for _, ref := range refs {
		issue, err := s.checkReference(ctx, idx, ref, referencedPaths)
		if err != nil {
			return nil, err
		}
		if issue != nil {
			report.Issues = append(report.Issues, *issue)
		}
	}

	for _, obj := range stored {
		if referencedPaths[obj.Path] {
			continue
		}
		report.Issues = append(report.Issues, domain.IntegrityIssue{
			ID:         issueID(domain.IssueMissingInDB, obj.Path),
			Kind:       domain.IssueMissingInDB,
			ObjectPath: obj.Path,
			Detail:     "stored object is not referenced by any record",
		})
	}

	for _, issue := range report.Issues {
		switch issue.Kind {
		case domain.IssueBrokenURL:
			report.BrokenURL++
		case domain.IssueMissingInStorage:
			report.MissingInStorage++
		case domain.IssueMissingInDB:
			report.MissingInDB++
		}
	}
	report.CompletedAt = s.now().UTC()

	s.persist(ctx, report)

	s.logger.Info().
		Str("run_id", report.ID).
		Int("referenced", report.ReferencedCount).
		Int("stored", report.StoredCount).
		Int("broken_url", report.BrokenURL).
		Int("missing_in_storage", report.MissingInStorage).
		Int("missing_in_db", report.MissingInDB).
		Dur("duration", report.CompletedAt.Sub(report.StartedAt)).
		Msg("Integrity check completed")

	s.publishEvent(websocket.IntegrityChecked(report.IntegritySummary))
	return report, nil
}

// checkReference classifies one referenced attachment, returning nil when it is present
func (s *IntegrityService) checkReference(ctx context.Context, idx storedIndex, ref domain.AttachmentReference, referencedPaths map[string]bool) (*domain.IntegrityIssue, error) {
	owner := ref.Owner
	att := ref.Attachment

	newIssue := func(kind domain.IssueKind, objectPath, detail string) *domain.IntegrityIssue {
		key := att.URL
		if att.Location == domain.LocationLocal {
			key = string(att.Kind) + ":" + att.ID
		}
		return &domain.IntegrityIssue{
			ID:         issueID(kind, owner.String(), key),
			Kind:       kind,
			Owner:      &owner,
			Attachment: &att,
			ObjectPath: objectPath,
			Detail:     detail,
		}
	}

	if att.Location == domain.LocationLocal {
		has, err := s.local.Has(ctx, localstore.AttachmentKey(att.Kind, owner.ID, att.ID))
		if err != nil {
			return nil, fmt.Errorf("failed to read local store: %w", err)
		}
		if !has {
			return newIssue(domain.IssueMissingInStorage, "", "local attachment has no entry in the local store"), nil
		}
		return nil, nil
	}

	objectPath, hasPath := s.storage.ObjectPathFromURL(att.URL)
	if hasPath {
		referencedPaths[objectPath] = true
	}

	if path, ok := idx.match(att.URL, objectPath, hasPath); ok {
		referencedPaths[path] = true
		return nil, nil
	}

	if !hasPath {
		return newIssue(domain.IssueBrokenURL, "", "object path cannot be extracted from URL"), nil
	}

	// Listings can lag behind writes, so a direct probe has the final word
	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()
	_, err := s.storage.ResolveURL(probeCtx, objectPath)
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, domain.ErrObjectNotFound):
		return newIssue(domain.IssueMissingInStorage, objectPath, "referenced object does not exist in storage"), nil
	default:
		return newIssue(domain.IssueBrokenURL, objectPath, fmt.Sprintf("probe failed: %v", err)), nil
	}
}

func issueID(kind domain.IssueKind, parts ...string) string {
	name := string(kind)
	for _, p := range parts {
		name += "|" + p
	}
	return uuid.NewSHA1(issueNamespace, []byte(name)).String()
}

// persist caches the report and prepends its summary to the capped history. Cache failures
// are logged and do not fail the check.
func (s *IntegrityService) persist(ctx context.Context, report *domain.IntegrityReport) {
	if err := s.saveReport(ctx, report); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache integrity report")
	}

	history, err := s.History(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read integrity history, starting a new one")
		history = nil
	}
	history = append([]domain.IntegritySummary{report.IntegritySummary}, history...)
	if len(history) > s.cfg.HistoryLimit {
		history = history[:s.cfg.HistoryLimit]
	}
	data, err := json.Marshal(history)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode integrity history")
		return
	}
	if err := s.local.Set(ctx, localstore.IntegrityHistoryKey, string(data)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache integrity history")
	}
}

func (s *IntegrityService) saveReport(ctx context.Context, report *domain.IntegrityReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.local.Set(ctx, localstore.IntegrityLastResultKey, string(data))
}

// Latest returns the cached report of the last check without rescanning
func (s *IntegrityService) Latest(ctx context.Context) (*domain.IntegrityReport, error) {
	raw, err := s.local.Get(ctx, localstore.IntegrityLastResultKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoIntegrityReport
		}
		return nil, err
	}
	var report domain.IntegrityReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("failed to decode cached integrity report: %w", err)
	}
	return &report, nil
}

// History returns the cached run summaries, newest first
func (s *IntegrityService) History(ctx context.Context) ([]domain.IntegritySummary, error) {
	raw, err := s.local.Get(ctx, localstore.IntegrityHistoryKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.IntegritySummary{}, nil
		}
		return nil, err
	}
	history := []domain.IntegritySummary{}
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("failed to decode integrity history: %w", err)
	}
	return history, nil
}

// Repair fixes one issue. Stale references are removed from their record; unreferenced
// objects are deleted, which requires confirm.
func (s *IntegrityService) Repair(ctx context.Context, issue domain.IntegrityIssue, confirm bool) (domain.RepairOutcome, error) {
	outcome, err := s.repair(ctx, issue, confirm)
	if err != nil {
		return "", err
	}
	s.pruneCachedIssues(ctx, map[string]bool{issue.ID: true})
	return outcome, nil
}

func (s *IntegrityService) repair(ctx context.Context, issue domain.IntegrityIssue, confirm bool) (domain.RepairOutcome, error) {
	switch {
	case issue.Kind.IsStaleReference():
		if issue.Owner == nil || issue.Attachment == nil {
			return "", fmt.Errorf("%w: issue has no owner or attachment", domain.ErrInvalidInput)
		}
		set, err := s.owners.GetAttachments(ctx, *issue.Owner)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.RepairAlreadyResolved, nil
			}
			return "", err
		}
		if !set.Remove(*issue.Attachment) {
			return domain.RepairAlreadyResolved, nil
		}
		if err := s.owners.SetAttachments(ctx, *issue.Owner, set); err != nil {
			return "", err
		}
		return domain.RepairFixed, nil

	case issue.Kind == domain.IssueMissingInDB:
		if !confirm {
			return "", domain.ErrConfirmationRequired
		}
		if issue.ObjectPath == "" {
			return "", fmt.Errorf("%w: issue has no object path", domain.ErrInvalidInput)
		}
		if s.storage == nil {
			return "", domain.ErrStorageNotConfigured
		}
		exists, err := s.storage.Exists(ctx, issue.ObjectPath)
		if err != nil {
			return "", err
		}
		if !exists {
			return domain.RepairAlreadyResolved, nil
		}
		if err := s.storage.Delete(ctx, issue.ObjectPath); err != nil {
			return "", err
		}
		return domain.RepairFixed, nil

	default:
		return "", domain.ErrUnknownIssueKind
	}
}

// BatchRepair repairs the issues of the selected kinds one at a time, paced by a token bucket.
// It refuses up front when unreferenced objects are selected without confirmation.
func (s *IntegrityService) BatchRepair(ctx context.Context, issues []domain.IntegrityIssue, opts BatchRepairOptions) (*domain.BatchRepairResult, error) {
	wanted := make(map[domain.IssueKind]bool, len(opts.Kinds))
	for _, kind := range opts.Kinds {
		if !kind.IsValid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownIssueKind, kind)
		}
		wanted[kind] = true
	}

	var selected []domain.IntegrityIssue
	for _, issue := range issues {
		if len(wanted) > 0 && !wanted[issue.Kind] {
			continue
		}
		if issue.Kind == domain.IssueMissingInDB && !opts.Confirm {
			return nil, domain.ErrConfirmationRequired
		}
		selected = append(selected, issue)
	}

	result := &domain.BatchRepairResult{Errors: []string{}}
	resolved := make(map[string]bool, len(selected))
	limiter := rate.NewLimiter(rate.Every(s.cfg.RepairInterval), 1)

	for _, issue := range selected {
		if err := limiter.Wait(ctx); err != nil {
			s.pruneCachedIssues(ctx, resolved)
			return result, err
		}

		result.Attempted++
		outcome, err := s.repair(ctx, issue, opts.Confirm)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s (%s): %v", issue.ID, issue.Kind, err))
			continue
		}
		resolved[issue.ID] = true
		if outcome == domain.RepairFixed {
			result.Fixed++
		} else {
			result.AlreadyResolved++
		}
	}

	s.pruneCachedIssues(ctx, resolved)

	s.logger.Info().
		Int("attempted", result.Attempted).
		Int("fixed", result.Fixed).
		Int("already_resolved", result.AlreadyResolved).
		Int("failed", result.Failed).
		Msg("Batch repair completed")

	s.publishEvent(websocket.IntegrityRepaired(result))
	return result, nil
}

// BatchRepairLatest runs a batch repair over the cached report of the last check
func (s *IntegrityService) BatchRepairLatest(ctx context.Context, opts BatchRepairOptions) (*domain.BatchRepairResult, error) {
	report, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return s.BatchRepair(ctx, report.Issues, opts)
}

// FindIssue looks an issue up by id in the cached report
func (s *IntegrityService) FindIssue(ctx context.Context, id string) (*domain.IntegrityIssue, error) {
	report, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	for _, issue := range report.Issues {
		if issue.ID == id {
			return &issue, nil
		}
	}
	return nil, domain.ErrNotFound
}

// pruneCachedIssues drops resolved issues from the cached report so Latest reflects repairs
func (s *IntegrityService) pruneCachedIssues(ctx context.Context, resolved map[string]bool) {
	if len(resolved) == 0 {
		return
	}

	// Serialized with Check so a report cached mid-repair is not overwritten by an older one
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.Latest(ctx)
	if err != nil {
		return
	}

	kept := make([]domain.IntegrityIssue, 0, len(report.Issues))
	for _, issue := range report.Issues {
		if resolved[issue.ID] {
			continue
		}
		kept = append(kept, issue)
	}
	if len(kept) == len(report.Issues) {
		return
	}
	report.Issues = kept

	if err := s.saveReport(ctx, report); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to update cached integrity report")
	}
}
