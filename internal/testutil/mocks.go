package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/util"
	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/google/uuid"
)

// MockSiteRepository is a mock implementation of domain.SiteRepository
type MockSiteRepository struct {
	Sites     map[uuid.UUID]*domain.Site
	CreateErr error
}

// NewMockSiteRepository creates a new MockSiteRepository
func NewMockSiteRepository() *MockSiteRepository {
	return &MockSiteRepository{Sites: make(map[uuid.UUID]*domain.Site)}
}

// Create creates a new site
func (m *MockSiteRepository) Create(ctx context.Context, site *domain.Site) (*domain.Site, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if site.ID == uuid.Nil {
		site.ID = uuid.New()
	}
	now := time.Now()
	site.CreatedAt = now
	site.UpdatedAt = now
	m.Sites[site.ID] = site
	return site, nil
}

// GetByID retrieves a site by ID
func (m *MockSiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Site, error) {
	if site, ok := m.Sites[id]; ok {
		return site, nil
	}
	return nil, domain.ErrSiteNotFound
}

// List retrieves all sites, newest first
func (m *MockSiteRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Site, error) {
	sites := []*domain.Site{}
	for _, site := range m.Sites {
		if activeOnly && !site.IsActive {
			continue
		}
		sites = append(sites, site)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].CreatedAt.After(sites[j].CreatedAt) })
	return sites, nil
}

// Update updates a site
func (m *MockSiteRepository) Update(ctx context.Context, site *domain.Site) (*domain.Site, error) {
	if _, ok := m.Sites[site.ID]; !ok {
		return nil, domain.ErrSiteNotFound
	}
	site.UpdatedAt = time.Now()
	m.Sites[site.ID] = site
	return site, nil
}

// Delete deletes a site
func (m *MockSiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.Sites[id]; !ok {
		return domain.ErrSiteNotFound
	}
	delete(m.Sites, id)
	return nil
}

// AddSite adds a site to the mock repository (helper for tests)
func (m *MockSiteRepository) AddSite(site *domain.Site) {
	m.Sites[site.ID] = site
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[uuid.UUID]*domain.Category
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{Categories: make(map[uuid.UUID]*domain.Category)}
}

// Create creates a new category
func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now
	m.Categories[category.ID] = category
	return category, nil
}

// GetByID retrieves a category by ID
func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	if category, ok := m.Categories[id]; ok {
		return category, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// ListBySite retrieves all categories of a site in creation order
func (m *MockCategoryRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, category := range m.Categories {
		if category.SiteID == siteID {
			categories = append(categories, category)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].CreatedAt.Equal(categories[j].CreatedAt) {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].CreatedAt.Before(categories[j].CreatedAt)
	})
	return categories, nil
}

// Update updates a category
func (m *MockCategoryRepository) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if _, ok := m.Categories[category.ID]; !ok {
		return nil, domain.ErrCategoryNotFound
	}
	category.UpdatedAt = time.Now()
	m.Categories[category.ID] = category
	return category, nil
}

// Delete deletes a category
func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.Categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(m.Categories, id)
	return nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	m.Categories[category.ID] = category
}

// MockIncomeRepository is a mock implementation of domain.IncomeRepository
type MockIncomeRepository struct {
	Incomes map[uuid.UUID]*domain.Income
}

// NewMockIncomeRepository creates a new MockIncomeRepository
func NewMockIncomeRepository() *MockIncomeRepository {
	return &MockIncomeRepository{Incomes: make(map[uuid.UUID]*domain.Income)}
}

// Create creates a new income record
func (m *MockIncomeRepository) Create(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	if income.ID == uuid.Nil {
		income.ID = uuid.New()
	}
	now := time.Now()
	income.CreatedAt = now
	income.UpdatedAt = now
	m.Incomes[income.ID] = income
	return income, nil
}

// GetByID retrieves an income record by ID
func (m *MockIncomeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Income, error) {
	if income, ok := m.Incomes[id]; ok {
		return income, nil
	}
	return nil, domain.ErrIncomeNotFound
}

// ListBySite retrieves all income records of a site, newest date first
func (m *MockIncomeRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*domain.Income, error) {
	incomes := []*domain.Income{}
	for _, income := range m.Incomes {
		if income.SiteID == siteID {
			incomes = append(incomes, income)
		}
	}
	sort.Slice(incomes, func(i, j int) bool { return incomes[i].Date.After(incomes[j].Date) })
	return incomes, nil
}

// Update updates an income record
func (m *MockIncomeRepository) Update(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	if _, ok := m.Incomes[income.ID]; !ok {
		return nil, domain.ErrIncomeNotFound
	}
	income.UpdatedAt = time.Now()
	m.Incomes[income.ID] = income
	return income, nil
}

// Delete deletes an income record
func (m *MockIncomeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.Incomes[id]; !ok {
		return domain.ErrIncomeNotFound
	}
	delete(m.Incomes, id)
	return nil
}

// MockExpenseRepository is a mock implementation of domain.ExpenseRepository
type MockExpenseRepository struct {
	Expenses map[uuid.UUID]*domain.Expense
}

// NewMockExpenseRepository creates a new MockExpenseRepository
func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{Expenses: make(map[uuid.UUID]*domain.Expense)}
}

// Create creates a new expense record
func (m *MockExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	now := time.Now()
	expense.CreatedAt = now
	expense.UpdatedAt = now
	m.Expenses[expense.ID] = expense
	return expense, nil
}

// GetByID retrieves an expense record by ID
func (m *MockExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	if expense, ok := m.Expenses[id]; ok {
		return expense, nil
	}
	return nil, domain.ErrExpenseNotFound
}

// ListBySite retrieves all expense records of a site, newest date first
func (m *MockExpenseRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*domain.Expense, error) {
	expenses := []*domain.Expense{}
	for _, expense := range m.Expenses {
		if expense.SiteID == siteID {
			expenses = append(expenses, expense)
		}
	}
	sort.Slice(expenses, func(i, j int) bool { return expenses[i].Date.After(expenses[j].Date) })
	return expenses, nil
}

// Update updates an expense record
func (m *MockExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if _, ok := m.Expenses[expense.ID]; !ok {
		return nil, domain.ErrExpenseNotFound
	}
	expense.UpdatedAt = time.Now()
	m.Expenses[expense.ID] = expense
	return expense, nil
}

// Delete deletes an expense record
func (m *MockExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.Expenses[id]; !ok {
		return domain.ErrExpenseNotFound
	}
	delete(m.Expenses, id)
	return nil
}

// MockDiaryRepository is a mock implementation of domain.DiaryRepository
type MockDiaryRepository struct {
	Entries map[uuid.UUID]*domain.DiaryEntry
}

// NewMockDiaryRepository creates a new MockDiaryRepository
func NewMockDiaryRepository() *MockDiaryRepository {
	return &MockDiaryRepository{Entries: make(map[uuid.UUID]*domain.DiaryEntry)}
}

// Create creates a new diary entry
func (m *MockDiaryRepository) Create(ctx context.Context, entry *domain.DiaryEntry) (*domain.DiaryEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	m.Entries[entry.ID] = entry
	return entry, nil
}

// GetByID retrieves a diary entry by ID
func (m *MockDiaryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DiaryEntry, error) {
	if entry, ok := m.Entries[id]; ok {
		return entry, nil
	}
	return nil, domain.ErrDiaryEntryNotFound
}

// ListBySite retrieves all diary entries of a site, newest record date first
func (m *MockDiaryRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*domain.DiaryEntry, error) {
	entries := []*domain.DiaryEntry{}
	for _, entry := range m.Entries {
		if entry.SiteID == siteID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].RecordDate.After(entries[j].RecordDate) })
	return entries, nil
}

// Update updates a diary entry
func (m *MockDiaryRepository) Update(ctx context.Context, entry *domain.DiaryEntry) (*domain.DiaryEntry, error) {
	if _, ok := m.Entries[entry.ID]; !ok {
		return nil, domain.ErrDiaryEntryNotFound
	}
	entry.UpdatedAt = time.Now()
	m.Entries[entry.ID] = entry
	return entry, nil
}

// Delete deletes a diary entry
func (m *MockDiaryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.Entries[id]; !ok {
		return domain.ErrDiaryEntryNotFound
	}
	delete(m.Entries, id)
	return nil
}

// MockAttachmentOwnerRepository is a mock implementation of domain.AttachmentOwnerRepository
// that reads and writes the Attachments field of records held by the entity mocks.
type MockAttachmentOwnerRepository struct {
	Sites      *MockSiteRepository
	Categories *MockCategoryRepository
	Incomes    *MockIncomeRepository
	Expenses   *MockExpenseRepository
	Diary      *MockDiaryRepository
	SetErr     error
}

// NewMockAttachmentOwnerRepository creates a new MockAttachmentOwnerRepository over the given entity mocks
func NewMockAttachmentOwnerRepository(
	sites *MockSiteRepository,
	categories *MockCategoryRepository,
	incomes *MockIncomeRepository,
	expenses *MockExpenseRepository,
	diary *MockDiaryRepository,
) *MockAttachmentOwnerRepository {
	return &MockAttachmentOwnerRepository{
		Sites:      sites,
		Categories: categories,
		Incomes:    incomes,
		Expenses:   expenses,
		Diary:      diary,
	}
}

func (m *MockAttachmentOwnerRepository) slot(owner domain.OwnerRef) (*domain.AttachmentSet, error) {
	switch owner.Kind {
	case domain.OwnerKindSite:
		if site, ok := m.Sites.Sites[owner.ID]; ok {
			return &site.Attachments, nil
		}
	case domain.OwnerKindCategory:
		if category, ok := m.Categories.Categories[owner.ID]; ok {
			return &category.Attachments, nil
		}
	case domain.OwnerKindIncome:
		if income, ok := m.Incomes.Incomes[owner.ID]; ok {
			return &income.Attachments, nil
		}
	case domain.OwnerKindExpense:
		if expense, ok := m.Expenses.Expenses[owner.ID]; ok {
			return &expense.Attachments, nil
		}
	case domain.OwnerKindDiary:
		if entry, ok := m.Diary.Entries[owner.ID]; ok {
			return &entry.Attachments, nil
		}
	default:
		return nil, domain.ErrInvalidInput
	}
	return nil, domain.ErrNotFound
}

// GetAttachments returns the owner's attachment set
func (m *MockAttachmentOwnerRepository) GetAttachments(ctx context.Context, owner domain.OwnerRef) (domain.AttachmentSet, error) {
	set, err := m.slot(owner)
	if err != nil {
		return domain.AttachmentSet{}, err
	}
	return *set, nil
}

// SetAttachments replaces the owner's attachment set
func (m *MockAttachmentOwnerRepository) SetAttachments(ctx context.Context, owner domain.OwnerRef, set domain.AttachmentSet) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	slot, err := m.slot(owner)
	if err != nil {
		return err
	}
	*slot = set
	return nil
}

// ListReferences returns every attachment of every record, ordered by owner kind then id
func (m *MockAttachmentOwnerRepository) ListReferences(ctx context.Context) ([]domain.AttachmentReference, error) {
	var refs []domain.AttachmentReference
	for _, kind := range domain.OwnerKinds {
		var ids []uuid.UUID
		switch kind {
		case domain.OwnerKindSite:
			for id := range m.Sites.Sites {
				ids = append(ids, id)
			}
		case domain.OwnerKindCategory:
			for id := range m.Categories.Categories {
				ids = append(ids, id)
			}
		case domain.OwnerKindIncome:
			for id := range m.Incomes.Incomes {
				ids = append(ids, id)
			}
		case domain.OwnerKindExpense:
			for id := range m.Expenses.Expenses {
				ids = append(ids, id)
			}
		case domain.OwnerKindDiary:
			for id := range m.Diary.Entries {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

		for _, id := range ids {
			owner := domain.OwnerRef{Kind: kind, ID: id}
			set, _ := m.slot(owner)
			for _, att := range set.All() {
				refs = append(refs, domain.AttachmentReference{Owner: owner, Attachment: att})
			}
		}
	}
	return refs, nil
}

// MockStorageBucket is the bucket name used in MockObjectStorage URLs
const MockStorageBucket = "bucket"

// MockObjectStorage is an in-memory implementation of domain.ObjectStorage.
// URLs look like https://storage.test/bucket/<path>?token=<n>.
type MockObjectStorage struct {
	Objects map[string]domain.StoredObject
	Data    map[string][]byte

	UploadErr  error
	DeleteErr  error
	ListErr    error
	ExistsErrs map[string]error

	Uploads     int
	DeleteCalls []string

	mu        sync.Mutex
	nextToken int
}

var _ domain.ObjectStorage = (*MockObjectStorage)(nil)

// NewMockObjectStorage creates a new MockObjectStorage
func NewMockObjectStorage() *MockObjectStorage {
	return &MockObjectStorage{
		Objects:    make(map[string]domain.StoredObject),
		Data:       make(map[string][]byte),
		ExistsErrs: make(map[string]error),
	}
}

// URLFor builds a fresh token-bearing URL for objectPath
func (m *MockObjectStorage) URLFor(objectPath string) string {
	m.nextToken++
	return fmt.Sprintf("https://storage.test/%s/%s?alt=media&token=tok-%d", MockStorageBucket, objectPath, m.nextToken)
}

// Put stores an object directly (helper for tests) and returns its URL
func (m *MockObjectStorage) Put(objectPath string, data []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := m.URLFor(objectPath)
	m.Objects[objectPath] = domain.StoredObject{
		Path:         objectPath,
		URL:          url,
		Size:         int64(len(data)),
		LastModified: time.Now(),
	}
	m.Data[objectPath] = data
	return url
}

// RotateTokens reissues every stored object's URL with a new token
func (m *MockObjectStorage) RotateTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for path, obj := range m.Objects {
		obj.URL = m.URLFor(path)
		m.Objects[path] = obj
	}
}

// Upload stores data at objectPath
func (m *MockObjectStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.Uploads++
	m.mu.Unlock()
	return m.Put(objectPath, buf.Bytes()), nil
}

// Delete removes an object; missing objects are not an error
func (m *MockObjectStorage) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, objectPath)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Objects, objectPath)
	delete(m.Data, objectPath)
	return nil
}

// Exists reports whether an object is stored, or the configured probe error
func (m *MockObjectStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.ExistsErrs[objectPath]; ok {
		return false, err
	}
	_, ok := m.Objects[objectPath]
	return ok, nil
}

// List returns every object under prefix, ordered by path
func (m *MockObjectStorage) List(ctx context.Context, prefix string) ([]domain.StoredObject, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var objects []domain.StoredObject
	for path, obj := range m.Objects {
		if strings.HasPrefix(path, prefix) {
			objects = append(objects, obj)
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })
	return objects, nil
}

// ResolveURL returns the current URL of an existing object
func (m *MockObjectStorage) ResolveURL(ctx context.Context, objectPath string) (string, error) {
	exists, err := m.Exists(ctx, objectPath)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", domain.ErrObjectNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Objects[objectPath].URL, nil
}

// ObjectPathFromURL extracts the object path from a mock storage URL
func (m *MockObjectStorage) ObjectPathFromURL(rawURL string) (string, bool) {
	return util.ExtractObjectPath(rawURL, MockStorageBucket, true)
}

// MockLocalStore is an in-memory implementation of domain.LocalStore with an optional byte quota
type MockLocalStore struct {
	Entries    map[string]string
	QuotaBytes int64 // 0 means unlimited
	SetErr     error
	mu         sync.Mutex
}

var _ domain.LocalStore = (*MockLocalStore)(nil)

// NewMockLocalStore creates a new MockLocalStore
func NewMockLocalStore() *MockLocalStore {
	return &MockLocalStore{Entries: make(map[string]string)}
}

// Get returns the value under key
func (m *MockLocalStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value, ok := m.Entries[key]; ok {
		return value, nil
	}
	return "", domain.ErrNotFound
}

// Set stores value under key, enforcing the quota
func (m *MockLocalStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.QuotaBytes > 0 {
		var used int64
		for k, v := range m.Entries {
			if k != key {
				used += int64(len(k) + len(v))
			}
		}
		if used+int64(len(key)+len(value)) > m.QuotaBytes {
			return domain.ErrLocalStorageFull
		}
	}
	m.Entries[key] = value
	return nil
}

// Delete removes key
func (m *MockLocalStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Entries[key]; !ok {
		return domain.ErrNotFound
	}
	delete(m.Entries, key)
	return nil
}

// Has reports whether key is present
func (m *MockLocalStore) Has(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Entries[key]
	return ok, nil
}

// Keys lists every key with the given prefix, sorted
func (m *MockLocalStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := []string{}
	for k := range m.Entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// PublishedEvent is one event captured by MockEventPublisher
type PublishedEvent struct {
	Channel string
	Event   websocket.Event
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	Events []PublishedEvent
	mu     sync.Mutex
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(channel string, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{Channel: channel, Event: event})
}

// Types returns the published event types in order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Event.Type
	}
	return types
}
