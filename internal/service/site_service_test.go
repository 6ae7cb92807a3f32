package service

import (
	"context"
	"strings"
	"testing"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/repository/localstore"
	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSiteService(env *testEnv) *SiteService {
	svc := NewSiteService(env.sites, env.categories, env.incomes, env.expenses, env.diary)
	svc.SetEventPublisher(env.publisher)
	svc.SetAttachmentService(env.attachments)
	return svc
}

func TestCreateSite_Success(t *testing.T) {
	env := newTestEnv()
	svc := newTestSiteService(env)
	description := "  Six storey residential  "

	site, err := svc.CreateSite(context.Background(), SiteInput{
		Name:        "  Harbour Tower  ",
		Description: &description,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, site.ID)
	assert.Equal(t, "Harbour Tower", site.Name)
	require.NotNil(t, site.Description)
	assert.Equal(t, "Six storey residential", *site.Description)
	assert.Nil(t, site.Comment)
	assert.True(t, site.IsActive)

	require.Len(t, env.publisher.Events, 2)
	assert.Equal(t, websocket.GlobalChannel, env.publisher.Events[0].Channel)
	assert.Equal(t, websocket.SiteChannel(site.ID), env.publisher.Events[1].Channel)
	assert.Equal(t, "site.created", env.publisher.Events[0].Event.Type)
}

func TestCreateSite_Validation(t *testing.T) {
	env := newTestEnv()
	svc := newTestSiteService(env)

	_, err := svc.CreateSite(context.Background(), SiteInput{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrNameRequired)

	_, err = svc.CreateSite(context.Background(), SiteInput{Name: strings.Repeat("x", domain.MaxSiteNameLength+1)})
	assert.ErrorIs(t, err, domain.ErrNameTooLong)

	assert.Empty(t, env.sites.Sites)
	assert.Empty(t, env.publisher.Events)
}

func TestListSites_ActiveOnly(t *testing.T) {
	env := newTestEnv()
	svc := newTestSiteService(env)
	inactive := false

	_, err := svc.CreateSite(context.Background(), SiteInput{Name: "Open"})
	require.NoError(t, err)
	_, err = svc.CreateSite(context.Background(), SiteInput{Name: "Closed", IsActive: &inactive})
	require.NoError(t, err)

	all, err := svc.ListSites(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListSites(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Open", active[0].Name)
}

func TestUpdateSite_KeepsAttachments(t *testing.T) {
	env := newTestEnv()
	svc := newTestSiteService(env)
	site := env.addSite("Old name")
	site.Attachments.Add(domain.NewLocalAttachment(domain.AttachmentKindImage, "img-1"))
	inactive := false

	updated, err := svc.UpdateSite(context.Background(), site.ID, SiteInput{Name: "New name", IsActive: &inactive})
	require.NoError(t, err)

	assert.Equal(t, "New name", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 1, updated.Attachments.Len())
}

func TestUpdateSite_NotFound(t *testing.T) {
	env := newTestEnv()
	svc := newTestSiteService(env)

	_, err := svc.UpdateSite(context.Background(), uuid.New(), SiteInput{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrSiteNotFound)
}

func TestDeleteSite_PurgesAttachmentsOfSiteAndRecords(t *testing.T) {
	env := newTestEnv()
	svc := newTestSiteService(env)
	site := env.addSite("Harbour Tower")
	category := env.addCategory(site.ID, "Steel", 1000)
	expense := env.addExpense(site.ID, category.ID, 100)

	sitePath := "sites/" + site.ID.String() + "/documents/1_permit.pdf"
	expensePath := "expenses/" + expense.ID.String() + "/images/2_receipt.jpg"
	site.Attachments.Add(domain.NewCloudAttachment(domain.AttachmentKindDocument, env.storage.Put(sitePath, pdfBytes)))
	expense.Attachments.Add(domain.NewCloudAttachment(domain.AttachmentKindImage, env.storage.Put(expensePath, []byte("r"))))
	category.Attachments.Add(domain.NewLocalAttachment(domain.AttachmentKindImage, "cat-img"))
	env.local.Entries[localstore.AttachmentKey(domain.AttachmentKindImage, category.ID, "cat-img")] = "data:,x"

	// Unreachable storage must not block the delete
	otherURL := env.storage.URLFor("sites/" + site.ID.String() + "/images/3_gone.jpg")
	site.Attachments.Add(domain.NewCloudAttachment(domain.AttachmentKindImage, otherURL))

	require.NoError(t, svc.DeleteSite(context.Background(), site.ID))

	assert.NotContains(t, env.sites.Sites, site.ID)
	assert.Empty(t, env.storage.Objects)
	assert.Empty(t, env.local.Entries)
	assert.Equal(t, "site.deleted", env.publisher.Events[len(env.publisher.Events)-1].Event.Type)
}

func TestDeleteSite_NotFound(t *testing.T) {
	env := newTestEnv()
	svc := newTestSiteService(env)

	err := svc.DeleteSite(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrSiteNotFound)
}
