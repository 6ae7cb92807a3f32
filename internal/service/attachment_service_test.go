package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/repository/localstore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentService_Save_CloudImage(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}

	saved, err := env.attachments.Save(context.Background(), owner, domain.AttachmentKindImage, FileUpload{
		Filename: "Front Gate.png",
		Data:     pngBytes(t, 40, 30),
	})
	require.NoError(t, err)
	require.NoError(t, saved.Validate())

	assert.Equal(t, domain.LocationCloud, saved.Location)
	assert.Equal(t, domain.AttachmentKindImage, saved.Kind)
	assert.Empty(t, saved.ID)

	path, ok := env.storage.ObjectPathFromURL(saved.URL)
	require.True(t, ok)
	assert.Equal(t, "sites/"+site.ID.String()+"/images/1773480600000_Front_Gate.jpg", path)
	assert.Contains(t, env.storage.Objects, path)
	assert.Empty(t, env.local.Entries)
}

func TestAttachmentService_Save_CloudDocument(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}

	saved, err := env.attachments.Save(context.Background(), owner, domain.AttachmentKindDocument, FileUpload{
		Filename: "contract.pdf",
		Data:     pdfBytes,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.LocationCloud, saved.Location)
	path, ok := env.storage.ObjectPathFromURL(saved.URL)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(path, "_contract.pdf"))
	assert.Equal(t, pdfBytes, env.storage.Data[path])
}

func TestAttachmentService_Save_FallsBackToLocalStore(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}
	env.storage.UploadErr = &domain.UploadError{Code: domain.UploadErrorUnauthorized, Err: errors.New("AccessDenied")}

	saved, err := env.attachments.Save(context.Background(), owner, domain.AttachmentKindImage, FileUpload{
		Filename: "slab.png",
		Data:     pngBytes(t, 20, 20),
	})
	require.NoError(t, err)
	require.NoError(t, saved.Validate())

	assert.Equal(t, domain.LocationLocal, saved.Location)
	assert.NotEmpty(t, saved.ID)
	assert.Empty(t, saved.URL)

	key := localstore.AttachmentKey(domain.AttachmentKindImage, site.ID, saved.ID)
	require.Contains(t, env.local.Entries, key)

	resolved, err := env.attachments.Resolve(context.Background(), owner, *saved)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resolved, "data:image/jpeg;base64,"))
	assert.Empty(t, env.storage.Objects)
}

func TestAttachmentService_Save_NoStorageConfigured(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}
	svc := NewAttachmentService(nil, env.local, env.owners, testAttachmentConfig(), zerolog.Nop())

	saved, err := svc.Save(context.Background(), owner, domain.AttachmentKindDocument, FileUpload{
		Filename: "notes.txt",
		Data:     []byte("pour scheduled for tuesday"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LocationLocal, saved.Location)

	value := env.local.Entries[localstore.AttachmentKey(domain.AttachmentKindDocument, site.ID, saved.ID)]
	assert.True(t, strings.HasPrefix(value, "data:text/plain"))
}

func TestAttachmentService_Save_LocalStoreFull(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}
	env.storage.UploadErr = errors.New("network down")
	env.local.QuotaBytes = 64

	_, err := env.attachments.Save(context.Background(), owner, domain.AttachmentKindDocument, FileUpload{
		Filename: "contract.pdf",
		Data:     pdfBytes,
	})
	assert.ErrorIs(t, err, domain.ErrLocalStorageFull)
	assert.Empty(t, env.local.Entries)
}

func TestAttachmentService_Save_Validation(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}

	tests := []struct {
		name    string
		owner   domain.OwnerRef
		kind    domain.AttachmentKind
		file    FileUpload
		wantErr error
	}{
		{
			name:    "unknown owner kind",
			owner:   domain.OwnerRef{Kind: "projects", ID: site.ID},
			kind:    domain.AttachmentKindImage,
			file:    FileUpload{Filename: "a.png", Data: pngBytes(t, 2, 2)},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "unknown attachment kind",
			owner:   owner,
			kind:    "videos",
			file:    FileUpload{Filename: "a.mp4", Data: []byte("x")},
			wantErr: domain.ErrInvalidAttachmentKind,
		},
		{
			name:    "empty file",
			owner:   owner,
			kind:    domain.AttachmentKindDocument,
			file:    FileUpload{Filename: "a.pdf"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "not an image",
			owner:   owner,
			kind:    domain.AttachmentKindImage,
			file:    FileUpload{Filename: "a.png", Data: []byte("definitely not pixels")},
			wantErr: domain.ErrInvalidImageData,
		},
		{
			name:    "executable document",
			owner:   owner,
			kind:    domain.AttachmentKindDocument,
			file:    FileUpload{Filename: "setup.pdf", Data: append([]byte("\x7fELF\x02\x01\x01"), make([]byte, 64)...)},
			wantErr: domain.ErrUnsupportedFileType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.attachments.Save(context.Background(), tt.owner, tt.kind, tt.file)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 0, env.storage.Uploads)
}

func TestAttachmentService_Save_FileTooLarge(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}

	_, err := env.attachments.Save(context.Background(), owner, domain.AttachmentKindDocument, FileUpload{
		Filename: "huge.txt",
		Data:     []byte(strings.Repeat("a", (1<<20)+1)),
	})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestAttachmentService_SaveBatch_AggregatesErrors(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}

	result := env.attachments.SaveBatch(context.Background(), owner, domain.AttachmentKindDocument, []FileUpload{
		{Filename: "contract.pdf", Data: pdfBytes},
		{Filename: "empty.pdf"},
		{Filename: "notes.txt", Data: []byte("site visit notes")},
	})

	require.Len(t, result.Saved, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "empty.pdf", result.Errors[0].Filename)
	assert.NotEmpty(t, result.Errors[0].Message)
	assert.Error(t, result.Errors[0].Err)
}

func TestAttachmentService_SaveBatch_CanceledContext(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := env.attachments.SaveBatch(ctx, owner, domain.AttachmentKindDocument, []FileUpload{
		{Filename: "a.pdf", Data: pdfBytes},
		{Filename: "b.pdf", Data: pdfBytes},
	})

	assert.Empty(t, result.Saved)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, 0, env.storage.Uploads)
}

func TestAttachmentService_Delete(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}
	ctx := context.Background()

	t.Run("cloud object deleted", func(t *testing.T) {
		url := env.storage.Put("sites/"+site.ID.String()+"/images/1_a.jpg", []byte("a"))
		result := env.attachments.Delete(ctx, owner, domain.NewCloudAttachment(domain.AttachmentKindImage, url))
		assert.Equal(t, domain.DeletionDeleted, result.Status)
		assert.Empty(t, result.Error())
	})

	t.Run("cloud object already gone", func(t *testing.T) {
		url := env.storage.URLFor("sites/" + site.ID.String() + "/images/2_gone.jpg")
		result := env.attachments.Delete(ctx, owner, domain.NewCloudAttachment(domain.AttachmentKindImage, url))
		assert.Equal(t, domain.DeletionNotFound, result.Status)
	})

	t.Run("cloud delete fails", func(t *testing.T) {
		url := env.storage.Put("sites/"+site.ID.String()+"/images/3_b.jpg", []byte("b"))
		env.storage.DeleteErr = errors.New("permission denied")
		defer func() { env.storage.DeleteErr = nil }()

		result := env.attachments.Delete(ctx, owner, domain.NewCloudAttachment(domain.AttachmentKindImage, url))
		assert.Equal(t, domain.DeletionFailed, result.Status)
		assert.Contains(t, result.Error(), "permission denied")
	})

	t.Run("foreign url fails", func(t *testing.T) {
		result := env.attachments.Delete(ctx, owner, domain.NewCloudAttachment(domain.AttachmentKindImage, "https://elsewhere.test/x.jpg"))
		assert.Equal(t, domain.DeletionFailed, result.Status)
	})

	t.Run("local entry deleted", func(t *testing.T) {
		key := localstore.AttachmentKey(domain.AttachmentKindDocument, site.ID, "doc-1")
		env.local.Entries[key] = "data:text/plain;base64,eA=="

		result := env.attachments.Delete(ctx, owner, domain.NewLocalAttachment(domain.AttachmentKindDocument, "doc-1"))
		assert.Equal(t, domain.DeletionDeleted, result.Status)
		assert.NotContains(t, env.local.Entries, key)
	})

	t.Run("local entry missing", func(t *testing.T) {
		result := env.attachments.Delete(ctx, owner, domain.NewLocalAttachment(domain.AttachmentKindDocument, "doc-404"))
		assert.Equal(t, domain.DeletionNotFound, result.Status)
	})

	t.Run("malformed attachment", func(t *testing.T) {
		result := env.attachments.Delete(ctx, owner, domain.SavedAttachment{Kind: domain.AttachmentKindImage, Location: domain.LocationCloud})
		assert.Equal(t, domain.DeletionFailed, result.Status)
		assert.ErrorIs(t, result.Err, domain.ErrInvalidAttachment)
	})
}

func TestAttachmentService_Resolve_Missing(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}
	ctx := context.Background()

	_, err := env.attachments.Resolve(ctx, owner, domain.NewLocalAttachment(domain.AttachmentKindImage, "nope"))
	assert.ErrorIs(t, err, domain.ErrAttachmentNotFound)

	url := env.storage.URLFor("sites/" + site.ID.String() + "/images/1_gone.jpg")
	_, err = env.attachments.Resolve(ctx, owner, domain.NewCloudAttachment(domain.AttachmentKindImage, url))
	assert.ErrorIs(t, err, domain.ErrAttachmentNotFound)
}

func TestAttachmentService_Resolve_RotatedToken(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}
	path := "sites/" + site.ID.String() + "/images/1_a.jpg"
	oldURL := env.storage.Put(path, []byte("a"))
	env.storage.RotateTokens()

	resolved, err := env.attachments.Resolve(context.Background(), owner, domain.NewCloudAttachment(domain.AttachmentKindImage, oldURL))
	require.NoError(t, err)
	assert.NotEqual(t, oldURL, resolved)
	assert.Equal(t, env.storage.Objects[path].URL, resolved)
}

func TestAttachmentService_Attach(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	category := env.addCategory(site.ID, "Concrete", 100000)
	expense := env.addExpense(site.ID, category.ID, 30000)
	owner := domain.OwnerRef{Kind: domain.OwnerKindExpense, ID: expense.ID}

	result, err := env.attachments.Attach(context.Background(), owner, domain.AttachmentKindImage, []FileUpload{
		{Filename: "receipt.png", Data: pngBytes(t, 10, 10)},
		{Filename: "broken.png", Data: []byte("nope")},
	})
	require.NoError(t, err)

	assert.Len(t, result.Saved, 1)
	assert.Len(t, result.Errors, 1)
	assert.Len(t, expense.Attachments.URLs(domain.AttachmentKindImage), 1)
	assert.Equal(t, expense.Attachments, result.Attachments)
	assert.Equal(t, []string{"attachment.attached"}, env.publisher.Types())
}

func TestAttachmentService_Attach_RollsBackUploadsWhenRecordWriteFails(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}
	env.owners.SetErr = errors.New("db down")

	_, err := env.attachments.Attach(context.Background(), owner, domain.AttachmentKindDocument, []FileUpload{
		{Filename: "contract.pdf", Data: pdfBytes},
	})
	require.Error(t, err)

	assert.Len(t, env.storage.DeleteCalls, 1)
	assert.Empty(t, env.storage.Objects)
	assert.True(t, site.Attachments.IsEmpty())
}

func TestAttachmentService_Attach_OwnerNotFound(t *testing.T) {
	env := newTestEnv()
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: uuid.New()}

	_, err := env.attachments.Attach(context.Background(), owner, domain.AttachmentKindDocument, []FileUpload{
		{Filename: "contract.pdf", Data: pdfBytes},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, env.storage.Uploads)
}

func TestAttachmentService_Detach(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}
	ctx := context.Background()

	keepPath := "sites/" + site.ID.String() + "/documents/1_keep.pdf"
	purgePath := "sites/" + site.ID.String() + "/documents/2_purge.pdf"
	keep := domain.NewCloudAttachment(domain.AttachmentKindDocument, env.storage.Put(keepPath, pdfBytes))
	purge := domain.NewCloudAttachment(domain.AttachmentKindDocument, env.storage.Put(purgePath, pdfBytes))
	site.Attachments.Add(keep)
	site.Attachments.Add(purge)

	result, err := env.attachments.Detach(ctx, owner, keep, false)
	require.NoError(t, err)
	assert.Nil(t, result.Deletion)
	assert.False(t, site.Attachments.HasURL(keep.URL))
	assert.Contains(t, env.storage.Objects, keepPath)

	result, err = env.attachments.Detach(ctx, owner, purge, true)
	require.NoError(t, err)
	require.NotNil(t, result.Deletion)
	assert.Equal(t, domain.DeletionDeleted, result.Deletion.Status)
	assert.NotContains(t, env.storage.Objects, purgePath)
	assert.True(t, site.Attachments.IsEmpty())

	_, err = env.attachments.Detach(ctx, owner, keep, false)
	assert.ErrorIs(t, err, domain.ErrAttachmentNotFound)
}

func TestAttachmentService_AddressByURLWithoutKind(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}
	ctx := context.Background()

	path := "sites/" + site.ID.String() + "/images/1_gate.jpg"
	objectURL := env.storage.Put(path, []byte("jpeg"))
	site.Attachments.Add(domain.NewCloudAttachment(domain.AttachmentKindImage, objectURL))
	byURL := domain.SavedAttachment{Location: domain.LocationCloud, URL: objectURL}

	resolved, err := env.attachments.Resolve(ctx, owner, byURL)
	require.NoError(t, err)
	assert.Equal(t, objectURL, resolved)

	result, err := env.attachments.Detach(ctx, owner, byURL, true)
	require.NoError(t, err)
	require.NotNil(t, result.Deletion)
	assert.Equal(t, domain.DeletionDeleted, result.Deletion.Status)
	assert.True(t, site.Attachments.IsEmpty())

	_, err = env.attachments.Resolve(ctx, owner, byURL)
	assert.ErrorIs(t, err, domain.ErrAttachmentNotFound)
	_, err = env.attachments.Detach(ctx, owner, byURL, false)
	assert.ErrorIs(t, err, domain.ErrAttachmentNotFound)
}

func TestAttachmentService_PurgeAll(t *testing.T) {
	env := newTestEnv()
	site := env.addSite("Riverside")
	owner := domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}

	var set domain.AttachmentSet
	set.Add(domain.NewCloudAttachment(domain.AttachmentKindImage, env.storage.Put("sites/"+site.ID.String()+"/images/1_a.jpg", []byte("a"))))
	set.Add(domain.NewCloudAttachment(domain.AttachmentKindImage, env.storage.URLFor("sites/"+site.ID.String()+"/images/2_gone.jpg")))
	set.Add(domain.NewLocalAttachment(domain.AttachmentKindDocument, "doc-1"))
	env.local.Entries[localstore.AttachmentKey(domain.AttachmentKindDocument, site.ID, "doc-1")] = "data:,x"

	env.attachments.PurgeAll(context.Background(), owner, set)

	assert.Empty(t, env.storage.Objects)
	assert.Empty(t, env.local.Entries)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"Site Plan v2.pdf", "Site_Plan_v2.pdf"},
		{"Café Menü.txt", "Cafe_Menu.txt"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\foreman\photo.jpeg`, "photo.jpeg"},
		{"日本.txt", "__.txt"},
		{"", "file"},
		{"...", "file"},
		{"a&b=c.csv", "a_b_c.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}
