package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/docbase/core"
	"github.com/poiesic/docbase/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepos(t *testing.T) (storage.DocumentRepository, storage.JobRepository, storage.IndexRepository) {
	t.Helper()

	docs, jobs, index, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return docs, jobs, index
}

func TestDocumentPutGet(t *testing.T) {
	docs, _, _ := setupRepos(t)
	ctx := context.Background()

	doc := &core.Document{
		Id:           core.DocumentID("handbook.pdf"),
		Filename:     "handbook.pdf",
		OriginalName: "Handbook.pdf",
		SessionTag:   "s1",
		SizeBytes:    4096,
		SourceURL:    "/files/handbook.pdf",
	}
	require.NoError(t, docs.PutDocument(ctx, doc))
	assert.False(t, doc.UploadedAt.IsZero(), "UploadedAt should be set on put")

	got, err := docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, doc.SizeBytes, got.SizeBytes)
}

func TestDocumentGetMissing(t *testing.T) {
	docs, _, _ := setupRepos(t)

	_, err := docs.GetDocument(context.Background(), core.ID(404))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentPutReplaces(t *testing.T) {
	docs, _, _ := setupRepos(t)
	ctx := context.Background()

	doc := &core.Document{
		Id:       core.DocumentID("a.txt"),
		Filename: "a.txt",
	}
	require.NoError(t, docs.PutDocument(ctx, doc))

	doc.SizeBytes = 99
	doc.UploadedAt = time.Now().UTC()
	require.NoError(t, docs.PutDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.SizeBytes)
}

func TestDocumentList(t *testing.T) {
	docs, _, _ := setupRepos(t)
	ctx := context.Background()

	for _, name := range []string{"zeta.pdf", "alpha.txt", "mid.md"} {
		require.NoError(t, docs.PutDocument(ctx, &core.Document{
			Id:       core.DocumentID(name),
			Filename: name,
		}))
	}

	list, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alpha.txt", list[0].Filename)
	assert.Equal(t, "mid.md", list[1].Filename)
	assert.Equal(t, "zeta.pdf", list[2].Filename)
}

func TestDocumentDelete(t *testing.T) {
	docs, _, _ := setupRepos(t)
	ctx := context.Background()

	doc := &core.Document{Id: core.ID(1), Filename: "x.txt"}
	require.NoError(t, docs.PutDocument(ctx, doc))
	require.NoError(t, docs.DeleteDocument(ctx, doc.Id))

	_, err := docs.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, docs.DeleteDocument(ctx, doc.Id), storage.ErrNotFound)
}

func TestDocumentPutInvalid(t *testing.T) {
	docs, _, _ := setupRepos(t)

	err := docs.PutDocument(context.Background(), &core.Document{Id: core.ID(1)})
	assert.Error(t, err)
}
