package docbase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/docbase/ai/mock"
	"github.com/poiesic/docbase/core"
	"github.com/poiesic/docbase/ingestion"
	"github.com/poiesic/docbase/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase("",
		WithInMemory(),
		WithProvider(mock.NewMockProvider()),
		WithPipelineOptions(ingestion.WithRetryPolicy(1, time.Millisecond)),
		WithRetrieverOptions(
			retrieval.WithRetryPolicy(1, time.Millisecond),
			retrieval.WithMinSimilarity(-1),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.DocumentRepository())
		assert.NotNil(t, db.JobRepository())
		assert.NotNil(t, db.IndexRepository())
		assert.NotNil(t, db.Pipeline())
		assert.NotNil(t, db.Retriever())
		assert.NotNil(t, db.Router())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)

	assert.NoError(t, db.Close())
}

func TestDatabase_EndToEnd(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	job, err := db.Pipeline().Submit(ctx, ingestion.Upload{
		Filename: "handbook.txt",
		Data:     []byte("vacation accrues at 1.5 days per month for all staff"),
	})
	require.NoError(t, err)

	docID := core.DocumentID("handbook.txt")
	require.Eventually(t, func() bool {
		snap, err := db.Pipeline().Status(ctx, docID)
		return err == nil && snap.State == core.JobStateReady && snap.JobId == job.Id
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := db.Router().Ask(ctx, "what does the handbook say about vacation?", "s1", 0)
	require.NoError(t, err)
	assert.Contains(t, resp.Source, "handbook.txt")

	docs, err := db.DocumentRepository().ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "handbook.txt", docs[0].Filename)
}
