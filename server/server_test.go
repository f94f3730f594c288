package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/docbase/agent"
	"github.com/poiesic/docbase/ai/mock"
	"github.com/poiesic/docbase/chunker"
	"github.com/poiesic/docbase/core"
	"github.com/poiesic/docbase/extract"
	"github.com/poiesic/docbase/ingestion"
	"github.com/poiesic/docbase/retrieval"
	"github.com/poiesic/docbase/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) *Server {
	t.Helper()

	docs, jobs, index, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewMockProvider()

	pipeline, err := ingestion.NewPipeline(
		docs, jobs, index,
		provider.Embedder(),
		extract.NewRegistry(),
		chunker.New(chunker.DefaultConfig()),
		ingestion.NewTracker(),
		ingestion.WithPoolSize(2),
		ingestion.WithRetryPolicy(1, time.Millisecond),
		ingestion.WithMaxDocumentBytes(1<<20),
	)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	retriever, err := retrieval.NewRetriever(index, provider.Embedder(),
		retrieval.WithRetryPolicy(1, time.Millisecond),
		retrieval.WithMinSimilarity(-1),
	)
	require.NoError(t, err)

	router, err := agent.NewRouter(retriever, provider.Responder())
	require.NoError(t, err)

	return NewServer(pipeline, router, docs)
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func doUpload(t *testing.T, srv *Server, filename, content string) map[string]any {
	t.Helper()

	body, contentType := multipartUpload(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func waitReady(t *testing.T, srv *Server, filename string) {
	t.Helper()

	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/status/"+filename, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			return false
		}
		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			return false
		}
		return resp["status"] == "ready"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestHealth(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUploadAccepted(t *testing.T) {
	srv := setupServer(t)

	resp := doUpload(t, srv, "notes.txt", "the quarterly report shows growth")
	assert.Equal(t, "queued", resp["status"])
	assert.Equal(t, "notes.txt", resp["filename"])
	assert.NotEmpty(t, resp["job_id"])
}

func TestUploadUnsupportedFormat(t *testing.T) {
	srv := setupServer(t)

	body, contentType := multipartUpload(t, "photo.png", "not text")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadMissingFile(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusLifecycle(t *testing.T) {
	srv := setupServer(t)

	doUpload(t, srv, "notes.txt", strings.Repeat("policy text for the handbook. ", 40))
	waitReady(t, srv, "notes.txt")

	req := httptest.NewRequest(http.MethodGet, "/status/notes.txt", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp["status"])
	assert.Greater(t, resp["chunks"], float64(0))
}

func TestStatusUnknownDocument(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status/ghost.pdf", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAskGrounded(t *testing.T) {
	srv := setupServer(t)

	doUpload(t, srv, "handbook.txt", "vacation accrues at 1.5 days per month for all staff")
	waitReady(t, srv, "handbook.txt")

	body := `{"query": "what does the handbook say about vacation?", "session_id": "s1"}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Answer string                    `json:"answer"`
		Source map[string]*core.Citation `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Answer)
	assert.Contains(t, resp.Source, "handbook.txt")
}

func TestAskMissingQuery(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"session_id":"s"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilesListing(t *testing.T) {
	srv := setupServer(t)

	doUpload(t, srv, "a.txt", "first document")
	doUpload(t, srv, "b.txt", "second document")
	waitReady(t, srv, "a.txt")
	waitReady(t, srv, "b.txt")

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Files []struct {
			Filename string `json:"filename"`
			Status   string `json:"status"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 2)
	assert.Equal(t, "a.txt", resp.Files[0].Filename)
	assert.Equal(t, "ready", resp.Files[0].Status)
	assert.Equal(t, "b.txt", resp.Files[1].Filename)
}
