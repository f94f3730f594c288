// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docbase/agent"
	"github.com/poiesic/docbase/core"
	"github.com/poiesic/docbase/ingestion"
	"github.com/poiesic/docbase/storage"
)

// Server exposes the knowledge base over HTTP.
type Server struct {
	pipeline  *ingestion.Pipeline
	router    *agent.Router
	documents storage.DocumentRepository
	engine    *gin.Engine
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an HTTP server over the given pipeline, agent router
// and document repository.
func NewServer(pipeline *ingestion.Pipeline, router *agent.Router, documents storage.DocumentRepository, opts ...Option) *Server {
	s := &Server{
		pipeline:  pipeline,
		router:    router,
		documents: documents,
		logger:    slog.Default().With("component", "http"),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/", s.handleHealth)
	engine.POST("/upload", s.handleUpload)
	engine.GET("/status/:filename", s.handleStatus)
	engine.POST("/ask", s.handleAsk)
	engine.GET("/files", s.handleFiles)

	s.engine = engine
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.engine.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type uploadResponse struct {
	JobId      string `json:"job_id"`
	DocumentId uint64 `json:"document_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
}

func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}

	job, err := s.pipeline.Submit(c.Request.Context(), ingestion.Upload{
		Filename:   fileHeader.Filename,
		SessionTag: c.PostForm("session_id"),
		Data:       data,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, uploadResponse{
		JobId:      job.Id,
		DocumentId: uint64(job.DocumentId),
		Filename:   core.SanitizeFilename(fileHeader.Filename),
		Status:     job.State.String(),
	})
}

type statusResponse struct {
	Filename   string `json:"filename"`
	DocumentId uint64 `json:"document_id"`
	JobId      string `json:"job_id,omitempty"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
	Pages      int    `json:"pages,omitempty"`
	Chunks     int    `json:"chunks,omitempty"`
}

func (s *Server) handleStatus(c *gin.Context) {
	name := core.SanitizeFilename(c.Param("filename"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filename"})
		return
	}
	docID := core.DocumentID(name)

	snap, err := s.pipeline.Status(c.Request.Context(), docID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if snap.State == core.JobStateUnknown {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	c.JSON(http.StatusOK, statusResponse{
		Filename:   name,
		DocumentId: uint64(docID),
		JobId:      snap.JobId,
		Status:     snap.State.String(),
		Detail:     snap.Detail,
		Pages:      snap.PageCount,
		Chunks:     snap.ChunkCount,
	})
}

type askRequest struct {
	Query      string `json:"query" binding:"required"`
	SessionId  string `json:"session_id"`
	TargetFile string `json:"target_file"`
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	sessionID := req.SessionId
	if sessionID == "" {
		sessionID = "default"
	}

	var scope core.ID
	if req.TargetFile != "" {
		name := core.SanitizeFilename(req.TargetFile)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_file"})
			return
		}
		scope = core.DocumentID(name)
	}

	resp, err := s.router.Ask(c.Request.Context(), req.Query, sessionID, scope)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer": resp.Answer,
		"source": resp.Source,
	})
}

type fileInfo struct {
	Filename   string `json:"filename"`
	DocumentId uint64 `json:"document_id"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedAt string `json:"uploaded_at"`
	Status     string `json:"status"`
}

func (s *Server) handleFiles(c *gin.Context) {
	docs, err := s.documents.ListDocuments(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	files := make([]fileInfo, 0, len(docs))
	for _, doc := range docs {
		snap, err := s.pipeline.Status(c.Request.Context(), doc.Id)
		if err != nil {
			s.writeError(c, err)
			return
		}
		files = append(files, fileInfo{
			Filename:   doc.Filename,
			DocumentId: uint64(doc.Id),
			SizeBytes:  doc.SizeBytes,
			UploadedAt: doc.UploadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Status:     snap.State.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrDocumentTooLarge),
		errors.Is(err, core.ErrUnsupportedFormat),
		errors.Is(err, core.ErrEmptyFilename),
		errors.Is(err, core.ErrExtractionFailed),
		errors.Is(err, ingestion.ErrEmptyUpload),
		errors.Is(err, agent.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
