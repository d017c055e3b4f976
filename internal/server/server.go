// Package server provides the HTTP API server for wordline
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shivavenkatesh/wordline/internal/extract"
	"github.com/shivavenkatesh/wordline/internal/logging"
	"github.com/shivavenkatesh/wordline/internal/store"
	"github.com/shivavenkatesh/wordline/internal/transcript"
	"github.com/shivavenkatesh/wordline/pkg/types"
)

// Server is the HTTP API server
type Server struct {
	svc    transcript.Service
	config Config
	engine *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// Config configures the server
type Config struct {
	Host        string
	Port        int
	MaxUploadMB int
	Version     string
}

// New creates a new server with all routes registered
func New(svc transcript.Service, cfg Config, logger *slog.Logger) *Server {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 20
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if logger == nil {
		logger = logging.Discard()
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		svc:    svc,
		config: cfg,
		engine: gin.New(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), requestLogger(s.logger), corsMiddleware())

	r.GET("/health", s.handleHealth)
	r.POST("/segment", s.handleSegment)
	r.POST("/parse", s.handleParse)
	r.POST("/reassemble", s.handleReassemble)
	r.POST("/upload", s.handleUpload)
	r.POST("/index", s.handleIndex)
	r.GET("/stats", s.handleStats)

	t := r.Group("/transcripts")
	t.POST("", s.handleIngest)
	t.GET("", s.handleList)
	t.GET("/:id", s.handleGet)
	t.GET("/:id/chunks", s.handleChunks)
	t.GET("/:id/markdown", s.handleMarkdown)
	t.DELETE("/:id", s.handleDelete)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // directory indexing can be slow
		IdleTimeout:  60 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// corsMiddleware allows browser clients on other origins
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"ms", time.Since(start).Milliseconds())
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.config.Version})
}

// handleSegment handles POST /segment
func (s *Server) handleSegment(c *gin.Context) {
	var req types.SegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.svc.Segment(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleParse handles POST /parse
func (s *Server) handleParse(c *gin.Context) {
	var req types.ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.svc.Parse(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleReassemble handles POST /reassemble
func (s *Server) handleReassemble(c *gin.Context) {
	var req types.ReassembleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.svc.Reassemble(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleUpload handles POST /upload (multipart "file"). With store=true the
// document is ingested, otherwise it is only segmented.
func (s *Server) handleUpload(c *gin.Context) {
	limit := int64(s.config.MaxUploadMB) << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.config.MaxUploadMB))
			return
		}
		writeError(c, http.StatusBadRequest, "file is required")
		return
	}

	f, err := header.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, err)
		return
	}

	doc, err := extract.Extract(header.Filename, data)
	if err != nil {
		s.fail(c, err)
		return
	}

	if c.PostForm("store") == "true" {
		t, err := s.svc.Ingest(c.Request.Context(), types.IngestRequest{
			Name:    doc.Name,
			Project: c.PostForm("project"),
			Text:    doc.Text,
			Format:  string(doc.Format),
		})
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
		return
	}

	result, err := s.svc.Segment(c.Request.Context(), types.SegmentRequest{Text: doc.Text})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":   doc.Name,
		"format": doc.Format,
		"result": result,
	})
}

// handleIngest handles POST /transcripts
func (s *Server) handleIngest(c *gin.Context) {
	var req types.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := s.svc.Ingest(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// handleList handles GET /transcripts
func (s *Server) handleList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := s.svc.List(c.Request.Context(), store.ListOptions{
		Project:    c.Query("project"),
		Format:     c.Query("format"),
		Speaker:    c.Query("speaker"),
		Limit:      limit,
		Offset:     offset,
		OrderBy:    c.Query("order_by"),
		Descending: c.Query("desc") == "true",
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	if list == nil {
		list = []*types.Transcript{}
	}
	c.JSON(http.StatusOK, gin.H{"transcripts": list, "count": len(list)})
}

// handleGet handles GET /transcripts/:id
func (s *Server) handleGet(c *gin.Context) {
	t, err := s.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// handleChunks handles GET /transcripts/:id/chunks
func (s *Server) handleChunks(c *gin.Context) {
	chunks, err := s.svc.Chunks(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chunks": chunks, "count": len(chunks)})
}

// handleMarkdown handles GET /transcripts/:id/markdown
func (s *Server) handleMarkdown(c *gin.Context) {
	md, err := s.svc.Markdown(c.Request.Context(), c.Param("id"), c.Query("rules") == "true")
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

// handleDelete handles DELETE /transcripts/:id
func (s *Server) handleDelete(c *gin.Context) {
	if err := s.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// handleIndex handles POST /index
func (s *Server) handleIndex(c *gin.Context) {
	var req types.IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.svc.Index(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleStats handles GET /stats
func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.svc.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// fail maps a service error to a status and writes it
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	writeError(c, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, transcript.ErrInvalidRequest),
		errors.Is(err, extract.ErrUnsupportedFormat),
		errors.Is(err, extract.ErrEmptyDocument),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes an error response
func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
