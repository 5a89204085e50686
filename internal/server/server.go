// Package server exposes the RAG pipelines over HTTP.
package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"research-rag/internal/config"
	"research-rag/internal/helper"
	"research-rag/internal/ingest"
	"research-rag/internal/models"
	"research-rag/internal/rag"
)

const version = "1.0.0"

// QueryEngine answers questions; satisfied by *rag.Engine.
type QueryEngine interface {
	Query(ctx context.Context, question string, nResults int) (*models.AnswerResult, error)
}

// Ingestor stores documents; satisfied by *ingest.Pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, path, source string) ingest.Result
}

// Server wires the query engine and ingestion pipeline to HTTP endpoints.
// A nil engine or ingestor means the vector store failed to initialise;
// the affected endpoints then answer 500 instead of crashing at startup.
type Server struct {
	echo     *echo.Echo
	engine   QueryEngine
	ingestor Ingestor
	cfg      *config.ServerConfig
	defaultN int
}

func New(engine QueryEngine, ingestor Ingestor, cfg *config.ServerConfig, defaultN int) *Server {
	if cfg == nil {
		cfg = &config.ServerConfig{Host: "0.0.0.0", Port: 8000}
	}
	if defaultN < rag.MinResults || defaultN > rag.MaxResults {
		defaultN = 3
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Info().
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Msg("http request")
			return err
		}
	})

	s := &Server{
		echo:     e,
		engine:   engine,
		ingestor: ingestor,
		cfg:      cfg,
		defaultN: defaultN,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleInfo)
	s.echo.GET("/health", s.handleHealth)
	s.echo.POST("/query", s.handleQuery)
	s.echo.POST("/upload", s.handleUpload)
}

// InfoResponse is the body of GET /.
type InfoResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question string `json:"question"`
	NResults *int   `json:"n_results"`
}

// QueryResponse is the body of POST /query.
type QueryResponse struct {
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	Sources       []string `json:"sources"`
	NumChunksUsed int      `json:"num_chunks_used"`
}

// UploadResponse is the body of POST /upload.
type UploadResponse struct {
	Filename  string `json:"filename"`
	NumChunks int    `json:"num_chunks"`
	Status    string `json:"status"`
}

func (s *Server) handleInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, InfoResponse{
		Message: "RAG Research Assistant API",
		Status:  "healthy",
		Version: version,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: version})
}

func (s *Server) handleQuery(c echo.Context) error {
	if s.engine == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Database not initialised")
	}

	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Question cannot be empty")
	}

	nResults := s.defaultN
	if req.NResults != nil {
		nResults = *req.NResults
	}
	if nResults < rag.MinResults || nResults > rag.MaxResults {
		return echo.NewHTTPError(http.StatusBadRequest, "n_results must be between 1 and 10")
	}

	result, err := s.engine.Query(c.Request().Context(), req.Question, nResults)
	if err != nil {
		// Validation is done above, so this only triggers if the engine
		// rejects input the boundary missed.
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, QueryResponse{
		Question:      req.Question,
		Answer:        result.Answer,
		Sources:       result.Sources,
		NumChunksUsed: len(result.ContextChunks),
	})
}

func (s *Server) handleUpload(c echo.Context) error {
	if s.ingestor == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Database not initialised")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "file is required")
	}

	log.Info().Str("filename", fileHeader.Filename).Int64("bytes", fileHeader.Size).Msg("received file")

	if !strings.HasSuffix(fileHeader.Filename, ".pdf") {
		return echo.NewHTTPError(http.StatusBadRequest, "Only PDF files allowed")
	}
	if fileHeader.Size == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "File is empty")
	}

	tempPath, err := s.saveTemp(fileHeader)
	if err != nil {
		log.Error().Err(err).Msg("failed to save upload")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save upload")
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			log.Warn().Err(err).Str("path", tempPath).Msg("failed to clean up temp file")
		}
	}()

	result := s.ingestor.Ingest(c.Request().Context(), tempPath, fileHeader.Filename)
	switch result.Status {
	case ingest.StatusExtractFailed:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "could not extract text from file")
	case ingest.StatusStoreFailed:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store document")
	}

	return c.JSON(http.StatusOK, UploadResponse{
		Filename:  fileHeader.Filename,
		NumChunks: result.ChunksStored,
		Status:    "success",
	})
}

// saveTemp copies the upload to a uuid-named temp file. The caller removes
// it on every exit path.
func (s *Server) saveTemp(fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	id, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}
	tempPath := filepath.Join(os.TempDir(), "upload-"+id+".pdf")

	dst, err := os.Create(tempPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(tempPath)
		return "", err
	}
	return tempPath, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	log.Info().Str("addr", addr).Msg("starting http server")
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down http server")
	return s.echo.Shutdown(ctx)
}
