package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bull/policy-assistant/internal/index"
	"github.com/bull/policy-assistant/internal/ingest"
	"github.com/bull/policy-assistant/internal/service"
)

// Answerer answers questions against the indexed corpus.
type Answerer interface {
	Ask(ctx context.Context, question string) service.Answer
	ListDocuments(ctx context.Context) ([]index.DocumentInfo, error)
}

// JobQueue schedules background reindexing of uploaded files.
type JobQueue interface {
	Enqueue(job ingest.Job) error
}

// Server holds the HTTP handler dependencies.
type Server struct {
	assistant Answerer
	jobs      JobQueue
	store     index.Store
	docsDir   string
	logger    *slog.Logger
}

// NewServer creates the HTTP server facade.
func NewServer(assistant Answerer, jobs JobQueue, store index.Store, docsDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		assistant: assistant,
		jobs:      jobs,
		store:     store,
		docsDir:   docsDir,
		logger:    logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /admin/upload", s.handleUpload)
	mux.HandleFunc("GET /admin/documents", s.handleDocuments)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /", NewLandingHandler())
	return s.recoverPanics(mux)
}

// recoverPanics converts handler panics into a 500 response instead of
// tearing down the connection.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		resp.Status = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Status = "healthy"
	resp.Chunks = count
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
