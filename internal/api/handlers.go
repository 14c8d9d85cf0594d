package api

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bull/policy-assistant/internal/answer"
	"github.com/bull/policy-assistant/internal/citation"
	"github.com/bull/policy-assistant/internal/ingest"
)

// maxUploadBytes caps the multipart form held in memory before it
// spills to disk.
const maxUploadBytes = 32 << 20

// handleAsk answers a question from the indexed corpus. Failures inside
// the pipeline never surface as errors to the caller; the response
// degrades to the refusal sentinel with no sources.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("ask pipeline panic", "panic", rec)
			writeJSON(w, http.StatusOK, AskResponse{
				Answer:  answer.Sentinel,
				Sources: []citation.Source{},
			})
		}
	}()

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "question must not be empty")
		return
	}

	ans := s.assistant.Ask(r.Context(), question)

	sources := ans.Sources
	if sources == nil {
		sources = []citation.Source{}
	}
	writeJSON(w, http.StatusOK, AskResponse{
		Answer:  ans.Text,
		Sources: sources,
	})
}

// handleUpload accepts a PDF, stores it in the documents directory and
// queues a background reindex. The response acknowledges the upload
// before indexing completes.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "only PDF files are supported")
		return
	}

	if err := os.MkdirAll(s.docsDir, 0o755); err != nil {
		s.logger.Error("failed to create documents directory", "dir", s.docsDir, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	dest := filepath.Join(s.docsDir, filename)
	if err := saveFile(dest, file); err != nil {
		s.logger.Error("failed to save upload", "path", dest, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	if err := s.jobs.Enqueue(ingest.Job{Path: dest, Filename: filename}); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.logger.Info("upload accepted", "filename", filename)
	writeJSON(w, http.StatusAccepted, UploadResponse{
		Status:   "accepted",
		Filename: filename,
		Message:  "document saved, reindex scheduled",
	})
}

// handleDocuments lists the documents currently present in the index.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	infos, err := s.assistant.ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	entries := make([]DocumentEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, DocumentEntry{Name: info.Name, Filename: info.Filename})
	}
	writeJSON(w, http.StatusOK, DocumentsResponse{
		Documents: entries,
		Count:     len(entries),
	})
}

// saveFile writes src to path via a temp file in the same directory so
// a crash never leaves a half-written PDF for the indexer to pick up.
func saveFile(path string, src io.Reader) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	return nil
}
