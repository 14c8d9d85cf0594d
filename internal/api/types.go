// Package api exposes the question answering service over HTTP.
package api

import "github.com/bull/policy-assistant/internal/citation"

// AskRequest is the body of POST /ask.
type AskRequest struct {
	// Question is the natural-language question to answer.
	Question string `json:"question"`
}

// AskResponse contains the generated answer and its supporting sources.
type AskResponse struct {
	// Answer is the generated answer text, or the refusal sentinel.
	Answer string `json:"answer"`
	// Sources lists the documents the answer draws on. Empty when the
	// question could not be answered from the corpus.
	Sources []citation.Source `json:"sources"`
}

// UploadResponse acknowledges an accepted document upload.
type UploadResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// DocumentsResponse lists the documents currently in the index.
type DocumentsResponse struct {
	Documents []DocumentEntry `json:"documents"`
	Count     int             `json:"count"`
}

// DocumentEntry describes one indexed document.
type DocumentEntry struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Chunks    int    `json:"chunks"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse carries a client-facing error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
