// Package mcp exposes the policy assistant over the Model Context Protocol.
package mcp

import "github.com/bull/policy-assistant/internal/citation"

// AskPolicyInput defines the input parameters for the ask_policy tool.
type AskPolicyInput struct {
	// Question is the natural-language question about company policies.
	Question string `json:"question" jsonschema:"Natural-language question about company policies"`
}

// AskPolicyOutput contains the generated answer and its sources.
type AskPolicyOutput struct {
	// Answer is the generated answer text, or a refusal when the corpus
	// does not cover the question.
	Answer string `json:"answer"`
	// Sources lists the cited documents and pages. Empty for refusals.
	Sources []citation.Source `json:"sources"`
}

// ListDocumentsInput defines the input for the list_policy_documents tool.
// The tool takes no parameters.
type ListDocumentsInput struct{}

// ListDocumentsOutput contains the indexed documents.
type ListDocumentsOutput struct {
	// Documents lists the indexed policy documents.
	Documents []DocumentRef `json:"documents"`
	// Count is the total number of documents.
	Count int `json:"count"`
}

// DocumentRef identifies one indexed document.
type DocumentRef struct {
	// Name is the human-readable document name (e.g. "Leave Policy").
	Name string `json:"name"`
	// Filename is the source PDF filename.
	Filename string `json:"filename"`
}
