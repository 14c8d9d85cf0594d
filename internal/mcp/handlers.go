package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/bull/policy-assistant/internal/citation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// makeAskHandler creates the ask_policy tool handler. The assistant
// never fails a question outright; pipeline errors surface to the
// client as the refusal sentinel with no sources.
func makeAskHandler(assistant Answerer) func(
	context.Context, *mcp.CallToolRequest, AskPolicyInput,
) (*mcp.CallToolResult, AskPolicyOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskPolicyInput) (
		*mcp.CallToolResult, AskPolicyOutput, error,
	) {
		question := strings.TrimSpace(input.Question)
		if question == "" {
			return nil, AskPolicyOutput{}, fmt.Errorf("question must not be empty")
		}

		ans := assistant.Ask(ctx, question)

		sources := ans.Sources
		if sources == nil {
			sources = []citation.Source{}
		}
		return nil, AskPolicyOutput{
			Answer:  ans.Text,
			Sources: sources,
		}, nil
	}
}

// makeListHandler creates the list_policy_documents tool handler.
func makeListHandler(assistant Answerer) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		infos, err := assistant.ListDocuments(ctx)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}

		docs := make([]DocumentRef, 0, len(infos))
		for _, info := range infos {
			docs = append(docs, DocumentRef{Name: info.Name, Filename: info.Filename})
		}
		return nil, ListDocumentsOutput{
			Documents: docs,
			Count:     len(docs),
		}, nil
	}
}
