package mcp

import (
	"context"

	"github.com/bull/policy-assistant/internal/index"
	"github.com/bull/policy-assistant/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Answerer is the question answering dependency of the tool handlers.
type Answerer interface {
	Ask(ctx context.Context, question string) service.Answer
	ListDocuments(ctx context.Context) ([]index.DocumentInfo, error)
}

// Server wraps the MCP server with dependencies.
type Server struct {
	server    *mcp.Server
	assistant Answerer
}

// Config holds server dependencies.
type Config struct {
	Assistant Answerer
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "policy-assistant-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_policy",
		Description: "Answer a question about company policies using the indexed policy documents. Returns the answer with document and page citations.",
	}, makeAskHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_policy_documents",
		Description: "List all policy documents currently in the index.",
	}, makeListHandler(cfg.Assistant))

	return &Server{
		server:    server,
		assistant: cfg.Assistant,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
