package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/pdfchat-server/internal/pipeline"
	"github.com/bull/pdfchat-server/internal/session"
)

// Server wraps the MCP server with the pipeline and its session.
type Server struct {
	server   *mcp.Server
	pipeline *pipeline.Pipeline
	session  *session.Session
}

// Config holds server dependencies.
type Config struct {
	Pipeline *pipeline.Pipeline
	Session  *session.Session
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "pdfchat-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "load_document",
		Description: "Load a PDF document and build its searchable index. Replaces any previously loaded document and clears the conversation history.",
	}, makeLoadHandler(cfg.Pipeline, cfg.Session))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Ask a question about the loaded PDF. Answers are grounded in the document's content and the conversation so far.",
	}, makeAskHandler(cfg.Pipeline, cfg.Session))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_history",
		Description: "List all (question, answer) turns recorded for the current document, in order.",
	}, makeHistoryHandler(cfg.Session))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_session",
		Description: "Discard the loaded document and the conversation history.",
	}, makeResetHandler(cfg.Session))

	return &Server{
		server:   server,
		pipeline: cfg.Pipeline,
		session:  cfg.Session,
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
