package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/bull/pdfchat-server/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server over stdio",
	Long: `Runs the MCP server on stdin/stdout for local clients. Tools:
load_document, ask_document, get_history, reset_session.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	srv := mcpserver.NewServer(&mcpserver.Config{
		Pipeline: a.pipeline,
		Session:  a.session,
	})
	return srv.Run(ctx)
}
