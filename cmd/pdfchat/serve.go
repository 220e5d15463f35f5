package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/bull/pdfchat-server/internal/mcp"
	"github.com/bull/pdfchat-server/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline over HTTP (with MCP at /mcp)",
	Long: `Starts an HTTP server exposing upload/ask/history/reset/health endpoints
plus an MCP Streamable HTTP endpoint at /mcp. The server owns one session;
uploads replace the document and clear the conversation.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	// Cancel on SIGTERM/SIGINT for clean shutdown.
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	mux := http.NewServeMux()
	server.New(a.pipeline, a.session, a.health, slog.Default()).Routes(mux)

	mcpSrv := mcpserver.NewServer(&mcpserver.Config{
		Pipeline: a.pipeline,
		Session:  a.session,
	})
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(mcpSrv, nil))

	httpServer := &http.Server{
		Addr:    "0.0.0.0:" + a.cfg.HTTPPort,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
