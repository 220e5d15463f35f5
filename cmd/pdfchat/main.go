// Package main provides the pdfchat CLI: chat with one PDF over the
// terminal, HTTP, or MCP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/pdfchat-server/internal/chat"
	"github.com/bull/pdfchat-server/internal/config"
	"github.com/bull/pdfchat-server/internal/document"
	"github.com/bull/pdfchat-server/internal/embedding"
	"github.com/bull/pdfchat-server/internal/index"
	"github.com/bull/pdfchat-server/internal/pipeline"
	"github.com/bull/pdfchat-server/internal/server"
	"github.com/bull/pdfchat-server/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "pdfchat",
	Short: "Conversational question answering over a single PDF",
	Long: `pdfchat indexes one uploaded PDF and answers questions grounded in its
content, carrying the conversation history across questions.

Environment variables:
  OPENAI_API_KEY              OpenAI API key (required)
  PDFCHAT_CHAT_MODEL          chat model (default: gpt-4o)
  PDFCHAT_EMBEDDING_MODEL     embedding model (default: text-embedding-3-small)
  PDFCHAT_TOP_K               retrieved segments per question (default: 4)
  PDFCHAT_INDEX_BACKEND       "memory" or "qdrant" (default: memory)
  QDRANT_HOST / QDRANT_PORT   Qdrant address for the qdrant backend
  PORT                        HTTP port for serve (default: 8080)`,
}

func main() {
	// Load .env if present (local development), ignore if missing (production).
	_ = godotenv.Load()

	rootCmd.AddCommand(chatCmd, serveCmd, mcpCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired pipeline shared by all commands.
type app struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	session  *session.Session
	health   server.HealthChecker // nil for the in-memory backend
	close    func() error
}

// buildApp loads configuration and wires the pipeline stages. Configuration
// problems (including a missing API key) fail here, before any interaction.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	client := embedding.NewClient(cfg.OpenAIKey)
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, 0)

	var (
		backend index.Backend
		health  server.HealthChecker
		closer  = func() error { return nil }
	)
	switch cfg.IndexBackend {
	case config.BackendQdrant:
		qb, err := index.NewQdrantBackend(cfg.QdrantHost, cfg.QdrantPort)
		if err != nil {
			return nil, fmt.Errorf("connect to qdrant: %w", err)
		}
		backend, health, closer = qb, qb, qb.Close
	default:
		backend = index.NewMemoryBackend()
	}

	ingestor := document.NewIngestor(document.NewPDFExtractor(), cfg.MaxSegmentChars)
	builder := index.NewBuilder(embedder, backend)
	answerer := chat.NewAnswerer(client.Client(), cfg.ChatModel)

	return &app{
		cfg:      cfg,
		pipeline: pipeline.New(ingestor, builder, embedder, answerer, cfg.TopK, cfg.RequestTimeout, slog.Default()),
		session:  session.New(),
		health:   health,
		close:    closer,
	}, nil
}
