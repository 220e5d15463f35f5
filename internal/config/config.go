// Package config centralizes environment-driven configuration for pdfchat.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrMissingAPIKey indicates the required provider credential is absent.
// Surfaced before any upload or query is accepted.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

// Index backend names accepted by PDFCHAT_INDEX_BACKEND.
const (
	BackendMemory = "memory"
	BackendQdrant = "qdrant"
)

// Config holds all settings for the pdfchat pipeline and its surfaces.
type Config struct {
	// OpenAI settings
	OpenAIKey      string
	ChatModel      string
	EmbeddingModel string

	// Retrieval settings
	TopK            int
	MaxSegmentChars int

	// Index backend: "memory" (default) or "qdrant"
	IndexBackend string
	QdrantHost   string
	QdrantPort   int

	// Surfaces
	HTTPPort string

	// Timeout applied to each external provider call chain (embed + complete)
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables and validates it.
// Fails fast with ErrMissingAPIKey when the provider credential is missing.
func Load() (*Config, error) {
	cfg := &Config{
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		ChatModel:       getEnv("PDFCHAT_CHAT_MODEL", "gpt-4o"),
		EmbeddingModel:  getEnv("PDFCHAT_EMBEDDING_MODEL", "text-embedding-3-small"),
		TopK:            getEnvInt("PDFCHAT_TOP_K", 4),
		MaxSegmentChars: getEnvInt("PDFCHAT_MAX_SEGMENT_CHARS", 1200),
		IndexBackend:    getEnv("PDFCHAT_INDEX_BACKEND", BackendMemory),
		QdrantHost:      getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:      getEnvInt("QDRANT_PORT", 6334),
		HTTPPort:        getEnv("PORT", "8080"),
		RequestTimeout:  getEnvDuration("PDFCHAT_REQUEST_TIMEOUT", 60*time.Second),
	}

	return cfg, cfg.Validate()
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	if c.OpenAIKey == "" {
		return ErrMissingAPIKey
	}
	if c.TopK <= 0 {
		return fmt.Errorf("PDFCHAT_TOP_K must be positive, got %d", c.TopK)
	}
	if c.MaxSegmentChars < 100 {
		return fmt.Errorf("PDFCHAT_MAX_SEGMENT_CHARS must be at least 100, got %d", c.MaxSegmentChars)
	}
	if c.IndexBackend != BackendMemory && c.IndexBackend != BackendQdrant {
		return fmt.Errorf("PDFCHAT_INDEX_BACKEND must be %q or %q, got %q",
			BackendMemory, BackendQdrant, c.IndexBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("PDFCHAT_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
