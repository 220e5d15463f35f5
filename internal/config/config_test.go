package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.ChatModel)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 4, cfg.TopK)
	assert.Equal(t, BackendMemory, cfg.IndexBackend)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PDFCHAT_CHAT_MODEL", "gpt-4o-mini")
	t.Setenv("PDFCHAT_TOP_K", "8")
	t.Setenv("PDFCHAT_INDEX_BACKEND", "qdrant")
	t.Setenv("QDRANT_PORT", "7001")
	t.Setenv("PDFCHAT_REQUEST_TIMEOUT", "15s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, 8, cfg.TopK)
	assert.Equal(t, BackendQdrant, cfg.IndexBackend)
	assert.Equal(t, 7001, cfg.QdrantPort)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero top-k", func(c *Config) { c.TopK = 0 }},
		{"tiny segment size", func(c *Config) { c.MaxSegmentChars = 10 }},
		{"unknown backend", func(c *Config) { c.IndexBackend = "faiss" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				OpenAIKey:       "sk-test",
				TopK:            4,
				MaxSegmentChars: 1200,
				IndexBackend:    BackendMemory,
				RequestTimeout:  time.Minute,
			}
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
