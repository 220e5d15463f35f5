// Package embedding generates vector embeddings through the OpenAI API.
package embedding

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI client shared by embedding generation and answering.
type Client struct {
	client *openai.Client
}

// NewClient creates an OpenAI client with the given API key. Credential
// presence is validated by config.Load before this is called.
func NewClient(apiKey string) *Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &client}
}

// Client returns the underlying OpenAI client for use in other packages
// (e.g., the conversational answerer).
func (c *Client) Client() *openai.Client {
	return c.client
}
