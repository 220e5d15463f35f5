// Package mcp exposes the pdfchat pipeline as MCP tools.
package mcp

import "time"

// LoadDocumentInput defines the input parameters for the load_document tool.
type LoadDocumentInput struct {
	// Path is the filesystem path of the PDF to load.
	Path string `json:"path" jsonschema:"required,description=Filesystem path of the PDF document to load. Replaces any previously loaded document and clears the conversation."`
}

// LoadDocumentOutput reports what the upload produced.
type LoadDocumentOutput struct {
	// Pages is the number of text-bearing pages indexed.
	Pages int `json:"pages"`
	// Segments is the number of indexed text segments.
	Segments int `json:"segments"`
}

// AskDocumentInput defines the input parameters for the ask_document tool.
type AskDocumentInput struct {
	// Question is the natural-language question about the loaded document.
	Question string `json:"question" jsonschema:"required,description=Natural-language question answered from the loaded document's content"`
}

// AskDocumentOutput contains the grounded answer.
type AskDocumentOutput struct {
	// Answer is the model's answer grounded in retrieved document text.
	Answer string `json:"answer"`
	// HistoryLength is the number of recorded turns after this exchange.
	HistoryLength int `json:"history_length"`
}

// GetHistoryInput takes no parameters.
type GetHistoryInput struct{}

// HistoryTurn is one recorded exchange.
type HistoryTurn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// GetHistoryOutput lists all recorded turns in order.
type GetHistoryOutput struct {
	Turns []HistoryTurn `json:"turns"`
	Count int           `json:"count"`
}

// ResetSessionInput takes no parameters.
type ResetSessionInput struct{}

// ResetSessionOutput confirms the reset.
type ResetSessionOutput struct {
	Status string `json:"status"`
}
