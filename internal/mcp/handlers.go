package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/pdfchat-server/internal/index"
	"github.com/bull/pdfchat-server/internal/pipeline"
	"github.com/bull/pdfchat-server/internal/session"
)

// makeLoadHandler creates the load_document tool handler. It reads the PDF
// from disk and runs the full ingest→embed→index replacement.
func makeLoadHandler(p *pipeline.Pipeline, sess *session.Session) func(
	context.Context, *mcp.CallToolRequest, LoadDocumentInput,
) (*mcp.CallToolResult, LoadDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input LoadDocumentInput) (
		*mcp.CallToolResult, LoadDocumentOutput, error,
	) {
		data, err := os.ReadFile(input.Path)
		if err != nil {
			return nil, LoadDocumentOutput{}, fmt.Errorf("failed to read %s: %w", input.Path, err)
		}

		sess.Acquire()
		defer sess.Release()

		result, err := p.Upload(ctx, sess, data)
		if err != nil {
			return nil, LoadDocumentOutput{}, fmt.Errorf("failed to load document: %w", err)
		}

		return nil, LoadDocumentOutput{
			Pages:    result.Pages,
			Segments: result.Segments,
		}, nil
	}
}

// makeAskHandler creates the ask_document tool handler.
func makeAskHandler(p *pipeline.Pipeline, sess *session.Session) func(
	context.Context, *mcp.CallToolRequest, AskDocumentInput,
) (*mcp.CallToolResult, AskDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskDocumentInput) (
		*mcp.CallToolResult, AskDocumentOutput, error,
	) {
		if input.Question == "" {
			return nil, AskDocumentOutput{}, fmt.Errorf("question is required")
		}

		sess.Acquire()
		defer sess.Release()

		answer, err := p.Ask(ctx, sess, input.Question)
		if err != nil {
			if errors.Is(err, index.ErrEmptyIndex) {
				return nil, AskDocumentOutput{}, fmt.Errorf("no document loaded: call load_document first")
			}
			return nil, AskDocumentOutput{}, fmt.Errorf("failed to answer: %w", err)
		}

		return nil, AskDocumentOutput{
			Answer:        answer,
			HistoryLength: len(sess.History()),
		}, nil
	}
}

// makeHistoryHandler creates the get_history tool handler.
func makeHistoryHandler(sess *session.Session) func(
	context.Context, *mcp.CallToolRequest, GetHistoryInput,
) (*mcp.CallToolResult, GetHistoryOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetHistoryInput) (
		*mcp.CallToolResult, GetHistoryOutput, error,
	) {
		history := sess.History()
		turns := make([]HistoryTurn, len(history))
		for i, turn := range history {
			turns[i] = HistoryTurn{
				Question: turn.Question,
				Answer:   turn.Answer,
				AskedAt:  turn.AskedAt,
			}
		}

		return nil, GetHistoryOutput{Turns: turns, Count: len(turns)}, nil
	}
}

// makeResetHandler creates the reset_session tool handler.
func makeResetHandler(sess *session.Session) func(
	context.Context, *mcp.CallToolRequest, ResetSessionInput,
) (*mcp.CallToolResult, ResetSessionOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ResetSessionInput) (
		*mcp.CallToolResult, ResetSessionOutput, error,
	) {
		sess.Acquire()
		defer sess.Release()

		sess.Reset()
		return nil, ResetSessionOutput{Status: "reset"}, nil
	}
}
