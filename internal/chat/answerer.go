// Package chat produces answers grounded in retrieved document segments.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/bull/pdfchat-server/internal/document"
	"github.com/bull/pdfchat-server/internal/session"
)

var (
	// ErrCompletion indicates the language-model call failed.
	ErrCompletion = errors.New("completion failed")

	// ErrEmptyCompletion indicates the model returned no usable answer.
	ErrEmptyCompletion = fmt.Errorf("%w: empty response", ErrCompletion)
)

// systemPrompt pins the model to the retrieved excerpts. Grounding is
// best-effort: it is enforced by the model, not verifiable mechanically.
const systemPrompt = `You are a question-answering assistant for a single uploaded PDF document.
Answer using only the document excerpts provided in the user message.
Use the conversation so far to resolve pronouns and follow-up references, but not as a source of facts.
If the excerpts do not contain the answer, say the document does not cover it.
Cite page numbers when they are relevant.`

// completionAPI is the slice of the OpenAI chat service the answerer uses.
// Satisfied by client.Chat.Completions; tests substitute fakes.
type completionAPI interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Answerer conditions a chat model on retrieved segments and prior turns.
type Answerer struct {
	completions completionAPI
	model       string
}

// NewAnswerer creates an Answerer using the given OpenAI client and model.
func NewAnswerer(client *openai.Client, model string) *Answerer {
	return &Answerer{
		completions: &client.Chat.Completions,
		model:       model,
	}
}

// Answer produces an answer to question grounded in segments, with turns as
// conversational context. On any failure the caller must not record the
// exchange in history.
func (a *Answerer) Answer(ctx context.Context, question string, segments []document.Segment, turns []session.Turn) (string, error) {
	resp, err := a.completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    buildMessages(question, segments, turns),
		Model:       openai.ChatModel(a.model),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyCompletion
	}
	return answer, nil
}

// buildMessages lays out the prompt: system instruction, the full prior
// conversation in order, then the excerpts and the current question.
func buildMessages(question string, segments []document.Segment, turns []session.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2+2*len(turns))
	messages = append(messages, openai.SystemMessage(systemPrompt))

	for _, turn := range turns {
		messages = append(messages,
			openai.UserMessage(turn.Question),
			openai.AssistantMessage(turn.Answer),
		)
	}

	messages = append(messages, openai.UserMessage(formatQuery(question, segments)))
	return messages
}

// formatQuery renders the retrieved excerpts with page provenance above the
// question.
func formatQuery(question string, segments []document.Segment) string {
	var b strings.Builder
	if len(segments) == 0 {
		b.WriteString("No relevant excerpts were found in the document.\n\n")
	} else {
		b.WriteString("Document excerpts:\n\n")
		for _, seg := range segments {
			fmt.Fprintf(&b, "[page %d] %s\n\n", seg.Page, seg.Text)
		}
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
