// Package answer produces a grounded answer to a question from
// retrieved policy chunks.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/bull/policy-assistant/internal/index"
)

// Sentinel is the exact reply for questions the policy corpus cannot
// answer. The prompt instructs the model to emit it verbatim, and the
// service falls back to it on any generation failure.
const Sentinel = "I don't know based on the available policy documents."

// DefaultModel is the chat model used for answer generation.
const DefaultModel = openai.ChatModelGPT4oMini

// Completer is the language-model collaborator: prompt in, text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator assembles retrieved chunks into a context block and asks
// the model for an answer grounded strictly in that context.
type Generator struct {
	completer Completer
}

// NewGenerator creates a Generator over the given completer.
func NewGenerator(completer Completer) *Generator {
	return &Generator{completer: completer}
}

// Answer renders the context, issues a single completion, and returns
// the trimmed response. One attempt only; a model failure or empty
// response surfaces as an error for the caller to map to the sentinel.
// Callers must not invoke this with an empty chunk list; that case is
// short-circuited to the sentinel upstream.
func (g *Generator) Answer(ctx context.Context, question string, chunks []index.Chunk) (string, error) {
	prompt := buildPrompt(question, RenderContext(chunks))

	text, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("answer generation: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("answer generation: model returned empty response")
	}
	return text, nil
}

// RenderContext formats chunks into labeled blocks, most relevant
// first:
//
//	[Leave Policy | Page 2]
//	Employees are entitled to 12 sick leaves per year.
func RenderContext(chunks []index.Chunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("[%s | Page %d]\n%s", c.DocumentName, c.PageNumber, c.Text)
	}
	return strings.Join(blocks, "\n\n")
}

func buildPrompt(question, context string) string {
	return fmt.Sprintf(`You are a company policy assistant.

Rules:
- Use ONLY the policy context below.
- Answer factual or summary questions about company policy.
- Cite sources inline as (Document | Page N).
- If the answer is not present in the context, reply exactly:
"%s"

Context:
%s

Question:
%s

Answer:`, Sentinel, context, question)
}

// OpenAICompleter implements Completer on the OpenAI chat API.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter wraps an OpenAI client. An empty model selects
// DefaultModel.
func NewOpenAICompleter(client *openai.Client, model string) *OpenAICompleter {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAICompleter{client: client, model: model}
}

// Complete issues one chat completion and returns the raw text.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: c.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
