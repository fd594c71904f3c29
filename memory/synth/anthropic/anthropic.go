// Package anthropic provides a synthesizer backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-20250514"

const maxTokens = 1024

// Synthesizer calls the Anthropic Messages API.
type Synthesizer struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates a synthesizer for the given model. An empty model selects
// DefaultModel.
func New(client anthropic.Client, model string) *Synthesizer {
	if model == "" {
		model = DefaultModel
	}
	return &Synthesizer{client: client, model: anthropic.Model(model)}
}

// Synthesize sends the numbered fragments under the system prompt and
// returns the model's text output.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string, fragments []string) (string, error) {
	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: prompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(numberFragments(fragments))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages api: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("response contains no text blocks")
	}
	return out.String(), nil
}

func numberFragments(fragments []string) string {
	var b strings.Builder
	for i, f := range fragments {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f)
	}
	return b.String()
}
