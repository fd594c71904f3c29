// Package openai provides a synthesizer backed by the OpenAI chat
// completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT4oMini

// Synthesizer calls the OpenAI chat completions API.
type Synthesizer struct {
	client *openai.Client
	model  string
}

// New creates a synthesizer for the given model. An empty model selects
// DefaultModel.
func New(client *openai.Client, model string) *Synthesizer {
	if model == "" {
		model = DefaultModel
	}
	return &Synthesizer{client: client, model: model}
}

// Synthesize sends the numbered fragments under the system prompt and
// returns the model's text output.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string, fragments []string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: numberFragments(fragments)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("response contains no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func numberFragments(fragments []string) string {
	var b strings.Builder
	for i, f := range fragments {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f)
	}
	return b.String()
}
