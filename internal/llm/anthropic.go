package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 2048

// AnthropicProvider asks questions through the Anthropic Messages API.
// The API is stateless, so conversation context is carried by replaying
// the in-memory history as alternating messages.
type AnthropicProvider struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewAnthropicProvider creates an Anthropic provider. Extra request
// options are passed through to the client.
func NewAnthropicProvider(apiKey, model string, opts ...option.RequestOption) *AnthropicProvider {
	reqOpts := []option.RequestOption{}
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	reqOpts = append(reqOpts, opts...)
	client := anthropic.NewClient(reqOpts...)
	return &AnthropicProvider{
		api:   &client,
		model: anthropic.Model(model),
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Ask(ctx context.Context, question, _ string, history []Exchange) (string, string, error) {
	messages := make([]anthropic.MessageParam, 0, len(history)*2+1)
	for _, e := range history {
		messages = append(messages,
			anthropic.NewUserMessage(anthropic.NewTextBlock(e.Question)),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock(e.Response)),
		)
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(question)))

	msg, err := p.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: anthropicMaxTokens,
		Messages:  messages,
	})
	if err != nil {
		return "", "", fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", "", fmt.Errorf("no text content in API response")
	}
	return text, msg.ID, nil
}
