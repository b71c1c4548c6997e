package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const openAIMaxOutputTokens = 2048

// OpenAIProvider asks questions through the OpenAI Responses API.
// Conversation context is server-side via the previous response id.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI provider. Extra request options
// (e.g. a custom base URL for tests) are passed through to the client.
func NewOpenAIProvider(apiKey, model string, opts ...option.RequestOption) *OpenAIProvider {
	reqOpts := []option.RequestOption{}
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	reqOpts = append(reqOpts, opts...)
	return &OpenAIProvider{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Ask(ctx context.Context, question, previousResponseID string, _ []Exchange) (string, string, error) {
	params := responses.ResponseNewParams{
		Model:           p.model,
		MaxOutputTokens: openai.Int(openAIMaxOutputTokens),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(question)},
	}
	if previousResponseID != "" {
		params.PreviousResponseID = openai.String(previousResponseID)
	}

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return "", "", fmt.Errorf("openai responses call: %w", err)
	}
	return resp.OutputText(), resp.ID, nil
}
