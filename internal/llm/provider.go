package llm

import "context"

// Exchange is one question/response pair in the conversation history.
type Exchange struct {
	Question   string
	Response   string
	ResponseID string
}

// Provider executes a single model call. Conversation context is
// carried either by previousResponseID (providers with server-side
// context) or by replaying history (providers without).
type Provider interface {
	Name() string
	Ask(ctx context.Context, question, previousResponseID string, history []Exchange) (text, responseID string, err error)
}
