package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nebulascloud/jaci/internal/store"
)

// Options configures the conversational client.
type Options struct {
	MaxAttempts int           // retry attempts per query, default 3
	RetryDelay  time.Duration // fixed delay between attempts, default 1s
	UseContext  bool          // carry conversation context between queries
	Store       store.Store   // optional exchange persistence
}

// Client is a conversational LLM client with linear retry and
// in-memory conversation history.
type Client struct {
	provider    Provider
	st          store.Store
	maxAttempts int
	retryDelay  time.Duration
	useContext  bool

	mu             sync.Mutex
	history        []Exchange
	lastResponseID string
}

// NewClient creates a client around the given provider.
func NewClient(provider Provider, opts Options) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &Client{
		provider:    provider,
		st:          opts.Store,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		useContext:  opts.UseContext,
	}
}

// Query asks one question, retrying transient failures with a fixed
// delay between attempts.
func (c *Client) Query(ctx context.Context, question string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		prevID := ""
		if c.useContext {
			prevID = c.LastResponseID()
		}
		text, id, err := c.provider.Ask(ctx, question, prevID, c.History())
		if err == nil {
			c.record(ctx, question, text, id)
			return text, nil
		}
		lastErr = err
		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return "", fmt.Errorf("query failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// BatchQuery asks each question in order. Failures are recorded per
// question instead of aborting the batch.
func (c *Client) BatchQuery(ctx context.Context, questions []string) map[string]string {
	results := make(map[string]string, len(questions))
	for _, q := range questions {
		resp, err := c.Query(ctx, q)
		if err != nil {
			results[q] = fmt.Sprintf("Error: %v", err)
			continue
		}
		results[q] = resp
	}
	return results
}

// History returns a copy of the conversation history.
func (c *Client) History() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Exchange, len(c.history))
	copy(out, c.history)
	return out
}

// LastResponseID returns the most recent provider response id, or ""
// when the conversation is fresh.
func (c *Client) LastResponseID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResponseID
}

// ClearContext drops the in-memory conversation state.
func (c *Client) ClearContext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
	c.lastResponseID = ""
}

// record appends the exchange to the in-memory history and, when a
// store is configured, persists it. Persistence is best effort and
// never fails the query.
func (c *Client) record(ctx context.Context, question, response, responseID string) {
	c.mu.Lock()
	c.history = append(c.history, Exchange{
		Question:   question,
		Response:   response,
		ResponseID: responseID,
	})
	c.lastResponseID = responseID
	c.mu.Unlock()

	if c.st != nil {
		_ = c.st.CreateExchange(ctx, &store.Exchange{
			Question:   question,
			Response:   response,
			ResponseID: responseID,
			Provider:   c.provider.Name(),
		})
	}
}
