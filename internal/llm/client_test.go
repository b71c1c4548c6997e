package llm

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu          sync.Mutex
	calls       int
	failFirst   int // fail this many calls before succeeding
	lastPrevID  string
	lastHistory []Exchange
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Ask(_ context.Context, question, previousResponseID string, history []Exchange) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPrevID = previousResponseID
	f.lastHistory = history
	if f.calls <= f.failFirst {
		return "", "", fmt.Errorf("transient failure %d", f.calls)
	}
	return "answer to: " + question, fmt.Sprintf("resp-%d", f.calls), nil
}

func newTestClient(p Provider) *Client {
	return NewClient(p, Options{
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
		UseContext:  true,
	})
}

func TestClient_Query(t *testing.T) {
	p := &fakeProvider{}
	c := newTestClient(p)

	resp, err := c.Query(context.Background(), "what issues are open?")
	require.NoError(t, err)
	assert.Equal(t, "answer to: what issues are open?", resp)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "resp-1", c.LastResponseID())

	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, "what issues are open?", history[0].Question)
	assert.Equal(t, "resp-1", history[0].ResponseID)
}

func TestClient_QueryRetries(t *testing.T) {
	p := &fakeProvider{failFirst: 2}
	c := newTestClient(p)

	resp, err := c.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "answer to: q", resp)
	assert.Equal(t, 3, p.calls)
}

func TestClient_QueryExhaustsRetries(t *testing.T) {
	p := &fakeProvider{failFirst: 10}
	c := newTestClient(p)

	_, err := c.Query(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, p.calls)
}

func TestClient_ConversationContext(t *testing.T) {
	p := &fakeProvider{}
	c := newTestClient(p)

	_, err := c.Query(context.Background(), "first")
	require.NoError(t, err)
	assert.Empty(t, p.lastPrevID, "fresh conversation has no context")

	_, err = c.Query(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "resp-1", p.lastPrevID, "second query carries the previous response id")
	require.Len(t, p.lastHistory, 1)
	assert.Equal(t, "first", p.lastHistory[0].Question)
}

func TestClient_NoContext(t *testing.T) {
	p := &fakeProvider{}
	c := NewClient(p, Options{MaxAttempts: 1, RetryDelay: time.Millisecond, UseContext: false})

	_, err := c.Query(context.Background(), "first")
	require.NoError(t, err)
	_, err = c.Query(context.Background(), "second")
	require.NoError(t, err)
	assert.Empty(t, p.lastPrevID)
}

func TestClient_ClearContext(t *testing.T) {
	p := &fakeProvider{}
	c := newTestClient(p)

	_, err := c.Query(context.Background(), "q")
	require.NoError(t, err)
	require.NotEmpty(t, c.LastResponseID())

	c.ClearContext()
	assert.Empty(t, c.LastResponseID())
	assert.Empty(t, c.History())
}

func TestClient_BatchQuery(t *testing.T) {
	p := &fakeProvider{failFirst: 3} // first question exhausts its 3 attempts
	c := newTestClient(p)

	results := c.BatchQuery(context.Background(), []string{"one", "two"})
	require.Len(t, results, 2)
	assert.Contains(t, results["one"], "Error:")
	assert.Equal(t, "answer to: two", results["two"])
}

func TestClient_Defaults(t *testing.T) {
	c := NewClient(&fakeProvider{}, Options{})
	assert.Equal(t, 3, c.maxAttempts)
	assert.Equal(t, time.Second, c.retryDelay)
}
