package llmclient

import (
	"context"
	"fmt"
	"sync"
)

// FakeReply is one scripted answer: either Text or Err.
type FakeReply struct {
	Text string
	Err  error
}

// FakeClient returns scripted replies in order for offline runs and tests.
// When the script is exhausted the last reply repeats.
type FakeClient struct {
	name string

	mu      sync.Mutex
	replies []FakeReply
	calls   [][]Message
	params  []Params
}

func NewFakeClient(name string, replies ...FakeReply) *FakeClient {
	if name == "" {
		name = "fake"
	}
	return &FakeClient{name: name, replies: replies}
}

func (f *FakeClient) Name() string { return f.name }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]Message(nil), messages...))
	f.params = append(f.params, params)
	if len(f.replies) == 0 {
		return "", fmt.Errorf("%s: %w", f.name, ErrEmptyResponse)
	}
	idx := len(f.calls) - 1
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	r := f.replies[idx]
	return r.Text, r.Err
}

// Calls returns the messages of every call made so far.
func (f *FakeClient) Calls() [][]Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]Message(nil), f.calls...)
}

// Params returns the parameters of every call made so far.
func (f *FakeClient) Params() []Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Params(nil), f.params...)
}
