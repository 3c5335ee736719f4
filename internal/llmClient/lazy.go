package llmclient

import (
	"context"
	"sync"
)

// Factory constructs a client on demand.
type Factory func(ctx context.Context) (ProviderClient, error)

// Lazy is a ProviderClient handle built on first use and reused afterwards.
// A failed construction is not cached, so fixing the environment and
// retrying the request is enough to recover.
type Lazy struct {
	name    string
	factory Factory

	mu     sync.Mutex
	client ProviderClient
}

func NewLazy(name string, factory Factory) *Lazy {
	return &Lazy{name: name, factory: factory}
}

func (l *Lazy) get(ctx context.Context) (ProviderClient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil {
		return l.client, nil
	}
	c, err := l.factory(ctx)
	if err != nil {
		return nil, err
	}
	l.client = c
	return c, nil
}

func (l *Lazy) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil {
		return l.client.Name()
	}
	return l.name
}

func (l *Lazy) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	c, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return c.Complete(ctx, messages, params)
}

func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client == nil {
		return nil
	}
	err := l.client.Close()
	l.client = nil
	return err
}
