package llm

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	llmclient "sitegen/internal/llmClient"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (rate limiting, logging, hooks).
type Middleware func(LLMClient) LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner LLMClient, mws ...Middleware) LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate Limiting --------

// RateLimit limits request rate using rpsLimiter.
// If rps <= 0, the limiter is effectively disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next LLMClient) LLMClient {
		rl := newRPSLimiter(rps, burst) // nil when disabled
		return &rateLimited{next: next, rl: rl}
	}
}

type rateLimited struct {
	next LLMClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}
func (c *rateLimited) Complete(ctx context.Context, messages []llmclient.Message, params llmclient.Params) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, messages, params)
}

// RateLimitFromEnv reads RPS/BURST from environment variables with the
// given prefixes in priority order. For example, ("INTENT","LLM")
// checks INTENT_RPS/INTENT_BURST first, then LLM_RPS/LLM_BURST.
func RateLimitFromEnv(prefixes ...string) Middleware {
	find := func(suffix string) string {
		for _, p := range prefixes {
			if p == "" {
				continue
			}
			if v := os.Getenv(p + suffix); v != "" {
				return v
			}
		}
		return ""
	}
	rps, _ := strconv.ParseFloat(find("_RPS"), 64)
	burst, _ := strconv.Atoi(find("_BURST"))
	return RateLimit(rps, burst)
}

// RespectRateLimitSignals delays a call while the wrapped provider's last
// response reported an exhausted quota. It must wrap the provider client
// directly, so place it last in Wrap. Clients that do not expose rate-limit
// headers pass through unchanged.
func RespectRateLimitSignals(adapter llmclient.RateLimitControlAdapter) Middleware {
	return func(next LLMClient) LLMClient {
		aware, ok := next.(llmclient.RateLimitHeaderAwareClient)
		if !ok || adapter == nil {
			return next
		}
		return &signalControlled{next: next, aware: aware, adapter: adapter}
	}
}

type signalControlled struct {
	next    LLMClient
	aware   llmclient.RateLimitHeaderAwareClient
	adapter llmclient.RateLimitControlAdapter
}

func (m *signalControlled) Name() string { return m.next.Name() }
func (m *signalControlled) Close() error { return m.next.Close() }
func (m *signalControlled) Complete(ctx context.Context, messages []llmclient.Message, params llmclient.Params) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	return m.next.Complete(ctx, messages, params)
}

func (m *signalControlled) wait(ctx context.Context) error {
	headers, ok := m.aware.LastRateLimitHeaders()
	if !ok {
		return nil
	}
	wait := m.adapter.NextWait(headers)
	if !headers.ReceivedAt.IsZero() {
		wait -= time.Since(headers.ReceivedAt)
	}
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// -------- Logging & Hooks --------

// WithLogging logs request size, latency and errors per phase. A nil logger
// disables output.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next LLMClient) LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next LLMClient
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Complete(ctx context.Context, messages []llmclient.Message, params llmclient.Params) (string, error) {
	size := 0
	for _, m := range messages {
		size += len(m.Content)
	}
	phase := PhaseFrom(ctx)
	l.log.Debug("llm request",
		zap.String("phase", phase),
		zap.String("client", l.next.Name()),
		zap.Int("bytes", size),
		zap.Int("max_tokens", params.MaxTokens),
	)
	start := time.Now()
	text, err := l.next.Complete(ctx, messages, params)
	if err != nil {
		l.log.Warn("llm error",
			zap.String("phase", phase),
			zap.String("client", l.next.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return text, err
	}
	l.log.Info("llm response",
		zap.String("phase", phase),
		zap.String("client", l.next.Name()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(text)),
	)
	return text, nil
}

// WithHooks calls HookFrom(ctx).Before/After around Complete.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next LLMClient) LLMClient {
		return &hooked{next: next}
	}
}

type hooked struct{ next LLMClient }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }
func (h *hooked) Complete(ctx context.Context, messages []llmclient.Message, params llmclient.Params) (string, error) {
	hook := HookFrom(ctx)
	if hook != nil {
		hook.Before(ctx, PhaseFrom(ctx), messages, params)
	}
	text, err := h.next.Complete(ctx, messages, params)
	if hook != nil {
		hook.After(ctx, PhaseFrom(ctx), text, err)
	}
	return text, err
}
