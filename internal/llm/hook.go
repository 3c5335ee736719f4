package llm

import (
	"context"

	llmclient "sitegen/internal/llmClient"
)

// CallHook observes provider calls. Implementations must not panic.
type CallHook interface {
	Before(ctx context.Context, phase string, messages []llmclient.Message, params llmclient.Params)
	After(ctx context.Context, phase string, text string, err error)
}

type ctxKeyHook struct{}
type ctxKeyPhase struct{}

// WithPhase tags the context with the pipeline stage issuing the call.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// WithCallHook attaches a hook that WithHooks middleware invokes.
func WithCallHook(ctx context.Context, hook CallHook) context.Context {
	return context.WithValue(ctx, ctxKeyHook{}, hook)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) CallHook {
	if v := ctx.Value(ctxKeyHook{}); v != nil {
		if h, ok := v.(CallHook); ok {
			return h
		}
	}
	return nil
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
