package pipeline

import (
	"context"
	"time"
)

// Stage is a state of the generation state machine.
type Stage string

const (
	StageStart           Stage = "start"
	StageIntentExtracted Stage = "intent_extracted"
	StageCodeSynthesized Stage = "code_synthesized"
	StageValidated       Stage = "validated"
	StageRepaired        Stage = "repaired"
	StageResponded       Stage = "responded"
	StageFailed          Stage = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s Stage) Terminal() bool { return s == StageResponded || s == StageFailed }

// Event is published once per state entered.
type Event struct {
	RunID   string        `json:"run_id"`
	Stage   Stage         `json:"stage"`
	At      time.Time     `json:"at"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Error   string        `json:"error,omitempty"`
	// Detail carries stage-specific values such as validity or repair outcome.
	Detail map[string]any `json:"detail,omitempty"`
}

// Observer receives stage events. OnStage runs on the pipeline goroutine
// and should return quickly.
type Observer interface {
	OnStage(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) OnStage(ctx context.Context, ev Event) { f(ctx, ev) }

type multiObserver []Observer

func (m multiObserver) OnStage(ctx context.Context, ev Event) {
	for _, o := range m {
		o.OnStage(ctx, ev)
	}
}

// Observers fans events out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type ctxKeyObserver struct{}

// WithObserver attaches a request-scoped observer in addition to the
// orchestrator's own.
func WithObserver(ctx context.Context, obs Observer) context.Context {
	return context.WithValue(ctx, ctxKeyObserver{}, obs)
}

func observerFrom(ctx context.Context) Observer {
	if v, ok := ctx.Value(ctxKeyObserver{}).(Observer); ok {
		return v
	}
	return nil
}
