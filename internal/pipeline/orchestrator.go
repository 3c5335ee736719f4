package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sitegen/internal/codecheck"
	"sitegen/internal/llm"
	"sitegen/internal/types"
)

// Phases tag provider calls for middleware logging and hooks.
const (
	PhaseIntent    = "intent"
	PhaseCode      = "code"
	PhaseRepair    = "repair"
	PhaseComponent = "component"
	PhaseRefine    = "refine"
)

const seoSuffix = " - Built with AI Web Builder"

// Orchestrator sequences intent extraction, code synthesis, validation and
// a single repair pass. It holds no per-request state and is safe for
// concurrent use when its clients are.
type Orchestrator struct {
	intent    *IntentExtractor
	synth     *CodeSynthesizer
	repair    *CodeRepairer
	validator *codecheck.Validator
	log       *zap.Logger
	observer  Observer
	now       func() time.Time
	newRunID  func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func WithValidator(v *codecheck.Validator) Option {
	return func(o *Orchestrator) {
		if v != nil {
			o.validator = v
		}
	}
}

// WithStageObserver registers an observer for every run.
func WithStageObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithModels overrides the per-call model names. Empty values keep the
// client defaults.
func WithModels(intentModel, codeModel string) Option {
	return func(o *Orchestrator) {
		o.intent.Model = intentModel
		o.synth.Model = codeModel
		o.repair.Model = codeModel
	}
}

func withClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires the pipeline. intentLLM serves extraction; codeLLM
// serves synthesis, repair and the component/refine operations.
func NewOrchestrator(intentLLM, codeLLM llm.LLMClient, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		intent:    &IntentExtractor{LLM: intentLLM},
		synth:     &CodeSynthesizer{LLM: codeLLM},
		repair:    &CodeRepairer{LLM: codeLLM},
		validator: codecheck.New(),
		log:       zap.NewNop(),
		now:       time.Now,
		newRunID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validator returns the validator used for generated code.
func (o *Orchestrator) Validator() *codecheck.Validator { return o.validator }

type ctxKeyRunID struct{}

// RunIDFrom returns the id of the run issuing a provider call or stage
// event, or "" outside a run.
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRunID{}).(string)
	return id
}

type run struct {
	o        *Orchestrator
	ctx      context.Context
	id       string
	started  time.Time
	observer Observer
	log      *zap.Logger
}

func (r *run) enter(stage Stage, err error, detail map[string]any) {
	now := r.o.now()
	ev := Event{RunID: r.id, Stage: stage, At: now, Elapsed: now.Sub(r.started), Detail: detail}
	if err != nil {
		ev.Error = err.Error()
		r.log.Warn("stage", zap.String("stage", string(stage)), zap.Duration("elapsed", ev.Elapsed), zap.Error(err))
	} else {
		r.log.Info("stage", zap.String("stage", string(stage)), zap.Duration("elapsed", ev.Elapsed))
	}
	r.publish(ev)
}

// publish isolates the run from observer panics.
func (r *run) publish(ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("observer panic", zap.String("stage", string(ev.Stage)), zap.Any("panic", rec))
		}
	}()
	r.observer.OnStage(r.ctx, ev)
}

// GenerateWebsite runs the full pipeline. It never returns an error: every
// failure, including a panic inside a stage, yields Success=false with Error
// set to the triggering message.
func (o *Orchestrator) GenerateWebsite(ctx context.Context, req types.GenerationRequest) (resp types.GenerationResponse) {
	r := &run{
		o:        o,
		id:       o.newRunID(),
		started:  o.now(),
		observer: Observers(o.observer, observerFrom(ctx)),
	}
	r.log = o.log.With(zap.String("run_id", r.id))
	ctx = context.WithValue(ctx, ctxKeyRunID{}, r.id)
	r.ctx = ctx

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("internal error: %v", rec)
			r.log.Error("pipeline panic", zap.Any("panic", rec), zap.Stack("stack"))
			resp = r.fail(err)
		}
	}()

	r.enter(StageStart, nil, map[string]any{"style": req.StyleOrDefault()})

	gc, err := o.intent.Extract(llm.WithPhase(ctx, PhaseIntent), req.Prompt)
	if err != nil {
		return r.fail(err)
	}
	r.enter(StageIntentExtracted, nil, map[string]any{"intent": gc.Intent, "pages": len(gc.Pages)})

	code, err := o.synth.Synthesize(llm.WithPhase(ctx, PhaseCode), gc, req.StyleOrDefault())
	if err != nil {
		return r.fail(err)
	}
	r.enter(StageCodeSynthesized, nil, map[string]any{"bytes": len(code)})

	vr := o.validator.Validate(code)
	r.enter(StageValidated, nil, map[string]any{"valid": vr.Valid, "errors": len(vr.Errors), "warnings": len(vr.Warnings)})

	diag := &types.Diagnostics{
		Valid:    vr.Valid,
		Errors:   vr.Errors,
		Warnings: vr.Warnings,
		Repair:   types.RepairNotNeeded,
	}
	if !vr.Valid {
		out := o.repair.Repair(llm.WithPhase(ctx, PhaseRepair), code, vr.ErrorMessages())
		code = out.Artifact
		if out.Repaired {
			diag.Repair = types.RepairRepaired
			r.enter(StageRepaired, nil, map[string]any{"repair": types.RepairRepaired})
		} else {
			diag.Repair = types.RepairFailed
			diag.RepairError = out.Err.Error()
			r.log.Warn("repair failed, returning unrepaired code", zap.Error(out.Err))
			r.enter(StageRepaired, nil, map[string]any{"repair": types.RepairFailed, "repair_error": diag.RepairError})
		}
	}

	resp = types.GenerationResponse{
		Success: true,
		RunID:   r.id,
		Pages: []types.GeneratedPage{{
			Name:           "Home",
			Path:           "/",
			Code:           string(code),
			SEOTitle:       gc.Intent,
			SEODescription: gc.Intent + seoSuffix,
		}},
		Components:  []types.GeneratedComponent{},
		Diagnostics: diag,
	}
	r.enter(StageResponded, nil, nil)
	return resp
}

func (r *run) fail(err error) types.GenerationResponse {
	r.enter(StageFailed, err, nil)
	return types.GenerationResponse{Success: false, RunID: r.id, Error: err.Error()}
}
