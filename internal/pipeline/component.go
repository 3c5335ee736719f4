package pipeline

import (
	"context"
	"errors"
	"strings"

	"sitegen/internal/llm"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/types"
)

const (
	componentTemperature = 0.7
	componentMaxTokens   = 2000
	refineTemperature    = 0.5
	refineMaxTokens      = 4000
)

// GenerateComponent asks the code provider for one reusable component. An
// empty completion yields an empty string; provider failures are returned.
func (o *Orchestrator) GenerateComponent(ctx context.Context, name, description, style string) (string, error) {
	if style == "" {
		style = types.DefaultStyle
	}
	msgs := []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: componentSystemPrompt(style)},
		{Role: llmclient.RoleUser, Content: componentUserPrompt(name, description)},
	}
	text, err := o.synth.LLM.Complete(llm.WithPhase(ctx, PhaseComponent), msgs, llmclient.Params{
		Model:       o.synth.Model,
		Temperature: llmclient.Temperature(componentTemperature),
		MaxTokens:   componentMaxTokens,
	})
	if errors.Is(err, llmclient.ErrEmptyResponse) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// RefineCode rewrites code according to feedback. An empty completion
// returns the input unchanged.
func (o *Orchestrator) RefineCode(ctx context.Context, code, feedback string) (string, error) {
	msgs := []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: refineSystemPrompt},
		{Role: llmclient.RoleUser, Content: refineUserPrompt(code, feedback)},
	}
	text, err := o.synth.LLM.Complete(llm.WithPhase(ctx, PhaseRefine), msgs, llmclient.Params{
		Model:       o.synth.Model,
		Temperature: llmclient.Temperature(refineTemperature),
		MaxTokens:   refineMaxTokens,
	})
	if errors.Is(err, llmclient.ErrEmptyResponse) {
		return code, nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return code, nil
	}
	return text, nil
}
