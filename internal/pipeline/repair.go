package pipeline

import (
	"context"
	"fmt"
	"strings"

	"sitegen/internal/llm"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/types"
)

const (
	repairTemperature = 0.3
	repairMaxTokens   = 4000
)

// RepairOutcome is the result of a single repair attempt. Artifact is always
// usable: it is the repaired code when Repaired is set and the original
// otherwise. Err records why the attempt did not replace the artifact.
type RepairOutcome struct {
	Artifact types.CodeArtifact
	Repaired bool
	Err      error
}

// CodeRepairer asks the code provider to fix an artifact given its
// validation errors. It never fails the pipeline.
type CodeRepairer struct {
	LLM   llm.LLMClient
	Model string
}

func (p *CodeRepairer) Repair(ctx context.Context, code types.CodeArtifact, errs []string) (out RepairOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = RepairOutcome{Artifact: code, Err: fmt.Errorf("repair: internal error: %v", rec)}
		}
	}()
	msgs := []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: repairSystemPrompt},
		{Role: llmclient.RoleUser, Content: repairUserPrompt(code, errs)},
	}
	text, err := p.LLM.Complete(ctx, msgs, llmclient.Params{
		Model:       p.Model,
		Temperature: llmclient.Temperature(repairTemperature),
		MaxTokens:   repairMaxTokens,
	})
	if err != nil {
		return RepairOutcome{Artifact: code, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return RepairOutcome{Artifact: code, Err: fmt.Errorf("repair: %w", llmclient.ErrEmptyResponse)}
	}
	return RepairOutcome{Artifact: types.CodeArtifact(text), Repaired: true}
}
