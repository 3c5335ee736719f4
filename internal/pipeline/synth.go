package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sitegen/internal/llm"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/types"
)

const (
	codeTemperature = 0.7
	codeMaxTokens   = 4000
)

// CodeSynthesizer turns a GenerationContext into a page artifact using the
// code provider. The completion is returned unsanitized.
type CodeSynthesizer struct {
	LLM   llm.LLMClient
	Model string
}

func (p *CodeSynthesizer) Synthesize(ctx context.Context, gc types.GenerationContext, style string) (types.CodeArtifact, error) {
	if style == "" {
		style = types.DefaultStyle
	}
	msgs := []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: codeSystemPrompt(style)},
		{Role: llmclient.RoleUser, Content: codeUserPrompt(gc)},
	}
	text, err := p.LLM.Complete(ctx, msgs, llmclient.Params{
		Model:       p.Model,
		Temperature: llmclient.Temperature(codeTemperature),
		MaxTokens:   codeMaxTokens,
	})
	if errors.Is(err, llmclient.ErrEmptyResponse) {
		return "", fmt.Errorf("%w: %w", ErrCodeGeneration, err)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrCodeGeneration
	}
	return types.CodeArtifact(text), nil
}
