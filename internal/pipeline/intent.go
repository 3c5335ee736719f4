package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sitegen/internal/llm"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/types"
	"sitegen/internal/util/jsonutil"
)

const intentMaxTokens = 1024

// IntentExtractor turns a raw prompt into a GenerationContext using the
// reasoning provider.
type IntentExtractor struct {
	LLM   llm.LLMClient
	Model string
}

func (p *IntentExtractor) Extract(ctx context.Context, prompt string) (types.GenerationContext, error) {
	msgs := []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: intentSystemPrompt},
		{Role: llmclient.RoleUser, Content: prompt},
	}
	text, err := p.LLM.Complete(ctx, msgs, llmclient.Params{Model: p.Model, MaxTokens: intentMaxTokens})
	if err != nil {
		return types.GenerationContext{}, err
	}
	return parseIntent(text)
}

// parseIntent decodes the first balanced object in text. Unknown keys are
// ignored; every known key must be present, non-null and correctly typed.
func parseIntent(text string) (types.GenerationContext, error) {
	obj, err := jsonutil.ExtractObject(text)
	if err != nil {
		return types.GenerationContext{}, &IntentParseError{Reason: "no JSON object in model output", Raw: text}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return types.GenerationContext{}, &IntentParseError{Reason: "invalid JSON", Raw: text, Err: err}
	}

	var gc types.GenerationContext
	for _, f := range []struct {
		name string
		dst  any
	}{
		{"intent", &gc.Intent},
		{"pages", &gc.Pages},
		{"features", &gc.Features},
		{"style", &gc.Style},
		{"components", &gc.Components},
	} {
		raw, ok := fields[f.name]
		if !ok || isNull(raw) {
			return types.GenerationContext{}, &IntentParseError{Reason: fmt.Sprintf("field %q is missing", f.name), Raw: text}
		}
		var err error
		switch dst := f.dst.(type) {
		case *[]string:
			*dst, err = decodeStrings(raw)
		default:
			err = json.Unmarshal(raw, dst)
		}
		if err != nil {
			return types.GenerationContext{}, &IntentParseError{Reason: fmt.Sprintf("field %q has the wrong type", f.name), Raw: text, Err: err}
		}
	}

	if len(gc.Pages) == 0 {
		return types.GenerationContext{}, &IntentParseError{Reason: `field "pages" is empty`, Raw: text}
	}
	if strings.TrimSpace(gc.Style) == "" {
		return types.GenerationContext{}, &IntentParseError{Reason: `field "style" is empty`, Raw: text}
	}
	return gc, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeStrings decodes a JSON array whose entries must all be strings.
// encoding/json would silently turn a null entry into "".
func decodeStrings(raw json.RawMessage) ([]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		if isNull(item) {
			return nil, fmt.Errorf("entry %d is null", i)
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}
