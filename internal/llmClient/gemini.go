package llmclient

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// The underlying SDK client is created on the first call so that a missing
// GEMINI_API_KEY surfaces only when a Gemini-backed stage actually runs.
type GeminiClient struct {
	model  string
	apiKey string

	mu  sync.Mutex
	cli *genai.Client
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, model: model}
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) client(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cli != nil {
		return g.cli, nil
	}
	key := g.apiKey
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if key == "" {
		return nil, missingKey("gemini", "GEMINI_API_KEY")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, &ProviderError{Provider: "gemini", Err: err}
	}
	g.cli = cli
	return cli, nil
}

// Complete maps system messages to SystemInstruction and the rest to
// user/model turns.
func (g *GeminiClient) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	cli, err := g.client(ctx)
	if err != nil {
		return "", err
	}
	model := params.Model
	if model == "" {
		model = g.model
	}

	cfg := &genai.GenerateContentConfig{Temperature: params.Temperature}
	if params.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(params.MaxTokens)
	}
	var system []*genai.Part
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, &genai.Part{Text: m.Content})
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: system}
	}

	resp, err := cli.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", &ProviderError{Provider: "gemini", Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	txt := resp.Text()
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return txt, nil
}
