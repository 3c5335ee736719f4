package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	openAIBaseURL = "https://api.openai.com/v1/chat/completions"
	groqBaseURL   = "https://api.groq.com/openai/v1/chat/completions"
)

// OpenAIConfig configures an OpenAI-compatible chat completions endpoint.
type OpenAIConfig struct {
	Provider  string // label used in errors and Name(); defaults to "openai"
	BaseURL   string
	APIKey    string // explicit key; when empty APIKeyEnv is read at call time
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// OpenAIClient calls the OpenAI Chat Completions API or any compatible
// service (Groq, OpenRouter, local gateways).
type OpenAIClient struct {
	http     *http.Client
	provider string
	baseURL  string
	apiKey   string
	keyEnv   string
	model    string

	mu        sync.Mutex
	limits    RateLimitHeaders
	hasLimits bool
}

var _ RateLimitHeaderAwareClient = (*OpenAIClient)(nil)

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = openAIBaseURL
	}
	if cfg.APIKeyEnv == "" && cfg.APIKey == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &OpenAIClient{
		http:     &http.Client{Timeout: cfg.Timeout},
		provider: cfg.Provider,
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		keyEnv:   cfg.APIKeyEnv,
		model:    cfg.Model,
	}
}

// NewGroqClient returns an OpenAI-compatible client bound to Groq.
func NewGroqClient(model string) *OpenAIClient {
	return NewOpenAIClient(OpenAIConfig{
		Provider:  "groq",
		BaseURL:   groqBaseURL,
		APIKeyEnv: "GROQ_API_KEY",
		Model:     model,
	})
}

func (c *OpenAIClient) Name() string { return c.provider + ":" + c.model }
func (c *OpenAIClient) Close() error { return nil }

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) resolveKey() string {
	if c.apiKey != "" {
		return c.apiKey
	}
	return strings.TrimSpace(os.Getenv(c.keyEnv))
}

// Complete sends the messages unchanged and returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	key := c.resolveKey()
	if key == "" {
		return "", missingKey(c.provider, c.keyEnv)
	}
	model := params.Model
	if model == "" {
		model = c.model
	}
	reqBody := chatReq{
		Model:       model,
		Messages:    make([]chatMessage, 0, len(messages)),
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", c.provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", &ProviderError{Provider: c.provider, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: c.provider, Err: err}
	}
	defer resp.Body.Close()
	c.recordLimits(resp.Header)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readErrorBody(resp.Body)
		perr := &ProviderError{Provider: c.provider, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", body)}
		// Context length exceeded will fail the same way on every attempt.
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(body, `"context_length_exceeded"`) {
			return "", NewPermanentError(perr)
		}
		return "", perr
	}
	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: c.provider, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s: %w", c.provider, ErrEmptyResponse)
	}
	return out.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) recordLimits(h http.Header) {
	limits, ok := parseRateLimitHeaders(h)
	if !ok {
		return
	}
	limits.ReceivedAt = time.Now()
	c.mu.Lock()
	c.limits, c.hasLimits = limits, true
	c.mu.Unlock()
}

// LastRateLimitHeaders returns the limits reported by the latest response.
func (c *OpenAIClient) LastRateLimitHeaders() (RateLimitHeaders, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limits, c.hasLimits
}

func readErrorBody(r io.Reader) string {
	const max = 2048
	body, _ := io.ReadAll(io.LimitReader(r, max))
	return strings.TrimSpace(string(body))
}
