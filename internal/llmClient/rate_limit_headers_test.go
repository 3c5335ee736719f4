package llmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRateLimitHeaders_GroqFormat(t *testing.T) {
	h := http.Header{}
	h.Set("retry-after", "2")
	h.Set("x-ratelimit-limit-requests", "14400")
	h.Set("x-ratelimit-limit-tokens", "18000")
	h.Set("x-ratelimit-remaining-requests", "14370")
	h.Set("x-ratelimit-remaining-tokens", "17997")
	h.Set("x-ratelimit-reset-requests", "2m59.56s")
	h.Set("x-ratelimit-reset-tokens", "7.66s")

	got, ok := parseRateLimitHeaders(h)
	require.True(t, ok)
	assert.Equal(t, 2, got.RetryAfterSeconds)
	assert.Equal(t, 14400, got.LimitRequests)
	assert.Equal(t, 18000, got.LimitTokens)
	assert.Equal(t, 14370, got.RemainingRequests)
	assert.Equal(t, 17997, got.RemainingTokens)
	assert.Equal(t, 2*time.Minute+59560*time.Millisecond, got.ResetRequests)
	assert.Equal(t, 7660*time.Millisecond, got.ResetTokens)
}

func TestParseRateLimitHeaders_None(t *testing.T) {
	_, ok := parseRateLimitHeaders(http.Header{})
	assert.False(t, ok)
}

func TestHeaderRateLimitControlAdapter(t *testing.T) {
	var a HeaderRateLimitControlAdapter
	assert.Equal(t, 3*time.Second, a.NextWait(RateLimitHeaders{RetryAfterSeconds: 3}))
	assert.Equal(t, time.Second, a.NextWait(RateLimitHeaders{RemainingTokens: 0, ResetTokens: time.Second, RemainingRequests: 5}))
	assert.Equal(t, 2*time.Second, a.NextWait(RateLimitHeaders{RemainingTokens: -1, RemainingRequests: 0, ResetRequests: 2 * time.Second}))
	assert.Zero(t, a.NextWait(RateLimitHeaders{RemainingTokens: 10, RemainingRequests: 10, ResetTokens: time.Second}))
	assert.Zero(t, a.NextWait(RateLimitHeaders{RemainingTokens: -1, RemainingRequests: -1}))
}

func TestOpenAIClient_RecordsRateLimitHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ratelimit-remaining-tokens", "0")
		w.Header().Set("x-ratelimit-reset-tokens", "1.5s")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL, APIKey: "k"})
	_, seen := c.LastRateLimitHeaders()
	assert.False(t, seen)

	_, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, Params{})
	require.NoError(t, err)
	got, seen := c.LastRateLimitHeaders()
	require.True(t, seen)
	assert.Equal(t, 0, got.RemainingTokens)
	assert.Equal(t, 1500*time.Millisecond, HeaderRateLimitControlAdapter{}.NextWait(got))
}
