package llmclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitHeaders represents normalized provider rate-limit signals.
type RateLimitHeaders struct {
	RetryAfterSeconds int

	LimitRequests     int
	LimitTokens       int
	RemainingRequests int
	RemainingTokens   int

	ResetRequests time.Duration
	ResetTokens   time.Duration

	// ReceivedAt is when the response carrying these headers arrived.
	ReceivedAt time.Time
}

// RateLimitHeaderAwareClient is an optional interface for clients that expose
// the rate-limit headers of their most recent response.
type RateLimitHeaderAwareClient interface {
	LastRateLimitHeaders() (RateLimitHeaders, bool)
}

// RateLimitControlAdapter converts provider rate-limit signals to a wait duration.
// Middleware can use this adapter to throttle requests without knowing provider details.
type RateLimitControlAdapter interface {
	NextWait(headers RateLimitHeaders) time.Duration
}

// HeaderRateLimitControlAdapter provides generic control behavior for normalized signals.
type HeaderRateLimitControlAdapter struct{}

func (HeaderRateLimitControlAdapter) NextWait(headers RateLimitHeaders) time.Duration {
	if headers.RetryAfterSeconds > 0 {
		return time.Duration(headers.RetryAfterSeconds) * time.Second
	}
	if headers.RemainingTokens == 0 && headers.ResetTokens > 0 {
		return headers.ResetTokens
	}
	if headers.RemainingRequests == 0 && headers.ResetRequests > 0 {
		return headers.ResetRequests
	}
	return 0
}

// parseRateLimitHeaders reads the x-ratelimit-* family shared by OpenAI and
// Groq. Remaining counts that are absent are reported as -1 so they never
// look exhausted.
func parseRateLimitHeaders(h http.Header) (RateLimitHeaders, bool) {
	out := RateLimitHeaders{RemainingRequests: -1, RemainingTokens: -1}
	found := false

	readInt := func(key string) (int, bool) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return 0, false
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	readDur := func(key string) (time.Duration, bool) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return 0, false
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, false
		}
		return d, true
	}

	if v, ok := readInt("retry-after"); ok {
		out.RetryAfterSeconds = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-limit-requests"); ok {
		out.LimitRequests = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-limit-tokens"); ok {
		out.LimitTokens = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-remaining-requests"); ok {
		out.RemainingRequests = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-remaining-tokens"); ok {
		out.RemainingTokens = v
		found = true
	}
	if v, ok := readDur("x-ratelimit-reset-requests"); ok {
		out.ResetRequests = v
		found = true
	}
	if v, ok := readDur("x-ratelimit-reset-tokens"); ok {
		out.ResetTokens = v
		found = true
	}

	return out, found
}
