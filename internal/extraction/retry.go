package extraction

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// RetryStrategy defines exponential backoff for model API calls
type RetryStrategy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Jitter      bool
}

// NewRetryStrategy creates a RetryStrategy with defaults
func NewRetryStrategy(maxAttempts int) *RetryStrategy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &RetryStrategy{
		MaxAttempts: maxAttempts,
		BaseBackoff: 1 * time.Second,
		MaxBackoff:  8 * time.Second,
		Jitter:      true,
	}
}

// CalculateBackoff returns the wait before the given retry attempt: 1s, 2s, 4s, 8s...
func (s *RetryStrategy) CalculateBackoff(attemptNumber int) time.Duration {
	if attemptNumber <= 0 {
		return s.BaseBackoff
	}

	multiplier := math.Pow(2, float64(attemptNumber-1))
	backoff := time.Duration(multiplier) * s.BaseBackoff
	if backoff > s.MaxBackoff {
		backoff = s.MaxBackoff
	}

	if s.Jitter {
		// +/-10%
		jitterRange := backoff / 10
		if jitterRange > 0 {
			jitter := time.Duration(rand.Int63n(int64(jitterRange*2))) - jitterRange
			backoff += jitter
			if backoff < s.BaseBackoff {
				backoff = s.BaseBackoff
			}
		}
	}

	return backoff
}

// IsRetryable reports whether err is worth another attempt
func (s *RetryStrategy) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return isRetryableStatus(reqErr.HTTPStatusCode)
	}

	msg := err.Error()
	for _, marker := range []string{"deadline exceeded", "timeout", "Timeout", "connection", "EOF", "reset by peer"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// isRetryableStatus: 429 and 5xx are transient, other 4xx are permanent
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code < 600
}

// Do runs fn until it succeeds, returns a permanent error, or attempts run out
func (s *RetryStrategy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !s.IsRetryable(err) || attempt == s.MaxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.CalculateBackoff(attempt)):
		}
	}
	return err
}
