package transport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryConfig_Delay(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.MaxDelay = 5 * time.Second

	assert.Equal(t, 1*time.Second, cfg.delay(1))
	assert.Equal(t, 2*time.Second, cfg.delay(2))
	assert.Equal(t, 4*time.Second, cfg.delay(3))
	assert.Equal(t, 5*time.Second, cfg.delay(4))

	cfg.InitialDelay = 0
	assert.Zero(t, cfg.delay(3))
}

func TestRetryConfig_Backoff_StopsAfterBudget(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond

	b := cfg.backoff()
	var delays []time.Duration
	for {
		d, stop := b.Next()
		if stop {
			break
		}
		delays = append(delays, d)
	}
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestRetryConfig_Methods(t *testing.T) {
	cfg := RetryConfig{}
	assert.True(t, cfg.canRetryMethod("get"))
	assert.True(t, cfg.canRetryMethod(http.MethodHead))
	assert.False(t, cfg.canRetryMethod(http.MethodPost))

	withPost := cfg.WithMethod("post")
	assert.True(t, withPost.canRetryMethod(http.MethodPost))
	assert.True(t, withPost.canRetryMethod(http.MethodGet))
	assert.False(t, cfg.canRetryMethod(http.MethodPost), "WithMethod must not mutate the receiver")
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()

	tests := []struct {
		name   string
		method string
		err    error
		want   bool
	}{
		{"503 on GET", http.MethodGet, &Error{Kind: KindGeneric, StatusCode: 503, sent: true}, true},
		{"429 on GET", http.MethodGet, &Error{Kind: KindGeneric, StatusCode: 429, sent: true}, true},
		{"503 on POST", http.MethodPost, &Error{Kind: KindGeneric, StatusCode: 503, sent: true}, false},
		{"404 on GET", http.MethodGet, &Error{Kind: KindGeneric, StatusCode: 404, sent: true}, false},
		{"400 on GET", http.MethodGet, &Error{Kind: KindValidation, StatusCode: 400, sent: true}, false},
		{"dial failure on POST", http.MethodPost, &Error{Kind: KindConnectivity}, true},
		{"reset after send on POST", http.MethodPost, &Error{Kind: KindConnectivity, sent: true}, false},
		{"timeout on GET", http.MethodGet, &Error{Kind: KindTimeout, sent: true}, true},
		{"cancelled", http.MethodGet, cancelled(context.Canceled), false},
		{"foreign error", http.MethodGet, assert.AnError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.shouldRetry(tt.method, tt.err))
		})
	}
}

func TestRetryConfig_Attempts(t *testing.T) {
	assert.Equal(t, 1, RetryConfig{}.attempts())
	assert.Equal(t, 1, RetryConfig{MaxAttempts: -2}.attempts())
	assert.Equal(t, 3, DefaultRetryConfig().attempts())
}
