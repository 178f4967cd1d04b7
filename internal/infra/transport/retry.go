package transport

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	// MaxAttempts includes the first attempt. Values <= 1 disable retries.
	MaxAttempts int
	// InitialDelay is the backoff factor: the k-th retry waits
	// InitialDelay * BackoffMultiple^(k-1).
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64

	// Methods eligible for retry. Empty means GET, HEAD and OPTIONS.
	Methods map[string]bool
	// StatusCodes eligible for retry. Empty means 429, 500, 502, 503, 504.
	StatusCodes map[int]bool
}

// DefaultRetryConfig provides the service defaults: 3 attempts, 1s factor.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		BackoffMultiple: 2.0,
		Methods:         defaultRetryMethods(),
		StatusCodes:     defaultRetryStatusCodes(),
	}
}

func defaultRetryMethods() map[string]bool {
	return map[string]bool{
		http.MethodGet:     true,
		http.MethodHead:    true,
		http.MethodOptions: true,
	}
}

func defaultRetryStatusCodes() map[int]bool {
	return map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
	}
}

// WithMethod returns a copy of c that also retries method. Retrying POST
// re-submits the whole payload, so only enable it when the service is known
// to deduplicate.
func (c RetryConfig) WithMethod(method string) RetryConfig {
	methods := make(map[string]bool, len(c.Methods)+1)
	if len(c.Methods) == 0 {
		methods = defaultRetryMethods()
	} else {
		for m, ok := range c.Methods {
			methods[m] = ok
		}
	}
	methods[strings.ToUpper(method)] = true
	c.Methods = methods
	return c
}

func (c RetryConfig) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

func (c RetryConfig) canRetryMethod(method string) bool {
	methods := c.Methods
	if len(methods) == 0 {
		methods = defaultRetryMethods()
	}
	return methods[strings.ToUpper(strings.TrimSpace(method))]
}

func (c RetryConfig) canRetryStatus(code int) bool {
	statuses := c.StatusCodes
	if len(statuses) == 0 {
		statuses = defaultRetryStatusCodes()
	}
	return statuses[code]
}

// shouldRetry decides whether a failed attempt is worth repeating, ignoring
// the attempt budget.
func (c RetryConfig) shouldRetry(method string, err error) bool {
	var te *Error
	if !errors.As(err, &te) || te.terminal {
		return false
	}
	switch te.Kind {
	case KindConnectivity, KindTimeout:
		// Nothing reached the server, so even a POST is safe to repeat.
		if !te.sent {
			return true
		}
		return c.canRetryMethod(method)
	default:
		return c.canRetryMethod(method) && c.canRetryStatus(te.StatusCode)
	}
}

// delay returns the sleep before the given retry (1-based).
func (c RetryConfig) delay(retryNum int) time.Duration {
	if c.InitialDelay <= 0 {
		return 0
	}
	mult := c.BackoffMultiple
	if mult <= 0 {
		mult = 2.0
	}
	d := float64(c.InitialDelay) * math.Pow(mult, float64(retryNum-1))
	if c.MaxDelay > 0 && d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	return time.Duration(d)
}

// backoff builds a fresh go-retry schedule for one logical call.
func (c RetryConfig) backoff() retry.Backoff {
	n := 0
	next := retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return c.delay(n), false
	})
	return retry.WithMaxRetries(uint64(c.attempts()-1), next)
}
