// Package transport executes calls against the boleto service with a
// per-attempt deadline, a retry/backoff policy and a client-owned connection
// pool, and classifies every failure into an *Error.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the id shared by all attempts of one logical call.
const RequestIDHeader = "X-Request-ID"

// Body is a replayable request body. Open is called once per attempt.
type Body interface {
	Open() (io.ReadCloser, error)
	ContentType() string
	Size() int64
}

// Call is one logical request against the service.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   Body
}

// RawResult is a successful (status < 400) exchange.
type RawResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// ContentType returns the media type of the response without parameters.
func (r *RawResult) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// Config configures an Engine.
type Config struct {
	BaseURL string
	// Timeout bounds each attempt; every retry gets a fresh deadline.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate checks. Development only.
	InsecureSkipVerify bool
	UserAgent          string
	Retry              RetryConfig
	// Limiter, when set, is waited on before every attempt.
	Limiter   *rate.Limiter
	Logger    *slog.Logger
	Observers []Observer
	// Transport overrides the pooled default RoundTripper.
	Transport http.RoundTripper
}

// DefaultTimeout is the per-attempt deadline used when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Engine is safe for concurrent use. Its only shared mutable state lives in
// the connection pool, the limiter and the observers, all internally
// synchronized.
type Engine struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	retry      RetryConfig
	limiter    *rate.Limiter
	logger     *slog.Logger
	observers  []Observer
}

// NewEngine validates cfg and builds an Engine with its own connection pool.
func NewEngine(cfg Config) (*Engine, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("base url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("TLS certificate verification disabled", "base_url", u.String())
	}

	observers := make([]Observer, 0, len(cfg.Observers))
	for _, o := range cfg.Observers {
		if o != nil {
			observers = append(observers, o)
		}
	}

	return &Engine{
		baseURL:    u,
		httpClient: newHTTPClient(cfg.InsecureSkipVerify, cfg.Transport),
		timeout:    timeout,
		userAgent:  cfg.UserAgent,
		retry:      cfg.Retry,
		limiter:    cfg.Limiter,
		logger:     logger,
		observers:  observers,
	}, nil
}

// Execute runs call until it succeeds, fails with a non-retryable error, or
// exhausts the attempt budget. On exhaustion the last attempt's *Error is
// returned as is. Cancelling ctx aborts the in-flight attempt and any
// scheduled retry.
func (e *Engine) Execute(ctx context.Context, call Call) (*RawResult, error) {
	if call.Method == "" {
		call.Method = http.MethodGet
	}
	target := e.resolve(call.Path, call.Query)
	requestID := uuid.NewString()
	maxAttempts := e.retry.attempts()

	var (
		result  *RawResult
		attempt int
	)

	err := retry.Do(ctx, e.retry.backoff(), func(ctx context.Context) error {
		attempt++
		start := time.Now()
		res, err := e.do(ctx, call, target, requestID)
		latency := time.Since(start)

		willRetry := err != nil && attempt < maxAttempts && e.retry.shouldRetry(call.Method, err)
		status := 0
		if res != nil {
			status = res.StatusCode
		} else if te, ok := AsError(err); ok {
			status = te.StatusCode
		}
		e.notify(Attempt{
			RequestID:  requestID,
			Method:     call.Method,
			Path:       call.Path,
			Attempt:    attempt,
			StatusCode: status,
			Latency:    latency,
			Err:        err,
			WillRetry:  willRetry,
		})

		if err == nil {
			res.Attempts = attempt
			result = res
			return nil
		}
		if willRetry {
			e.logger.Warn("attempt failed, retrying",
				"request_id", requestID,
				"method", call.Method,
				"path", call.Path,
				"attempt", attempt,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if _, ok := AsError(err); !ok {
			// go-retry reports cancellation observed between attempts directly.
			err = cancelled(err)
		}
		e.logger.Error("call failed",
			"request_id", requestID,
			"method", call.Method,
			"path", call.Path,
			"attempts", attempt,
			"error", err,
		)
		return nil, err
	}

	e.logger.Debug("call succeeded",
		"request_id", requestID,
		"method", call.Method,
		"path", call.Path,
		"status", result.StatusCode,
		"attempts", attempt,
	)
	return result, nil
}

// do performs a single attempt under its own deadline.
func (e *Engine) do(ctx context.Context, call Call, target, requestID string) (*RawResult, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, cancelled(ctx.Err())
			}
			// The next token would arrive after the caller's deadline.
			if _, ok := ctx.Deadline(); ok {
				return nil, cancelled(context.DeadlineExceeded)
			}
			return nil, &Error{Kind: KindGeneric, Message: "rate limiter: " + err.Error(), Cause: err, terminal: true}
		}
	}

	actx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var body io.ReadCloser
	if call.Body != nil {
		b, err := call.Body.Open()
		if err != nil {
			return nil, &Error{Kind: KindGeneric, Message: "open request body: " + err.Error(), Cause: err, terminal: true}
		}
		body = b
	}

	req, err := http.NewRequestWithContext(actx, call.Method, target, body)
	if err != nil {
		if body != nil {
			_ = body.Close()
		}
		return nil, &Error{Kind: KindGeneric, Message: "create request: " + err.Error(), Cause: err, terminal: true}
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", call.Body.ContentType())
		if n := call.Body.Size(); n > 0 {
			req.ContentLength = n
		}
	}
	req.Header.Set(RequestIDHeader, requestID)
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, e.networkError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		ne := e.networkError(ctx, err)
		ne.sent = true
		return nil, ne
	}

	if err := Classify(resp.StatusCode, data); err != nil {
		return nil, err
	}

	return &RawResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// networkError classifies a failure that produced no usable response.
func (e *Engine) networkError(parent context.Context, err error) *Error {
	if parent.Err() != nil {
		return cancelled(parent.Err())
	}

	sent := !isDialError(err)

	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("timeout after %s", e.timeout),
			Cause:   err,
			sent:    sent,
		}
	}

	return &Error{
		Kind:    KindConnectivity,
		Message: "connection error: " + err.Error(),
		Cause:   err,
		sent:    sent,
	}
}

func isDialError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// cancelled wraps a caller-side context error. It is never retried.
func cancelled(cause error) *Error {
	kind := KindConnectivity
	if errors.Is(cause, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{
		Kind:     kind,
		Message:  "request cancelled: " + cause.Error(),
		Cause:    cause,
		terminal: true,
	}
}

func (e *Engine) resolve(path string, q url.Values) string {
	u := *e.baseURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = e.baseURL.Path + path
	u.RawQuery = ""
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (e *Engine) notify(a Attempt) {
	e.logger.Debug("attempt",
		"request_id", a.RequestID,
		"method", a.Method,
		"path", a.Path,
		"attempt", a.Attempt,
		"status", a.StatusCode,
		"latency", a.Latency,
		"outcome", a.Outcome(),
	)
	for _, o := range e.observers {
		o.ObserveAttempt(a)
	}
}

// Close releases idle pooled connections.
func (e *Engine) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}
