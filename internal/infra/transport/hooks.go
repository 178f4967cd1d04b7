package transport

import "time"

// Attempt describes one HTTP attempt of a logical call.
type Attempt struct {
	RequestID  string
	Method     string
	Path       string
	Attempt    int // 1-based
	StatusCode int // 0 when no response was received
	Latency    time.Duration
	Err        error
	WillRetry  bool
}

// Outcome is a short label for the attempt result: "ok" or the error kind.
func (a Attempt) Outcome() string {
	if a.Err == nil {
		return "ok"
	}
	if k, ok := KindOf(a.Err); ok {
		return k.String()
	}
	return "error"
}

// Observer is notified after every attempt. Implementations must be safe for
// concurrent use; they run on the caller's goroutine and should not block.
type Observer interface {
	ObserveAttempt(a Attempt)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(a Attempt)

func (f ObserverFunc) ObserveAttempt(a Attempt) { f(a) }
