package transport

import (
	"net/http"
	"sync"
	"time"
)

// Status represents the health state of the remote service as seen by one client.
type Status int

const (
	StatusHealthy     Status = iota // Service is answering normally
	StatusDegraded                  // Slow or frequently failing
	StatusThrottled                 // Recently answered 429
	StatusUnreachable               // Last attempts never got a response
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// MonitorStats holds monitoring statistics for a client.
type MonitorStats struct {
	Status            Status
	AverageLatency    time.Duration
	Attempts          int
	Failures          int
	Retries           int
	ThrottleCount429  int
	ServerErrors      int
	NetworkErrors     int
	ErrorRate         float64
	RequestsLastHour  int
	LastSuccessAt     time.Time
	LastFailureAt     time.Time
	ConsecutiveNoResp int
}

// Monitor tracks attempt outcomes. It is an Observer and safe for concurrent use.
type Monitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	attempts          int
	failures          int
	retries           int
	status429Count    int
	serverErrors      int
	networkErrors     int
	consecutiveNoResp int
	lastThrottleTime  time.Time
	lastSuccessAt     time.Time
	lastFailureAt     time.Time

	attemptTimestamps []time.Time
	windowDuration    time.Duration

	throttleCooldown      time.Duration
	slowResponseThreshold time.Duration
	degradedThreshold     float64
	unreachableAfter      int
}

// NewMonitor creates a monitor with default thresholds.
func NewMonitor() *Monitor {
	return &Monitor{
		recentLatencies:       make([]time.Duration, 0, 100),
		maxLatencyWindow:      100,
		attemptTimestamps:     make([]time.Time, 0),
		windowDuration:        time.Hour,
		throttleCooldown:      time.Minute,
		slowResponseThreshold: 5 * time.Second,
		degradedThreshold:     0.3, // 30% failed attempts
		unreachableAfter:      3,
	}
}

// ObserveAttempt implements Observer.
func (m *Monitor) ObserveAttempt(a Attempt) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.attempts++
	if a.WillRetry {
		m.retries++
	}

	m.recentLatencies = append(m.recentLatencies, a.Latency)
	if len(m.recentLatencies) > m.maxLatencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}

	m.attemptTimestamps = append(m.attemptTimestamps, now)
	cutoff := now.Add(-m.windowDuration)
	i := 0
	for i < len(m.attemptTimestamps) && !m.attemptTimestamps[i].After(cutoff) {
		i++
	}
	m.attemptTimestamps = m.attemptTimestamps[i:]

	if a.Err == nil {
		m.lastSuccessAt = now
		m.consecutiveNoResp = 0
		return
	}

	m.failures++
	m.lastFailureAt = now

	switch {
	case a.StatusCode == http.StatusTooManyRequests:
		m.status429Count++
		m.lastThrottleTime = now
		m.consecutiveNoResp = 0
	case a.StatusCode >= http.StatusInternalServerError:
		m.serverErrors++
		m.consecutiveNoResp = 0
	case a.StatusCode == 0:
		m.networkErrors++
		m.consecutiveNoResp++
	default:
		m.consecutiveNoResp = 0
	}
}

// Status returns the current health classification.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *Monitor) statusLocked() Status {
	if m.consecutiveNoResp >= m.unreachableAfter {
		return StatusUnreachable
	}
	if !m.lastThrottleTime.IsZero() && time.Since(m.lastThrottleTime) < m.throttleCooldown {
		return StatusThrottled
	}
	if m.attempts >= 10 && float64(m.failures)/float64(m.attempts) > m.degradedThreshold {
		return StatusDegraded
	}
	if len(m.recentLatencies) > 10 && m.averageLatencyLocked() > m.slowResponseThreshold {
		return StatusDegraded
	}
	return StatusHealthy
}

func (m *Monitor) averageLatencyLocked() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, lat := range m.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(m.recentLatencies))
}

// Stats returns a snapshot of the monitoring statistics.
func (m *Monitor) Stats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := MonitorStats{
		Status:            m.statusLocked(),
		AverageLatency:    m.averageLatencyLocked(),
		Attempts:          m.attempts,
		Failures:          m.failures,
		Retries:           m.retries,
		ThrottleCount429:  m.status429Count,
		ServerErrors:      m.serverErrors,
		NetworkErrors:     m.networkErrors,
		RequestsLastHour:  len(m.attemptTimestamps),
		LastSuccessAt:     m.lastSuccessAt,
		LastFailureAt:     m.lastFailureAt,
		ConsecutiveNoResp: m.consecutiveNoResp,
	}
	if m.attempts > 0 {
		stats.ErrorRate = float64(m.failures) / float64(m.attempts)
	}
	return stats
}
