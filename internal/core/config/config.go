package config

import "time"

// AppConfig represents the top-level client configuration.
type AppConfig struct {
	Service   ServiceConfig   `yaml:"service"`
	Retry     RetryConfig     `yaml:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
	Batch     BatchConfig     `yaml:"batch"`
}

// ServiceConfig holds the remote boleto service settings.
type ServiceConfig struct {
	BaseURL            string        `yaml:"base_url"`
	Timeout            time.Duration `yaml:"timeout"` // per attempt
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	UserAgent          string        `yaml:"user_agent"`
}

// RetryConfig holds the retry policy.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"` // includes the first attempt
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	RetryPost    bool          `yaml:"retry_post"`
}

// RateLimitConfig holds the client-side limiter settings.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
}

// CacheConfig holds the optional Redis response cache.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"` // empty = no cache
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// BatchConfig holds batch packaging settings.
type BatchConfig struct {
	TempDir string `yaml:"temp_dir"` // empty = os.TempDir()
}
