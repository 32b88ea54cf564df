package core

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Credentials holds the API key pair used to sign trading requests.
// Absence of credentials is valid and restricts a client to public calls.
type Credentials struct {
	// Key is the public API key sent with each signed request.
	Key string `json:"key"`
	// Secret is the shared secret used as the HMAC key. Never transmitted.
	Secret string `json:"secret"`
}

// IsZero reports whether no key pair is configured.
func (c *Credentials) IsZero() bool {
	return c == nil || (c.Key == "" && c.Secret == "")
}

// RateLimits defines the per-second request budgets for an exchange, one per
// rate class. Each bounds the number of requests within any trailing one
// second window.
type RateLimits struct {
	// PublicPerSecond bounds unauthenticated market data requests.
	// Zero means use the protocol default.
	PublicPerSecond int `json:"public_per_second" validate:"min=0"`
	// TradingPerSecond bounds authenticated trading requests.
	// Zero means use the protocol default.
	TradingPerSecond int `json:"trading_per_second" validate:"min=0"`
}

// Config contains all options for an exchange session.
type Config struct {
	Exchange    string       `json:"exchange" validate:"required"`
	Sandbox     bool         `json:"sandbox"`
	Credentials *Credentials `json:"credentials,omitempty"`

	// Limits overrides the protocol's default rate limits when non-zero.
	Limits RateLimits `json:"limits"`

	// Timeout bounds each HTTP request. A timeout is an enhancement over
	// the original wire contract, which would block indefinitely.
	Timeout time.Duration `json:"timeout" validate:"min=1ms"`

	CacheEnabled bool          `json:"cache_enabled"`
	CacheTTL     time.Duration `json:"cache_ttl" validate:"min=0"`

	// PacingEnabled smooths request issuance to the effective rate limits
	// before admission. The sliding window remains the admission
	// authority; pacing only spreads calls out so well-behaved callers
	// rarely hit it.
	PacingEnabled bool `json:"pacing_enabled"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold" validate:"min=0"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold" validate:"min=0"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout" validate:"min=0"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config with sensible defaults for the exchange.
// Rate limits default to the protocol's own values at session construction.
func DefaultConfig(exchange string) *Config {
	return &Config{
		Exchange:     exchange,
		Timeout:      10 * time.Second,
		CacheEnabled: true,
		CacheTTL:     1 * time.Second,
		LogLevel:     "info",
	}
}

var validate = validator.New()

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithSandbox enables or disables sandbox mode and returns the config for chaining.
func (c *Config) WithSandbox(sandbox bool) *Config {
	c.Sandbox = sandbox
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithLimits overrides the protocol rate limits and returns the config for chaining.
func (c *Config) WithLimits(public, trading int) *Config {
	c.Limits = RateLimits{PublicPerSecond: public, TradingPerSecond: trading}
	return c
}

// WithPacing enables or disables client-side request pacing and returns the
// config for chaining.
func (c *Config) WithPacing(enabled bool) *Config {
	c.PacingEnabled = enabled
	return c
}

// WithCache enables or disables public response caching and returns the
// config for chaining.
func (c *Config) WithCache(enabled bool, ttl time.Duration) *Config {
	c.CacheEnabled = enabled
	c.CacheTTL = ttl
	return c
}
