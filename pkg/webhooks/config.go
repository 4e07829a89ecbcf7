package webhooks

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/finbase/notifier/pkg/events"
)

// Config is one webhook subscription: an external endpoint that receives
// notification lifecycle events. Health counters accumulate over the
// subscription's lifetime and drive the Healthy signal shown to operators.
type Config struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	URL    string    `json:"url"`
	Secret string    `json:"secret,omitempty"`

	// Events lists the subscribed lifecycle events. Empty means all.
	Events []events.LifecycleEvent `json:"events,omitempty"`

	Timeout       time.Duration `json:"timeout"`
	RetryAttempts int           `json:"retry_attempts"`
	RetryDelay    time.Duration `json:"retry_delay"`
	SSLVerify     bool          `json:"ssl_verify"`
	Active        bool          `json:"active"`

	SuccessCount    int        `json:"success_count"`
	FailureCount    int        `json:"failure_count"`
	LastError       string     `json:"last_error,omitempty"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Defaults applied by Validate when fields are unset.
const (
	DefaultTimeout       = 10 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

// Validate checks the subscription and fills in defaults.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	// HTTP and HTTPS only, to keep the dispatcher from being used for SSRF.
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https endpoints are supported", ErrInvalidConfig)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", ErrInvalidConfig)
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return nil
}

// Subscribed reports whether the endpoint receives the given event. An empty
// event list subscribes to everything.
func (c *Config) Subscribed(event events.LifecycleEvent) bool {
	if len(c.Events) == 0 {
		return true
	}
	return slices.Contains(c.Events, event)
}

// Healthy reports whether the endpoint is in good standing: either it has
// never failed, or it has succeeded at least once and failures have not
// caught up with successes.
func (c *Config) Healthy() bool {
	if c.FailureCount == 0 {
		return true
	}
	return c.SuccessCount > 0 && c.FailureCount < c.SuccessCount
}

// SuccessRate returns the delivery success percentage over the
// subscription's lifetime, or 0 when nothing has been delivered yet.
func (c *Config) SuccessRate() float64 {
	total := c.SuccessCount + c.FailureCount
	if total == 0 {
		return 0
	}
	return float64(c.SuccessCount) / float64(total) * 100
}

// ShouldRetry reports whether another delivery attempt is warranted,
// comparing the lifetime failure count against the per-delivery retry
// budget. An endpoint that has accumulated RetryAttempts failures overall
// stops retrying until its counters are reset.
func (c *Config) ShouldRetry() bool {
	return c.RetryAttempts > 0 && c.FailureCount < c.RetryAttempts
}

// RecordSuccess advances the health counters after a delivered event.
func (c *Config) RecordSuccess(now time.Time) {
	c.SuccessCount++
	c.LastError = ""
	c.LastTriggeredAt = &now
	c.UpdatedAt = now
}

// RecordFailure advances the health counters after a failed delivery.
func (c *Config) RecordFailure(reason string, now time.Time) {
	c.FailureCount++
	c.LastError = reason
	c.LastTriggeredAt = &now
	c.UpdatedAt = now
}
