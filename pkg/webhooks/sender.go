package webhooks

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sender delivers signed event payloads to webhook endpoints. One instance
// serves all subscriptions; HTTP clients are shared for connection pooling.
type Sender struct {
	client         *http.Client
	insecureClient *http.Client
	backoff        BackoffStrategy
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithHTTPClient replaces the default HTTP client. Useful for tests and
// custom transports. Subscriptions with SSLVerify disabled still use the
// built-in insecure client.
func WithHTTPClient(client *http.Client) SenderOption {
	return func(s *Sender) {
		if client != nil {
			s.client = client
		}
	}
}

// WithBackoff replaces the default exponential retry backoff.
func WithBackoff(strategy BackoffStrategy) SenderOption {
	return func(s *Sender) {
		if strategy != nil {
			s.backoff = strategy
		}
	}
}

// NewSender creates a webhook sender.
func NewSender(opts ...SenderOption) *Sender {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	insecureTransport := transport.Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	s := &Sender{
		client:         &http.Client{Transport: transport},
		insecureClient: &http.Client{Transport: insecureTransport},
		backoff:        DefaultBackoffStrategy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver posts the payload to the subscription's endpoint, signing it when
// the subscription carries a secret and retrying per its retry budget.
// Client errors other than 408, 425, and 429 end the retry loop early: the
// request will not become acceptable by resending it.
func (s *Sender) Deliver(ctx context.Context, cfg Config, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	client := s.client
	if !cfg.SSLVerify {
		client = s.insecureClient
	}

	var lastErr error
	for attempt := 0; attempt < cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.RetryDelay
			if s.backoff != nil {
				delay = s.backoff.NextInterval(attempt)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		statusCode, err := s.attempt(ctx, client, cfg, payload)
		if err == nil {
			return nil
		}
		lastErr = err

		if permanentStatus(statusCode) {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, err)
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, cfg.RetryAttempts, lastErr)
}

func (s *Sender) attempt(ctx context.Context, client *http.Client, cfg Config, payload []byte) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "finbase-notifier/1.0")

	if cfg.Secret != "" {
		sig, err := Sign(cfg.Secret, payload)
		if err != nil {
			return 0, fmt.Errorf("failed to sign payload: %w", err)
		}
		sig.Apply(req.Header)
	}

	resp, err := client.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return 0, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return 0, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, nil
	}

	// Read a bounded slice of the body for the failure record.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	msg := fmt.Sprintf("endpoint returned status %d", resp.StatusCode)
	if len(body) > 0 {
		bodyStr := strings.ReplaceAll(string(body), "\n", " ")
		if len(bodyStr) > 200 {
			bodyStr = bodyStr[:200] + "..."
		}
		msg += ": " + bodyStr
	}
	return resp.StatusCode, fmt.Errorf("%s", msg)
}

// permanentStatus reports whether the HTTP status will not change on retry.
// 408, 425, and 429 are the 4xx codes that can resolve themselves.
func permanentStatus(statusCode int) bool {
	if statusCode < 400 || statusCode >= 500 {
		return false
	}
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}
