package webhooks

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/finbase/notifier/pkg/events"
	"github.com/finbase/notifier/pkg/logger"
)

// Dispatcher fans lifecycle events out to subscribed webhook endpoints. It
// satisfies the event sink interfaces of the delivery tracker and the
// scheduler: Publish returns immediately and deliveries run in the
// background, so a slow endpoint never stalls the notification path.
type Dispatcher struct {
	registry Registry
	sender   *Sender
	logger   *slog.Logger

	breakers   map[string]*CircuitBreaker
	breakersMu sync.Mutex

	sem chan struct{}
	wg  sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSender replaces the default sender.
func WithSender(s *Sender) DispatcherOption {
	return func(d *Dispatcher) {
		if s != nil {
			d.sender = s
		}
	}
}

// WithLogger sets the dispatcher's logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMaxInFlight caps concurrent deliveries across all endpoints.
func WithMaxInFlight(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.sem = make(chan struct{}, n)
		}
	}
}

// NewDispatcher creates a webhook dispatcher over the given registry.
func NewDispatcher(registry Registry, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrRegistryNil
	}
	d := &Dispatcher{
		registry: registry,
		sender:   NewSender(),
		logger:   slog.Default(),
		breakers: make(map[string]*CircuitBreaker),
		sem:      make(chan struct{}, 32),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Publish delivers the event to every matching active subscription. The
// call never blocks on endpoint I/O; failures are recorded on the
// subscription's health counters and logged.
func (d *Dispatcher) Publish(ctx context.Context, event events.Event) {
	configs, err := d.registry.Matching(ctx, event.Type)
	if err != nil {
		d.logger.Error("failed to resolve webhook subscriptions",
			logger.EventType(string(event.Type)), logger.Error(err))
		return
	}
	if len(configs) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("failed to encode webhook payload",
			logger.EventType(string(event.Type)), logger.Error(err))
		return
	}

	for _, cfg := range configs {
		d.wg.Add(1)
		go func(cfg Config) {
			defer d.wg.Done()

			d.sem <- struct{}{}
			defer func() { <-d.sem }()

			d.deliver(cfg, event, payload)
		}(cfg)
	}
}

// Close waits for in-flight deliveries to finish.
func (d *Dispatcher) Close() error {
	d.wg.Wait()
	return nil
}

// deliver runs one endpoint delivery with its circuit breaker and records
// the outcome. Deliveries detach from the publisher's context so shutdown
// of the notification path does not abort them mid-request.
func (d *Dispatcher) deliver(cfg Config, event events.Event, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(),
		cfg.Timeout*time.Duration(cfg.RetryAttempts+1))
	defer cancel()

	breaker := d.breaker(cfg.URL)
	if !breaker.Allow() {
		d.logger.Warn("webhook delivery skipped, circuit open",
			logger.WebhookURL(cfg.URL),
			logger.EventType(string(event.Type)))
		return
	}

	start := time.Now()
	err := d.sender.Deliver(ctx, cfg, payload)

	if err == nil {
		breaker.RecordSuccess()
	} else {
		breaker.RecordFailure()
	}

	if recordErr := d.registry.RecordResult(ctx, cfg.ID, err, time.Now()); recordErr != nil {
		d.logger.Error("failed to record webhook delivery result",
			logger.WebhookURL(cfg.URL), logger.Error(recordErr))
	}

	if err != nil {
		d.logger.Warn("webhook delivery failed",
			logger.WebhookURL(cfg.URL),
			logger.EventType(string(event.Type)),
			logger.NotificationID(event.NotificationID),
			logger.Duration(time.Since(start)),
			logger.Error(err))
		return
	}

	d.logger.Debug("webhook delivered",
		logger.WebhookURL(cfg.URL),
		logger.EventType(string(event.Type)),
		logger.NotificationID(event.NotificationID),
		logger.Duration(time.Since(start)))
}

// breaker returns the per-endpoint circuit breaker, creating it on first
// use. Breakers key on URL so multiple subscriptions to one endpoint share
// failure state.
func (d *Dispatcher) breaker(url string) *CircuitBreaker {
	d.breakersMu.Lock()
	defer d.breakersMu.Unlock()

	cb, ok := d.breakers[url]
	if !ok {
		cb = NewCircuitBreaker(0, 0, 0)
		d.breakers[url] = cb
	}
	return cb
}
