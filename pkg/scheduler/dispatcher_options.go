package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/finbase/notifier/pkg/events"
)

// dispatcherOptions collects dispatcher configuration.
type dispatcherOptions struct {
	pollInterval  time.Duration
	lockTimeout   time.Duration
	maxConcurrent int
	claimLimit    int
	logger        *slog.Logger
	contacts      ContactResolver
	recurrence    RecurrenceEvaluator
	conditions    ConditionEvaluator
}

func defaultDispatcherOptions() *dispatcherOptions {
	return &dispatcherOptions{
		pollInterval:  5 * time.Second,
		lockTimeout:   5 * time.Minute,
		maxConcurrent: 10,
		claimLimit:    10,
		logger:        slog.Default(),
		contacts: ContactResolverFunc(func(_ context.Context, userID string, _ events.Channel) (string, error) {
			return userID, nil
		}),
		recurrence: PatternEvaluator{},
		conditions: ConditionEvaluatorFunc(func(_ context.Context, _ string, _ Notification) (bool, error) {
			return true, nil
		}),
	}
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*dispatcherOptions)

// WithPollInterval sets how often the dispatcher polls for due rows.
func WithPollInterval(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithLockTimeout sets how long a claimed row stays locked to this worker.
// Dispatch of a single row must finish within this window or the row may be
// claimed again by another worker.
func WithLockTimeout(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithMaxConcurrent caps the number of notifications dispatched at once.
func WithMaxConcurrent(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithClaimLimit caps the number of rows claimed per poll tick.
func WithClaimLimit(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.claimLimit = n
		}
	}
}

// WithDispatcherLogger sets the logger for dispatch lifecycle events.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithContactResolver replaces the default resolver, which returns the user
// id as the destination for every channel.
func WithContactResolver(r ContactResolver) DispatcherOption {
	return func(o *dispatcherOptions) {
		if r != nil {
			o.contacts = r
		}
	}
}

// WithRecurrenceEvaluator replaces the built-in pattern evaluator used to
// compute the next occurrence of recurring notifications.
func WithRecurrenceEvaluator(e RecurrenceEvaluator) DispatcherOption {
	return func(o *dispatcherOptions) {
		if e != nil {
			o.recurrence = e
		}
	}
}

// WithConditionEvaluator wires the evaluator for conditional notifications.
// Without one, every condition is treated as met.
func WithConditionEvaluator(e ConditionEvaluator) DispatcherOption {
	return func(o *dispatcherOptions) {
		if e != nil {
			o.conditions = e
		}
	}
}
