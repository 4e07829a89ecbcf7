package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finbase/notifier/pkg/events"
)

// EventSink receives lifecycle events from the scheduling side (scheduled,
// cancelled). Implementations must not block.
type EventSink interface {
	Publish(ctx context.Context, event events.Event)
}

// Submitter is the entry point for event producers: other banking modules
// submit notification requests here. Immediate requests are scheduled for
// now; delayed, recurring, and conditional requests carry their schedule.
type Submitter struct {
	repo      Repository
	evaluator RecurrenceEvaluator
	sink      EventSink
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithSubmitterEventSink wires a lifecycle event sink.
func WithSubmitterEventSink(sink EventSink) SubmitterOption {
	return func(s *Submitter) {
		s.sink = sink
	}
}

// WithSubmitterEvaluator replaces the built-in recurrence evaluator used to
// validate patterns and compute first occurrences.
func WithSubmitterEvaluator(e RecurrenceEvaluator) SubmitterOption {
	return func(s *Submitter) {
		if e != nil {
			s.evaluator = e
		}
	}
}

// NewSubmitter creates a Submitter backed by the given repository.
func NewSubmitter(repo Repository, opts ...SubmitterOption) (*Submitter, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	s := &Submitter{
		repo:      repo,
		evaluator: PatternEvaluator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// submitOptions collects per-request settings.
type submitOptions struct {
	title         string
	message       string
	templateKey   string
	templateVars  map[string]any
	channels      []events.Channel
	priority      Priority
	scheduleAt    *time.Time
	delay         time.Duration
	recurrence    string
	condition     string
	source        string
	maxRetries    int
	retryInterval time.Duration
	hold          bool
}

// SubmitOption configures one notification request.
type SubmitOption func(*submitOptions)

// WithContent sets the literal title and message used when no template key
// is given.
func WithContent(title, message string) SubmitOption {
	return func(o *submitOptions) {
		o.title = title
		o.message = message
	}
}

// WithTemplate selects a template key and its variable map; rendering
// happens at dispatch time in the recipient's language.
func WithTemplate(key string, vars map[string]any) SubmitOption {
	return func(o *submitOptions) {
		o.templateKey = key
		o.templateVars = vars
	}
}

// WithChannels restricts delivery to the given channels. Preference
// resolution still applies on top.
func WithChannels(channels ...events.Channel) SubmitOption {
	return func(o *submitOptions) {
		o.channels = channels
	}
}

// WithPriority sets the notification priority.
func WithPriority(p Priority) SubmitOption {
	return func(o *submitOptions) {
		o.priority = p
	}
}

// WithScheduleAt delays dispatch until the given time.
func WithScheduleAt(t time.Time) SubmitOption {
	return func(o *submitOptions) {
		o.scheduleAt = &t
	}
}

// WithDelay delays dispatch by the given duration.
func WithDelay(d time.Duration) SubmitOption {
	return func(o *submitOptions) {
		o.delay = d
	}
}

// WithRecurrence makes the notification recurring with the given pattern.
func WithRecurrence(pattern string) SubmitOption {
	return func(o *submitOptions) {
		o.recurrence = pattern
	}
}

// WithCondition makes the notification conditional on the given expression,
// evaluated by the dispatcher's condition evaluator before each send.
func WithCondition(expr string) SubmitOption {
	return func(o *submitOptions) {
		o.condition = expr
	}
}

// WithSource tags the producing module for reporting.
func WithSource(source string) SubmitOption {
	return func(o *submitOptions) {
		o.source = source
	}
}

// WithRetryPolicy overrides the default retry budget and backoff interval.
func WithRetryPolicy(maxRetries int, interval time.Duration) SubmitOption {
	return func(o *submitOptions) {
		if maxRetries >= 0 {
			o.maxRetries = maxRetries
		}
		if interval > 0 {
			o.retryInterval = interval
		}
	}
}

// WithHold creates the row in pending state; it will not dispatch until
// Activate is called.
func WithHold() SubmitOption {
	return func(o *submitOptions) {
		o.hold = true
	}
}

// Submit validates and stores one notification request and returns the
// created row. Malformed recurrence patterns are rejected here, before
// anything is persisted: retrying cannot make them parse.
func (s *Submitter) Submit(ctx context.Context, userID string, typ events.Type, opts ...SubmitOption) (*Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if typ == "" {
		return nil, fmt.Errorf("%w: notification type is required", ErrInvalidRequest)
	}

	options := &submitOptions{
		priority:      PriorityDefault,
		maxRetries:    DefaultMaxRetries,
		retryInterval: DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(options)
	}

	if !options.priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if options.templateKey == "" && options.message == "" {
		return nil, fmt.Errorf("%w: either a template key or a message is required", ErrInvalidRequest)
	}

	now := time.Now()
	n := &Notification{
		ID:                  uuid.New(),
		UserID:              userID,
		Title:               options.title,
		Message:             options.message,
		Type:                typ,
		Kind:                KindImmediate,
		Status:              StatusScheduled,
		ScheduledFor:        now,
		MaxRetries:          options.maxRetries,
		RetryInterval:       options.retryInterval,
		RecurrencePattern:   options.recurrence,
		ConditionExpression: options.condition,
		TemplateKey:         options.templateKey,
		TemplateVars:        options.templateVars,
		Channels:            options.channels,
		Priority:            options.priority,
		Source:              options.source,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	switch {
	case options.recurrence != "":
		n.Kind = KindRecurring
		first, err := s.evaluator.Next(options.recurrence, now)
		if err != nil {
			return nil, err
		}
		n.ScheduledFor = first
	case options.condition != "":
		n.Kind = KindConditional
		if options.scheduleAt != nil {
			n.ScheduledFor = *options.scheduleAt
		}
	case options.scheduleAt != nil:
		n.Kind = KindDelayed
		n.ScheduledFor = *options.scheduleAt
	case options.delay > 0:
		n.Kind = KindDelayed
		n.ScheduledFor = now.Add(options.delay)
	}

	if options.hold {
		n.Status = StatusPending
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if n.Status == StatusScheduled {
		s.publish(ctx, n, events.NotificationScheduled, string(n.Status))
	}
	return n, nil
}

// Activate moves a held (pending) notification onto the schedule.
func (s *Submitter) Activate(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.Status != StatusPending {
		return fmt.Errorf("%w: notification %s is %s, not pending", ErrInvalidRequest, id, n.Status)
	}
	n.Status = StatusScheduled
	if err := s.repo.Update(ctx, n); err != nil {
		return err
	}
	s.publish(ctx, n, events.NotificationScheduled, string(n.Status))
	return nil
}

// Cancel marks the notification cancelled. Terminal and unconditional; an
// in-flight dispatch will notice and skip before invoking any sender.
func (s *Submitter) Cancel(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Cancel(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, &Notification{ID: id}, events.NotificationCancelled, string(StatusCancelled))
	return nil
}

func (s *Submitter) publish(ctx context.Context, n *Notification, event events.LifecycleEvent, status string) {
	if s.sink == nil {
		return
	}
	s.sink.Publish(ctx, events.Event{
		Type:           event,
		NotificationID: n.ID.String(),
		Status:         status,
		Timestamp:      time.Now(),
	})
}
