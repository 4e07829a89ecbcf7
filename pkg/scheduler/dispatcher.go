package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/finbase/notifier/pkg/delivery"
	"github.com/finbase/notifier/pkg/events"
	"github.com/finbase/notifier/pkg/logger"
	"github.com/finbase/notifier/pkg/preferences"
	"github.com/finbase/notifier/pkg/templates"
)

// PreferenceSource loads a user's notification preferences.
type PreferenceSource interface {
	Get(ctx context.Context, userID string) (preferences.Preferences, error)
}

// ContentRenderer resolves and renders a template for a user's language.
// *templates.Catalog satisfies this.
type ContentRenderer interface {
	Render(key, lang string, vars map[string]any) (templates.Rendered, error)
}

// DeliveryTracker records per-channel delivery lifecycle rows.
// *delivery.Tracker satisfies this.
type DeliveryTracker interface {
	Open(ctx context.Context, notificationID uuid.UUID, userID string, ch events.Channel) (*delivery.Analytics, error)
	RecordOutcome(ctx context.Context, id uuid.UUID, providerResponse string, sendErr error) (*delivery.Analytics, error)
	ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]delivery.Analytics, error)
}

// ContactResolver maps a user and channel to a destination address (email
// address, phone number, device token). The default resolver returns the
// user id, which suits the in-app channel.
type ContactResolver interface {
	Destination(ctx context.Context, userID string, ch events.Channel) (string, error)
}

// ContactResolverFunc adapts a function to ContactResolver.
type ContactResolverFunc func(ctx context.Context, userID string, ch events.Channel) (string, error)

func (f ContactResolverFunc) Destination(ctx context.Context, userID string, ch events.Channel) (string, error) {
	return f(ctx, userID, ch)
}

// ConditionEvaluator decides whether a conditional notification should fire
// now. Malformed expressions must return an error wrapping
// ErrInvalidCondition so the dispatcher can fail the row without retrying.
type ConditionEvaluator interface {
	Evaluate(ctx context.Context, expr string, n Notification) (bool, error)
}

// ConditionEvaluatorFunc adapts a function to ConditionEvaluator.
type ConditionEvaluatorFunc func(ctx context.Context, expr string, n Notification) (bool, error)

func (f ConditionEvaluatorFunc) Evaluate(ctx context.Context, expr string, n Notification) (bool, error) {
	return f(ctx, expr, n)
}

// Dispatcher runs the polling dispatch loop: claim due rows, resolve
// channels, render content, fan out to channel senders, and route outcomes
// back into the state machine.
type Dispatcher struct {
	repo     Repository
	prefs    PreferenceSource
	renderer ContentRenderer
	tracker  DeliveryTracker
	contacts ContactResolver

	senders    map[events.Channel]delivery.ChannelSender
	recurrence RecurrenceEvaluator
	conditions ConditionEvaluator

	workerID uuid.UUID
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopMu   sync.Mutex

	pollInterval time.Duration
	lockTimeout  time.Duration
	claimLimit   int
	logger       *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
}

// NewDispatcher creates a dispatch worker. Register channel senders before
// calling Start.
func NewDispatcher(repo Repository, prefs PreferenceSource, renderer ContentRenderer, tracker DeliveryTracker, opts ...DispatcherOption) (*Dispatcher, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := defaultDispatcherOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Dispatcher{
		repo:         repo,
		prefs:        prefs,
		renderer:     renderer,
		tracker:      tracker,
		contacts:     options.contacts,
		senders:      make(map[events.Channel]delivery.ChannelSender),
		recurrence:   options.recurrence,
		conditions:   options.conditions,
		workerID:     uuid.New(),
		sem:          make(chan struct{}, options.maxConcurrent),
		pollInterval: options.pollInterval,
		lockTimeout:  options.lockTimeout,
		claimLimit:   options.claimLimit,
		logger:       options.logger,
	}, nil
}

// RegisterSender registers a channel sender. Later registrations for the
// same channel replace earlier ones.
func (d *Dispatcher) RegisterSender(sender delivery.ChannelSender) {
	if sender == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders[sender.Channel()] = sender
}

// Start begins the polling loop in the background.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already started")
	}
	if len(d.senders) == 0 {
		d.mu.Unlock()
		return ErrNoSenders
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()

	d.stopping.Store(false)
	go d.run()

	d.logger.Info("dispatcher started",
		logger.WorkerID(d.workerID.String()),
		slog.Int("max_concurrent", cap(d.sem)),
		slog.Duration("poll_interval", d.pollInterval))
	return nil
}

// Stop gracefully shuts down the dispatcher, waiting for in-flight
// dispatches to finish.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if d.cancel == nil {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher not started")
	}

	d.stopMu.Lock()
	d.stopping.Store(true)
	d.stopMu.Unlock()

	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	cancel()
	d.wg.Wait()

	d.logger.Info("dispatcher stopped", logger.WorkerID(d.workerID.String()))
	return nil
}

// Run starts the dispatcher and returns a function suitable for errgroup.
func (d *Dispatcher) Run(ctx context.Context) func() error {
	return func() error {
		if err := d.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return d.Stop()
	}
}

// run is the main polling loop. Each tick revives retry-eligible rows and
// claims a batch of due rows for concurrent dispatch.
func (d *Dispatcher) run() {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.tick()
		}
	}
}

func (d *Dispatcher) tick() {
	now := time.Now()

	if revived, err := d.repo.ReviveRetryable(d.ctx, now); err != nil {
		d.logger.Error("failed to revive retryable notifications",
			logger.WorkerID(d.workerID.String()), logger.Error(err))
	} else if revived > 0 {
		d.logger.Debug("revived retryable notifications", slog.Int("count", revived))
	}

	claimed, err := d.repo.ClaimDue(d.ctx, d.workerID, now, d.claimLimit, d.lockTimeout)
	if err != nil {
		// An empty poll and a lost claim race are both normal operation.
		if !errors.Is(err, ErrNothingToClaim) && !errors.Is(err, ErrClaimLost) {
			d.logger.Error("failed to claim due notifications",
				logger.WorkerID(d.workerID.String()), logger.Error(err))
		}
		return
	}

	for _, n := range claimed {
		select {
		case d.sem <- struct{}{}:
		case <-d.ctx.Done():
			return
		}

		d.stopMu.Lock()
		if d.stopping.Load() {
			d.stopMu.Unlock()
			<-d.sem
			return
		}
		d.wg.Add(1)
		d.stopMu.Unlock()

		go func(n Notification) {
			defer d.wg.Done()
			defer func() { <-d.sem }()
			d.dispatch(n)
		}(n)
	}
}

// dispatch processes one claimed notification end to end.
func (d *Dispatcher) dispatch(claimed Notification) {
	// Dispatch outlives worker shutdown so in-flight sends can complete.
	ctx, cancel := context.WithTimeout(context.Background(), d.lockTimeout)
	defer cancel()

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch panicked",
				logger.WorkerID(d.workerID.String()),
				logger.NotificationID(claimed.ID),
				slog.Any("panic", r))
			n, err := d.repo.Get(ctx, claimed.ID)
			if err != nil {
				return
			}
			n.MarkFailed(fmt.Sprintf("panic during dispatch: %v", r), time.Now())
			_ = d.repo.Update(ctx, n)
		}
	}()

	// Cooperative cancellation: re-check the row before doing any work. A
	// row cancelled after claiming is an idempotent skip, and a row whose
	// lock expired belongs to someone else now.
	n, err := d.repo.Get(ctx, claimed.ID)
	if err != nil {
		d.logger.Error("failed to reload claimed notification",
			logger.NotificationID(claimed.ID), logger.Error(err))
		return
	}
	switch n.Status {
	case StatusCancelled:
		d.logger.Debug("skipping cancelled notification", logger.NotificationID(n.ID))
		return
	case StatusProcessing:
		// Still ours.
	default:
		d.logger.Debug("claim no longer held",
			logger.NotificationID(n.ID), slog.String("status", string(n.Status)))
		return
	}

	now := time.Now()

	prefs, err := d.prefs.Get(ctx, n.UserID)
	if err != nil {
		d.fail(ctx, n, fmt.Sprintf("failed to load preferences: %v", err), now)
		return
	}

	if n.IsConditional() {
		ok, err := d.conditions.Evaluate(ctx, n.ConditionExpression, *n)
		switch {
		case errors.Is(err, ErrInvalidCondition):
			d.failPermanently(ctx, n, fmt.Sprintf("malformed condition: %v", err), now)
			return
		case err != nil:
			d.fail(ctx, n, fmt.Sprintf("condition evaluation failed: %v", err), now)
			return
		case !ok:
			// Condition not met yet: check again after the retry interval.
			d.deferUntil(ctx, n, now.Add(n.RetryInterval), "condition not met")
			return
		}
	}

	if preferences.InQuietHours(prefs, now) && !n.Priority.Urgent() {
		d.deferUntil(ctx, n, preferences.QuietHoursEnd(prefs, now), "quiet hours")
		return
	}

	channels := preferences.Channels(prefs, n.Type, n.Channels)
	if len(channels) == 0 {
		d.failPermanently(ctx, n, "no eligible channels after preference resolution", now)
		return
	}

	content, err := d.render(n, prefs.Language)
	if err != nil {
		// Rendering cannot succeed on retry either.
		d.failPermanently(ctx, n, fmt.Sprintf("render failed: %v", err), now)
		return
	}

	d.mu.RLock()
	senders := make(map[events.Channel]delivery.ChannelSender, len(channels))
	for _, ch := range channels {
		if s, ok := d.senders[ch]; ok {
			senders[ch] = s
		}
	}
	d.mu.RUnlock()
	if len(senders) == 0 {
		d.failPermanently(ctx, n, "no sender registered for any eligible channel", now)
		return
	}

	// A retried row may have already gone out on some channels. Skip those
	// so a transient failure elsewhere never re-sends a delivered message.
	alreadySent := 0
	if n.RetryCount > 0 {
		rows, err := d.tracker.ListByNotification(ctx, n.ID)
		if err != nil {
			d.fail(ctx, n, fmt.Sprintf("failed to load prior delivery attempts: %v", err), now)
			return
		}
		for _, row := range rows {
			if row.Succeeded() {
				if _, ok := senders[row.Channel]; ok {
					delete(senders, row.Channel)
					alreadySent++
				}
			}
		}
		if len(senders) == 0 {
			// Every remaining channel succeeded on an earlier attempt.
			d.conclude(ctx, n, fanOutResult{succeeded: alreadySent}, time.Now())
			return
		}
	}

	// Final status re-check immediately before invoking external senders.
	if current, err := d.repo.Get(ctx, n.ID); err == nil && current.Status == StatusCancelled {
		d.logger.Debug("notification cancelled before send", logger.NotificationID(n.ID))
		return
	}

	outcome := d.fanOut(ctx, n, content, senders)
	outcome.succeeded += alreadySent
	d.conclude(ctx, n, outcome, time.Now())

	d.logger.Info("notification dispatched",
		logger.WorkerID(d.workerID.String()),
		logger.NotificationID(n.ID),
		logger.NotificationType(string(n.Type)),
		slog.String("status", string(n.Status)),
		slog.Int("channels", len(senders)),
		logger.Duration(time.Since(start)))
}

func (d *Dispatcher) render(n *Notification, lang string) (templates.Rendered, error) {
	if n.TemplateKey == "" {
		return templates.Rendered{Subject: n.Title, Body: n.Message}, nil
	}
	return d.renderer.Render(n.TemplateKey, lang, n.TemplateVars)
}

// fanOutResult aggregates per-channel outcomes for the state machine.
type fanOutResult struct {
	succeeded int
	permanent int
	transient []string
}

// fanOut sends over all eligible channels concurrently. Sends are
// independent blocking I/O; no claim lock is held during the calls, only
// the row's processing status.
func (d *Dispatcher) fanOut(ctx context.Context, n *Notification, content templates.Rendered, senders map[events.Channel]delivery.ChannelSender) fanOutResult {
	var (
		mu     sync.Mutex
		result fanOutResult
		wg     sync.WaitGroup
	)

	for ch, sender := range senders {
		wg.Add(1)
		go func(ch events.Channel, sender delivery.ChannelSender) {
			defer wg.Done()

			record := func(transientErr string, permanent bool, ok bool) {
				mu.Lock()
				defer mu.Unlock()
				switch {
				case ok:
					result.succeeded++
				case permanent:
					result.permanent++
				default:
					result.transient = append(result.transient, transientErr)
				}
			}

			row, err := d.tracker.Open(ctx, n.ID, n.UserID, ch)
			if err != nil {
				record(fmt.Sprintf("%s: failed to open analytics row: %v", ch, err), false, false)
				return
			}

			dest, err := d.contacts.Destination(ctx, n.UserID, ch)
			if err != nil {
				_, _ = d.tracker.RecordOutcome(ctx, row.ID, "", fmt.Errorf("no destination: %w", err))
				record(fmt.Sprintf("%s: no destination: %v", ch, err), false, false)
				return
			}

			resp, sendErr := sender.Send(ctx, delivery.Message{
				NotificationID: n.ID,
				UserID:         n.UserID,
				Type:           n.Type,
				Channel:        ch,
				Content:        content,
				Destination:    dest,
				Priority:       int(n.Priority),
			})
			if _, err := d.tracker.RecordOutcome(ctx, row.ID, resp, sendErr); err != nil {
				d.logger.Error("failed to record delivery outcome",
					logger.NotificationID(n.ID), logger.Channel(string(ch)), logger.Error(err))
			}

			switch {
			case sendErr == nil:
				record("", false, true)
			case delivery.Permanent(sendErr):
				record("", true, false)
			default:
				record(fmt.Sprintf("%s: %v", ch, sendErr), false, false)
			}
		}(ch, sender)
	}

	wg.Wait()
	return result
}

// conclude routes the aggregated channel outcomes into the state machine.
// Any transient failure enters the retry cycle; all-permanent failures are
// terminal regardless of remaining budget; otherwise the row is sent, and
// recurring rows are rescheduled forward.
func (d *Dispatcher) conclude(ctx context.Context, n *Notification, r fanOutResult, now time.Time) {
	switch {
	case len(r.transient) > 0:
		d.fail(ctx, n, strings.Join(r.transient, "; "), now)
		return
	case r.succeeded == 0 && r.permanent > 0:
		d.failPermanently(ctx, n, "all channels failed permanently", now)
		return
	}

	n.MarkSent(now)

	if n.IsRecurring() {
		next, err := d.recurrence.Next(n.RecurrencePattern, now)
		if err != nil {
			d.failPermanently(ctx, n, fmt.Sprintf("malformed recurrence pattern: %v", err), now)
			return
		}
		n.Reschedule(next)
	}

	d.update(ctx, n)
}

func (d *Dispatcher) fail(ctx context.Context, n *Notification, reason string, now time.Time) {
	n.MarkFailed(reason, now)
	d.update(ctx, n)

	if n.RetryCount >= n.MaxRetries {
		d.logger.Warn("notification failed, retries exhausted",
			logger.NotificationID(n.ID),
			logger.RetryCount(n.RetryCount),
			slog.String("reason", reason))
	} else {
		d.logger.Info("notification failed, will retry",
			logger.NotificationID(n.ID),
			logger.RetryCount(n.RetryCount),
			slog.String("reason", reason))
	}
}

func (d *Dispatcher) failPermanently(ctx context.Context, n *Notification, reason string, now time.Time) {
	n.FailPermanently(reason, now)
	d.update(ctx, n)

	d.logger.Warn("notification failed permanently",
		logger.NotificationID(n.ID),
		slog.String("reason", reason))
}

// deferUntil returns a claimed row to the schedule at a later time without
// touching its retry budget (quiet hours, unmet conditions).
func (d *Dispatcher) deferUntil(ctx context.Context, n *Notification, until time.Time, why string) {
	n.Status = StatusScheduled
	n.ScheduledFor = until
	n.LockedBy = nil
	n.LockedUntil = nil
	d.update(ctx, n)

	d.logger.Debug("notification deferred",
		logger.NotificationID(n.ID),
		slog.String("reason", why),
		slog.Time("until", until))
}

func (d *Dispatcher) update(ctx context.Context, n *Notification) {
	if err := d.repo.Update(ctx, n); err != nil {
		d.logger.Error("failed to update notification",
			logger.NotificationID(n.ID), logger.Error(err))
	}
}

// Overdue returns scheduled notifications stuck past the watchdog
// threshold, for operational alerting.
func (d *Dispatcher) Overdue(ctx context.Context) ([]Notification, error) {
	return d.repo.ListOverdue(ctx, time.Now())
}

// WorkerID returns this dispatcher's worker identity.
func (d *Dispatcher) WorkerID() uuid.UUID {
	return d.workerID
}
