package scheduler

import "time"

// ReadyToSend reports whether a dispatch worker may claim the row: it must
// be scheduled and its due time must have arrived.
func (n *Notification) ReadyToSend(now time.Time) bool {
	return n.Status == StatusScheduled && !now.Before(n.ScheduledFor)
}

// MarkSent transitions the row to its terminal sent state.
func (n *Notification) MarkSent(now time.Time) {
	n.Status = StatusSent
	n.SentAt = &now
	n.FailureReason = ""
	n.clearClaim()
}

// MarkFailed records a failed dispatch: the row enters the failed state,
// the retry counter advances, and, while the retry budget lasts, the next
// retry time is set one retry interval out.
func (n *Notification) MarkFailed(reason string, now time.Time) {
	n.Status = StatusFailed
	n.FailureReason = reason
	n.RetryCount++
	n.clearClaim()
	if n.CanRetry(now) {
		next := now.Add(n.RetryInterval)
		n.NextRetryAt = &next
	}
}

// FailPermanently records a failure that retrying cannot fix (unknown
// template, no eligible channels, malformed expressions). The retry budget
// is exhausted immediately.
func (n *Notification) FailPermanently(reason string, now time.Time) {
	n.Status = StatusFailed
	n.FailureReason = reason
	n.RetryCount = n.MaxRetries
	n.NextRetryAt = nil
	n.clearClaim()
}

// CanRetry reports whether the row is eligible to re-enter the schedule:
// it must be failed, have retry budget left, and its backoff delay (if any)
// must have elapsed.
func (n *Notification) CanRetry(now time.Time) bool {
	if n.Status != StatusFailed || n.RetryCount >= n.MaxRetries {
		return false
	}
	return n.NextRetryAt == nil || !now.Before(*n.NextRetryAt)
}

// ScheduleRetry re-enters the retry cycle: failed → scheduled at the
// recorded next retry time. A strict no-op when CanRetry is false, so
// calling it on a non-retryable row never corrupts state.
func (n *Notification) ScheduleRetry(now time.Time) {
	if !n.CanRetry(now) {
		return
	}
	n.Status = StatusScheduled
	if n.NextRetryAt != nil {
		n.ScheduledFor = *n.NextRetryAt
	} else {
		n.ScheduledFor = now
	}
	n.NextRetryAt = nil
}

// Cancel transitions the row to its terminal cancelled state
// unconditionally. In-flight dispatches re-check status before invoking the
// sender and skip cancelled rows.
func (n *Notification) Cancel() {
	n.Status = StatusCancelled
	n.clearClaim()
}

// Reschedule returns a fired recurring row to the schedule for its next
// occurrence. The same row is moved forward; retry bookkeeping resets for
// the new occurrence.
func (n *Notification) Reschedule(next time.Time) {
	n.Status = StatusScheduled
	n.ScheduledFor = next
	n.RetryCount = 0
	n.NextRetryAt = nil
	n.FailureReason = ""
}

// Overdue is a liveness signal for operational alerting, not a state
// transition: a scheduled row is overdue once it has sat past its due time
// longer than the watchdog threshold.
func (n *Notification) Overdue(now time.Time) bool {
	return n.Status == StatusScheduled && now.After(n.ScheduledFor.Add(OverdueThreshold))
}

// IsRecurring reports whether the row carries a recurrence pattern.
func (n *Notification) IsRecurring() bool {
	return n.Kind == KindRecurring && n.RecurrencePattern != ""
}

// IsConditional reports whether the row carries a condition expression.
func (n *Notification) IsConditional() bool {
	return n.Kind == KindConditional && n.ConditionExpression != ""
}

// Terminal reports whether no further transitions are possible.
func (n *Notification) Terminal(now time.Time) bool {
	switch n.Status {
	case StatusSent, StatusCancelled:
		return true
	case StatusFailed:
		return n.RetryCount >= n.MaxRetries
	}
	return false
}

func (n *Notification) clearClaim() {
	n.LockedBy = nil
	n.LockedUntil = nil
}
