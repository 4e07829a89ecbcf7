package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/finbase/notifier/pkg/events"
)

// Kind describes how a notification is scheduled.
type Kind string

const (
	KindImmediate   Kind = "immediate"
	KindDelayed     Kind = "delayed"
	KindRecurring   Kind = "recurring"
	KindConditional Kind = "conditional"
)

// Status is the lifecycle state of a scheduled notification. Sent and
// cancelled are terminal; failed is terminal only once retries are
// exhausted. Processing marks a row claimed by a dispatch worker.
type Status string

const (
	StatusPending    Status = "pending"
	StatusScheduled  Status = "scheduled"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// statusLabels maps statuses to operator-facing labels.
var statusLabels = map[Status]string{
	StatusPending:    "Pending",
	StatusScheduled:  "Scheduled",
	StatusProcessing: "Processing",
	StatusSent:       "Sent",
	StatusFailed:     "Failed",
	StatusCancelled:  "Cancelled",
}

// Label returns the operator-facing label for the status.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Priority represents notification priority (0-100, higher is more
// important). Urgent notifications bypass quiet hours.
type Priority int8

const (
	PriorityMin     Priority = 0
	PriorityLow     Priority = 25
	PriorityMedium  Priority = 50
	PriorityHigh    Priority = 75
	PriorityUrgent  Priority = 100
	PriorityDefault Priority = PriorityMedium
)

// Valid checks if the priority is within valid range.
func (p Priority) Valid() bool {
	return p >= PriorityMin && p <= PriorityUrgent
}

// Urgent reports whether the priority bypasses quiet-hours suppression.
func (p Priority) Urgent() bool {
	return p >= PriorityHigh
}

// Retry and watchdog defaults.
const (
	DefaultMaxRetries    = 3
	DefaultRetryInterval = 5 * time.Minute

	// OverdueThreshold is how far past its due time a scheduled row may
	// sit before Overdue starts reporting true for operational alerting.
	OverdueThreshold = 30 * time.Minute
)

// Notification is one scheduled notification row. All cross-worker
// coordination goes through the atomic claim on this row; there is no other
// shared mutable state.
type Notification struct {
	ID      uuid.UUID   `json:"id"`
	UserID  string      `json:"user_id"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Type    events.Type `json:"type"`
	Kind    Kind        `json:"kind"`
	Status  Status      `json:"status"`

	ScheduledFor  time.Time     `json:"scheduled_for"`
	RetryCount    int           `json:"retry_count"`
	MaxRetries    int           `json:"max_retries"`
	RetryInterval time.Duration `json:"retry_interval"`
	NextRetryAt   *time.Time    `json:"next_retry_at,omitempty"`

	RecurrencePattern   string `json:"recurrence_pattern,omitempty"`
	ConditionExpression string `json:"condition_expression,omitempty"`

	TemplateKey  string           `json:"template_key,omitempty"`
	TemplateVars map[string]any   `json:"template_vars,omitempty"`
	Channels     []events.Channel `json:"channels,omitempty"`

	Priority      Priority `json:"priority"`
	Source        string   `json:"source,omitempty"`
	FailureReason string   `json:"failure_reason,omitempty"`

	// Claim bookkeeping. LockedUntil lets storage recover rows claimed by
	// crashed workers.
	LockedBy    *uuid.UUID `json:"locked_by,omitempty"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`

	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
