package scheduler

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided.
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrNotificationNil is returned when a nil notification is provided.
	ErrNotificationNil = errors.New("notification cannot be nil")

	// ErrNotificationNotFound is returned when no row exists for the id.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrNotificationExists is returned when creating a duplicate id.
	ErrNotificationExists = errors.New("notification already exists")

	// ErrNothingToClaim signals an empty poll; it is normal operation,
	// not an application error.
	ErrNothingToClaim = errors.New("no due notifications to claim")

	// ErrClaimLost signals that another worker won the claim race for a
	// row. The losing worker moves on without surfacing an error.
	ErrClaimLost = errors.New("claim lost to another worker")

	// ErrInvalidPriority is returned when priority is outside 0-100.
	ErrInvalidPriority = errors.New("priority must be between 0 and 100")

	// ErrInvalidRequest is returned for submissions missing required
	// fields or carrying fields inconsistent with their kind.
	ErrInvalidRequest = errors.New("invalid notification request")

	// ErrInvalidPattern is returned for recurrence patterns the
	// evaluator cannot parse.
	ErrInvalidPattern = errors.New("invalid recurrence pattern")

	// ErrInvalidCondition is returned by condition evaluators for
	// malformed condition expressions.
	ErrInvalidCondition = errors.New("invalid condition expression")

	// ErrNoSenders is returned when the dispatcher is started without
	// any registered channel senders.
	ErrNoSenders = errors.New("no channel senders registered")
)
