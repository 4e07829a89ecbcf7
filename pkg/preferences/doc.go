// Package preferences resolves whether a user should be notified on a given
// channel for a given notification type at a given time.
//
// Resolution is a pure function over the user's stored preferences: the
// channel master flag is a precondition for every category flag, notification
// types map to preference categories through a single shared lookup table,
// and types outside the table are allowed by design. Quiet hours suppress
// non-urgent delivery inside an hourly window that may wrap midnight.
package preferences
