// Package scheduler owns the scheduled-notification state machine and the
// polling dispatch loop that drives it.
//
// Notifications move through pending → scheduled → sent/cancelled, with a
// scheduled → failed → scheduled retry cycle bounded by the retry budget.
// Dispatch workers periodically claim due rows through an atomic conditional
// state transition (scheduled → processing), so at most one worker dispatches
// a given row even with multiple dispatcher instances running. Claimed rows
// re-check cancellation before the channel sender is invoked, making
// cancellation cooperative and in-flight cancels an idempotent skip.
//
// Recurring notifications store a raw recurrence pattern; conditional ones
// store a raw condition expression. Evaluating either is delegated to
// collaborator interfaces, and a pattern evaluator for the common interval,
// daily, weekly, and monthly shapes ships with the package.
package scheduler
