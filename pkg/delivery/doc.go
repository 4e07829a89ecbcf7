// Package delivery tracks the per-channel delivery lifecycle of dispatched
// notifications and defines the channel sender contract.
//
// One Analytics row is opened per channel attempt when a notification is
// claimed for dispatch. Sender outcomes then drive the row through
// sent/delivered/read or the terminal failure states (failed, bounced,
// unsubscribed). Derived latencies are computed from the recorded
// timestamps and return zero when either endpoint is missing.
//
// The Tracker classifies sender errors: bounces and unsubscribes are
// permanent and never retried, everything else is transient and eligible
// for the scheduler's retry cycle.
package delivery
