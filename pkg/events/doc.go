// Package events defines the shared notification vocabulary: delivery
// channels, preference categories, the closed set of domain notification
// types, and the lifecycle event types published to webhook subscribers.
//
// Types are plain string constants with data-driven side tables for
// human-readable labels and category membership, so adding a new domain
// event means adding a constant and (optionally) two table rows.
package events
