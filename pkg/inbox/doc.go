// Package inbox implements the in-app notification channel.
//
// Unlike email or push, in-app delivery is persistence: the channel sender
// stores a Message the user's client lists later, and the stored id doubles
// as the provider response on the analytics row. Messages carry their own
// read lifecycle (MarkRead is idempotent, first read timestamp wins) and an
// optional expiry after which they disappear from listings.
//
// Two Storage implementations ship with the package: an in-memory store for
// tests and local development, and a Redis store that keeps one key per
// message with the expiry as its TTL plus a per-user sorted-set index for
// newest-first listing.
package inbox
