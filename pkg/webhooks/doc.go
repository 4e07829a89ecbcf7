// Package webhooks delivers notification lifecycle events to external HTTP
// endpoints.
//
// Subscriptions are Config rows held in a Registry. Each carries its
// endpoint, an optional HMAC secret, a subscribed event list, and lifetime
// health counters that drive the Healthy signal surfaced to operators.
//
// The Dispatcher implements the event sink used by the delivery tracker and
// the scheduler. Publish returns immediately: deliveries run in bounded
// background goroutines, protected per endpoint by a circuit breaker, so a
// slow or dead subscriber never stalls notification dispatch.
//
// Payloads are signed with HMAC-SHA256 bound to a timestamp
// (X-Webhook-Signature, X-Webhook-Timestamp, X-Webhook-ID). Receivers
// verify with Verify or ExtractSignatureHeaders.
package webhooks
