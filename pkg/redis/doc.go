// Package redis connects the go-redis client used by the in-app inbox
// store: Connect with startup retries bounded by a connect timeout, plus a
// health check probe for readiness endpoints.
package redis
