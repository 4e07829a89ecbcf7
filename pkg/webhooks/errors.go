package webhooks

import "errors"

var (
	ErrInvalidConfig    = errors.New("invalid webhook configuration")
	ErrConfigNotFound   = errors.New("webhook configuration not found")
	ErrConfigExists     = errors.New("webhook configuration already exists")
	ErrRegistryNil      = errors.New("webhook registry cannot be nil")
	ErrDeliveryFailed   = errors.New("webhook delivery failed")
	ErrPermanentFailure = errors.New("permanent webhook failure")
	ErrTemporaryFailure = errors.New("temporary webhook failure")
	ErrTimeout          = errors.New("webhook request timeout")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
