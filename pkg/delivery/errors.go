package delivery

import "errors"

var (
	// ErrStoreNil is returned when a nil store is provided.
	ErrStoreNil = errors.New("store cannot be nil")

	// ErrAnalyticsNotFound is returned when no analytics row exists for
	// the requested id.
	ErrAnalyticsNotFound = errors.New("analytics record not found")

	// ErrAnalyticsExists is returned when creating a row whose id is
	// already stored.
	ErrAnalyticsExists = errors.New("analytics record already exists")
)
