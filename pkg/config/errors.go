package config

import "errors"

var (
	// ErrParsingConfig wraps env tag parsing failures from Load and
	// ForceReloadConfig.
	ErrParsingConfig = errors.New("failed to parse environment into config")

	// ErrConfigNotLoaded is returned when a parsed config never made it
	// into the cache.
	ErrConfigNotLoaded = errors.New("config was not loaded")

	// ErrNilPointer is returned when Load is given a nil destination.
	ErrNilPointer = errors.New("config destination cannot be nil")
)
