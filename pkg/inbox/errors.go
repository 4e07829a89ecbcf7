package inbox

import "errors"

var (
	ErrStorageNil      = errors.New("inbox storage cannot be nil")
	ErrMessageNotFound = errors.New("inbox message not found")
	ErrMessageExists   = errors.New("inbox message already exists")
)
