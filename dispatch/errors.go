package dispatch

import "errors"

// Sentinel errors for consistent error handling.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrDuplicate           = errors.New("callable already registered")
	ErrNotFound            = errors.New("no matching callable")
	ErrInternalConsistency = errors.New("registration store inconsistent")
	ErrExecutionFailed     = errors.New("callable execution failed")
)
