package shared

import "errors"

var (
	// Input validation errors block the action that triggered them.
	ErrValidation = errors.New("validation failed")

	// Storage errors are reported to the user; nothing is retried.
	ErrStorage  = errors.New("storage error")
	ErrNotFound = errors.New("not found")

	// Timer state errors
	ErrTimerRunning = errors.New("timer already running")
	ErrTimerIdle    = errors.New("timer not running")

	// Access errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrPublicDisabled = errors.New("public view disabled")

	// Configuration errors
	ErrMissingConfig = errors.New("configuration not found")
	ErrInvalidConfig = errors.New("invalid configuration")
)
