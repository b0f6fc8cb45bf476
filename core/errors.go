package core

import "errors"

var (
	// ErrConfigurationMissing means backend credentials were not supplied.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrStoreDisabled is returned by a score store running without a backend.
	ErrStoreDisabled = errors.New("score store disabled")
	// ErrStoreUnavailable wraps any failed remote call.
	ErrStoreUnavailable = errors.New("score store unavailable")
	// ErrDecodeAnomaly means a successful store response matched no known shape.
	ErrDecodeAnomaly = errors.New("unrecognized store response")

	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("leaderboard service unavailable")

	ErrKeyNotFound          = errors.New("key not found")
	ErrGameNotFound         = errors.New("game not found")
	ErrEmptyPrompt          = errors.New("prompt cannot be empty")
	ErrInvalidHTML          = errors.New("invalid HTML content")
	ErrGeneratorUnavailable = errors.New("game generator unavailable")
)
