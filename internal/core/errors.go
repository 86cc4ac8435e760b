package core

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable marks a memory or external source that could not
// answer. It never leaves the context assembler.
var ErrSourceUnavailable = errors.New("source unavailable")

type ModelTransientError struct {
	StatusCode int
	Err        error
}

func (e *ModelTransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model transient error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model transient error: %v", e.Err)
}

func (e *ModelTransientError) Unwrap() error { return e.Err }

type ModelFatalError struct {
	StatusCode int
	Err        error
}

func (e *ModelFatalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model fatal error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model fatal error: %v", e.Err)
}

func (e *ModelFatalError) Unwrap() error { return e.Err }

type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// IsTransient reports whether err is worth another model call.
func IsTransient(err error) bool {
	var te *ModelTransientError
	return errors.As(err, &te)
}
