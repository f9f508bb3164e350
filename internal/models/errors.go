package models

import (
	"errors"
	"fmt"
)

// ErrNotImplemented is returned by an adapter for an operation its provider
// does not support. The orchestrator treats it like any other per-source
// failure.
var ErrNotImplemented = errors.New("operation not supported by this provider")

// SourceUnavailableError wraps a single provider's failure. Non-fatal: the
// orchestrator logs it and moves on to the next adapter.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// InvalidReadingError marks a reading that failed schema/range validation.
// The reading is discarded; the request continues with the remaining sources.
type InvalidReadingError struct {
	Source string
	Reason string
}

func (e *InvalidReadingError) Error() string {
	return fmt.Sprintf("invalid reading from %s: %s", e.Source, e.Reason)
}

// NoDataAvailableError is fatal for a request: every adapter failed (or
// produced only invalid readings) for the given location.
type NoDataAvailableError struct {
	Location string
}

func (e *NoDataAvailableError) Error() string {
	return fmt.Sprintf("no weather data available for %q; check the spelling or try an alternate place name", e.Location)
}
