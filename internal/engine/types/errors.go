package types

import (
	"errors"
	"fmt"

	"github.com/timeline-badge/timeline/internal/config"
)

var (
	// ErrMissingConfiguration is terminal: network identity or handle not configured
	ErrMissingConfiguration = config.ErrMissingConfiguration

	// ErrConnectivityTimeout is terminal for the session until the link is reset
	ErrConnectivityTimeout = errors.New("connectivity timeout")
)

// FetchError is a recoverable fetch failure. The task is discarded and
// re-created on the next tick.
type FetchError struct {
	Locator     string
	Destination string
	Err         error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s to %s failed: %v", e.Locator, e.Destination, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PayloadError reports one malformed or missing field. Never fatal to a stage.
type PayloadError struct {
	Field string
	Err   error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("payload field %q: %v", e.Field, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// DecodeError means a cached document could not be decoded as a whole
// (avatar image or unparseable JSON). Treated like a fetch failure.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
