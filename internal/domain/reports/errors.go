package reports

import (
	"errors"
	"fmt"
)

// Request-level errors, mapped to 400 by the HTTP layer.
var (
	ErrInvalidContentType = errors.New("Invalid content type")
	ErrMissingFileField   = errors.New("Missing file field")
	ErrInvalidFilename    = errors.New("invalid filename")
)

// ErrAuditNotConfigured indicates no audit database was supplied in config.
var ErrAuditNotConfigured = errors.New("audit trail not configured")

// RunErrorKind distinguishes analyzer failure modes.
type RunErrorKind string

const (
	RunErrSpawn   RunErrorKind = "spawn"
	RunErrTimeout RunErrorKind = "timeout"
)

// RunError carries the failure kind plus whatever the analyzer printed
// before dying, so callers can tell a hung analyzer from a broken one.
type RunError struct {
	Kind   RunErrorKind
	Err    error
	Stdout string
	Stderr string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("analyzer %s: %v", e.Kind, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
