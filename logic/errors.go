package logic

import (
	"errors"
	"fmt"
)

// ErrTooManyConflicts is returned when an optimistic write kept losing races.
var ErrTooManyConflicts = errors.New("too many concurrent modifications")

// ErrUnknownSilo is returned by the registry for a name it does not know.
var ErrUnknownSilo = errors.New("unknown silo")

// TransientError means the silo is temporarily unavailable or rate limiting us.
// Nothing was persisted; the caller should retry the whole batch later.
type TransientError struct {
	Silo string
	Err  error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient %s failure: %v", e.Silo, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// DisableSourceError means the source's credentials no longer work.
type DisableSourceError struct {
	SourceKey string
	Err       error
}

func (e *DisableSourceError) Error() string {
	return fmt.Sprintf("source %s should be disabled: %v", e.SourceKey, e.Err)
}

func (e *DisableSourceError) Unwrap() error {
	return e.Err
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsDisableSource(err error) bool {
	var de *DisableSourceError
	return errors.As(err, &de)
}

// ErrNotFound is returned when a response or blog post with the given key does not exist.
var ErrNotFound = errors.New("record not found")

// ErrUnknownKind is returned for a record kind other than response or blogpost.
var ErrUnknownKind = errors.New("unknown record kind")

// ErrInvalidOutcome is returned for an unknown outcome or a URL that is not a target of the record.
var ErrInvalidOutcome = errors.New("invalid delivery outcome")

// ErrBadFeed is returned when a blog feed cannot be parsed.
var ErrBadFeed = errors.New("unreadable feed")
