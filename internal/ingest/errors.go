package ingest

import "errors"

var (
	ErrNoFiles       = errors.New("no files provided")
	ErrTooManyFiles  = errors.New("too many files")
	ErrBatchTooLarge = errors.New("batch too large")
)

// LimitError rejects a whole batch before any file is processed. Message
// is safe to return to the caller.
type LimitError struct {
	Err     error
	Message string
}

func (e *LimitError) Error() string { return e.Message }

func (e *LimitError) Unwrap() error { return e.Err }
