package db

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the referenced user or recipe does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate reports a unique-key conflict (nickname or title already taken).
var ErrDuplicate = errors.New("already exists")

// PersistError wraps a failed store write. Distinct from validation and
// lookup errors: callers running multi-document sequences compensate on it.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
