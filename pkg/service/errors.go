package service

import (
	"github.com/Rajatchopra3/Task-Management-System/pkg/storage"
	"github.com/pkg/errors"
)

// ErrNotFound is the cause of every error where a referenced task, user or
// workflow does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is the cause of every error where an operation would violate
// an invariant: task already in another workflow, cyclic dependency,
// dependent tasks incomplete, task has outstanding dependencies at delete
// time.
var ErrConflict = errors.New("conflict")

func notFoundf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

func conflictf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConflict, format, args...)
}

// IsNotFound reports whether err means a referenced entity does not exist.
func IsNotFound(err error) bool {
	cause := errors.Cause(err)
	return cause == ErrNotFound || cause == storage.ErrNotFound
}

// IsConflict reports whether err means an invariant violation.
func IsConflict(err error) bool {
	return errors.Cause(err) == ErrConflict
}

// IsRetryable reports whether err is a store-level transaction conflict
// that the caller may retry.
func IsRetryable(err error) bool {
	return errors.Cause(err) == storage.ErrTxConflict
}
