package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
	// ErrStaleStatus is returned when a guarded status update lost the race:
	// the row no longer carries the status the caller read.
	ErrStaleStatus = errors.New("job status changed concurrently")
)
