package attachments

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the record an operation targets does not exist.
var ErrNotFound = errors.New("record not found")

// StorageError means a file could not be written to the blob store.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PersistenceError means the record write failed after files were stored.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist record: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
