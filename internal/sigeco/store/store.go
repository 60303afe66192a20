package store

import (
	"context"
	"errors"
	"fmt"
)

// KV is the narrow persistence port every collection is built on. A key maps
// to one serialized collection. Implementations live in the memory, sqlite
// and remote subpackages; business code never sees anything below this.
type KV interface {
	// Get returns the stored value for key. The boolean reports whether the
	// key exists; a missing key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}

// StorageKind classifies substrate failures so callers can react to
// capacity problems differently from corrupt payloads.
type StorageKind string

const (
	KindCorrupted     StorageKind = "corrupted"
	KindQuotaExceeded StorageKind = "quota_exceeded"
	KindUnknown       StorageKind = "unknown"
)

// StorageError wraps a persistence-substrate failure with its classification
// and the operation that triggered it.
type StorageError struct {
	Kind StorageKind
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("storage %s: %s", e.Op, e.Kind)
}

func (e *StorageError) Unwrap() error { return e.Err }

// wrapStorage normalizes an arbitrary substrate error into a *StorageError,
// preserving the kind when the substrate already classified it.
func wrapStorage(op string, err error) *StorageError {
	var se *StorageError
	if errors.As(err, &se) {
		return &StorageError{Kind: se.Kind, Op: op, Err: err}
	}
	return &StorageError{Kind: KindUnknown, Op: op, Err: err}
}
