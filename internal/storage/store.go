// Package storage defines the durable key-value contract used by the audit
// ledger and an in-memory implementation of it.
package storage

import (
	"context"
	"errors"
)

// ErrClosed indicates the store was used after Close.
var ErrClosed = errors.New("storage: store closed")

// KV is a synchronous get/set store of opaque values. Last write wins.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ErrNotFound is returned when a key has never been written or was deleted.
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return "key not found: " + e.Key
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
