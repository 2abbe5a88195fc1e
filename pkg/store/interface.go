package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when nothing has been stored under a key.
var ErrKeyNotFound = errors.New("key not found")

// Storage is a byte-oriented key-value store. The ledger keeps its whole
// state under a single key and rewrites it on every mutation.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	Close() error
}
