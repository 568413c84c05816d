// Package kv defines the persistence port used for versions and flags. Values
// are opaque bytes; TypedKV layers JSON encoding on top.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("key not found")

// KV is the interface for a persistent key-value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	// ListKeys returns every key starting with prefix in sorted order.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}
