// Package kv provides the durable key-value persistence facility backing the
// alarm store, cooldown state, and snapshot cache. Two implementations ship:
// a PostgreSQL store for production and an in-memory store for tests and
// local runs. Values are opaque bytes; callers own serialization.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is durable small-object storage surviving process and host restarts.
// Put overwrites atomically; List returns all keys with the given prefix in
// lexical order.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
