// Package storage provides the durable key-value space the client keeps its session in.
package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// KV is a small string key-value store. Get reports ok=false for missing keys;
// Delete of a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the KV for backend rooted at dir. The returned close func is never nil.
func Open(backend, dir string, logger *slog.Logger) (KV, func() error, error) {
	noop := func() error { return nil }

	switch backend {
	case BackendMemory:
		return NewMemory(), noop, nil
	case "", BackendFile:
		kv, err := NewFile(dir, logger)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	case BackendSQLite:
		kv, err := NewSQLite(dir)
		if err != nil {
			return nil, noop, err
		}
		return kv, kv.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", backend)
	}
}
