// Package store persists journals in an abstract key-value store.
//
// The engine never touches a store: the command line loads a journal from a
// KV, evaluates it, and saves it back. Keys are slash separated paths like
// "trade/01J..." or "capital/yearly/2024", values are JSON documents.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("key not found")

// KV is a flat key-value store.
type KV interface {
	// Get returns the value of a key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put sets the value of a key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns the sorted keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Backend names a KV implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

// Options are the connection parameters of a backend.
type Options struct {
	Backend  Backend
	Path     string // directory for file, database file for sqlite
	Addr     string // redis address
	Password string
	DB       int
	Prefix   string // redis key prefix
}

// Open opens the KV described by opts.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch Backend(strings.ToLower(string(opts.Backend))) {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendFile:
		return NewFile(opts.Path)
	case BackendSQLite:
		return NewSQLite(opts.Path)
	case BackendRedis:
		return NewRedis(ctx, opts.Addr, opts.Password, opts.DB, opts.Prefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
