// Package storage holds content-addressed blob stores keyed by hash.
package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("storage: key not found")
	ErrExists   = errors.New("storage: key already exists")
	ErrBadKey   = errors.New("storage: invalid key")
)

// Storage keeps immutable blobs by key. Implementations are safe for concurrent use.
type Storage interface {
	Create(ctx context.Context, key string, value []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Has(key string) bool
	Keys() []string

	Statistics() Statistics
}

type Statistics struct {
	Entries int
	Bytes   int64
}

// validKey accepts the hex digests used as cache keys and nothing that could
// escape a directory.
func validKey(key string) bool {
	if key == "" || len(key) > 128 {
		return false
	}
	for _, r := range key {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
