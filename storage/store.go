package storage

import (
	"errors"
	"io"
)

// Store represents a key-value store.
type Store interface {
	Put(key, value []byte) (err error)

	// Get should return ErrNotFound if the key is not in the store.
	Get(key []byte) (value []byte, err error)
}

var (
	// ErrNotFound indicates a key is not in the store.
	ErrNotFound = errors.New("not found")
)

// Close releases the resources held by the store, if any. Stores that hold
// no resources (e.g., the in-memory one) are left untouched.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// dup returns a copy of b that is never nil.
func dup(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
