package storage_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nicolagi/text2kv/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCached(t *testing.T) {
	t.Run("serves reads from memory until expiry", func(t *testing.T) {
		backend := storage.NewInMemoryStore()
		cached := storage.NewCached(backend, time.Hour)
		defer func() { assert.Nil(t, cached.Close()) }()
		key := []byte("greeting")
		require.Nil(t, backend.Put(key, []byte("hello")))
		value, err := cached.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("hello"), value)

		// Changed behind the cache's back.
		require.Nil(t, backend.Put(key, []byte("goodbye")))
		value, err = cached.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("hello"), value)
	})
	t.Run("puts evict the cached value", func(t *testing.T) {
		backend := storage.NewInMemoryStore()
		cached := storage.NewCached(backend, time.Hour)
		defer func() { assert.Nil(t, cached.Close()) }()
		key := []byte("greeting")
		require.Nil(t, cached.Put(key, []byte("hello")))
		_, err := cached.Get(key)
		require.Nil(t, err)
		require.Nil(t, cached.Put(key, []byte("goodbye")))
		value, err := cached.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("goodbye"), value)
	})
	t.Run("expired values are read again", func(t *testing.T) {
		backend := storage.NewInMemoryStore()
		cached := storage.NewCached(backend, 10*time.Millisecond)
		defer func() { assert.Nil(t, cached.Close()) }()
		key := []byte("greeting")
		require.Nil(t, backend.Put(key, []byte("hello")))
		_, err := cached.Get(key)
		require.Nil(t, err)
		require.Nil(t, backend.Put(key, []byte("goodbye")))
		assert.Eventually(t, func() bool {
			value, err := cached.Get(key)
			return err == nil && string(value) == "goodbye"
		}, time.Second, 5*time.Millisecond)
	})
	t.Run("misses are not cached", func(t *testing.T) {
		backend := storage.NewInMemoryStore()
		cached := storage.NewCached(backend, time.Hour)
		defer func() { assert.Nil(t, cached.Close()) }()
		key := []byte("later")
		_, err := cached.Get(key)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		require.Nil(t, backend.Put(key, []byte("now")))
		value, err := cached.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("now"), value)
	})
}

// gatedStore holds its first get, after reading from the wrapped store, until
// release is closed.
type gatedStore struct {
	storage.Store
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (s *gatedStore) Get(key []byte) ([]byte, error) {
	value, err := s.Store.Get(key)
	s.once.Do(func() {
		close(s.read)
		<-s.release
	})
	return value, err
}

func TestCachedPutDuringGet(t *testing.T) {
	backend := storage.NewInMemoryStore()
	key := []byte("greeting")
	require.Nil(t, backend.Put(key, []byte("old")))
	gated := &gatedStore{
		Store:   backend,
		read:    make(chan struct{}),
		release: make(chan struct{}),
	}
	cached := storage.NewCached(gated, time.Hour)
	defer func() { assert.Nil(t, cached.Close()) }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		value, err := cached.Get(key)
		assert.Nil(t, err)
		assert.Equal(t, []byte("old"), value)
	}()
	<-gated.read
	require.Nil(t, cached.Put(key, []byte("new")))
	close(gated.release)
	<-done

	value, err := cached.Get(key)
	require.Nil(t, err)
	assert.Equal(t, []byte("new"), value)
}
