package storage_test

import (
	"bytes"
	"errors"
	"math/rand"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/nicolagi/text2kv/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreImplementations(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(*testing.T) (storage.Store, func())
	}{
		{
			name: "Store implementation backed by a BoltDB",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				store, err := storage.OpenBoltStore(filepath.Join(t.TempDir(), "entries.db"))
				require.Nil(t, err)
				return store, func() {
					assert.Nil(t, store.Close())
				}
			},
		},
		{
			name: "Store implementation backed by a Badger database",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				store, err := storage.NewBadgerStore(t.TempDir())
				require.Nil(t, err)
				return store, func() {
					assert.Nil(t, store.Close())
				}
			},
		},
		{
			name: "Store implementation backed by a SQLite database",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "entries.sqlite"))
				require.Nil(t, err)
				return store, func() {
					assert.Nil(t, store.Close())
				}
			},
		},
		{
			name: "Store implementation backed by a map",
			setup: func(*testing.T) (s storage.Store, teardown func()) {
				return storage.NewInMemoryStore(), func() {
					// Nothing to do.
				}
			},
		},
		{
			name: "Store implementation backed by a host filesystem directory",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				return storage.NewDiskStore(t.TempDir()), func() {}
			},
		},
		{
			name: "Store implementation talking to a remote handler",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				srv := httptest.NewServer(storage.NewRemoteHandler(storage.NewInMemoryStore()))
				return storage.NewRemoteStore(srv.URL), srv.Close
			},
		},
		{
			name: "Paired store backed by two in-memory stores",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				store := storage.NewPaired(
					storage.NewInMemoryStore(),
					storage.NewInMemoryStore(),
				)
				return store, func() {
					assert.Nil(t, store.Close())
				}
			},
		},
		{
			name: "Cached store backed by a host filesystem directory",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				store := storage.NewCached(storage.NewDiskStore(t.TempDir()), time.Minute)
				return store, func() {
					assert.Nil(t, store.Close())
				}
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store, teardown := tc.setup(t)
			defer teardown()
			testStore(t, store)
		})
	}
}

func testStore(t *testing.T, store storage.Store) {
	t.Run("what you put is what you get", func(t *testing.T) {
		key := randomKey()
		err := store.Put(key, []byte("hello"))
		require.Nil(t, err)
		storedValue, err := store.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("hello"), storedValue)
	})
	t.Run("last put wins", func(t *testing.T) {
		key := randomKey()
		require.Nil(t, store.Put(key, []byte("hello")))
		require.Nil(t, store.Put(key, []byte("goodbye")))
		storedValue, err := store.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("goodbye"), storedValue)
	})
	t.Run("error on not existing key", func(t *testing.T) {
		key := randomKey()
		value, err := store.Get(key)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		assert.Nil(t, value)
	})
	t.Run("can put a nil value, get non-nil empty slice", func(t *testing.T) {
		key := randomKey()
		err := store.Put(key, nil)
		require.Nil(t, err)
		value, err := store.Get(key)
		assert.Nil(t, err)
		assert.Equal(t, []byte{}, value)
	})
	t.Run("can put an empty value", func(t *testing.T) {
		key := randomKey()
		err := store.Put(key, []byte{})
		require.Nil(t, err)
		value, err := store.Get(key)
		assert.Nil(t, err)
		assert.Equal(t, []byte{}, value)
	})
	t.Run("text keys and values survive", func(t *testing.T) {
		key := []byte("notes/2024-06.txt")
		value := []byte("héllo, 世界\n")
		require.Nil(t, store.Put(key, value))
		storedValue, err := store.Get(key)
		require.Nil(t, err)
		assert.Equal(t, value, storedValue)
	})
	t.Run("mutating value should not affect stored pairs", func(t *testing.T) {
		key := randomKey()
		before := []byte("old value")
		if err := store.Put(key, before); err != nil {
			t.Fatalf("got %v, want nil", err)
		}
		copy(before, "new")
		after, err := store.Get(key)
		if err != nil {
			t.Fatalf("got %v, want nil", err)
		}
		if want := []byte("old value"); !bytes.Equal(want, after) {
			t.Errorf("got %q, want %q", after, want)
		}
	})
	t.Run("mutating retrieved value should not affect stored pairs", func(t *testing.T) {
		key := randomKey()
		require.Nil(t, store.Put(key, []byte("old value")))
		got, err := store.Get(key)
		require.Nil(t, err)
		copy(got, "new")
		got, err = store.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("old value"), got)
	})
	t.Run("mutating key should not cause a race condition", func(t *testing.T) {
		key := randomKey()
		value := []byte("value")
		if err := store.Put(key, value); err != nil {
			t.Fatalf("got %v, want nil", err)
		}
		copy(key, "other")
	})
}

func randomKey() []byte {
	key := make([]byte, 128)
	rand.Read(key)
	return key
}
