package storage

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Cached implements Store wrapping another store with a read cache. Values
// read from the delegate are served from memory until their TTL expires. Puts
// go straight to the delegate and evict the cached value, so that a read
// following a put observes the delegate's state.
type Cached struct {
	delegate Store
	cache    *ttlcache.Cache[string, []byte]

	// Bumped by every put. A get fills the cache only if no put completed
	// while it was reading from the delegate.
	mu  sync.Mutex
	gen uint64
}

func NewCached(delegate Store, ttl time.Duration) *Cached {
	cache := ttlcache.New[string, []byte](
		ttlcache.WithTTL[string, []byte](ttl),
		// Hits must not extend the lifetime of a value.
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go cache.Start()
	return &Cached{
		delegate: delegate,
		cache:    cache,
	}
}

func (s *Cached) Put(key, value []byte) error {
	err := s.delegate.Put(key, value)
	s.mu.Lock()
	s.gen++
	s.cache.Delete(string(key))
	s.mu.Unlock()
	return err
}

func (s *Cached) Get(key []byte) (value []byte, err error) {
	if item := s.cache.Get(string(key)); item != nil {
		return dup(item.Value()), nil
	}
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	value, err = s.delegate.Get(key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.gen == gen {
		s.cache.Set(string(key), dup(value), ttlcache.DefaultTTL)
	}
	s.mu.Unlock()
	return value, nil
}

// Close stops the cache janitor and closes the delegate.
func (s *Cached) Close() error {
	s.cache.Stop()
	return Close(s.delegate)
}
