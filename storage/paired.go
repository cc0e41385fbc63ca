package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrClosed is returned by puts on a closed Paired store.
var ErrClosed = errors.New("store closed")

// Paired implements Store wrapping a pair of stores, one fast, one slow.
// Puts land in the fast store and are written back to the slow store in the
// background. Gets are served from the fast store if possible, otherwise from
// the slow store, in which case the value is also copied to the fast store.
type Paired struct {
	fast Store
	slow Store

	// Delay between attempts at writing back to the slow store.
	retryDelay time.Duration

	wbc     chan [2][]byte
	stopc   chan struct{}
	done    sync.WaitGroup
	closing sync.Once

	// Guards sends on wbc against its closing.
	mu     sync.RWMutex
	closed bool
}

func NewPaired(fast, slow Store) *Paired {
	p := &Paired{
		fast:       fast,
		slow:       slow,
		retryDelay: time.Second,
		wbc:        make(chan [2][]byte, 42),
		stopc:      make(chan struct{}),
	}
	p.done.Add(1)
	go p.writeback()
	return p
}

func (s *Paired) Get(key []byte) (value []byte, err error) {
	value, err = s.fast.Get(key)
	if err == nil {
		return
	}
	if !errors.Is(err, ErrNotFound) {
		return
	}
	value, err = s.slow.Get(key)
	if err != nil {
		return nil, err
	}
	logger := log.WithFields(log.Fields{
		"key": fmt.Sprintf("%.10x", key),
	})
	if ferr := s.fast.Put(key, value); ferr != nil {
		logger.WithField("err", ferr).Warn("Could not propagate from slow to fast")
	} else {
		logger.Debug("Propagated from slow to fast")
	}
	return value, nil
}

func (s *Paired) Put(key, value []byte) (err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err = s.fast.Put(key, value); err != nil {
		return err
	}
	// Blocks when the buffer is full and the slow store is not keeping up.
	s.wbc <- [2][]byte{dup(key), dup(value)}
	return nil
}

// Close drains pending write-backs, giving up on those that fail once
// closing has started, then closes both stores.
func (s *Paired) Close() error {
	s.closing.Do(func() {
		// Pending retries give up first, so that blocked puts get through.
		close(s.stopc)
		s.mu.Lock()
		s.closed = true
		close(s.wbc)
		s.mu.Unlock()
	})
	s.done.Wait()
	ferr := Close(s.fast)
	if serr := Close(s.slow); serr != nil {
		return serr
	}
	return ferr
}

func (s *Paired) writeback() {
	defer s.done.Done()
	for kv := range s.wbc {
		s.writeback1(kv[0], kv[1])
	}
}

func (s *Paired) writeback1(key, value []byte) {
	logger := log.WithFields(log.Fields{
		"key": fmt.Sprintf("%.10x", key),
	})
	for {
		err := s.slow.Put(key, value)
		if err == nil {
			logger.Debug("Propagated from fast to slow")
			return
		}
		logger.WithFields(log.Fields{
			"err": err,
		}).Warn("Could not propagate from fast to slow")
		select {
		case <-s.stopc:
			logger.Error("Dropping write-back on close")
			return
		case <-time.After(s.retryDelay):
		}
	}
}
