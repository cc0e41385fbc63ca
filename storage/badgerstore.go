package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	log "github.com/sirupsen/logrus"
)

// BadgerStore is an implementation of Store backed by a Badger database
// living in a directory.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(dir string) (*BadgerStore, error) {
	level := badger.WARNING
	if log.IsLevelEnabled(log.DebugLevel) {
		level = badger.DEBUG
	}
	opts := badger.DefaultOptions(dir).
		WithLogger(log.WithField("store", "badger")).
		WithLoggingLevel(level)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open badger database at %q: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Put(key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(dup(key), dup(value)); err != nil {
			return fmt.Errorf("could not put %.40q: %w", key, err)
		}
		return nil
	})
}

func (s *BadgerStore) Get(key []byte) (value []byte, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%.40q: %w", key, ErrNotFound)
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
