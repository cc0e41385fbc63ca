package storage

import (
	"crypto/sha512"
	"fmt"
	"os"
	"path/filepath"
)

// DiskStore implements Store, keeping one file per key under a directory.
// Files are sharded by the first byte of the hex-encoded key.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

func (s *DiskStore) Put(key, value []byte) (err error) {
	valpath := s.pathFor(key)
	dir := filepath.Dir(valpath)
	f, err := os.CreateTemp(dir, ".put-*")
	if os.IsNotExist(err) {
		if err = os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("could not make dir for %q: %w", valpath, err)
		}
		f, err = os.CreateTemp(dir, ".put-*")
	}
	if err != nil {
		return fmt.Errorf("could not write %q: %w", valpath, err)
	}
	_, err = f.Write(value)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		// Readers never observe a half-written value.
		err = os.Rename(f.Name(), valpath)
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("could not write %q: %w", valpath, err)
	}
	return nil
}

func (s *DiskStore) Get(key []byte) (value []byte, err error) {
	value, err = os.ReadFile(s.pathFor(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (s *DiskStore) pathFor(key []byte) string {
	// Prevent ENAMETOOLONG, while retaining low probability of clashes.
	if len(key) > sha512.Size {
		hash := sha512.Sum512(key)
		key = hash[:]
	}
	if len(key) == 0 {
		return filepath.Join(s.dir, "empty")
	}
	hex := fmt.Sprintf("%02x", key)
	return filepath.Join(s.dir, hex[:2], hex)
}
