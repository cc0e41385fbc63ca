package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Config describes a store. Which fields matter depends on Type.
type Config struct {
	// One of memory, disk, bolt, badger, sqlite, s3, dynamodb, remote, paired.
	Type string `json:"type"`

	// Directory for disk and badger, database file for bolt and sqlite.
	Path string `json:"path"`

	// Address of the kvserver, for remote.
	Address string `json:"address"`

	// AWS settings, for s3 and dynamodb.
	Profile  string `json:"profile"`
	Region   string `json:"region"`
	Bucket   string `json:"bucket"`
	Endpoint string `json:"endpoint"`
	Table    string `json:"table"`

	// The two halves of a paired store.
	Fast *Config `json:"fast"`
	Slow *Config `json:"slow"`

	// If set, reads are cached for this long, e.g., "60s".
	CacheTTL string `json:"cache_ttl"`
}

var errMissing = errors.New("missing setting")

// Validate checks the configuration without opening anything.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("store: %w", errMissing)
	}
	require := func(name, value string) error {
		if value == "" {
			return fmt.Errorf("%s store: %s: %w", c.Type, name, errMissing)
		}
		return nil
	}
	var err error
	switch c.Type {
	case "memory":
	case "disk", "bolt", "badger", "sqlite":
		err = require("path", c.Path)
	case "remote":
		err = require("address", c.Address)
	case "s3":
		if err = require("region", c.Region); err == nil {
			err = require("bucket", c.Bucket)
		}
	case "dynamodb":
		if err = require("region", c.Region); err == nil {
			err = require("table", c.Table)
		}
	case "paired":
		if c.Fast == nil || c.Slow == nil {
			return fmt.Errorf("paired store: fast and slow: %w", errMissing)
		}
		if err = c.Fast.Validate(); err == nil {
			err = c.Slow.Validate()
		}
	default:
		return fmt.Errorf("unknown store type %q", c.Type)
	}
	if err != nil {
		return err
	}
	if c.CacheTTL != "" {
		if _, err := time.ParseDuration(c.CacheTTL); err != nil {
			return fmt.Errorf("%s store: cache_ttl: %w", c.Type, err)
		}
	}
	return nil
}

// Open builds the store described by c. The caller should release it with
// Close when done.
func Open(c *Config) (Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	store, err := open(c)
	if err != nil {
		return nil, err
	}
	if c.CacheTTL != "" {
		ttl, _ := time.ParseDuration(c.CacheTTL)
		if ttl > 0 {
			store = NewCached(store, ttl)
		}
	}
	log.WithFields(log.Fields{
		"type":  c.Type,
		"path":  c.Path,
		"cache": c.CacheTTL,
	}).Info("Opened store")
	return store, nil
}

func open(c *Config) (Store, error) {
	path := os.ExpandEnv(c.Path)
	switch c.Type {
	case "memory":
		return NewInMemoryStore(), nil
	case "disk":
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, fmt.Errorf("could not ensure directory %q exists: %w", path, err)
		}
		return NewDiskStore(path), nil
	case "bolt":
		return OpenBoltStore(path)
	case "badger":
		return NewBadgerStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	case "remote":
		return NewRemoteStore(c.Address), nil
	case "s3":
		return NewS3(c.Profile, c.Region, c.Bucket, c.Endpoint), nil
	case "dynamodb":
		return NewDynamoDBStore(c.Profile, c.Region, c.Table)
	case "paired":
		fast, err := Open(c.Fast)
		if err != nil {
			return nil, fmt.Errorf("fast: %w", err)
		}
		slow, err := Open(c.Slow)
		if err != nil {
			_ = Close(fast)
			return nil, fmt.Errorf("slow: %w", err)
		}
		return NewPaired(fast, slow), nil
	}
	return nil, fmt.Errorf("unknown store type %q", c.Type)
}
