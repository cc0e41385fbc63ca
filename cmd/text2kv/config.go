package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nicolagi/text2kv/storage"
	"github.com/rogpeppe/rjson"
)

type config struct {
	Listen         string          `json:"listen"`
	Token          string          `json:"token"`
	Debug          bool            `json:"debug"`
	Scheme         string          `json:"scheme"`
	FormBase64     bool            `json:"form_base64"`
	VerifyAttempts int             `json:"verify_attempts"`
	VerifyInterval string          `json:"verify_interval"`
	MaxUploadBytes int64           `json:"max_upload_bytes"`
	Store          *storage.Config `json:"store"`
}

func defaultConfig() *config {
	return &config{
		Listen:         ":8080",
		Scheme:         "https",
		FormBase64:     true,
		VerifyAttempts: 1,
		VerifyInterval: "250ms",
		MaxUploadBytes: 25 << 20,
		Store:          defaultStore(),
	}
}

func defaultStore() *storage.Config {
	return &storage.Config{
		Type:     "disk",
		Path:     "$HOME/lib/text2kv/data",
		CacheTTL: "60s",
	}
}

// loadConfig reads the file at pathname over the defaults. A store given in
// the file replaces the default store as a whole.
func loadConfig(pathname string) (*config, error) {
	f, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	c := defaultConfig()
	c.Store = nil
	if err := rjson.NewDecoder(f).Decode(c); err != nil {
		return nil, fmt.Errorf("%s: %w", pathname, err)
	}
	if c.Store == nil {
		c.Store = defaultStore()
	}
	return c, nil
}

func (c *config) validate() error {
	if c.Token == "" {
		return errors.New("token: required")
	}
	if c.Listen == "" {
		return errors.New("listen: required")
	}
	if c.Scheme != "http" && c.Scheme != "https" {
		return fmt.Errorf("scheme: %q is neither http nor https", c.Scheme)
	}
	if c.VerifyAttempts < 1 {
		return fmt.Errorf("verify_attempts: %d is less than 1", c.VerifyAttempts)
	}
	if _, err := c.verifyInterval(); err != nil {
		return err
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes: %d is not positive", c.MaxUploadBytes)
	}
	return c.Store.Validate()
}

func (c *config) verifyInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.VerifyInterval)
	if err != nil {
		return 0, fmt.Errorf("verify_interval: %w", err)
	}
	return d, nil
}
