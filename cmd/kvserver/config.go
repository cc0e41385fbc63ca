package main

import (
	"os"

	"github.com/nicolagi/text2kv/storage"
	"github.com/rogpeppe/rjson"
)

type config struct {
	Listen string          `json:"listen"`
	Debug  bool            `json:"debug"`
	Store  *storage.Config `json:"store"`
}

// loadConfig reads the file at pathname. Without a store in the file, entries
// go to disk under $HOME/lib/text2kv/kvserver.
func loadConfig(pathname string) (*config, error) {
	f, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	c := &config{Listen: ":6661"}
	if err := rjson.NewDecoder(f).Decode(c); err != nil {
		return nil, err
	}
	if c.Store == nil {
		c.Store = &storage.Config{
			Type: "disk",
			Path: "$HOME/lib/text2kv/kvserver",
		}
	}
	return c, nil
}
