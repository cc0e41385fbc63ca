package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "kvserver.config")
	require.Nil(t, os.WriteFile(pathname, []byte(`{debug: true, store: {type: "memory"}}`), 0600))
	c, err := loadConfig(pathname)
	require.Nil(t, err)
	assert.True(t, c.Debug)
	assert.Equal(t, ":6661", c.Listen)
	assert.Equal(t, "memory", c.Store.Type)
	assert.Equal(t, "", c.Store.Path)
	assert.Nil(t, c.Store.Validate())
}

func TestLoadConfigDefaultStore(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "kvserver.config")
	require.Nil(t, os.WriteFile(pathname, []byte(`{listen: "127.0.0.1:7000"}`), 0600))
	c, err := loadConfig(pathname)
	require.Nil(t, err)
	assert.Equal(t, "127.0.0.1:7000", c.Listen)
	assert.Equal(t, "disk", c.Store.Type)
	assert.Equal(t, "$HOME/lib/text2kv/kvserver", c.Store.Path)
}
