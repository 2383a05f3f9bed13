package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "picarx.log")

	opts := DefaultOptions()
	opts.File = path
	opts.Console = &console

	logger, closer := New(opts)
	logger.Info("configuration loaded", "path", "config.yaml")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "configuration loaded")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "configuration loaded")
	assert.Contains(t, string(data), "path=config.yaml")
}

func TestNewWithoutFile(t *testing.T) {
	var console bytes.Buffer
	logger, closer := New(Options{Name: "test", Level: "warn", Console: &console})
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	var console bytes.Buffer
	logger, closer := New(Options{Level: "chatty", Console: &console})
	defer closer.Close()

	logger.Debug("debug line")
	logger.Info("info line")

	assert.NotContains(t, console.String(), "debug line")
	assert.Contains(t, console.String(), "info line")
}

func TestNewJSON(t *testing.T) {
	var console bytes.Buffer
	logger, closer := New(Options{Name: "json", JSON: true, Console: &console})
	defer closer.Close()

	logger.Info("saved", "path", "config.yaml")
	assert.Contains(t, console.String(), `"@message":"saved"`)
}
