// Package logging builds the process logger: console output mirrored to a
// size-rotated log file.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger.
type Options struct {
	Name       string
	Level      string // trace, debug, info, warn, error
	JSON       bool
	File       string // empty disables the file sink
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Console    io.Writer // defaults to os.Stderr
}

// DefaultOptions returns the settings used by the picarx binary.
func DefaultOptions() Options {
	return Options{
		Name:       "picarx",
		Level:      "info",
		File:       "picarx.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 28,
	}
}

// New returns the logger and a closer for the file sink.
func New(opts Options) (hclog.Logger, io.Closer) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var (
		out    io.Writer = console
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		out = io.MultiWriter(console, file)
		closer = file
	}

	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      level,
		Output:     out,
		JSONFormat: opts.JSON,
	})
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
