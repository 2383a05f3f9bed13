package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/samber/oops"
	"gopkg.in/yaml.v2"
)

// Store holds the effective configuration of the robot: the built-in
// defaults overlaid with the persisted YAML file.
//
// A Store is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves (see the state package).
type Store struct {
	path     string
	defaults Map
	current  Map
	logger   hclog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger that receives load, save and set diagnostics.
func WithLogger(logger hclog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaults replaces the built-in defaults.
func WithDefaults(defaults Map) Option {
	return func(s *Store) {
		s.defaults = defaults.Clone()
	}
}

// NewStore creates a store backed by path and loads it. An empty path means
// DefaultFile.
func NewStore(path string, opts ...Option) *Store {
	if path == "" {
		path = DefaultFile
	}
	s := &Store{
		path:     path,
		defaults: DefaultValues(),
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaults == nil {
		s.defaults = Map{}
	}

	s.current = s.Load()
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file and returns it merged onto a copy of the
// defaults. A missing, unreadable or malformed file yields a copy of the
// defaults; the cause is logged, never returned.
func (s *Store) Load() Map {
	loaded, err := ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Warn("configuration file not found, using defaults", "path", s.path)
		return s.defaults.Clone()
	case err != nil:
		s.logger.Error("failed to load configuration, using defaults", "path", s.path, "error", err)
		return s.defaults.Clone()
	}

	cfg := s.defaults.Clone()
	DeepMerge(cfg, loaded)
	s.logger.Info("configuration loaded", "path", s.path)
	return cfg
}

// Reload replaces the current configuration with a fresh Load.
func (s *Store) Reload() {
	s.current = s.Load()
}

// Reset discards in-memory changes and returns to the defaults. The backing
// file is left alone until the next Save.
func (s *Store) Reset() {
	s.current = s.defaults.Clone()
	s.logger.Info("configuration reset to defaults")
}

// Save writes the current configuration to the backing file, replacing its
// content. Failures are logged and returned.
func (s *Store) Save() error {
	data, err := Encode(s.current)
	if err != nil {
		s.logger.Error("failed to encode configuration", "path", s.path, "error", err)
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		err = oops.Wrapf(fmt.Errorf("%w: %w", ErrFileAccess, err), "write %s", s.path)
		s.logger.Error("failed to save configuration", "path", s.path, "error", err)
		return err
	}
	s.logger.Info("configuration saved", "path", s.path)
	return nil
}

// Get returns the value at a dotted key such as "camera.resolution", or def
// when the key does not resolve.
func (s *Store) Get(key string, def Value) Value {
	if v, ok := s.Lookup(key); ok {
		return v
	}
	return def
}

// Lookup returns a copy of the value at a dotted key.
func (s *Store) Lookup(key string) (Value, bool) {
	v, ok := s.current.Lookup(key)
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Set assigns value at a dotted key, creating missing sections. It only
// changes memory; call Save to persist. When the path runs through a
// non-section value the error is logged and returned and nothing changes.
func (s *Store) Set(key string, value Value) error {
	if value == nil {
		value = Null{}
	}
	if err := s.current.Assign(key, value); err != nil {
		s.logger.Error("failed to set configuration value", "key", key, "error", err)
		return err
	}
	s.logger.Debug("configuration value set", "key", key, "value", Format(value))
	return nil
}

// Snapshot returns a deep copy of the current configuration.
func (s *Store) Snapshot() Map {
	return s.current.Clone()
}

// Defaults returns a deep copy of the defaults.
func (s *Store) Defaults() Map {
	return s.defaults.Clone()
}

// ReadFile reads and decodes a configuration file. A missing file keeps
// fs.ErrNotExist in the error chain.
func ReadFile(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Wrapf(err, "read %s", path)
		}
		return nil, oops.Wrapf(fmt.Errorf("%w: %w", ErrFileAccess, err), "read %s", path)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, oops.Wrapf(err, "decode %s", path)
	}
	return m, nil
}

// Decode parses a YAML document into a Map. An empty document decodes to an
// empty Map; any other non-mapping document is rejected.
func Decode(data []byte) (Map, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if raw == nil {
		return Map{}, nil
	}
	v, err := FromPlain(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	m, ok := v.(Map)
	if !ok {
		return nil, fmt.Errorf("%w: top level is a %s, not a mapping", ErrParse, kindName(v))
	}
	return m, nil
}

// ParseValue parses a YAML scalar or flow collection, as typed on a command
// line or in an environment variable: "60", "0.5", "auto", "[640, 480]".
func ParseValue(text string) (Value, error) {
	var raw interface{}
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrParse, text, err)
	}
	v, err := FromPlain(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrParse, text, err)
	}
	return v, nil
}
