package types

import (
	"errors"
	"time"
)

// Config holds backend selection and parameters for opening a Handle.
type Config struct {
	Backend   string        `json:"backend" yaml:"backend"`
	DataDir   string        `json:"data_dir" yaml:"data_dir"`
	Name      string        `json:"name" yaml:"name"`
	OpTimeout time.Duration `json:"op_timeout" yaml:"op_timeout"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Defaults applied by WithDefaults.
const (
	DefaultName      = "recordstore"
	DefaultOpTimeout = 10 * time.Second
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrNameEmpty        = errors.New("database name must not be empty")
	ErrOpTimeoutInvalid = errors.New("operation timeout must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMemory: true,
}

// WithDefaults returns a copy of c with empty fields filled in.
// Backend defaults to sqlite, Name to DefaultName, OpTimeout to
// DefaultOpTimeout.
func (c Config) WithDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.OpTimeout == 0 {
		c.OpTimeout = DefaultOpTimeout
	}
	return c
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Name == "" {
		return ErrNameEmpty
	}
	if c.OpTimeout < 0 {
		return ErrOpTimeoutInvalid
	}
	return nil
}
