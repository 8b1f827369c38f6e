// Package recordstore provides the public API for opening a Store Handle.
// It selects the storage engine named by the configuration while keeping the
// engine implementations internal.
package recordstore

import (
	"fmt"

	"github.com/mesh-intelligence/recordstore/internal/memory"
	"github.com/mesh-intelligence/recordstore/internal/sqlite"
	"github.com/mesh-intelligence/recordstore/internal/store"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// Version is the release version reported by the CLI.
const Version = "0.1.0"

// Option configures a Handle created by NewHandle.
type Option = store.Option

// Handle options.
var (
	WithLogger  = store.WithLogger
	WithTimeout = store.WithTimeout
)

// NewEngine returns the engine selected by cfg.Backend. The memory engine is
// fresh on every call.
func NewEngine(cfg types.Config) (types.Engine, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case types.BackendSQLite:
		return sqlite.NewEngine(cfg.DataDir), nil
	case types.BackendMemory:
		return memory.NewEngine(), nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrBackendUnknown, cfg.Backend)
	}
}

// NewHandle creates a closed Handle on the default schema. The handle is
// not opened; call Open before any collection operation.
//
// Example:
//
//	h, err := recordstore.NewHandle(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "data",
//	})
//	if err != nil { ... }
//	if err := h.Open(ctx); err != nil { ... }
//	defer h.Close()
func NewHandle(cfg types.Config, opts ...Option) (types.Handle, error) {
	cfg = cfg.WithDefaults()
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithTimeout(cfg.OpTimeout)}, opts...)
	return store.New(engine, cfg.Name, types.DefaultSchema(), opts...), nil
}
