package cli

import (
	"context"
	"errors"
	"strconv"

	"github.com/mesh-intelligence/recordstore/internal/logger"
	"github.com/mesh-intelligence/recordstore/internal/store"
	"github.com/mesh-intelligence/recordstore/pkg/recordstore"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// openHandle builds the Store Handle for this invocation and opens it. The
// caller must defer a.closeHandle.
func (a *app) openHandle(ctx context.Context) (*store.Handle, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, err
	}
	engine, err := recordstore.NewEngine(cfg)
	if err != nil {
		return nil, userErrorf("select backend: %w", err)
	}

	h := store.New(engine, cfg.Name, types.DefaultSchema(),
		store.WithLogger(logger.For(a.log, "store")),
		store.WithTimeout(cfg.OpTimeout),
	)
	if err := h.Open(ctx); err != nil {
		return nil, classify(err)
	}
	return h, nil
}

// closeHandle closes h and prints its counters when --metrics is set.
func (a *app) closeHandle(h *store.Handle) {
	if err := h.Close(); err != nil {
		a.log.Sugar().Warnw("Failed to close database", "error", err)
	}
	if a.flags.metrics {
		h.WriteMetrics(a.stderr)
	}
}

// classify maps a handle error to the exit code a user should see: bad
// input is a user error, anything the storage layer failed at is a system
// error.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, types.ErrCollectionNotFound),
		errors.Is(err, types.ErrInvalidKey),
		errors.Is(err, types.ErrInvalidRecord),
		errors.Is(err, types.ErrVersionDowngrade):
		return userError(err)
	default:
		return sysError(err)
	}
}

// keyPath returns the key path the default schema declares for collection.
func keyPath(collection string) string {
	for _, def := range types.DefaultSchema().Collections {
		if def.Name == collection {
			return def.KeyPath
		}
	}
	return "id"
}

// parseKey parses a key given on the command line.
func parseKey(arg string) (types.Key, error) {
	k, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return types.NoKey, userErrorf("invalid id %q: must be a positive integer", arg)
	}
	return checkKey(k)
}

// checkKey accepts the keys the CLI lets users address: positive ones.
func checkKey(k int64) (types.Key, error) {
	if k <= 0 {
		return types.NoKey, userErrorf("invalid id %d: must be a positive integer", k)
	}
	return types.Key(k), nil
}
