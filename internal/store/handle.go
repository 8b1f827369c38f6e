// Package store implements the Store Handle: lazy, idempotent opening of a
// named database and single-request collection operations on top of a
// types.Engine.
package store

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/recordstore/internal/request"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

var _ types.Handle = (*Handle)(nil)

// Handle implements types.Handle. It owns at most one engine connection.
type Handle struct {
	engine  types.Engine
	name    string
	schema  types.Schema
	log     *zap.SugaredLogger
	timeout time.Duration
	metrics *metrics.Set

	openMu sync.Mutex // serializes Open and Close
	mu     sync.RWMutex
	state  types.State
	conn   types.Connection
}

// Option configures a Handle.
type Option func(*Handle)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(h *Handle) {
		if log != nil {
			h.log = log
		}
	}
}

// WithTimeout bounds every engine request. Zero disables the bound and
// leaves only the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(h *Handle) { h.timeout = d }
}

// New creates a closed Handle for the named database.
func New(engine types.Engine, name string, schema types.Schema, opts ...Option) *Handle {
	h := &Handle{
		engine:  engine,
		name:    name,
		schema:  schema,
		log:     zap.NewNop().Sugar(),
		timeout: types.DefaultOpTimeout,
		metrics: metrics.NewSet(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open opens the database at the schema version. On an open handle it
// returns nil at once.
func (h *Handle) Open(ctx context.Context) error {
	h.openMu.Lock()
	defer h.openMu.Unlock()

	if h.State() == types.StateOpen {
		return nil
	}
	if err := h.schema.Validate(); err != nil {
		return h.connectionError(err)
	}

	h.setState(types.StateOpening)
	conn, err := run(ctx, h, "open", func(ctx context.Context) (types.Connection, error) {
		conn, err := h.engine.Open(ctx, h.name, h.schema.Version, h.provision)
		if err != nil {
			return nil, err
		}
		// Nobody is waiting for a connection that arrives after the deadline.
		if ctx.Err() != nil {
			conn.Close()
			return nil, ctx.Err()
		}
		return conn, nil
	})
	if err != nil {
		h.setState(types.StateClosed)
		return h.connectionError(err)
	}

	h.mu.Lock()
	h.conn = conn
	h.state = types.StateOpen
	h.mu.Unlock()

	h.log.Infow("Opened database", "name", h.name, "version", conn.Version(), "collections", conn.CollectionNames())
	return nil
}

// provision creates every schema collection the database does not have yet.
func (h *Handle) provision(u types.Upgrader, oldVersion uint64) error {
	h.log.Infow("Upgrading database", "name", h.name, "from", oldVersion, "to", h.schema.Version)
	for _, def := range h.schema.Collections {
		if u.HasCollection(def.Name) {
			continue
		}
		if err := u.CreateCollection(def); err != nil {
			return err
		}
		h.log.Infow("Created collection", "name", def.Name, "keyPath", def.KeyPath, "autoIncrement", def.AutoIncrement)
	}
	return nil
}

// Upsert stores rec. A record with a key replaces the stored one or is
// inserted under that key; a record without one gets a generated key. The
// lookup and the write share one transaction.
func (h *Handle) Upsert(ctx context.Context, rec types.Record, collection string) (types.Key, error) {
	conn, err := h.connection("upsert")
	if err != nil {
		return types.NoKey, err
	}

	key, err := run(ctx, h, "upsert", func(ctx context.Context) (types.Key, error) {
		tx, err := conn.Begin(ctx, collection, types.ReadWrite)
		if err != nil {
			return types.NoKey, err
		}
		defer tx.Rollback()

		key, hasKey, err := rec.Key(tx.Def().KeyPath)
		if err != nil {
			return types.NoKey, err
		}

		write := tx.Add
		if hasKey {
			_, found, err := tx.Get(ctx, key)
			if err != nil {
				return types.NoKey, err
			}
			if found {
				write = tx.Put
			}
		}
		key, err = write(ctx, rec)
		if err != nil {
			return types.NoKey, err
		}
		if err := tx.Commit(); err != nil {
			return types.NoKey, err
		}
		return key, nil
	})
	if err != nil {
		return types.NoKey, &types.WriteError{Collection: collection, Key: h.recordKey(rec, collection), Err: err}
	}
	return key, nil
}

// GetByID returns the record stored under key. A missing record is reported
// with found=false and a nil error.
func (h *Handle) GetByID(ctx context.Context, key types.Key, collection string) (types.Record, bool, error) {
	res, err := h.lookup(ctx, "get", key, collection)
	if err != nil {
		return nil, false, err
	}
	return res.rec, res.found, nil
}

// Exists reports whether a record is stored under key.
func (h *Handle) Exists(ctx context.Context, key types.Key, collection string) (bool, error) {
	res, err := h.lookup(ctx, "exists", key, collection)
	if err != nil {
		return false, err
	}
	return res.found, nil
}

type lookupResult struct {
	rec   types.Record
	found bool
}

func (h *Handle) lookup(ctx context.Context, op string, key types.Key, collection string) (lookupResult, error) {
	conn, err := h.connection(op)
	if err != nil {
		return lookupResult{}, err
	}

	res, err := run(ctx, h, op, func(ctx context.Context) (lookupResult, error) {
		tx, err := conn.Begin(ctx, collection, types.ReadOnly)
		if err != nil {
			return lookupResult{}, err
		}
		defer tx.Rollback()

		rec, found, err := tx.Get(ctx, key)
		if err != nil {
			return lookupResult{}, err
		}
		return lookupResult{rec: rec, found: found}, nil
	})
	if err != nil {
		return lookupResult{}, &types.ReadError{Collection: collection, Key: key, Err: err}
	}
	return res, nil
}

// ScanAll returns every record in ascending key order. An empty collection
// yields an empty, non-nil slice.
func (h *Handle) ScanAll(ctx context.Context, collection string) ([]types.Record, error) {
	conn, err := h.connection("scan")
	if err != nil {
		return nil, err
	}

	records, err := run(ctx, h, "scan", func(ctx context.Context) ([]types.Record, error) {
		tx, err := conn.Begin(ctx, collection, types.ReadOnly)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		cur, err := tx.OpenCursor(ctx)
		if err != nil {
			return nil, err
		}
		defer cur.Close()

		out := make([]types.Record, 0)
		for cur.Next() {
			out = append(out, cur.Value())
		}
		if err := cur.Err(); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, &types.ReadError{Collection: collection, Err: err}
	}
	return records, nil
}

// Delete removes the record stored under key. Deleting an absent key
// succeeds.
func (h *Handle) Delete(ctx context.Context, key types.Key, collection string) error {
	conn, err := h.connection("delete")
	if err != nil {
		return err
	}

	_, err = run(ctx, h, "delete", func(ctx context.Context) (struct{}, error) {
		tx, err := conn.Begin(ctx, collection, types.ReadWrite)
		if err != nil {
			return struct{}{}, err
		}
		defer tx.Rollback()

		if err := tx.Delete(ctx, key); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, tx.Commit()
	})
	if err != nil {
		return &types.DeleteError{Collection: collection, Key: key, Err: err}
	}
	return nil
}

// Close releases the connection and returns the handle to Closed. A closed
// handle can be opened again.
func (h *Handle) Close() error {
	h.openMu.Lock()
	defer h.openMu.Unlock()

	h.mu.Lock()
	conn := h.conn
	h.conn = nil
	h.state = types.StateClosed
	h.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return err
	}
	h.log.Infow("Closed database", "name", h.name)
	return nil
}

// State returns the lifecycle state.
func (h *Handle) State() types.State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *Handle) Name() string { return h.name }

// Version returns the version of the open database, or zero when closed.
func (h *Handle) Version() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.conn == nil {
		return 0
	}
	return h.conn.Version()
}

// Collections lists the provisioned collections of the open database.
func (h *Handle) Collections() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.conn == nil {
		return nil
	}
	return h.conn.CollectionNames()
}

// WriteMetrics writes the handle's operation counters in Prometheus text
// format.
func (h *Handle) WriteMetrics(w io.Writer) {
	h.metrics.WritePrometheus(w)
}

// connection returns the open connection or a NotInitializedError.
func (h *Handle) connection(op string) (types.Connection, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.state != types.StateOpen || h.conn == nil {
		h.count(op, errNotInitialized)
		return nil, &types.NotInitializedError{Op: op, State: h.state}
	}
	return h.conn, nil
}

func (h *Handle) setState(s types.State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

func (h *Handle) connectionError(err error) error {
	h.log.Errorw("Failed to open database", "name", h.name, "version", h.schema.Version, "error", err)
	return &types.ConnectionError{Name: h.name, Version: h.schema.Version, Err: err}
}

// recordKey extracts rec's key for error reporting, using the key path the
// schema declares for collection.
func (h *Handle) recordKey(rec types.Record, collection string) types.Key {
	for _, def := range h.schema.Collections {
		if def.Name == collection {
			key, _, _ := rec.Key(def.KeyPath)
			return key
		}
	}
	return types.NoKey
}

// run executes fn as one request, bounded by ctx and the handle timeout.
func run[T any](ctx context.Context, h *Handle, op string, fn func(context.Context) (T, error)) (T, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	req := request.Start(ctx, fn)
	v, err := req.Await(ctx)

	h.log.Debugw("Request settled", "op", op, "request", req.ID(), "database", h.name, "duration", time.Since(start), "error", err)
	h.count(op, err)
	return v, err
}

var errNotInitialized = errors.New("not initialized")
