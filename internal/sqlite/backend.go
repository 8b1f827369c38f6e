// Package sqlite implements the recordstore engine on SQLite.
//
// Each named database is one file under the data directory. Collections are
// tables holding the primary key and the record's JSON; a catalog table lists
// provisioned collections and PRAGMA user_version holds the schema version.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// Engine opens SQLite-backed databases under a data directory.
type Engine struct {
	dataDir string
}

// NewEngine creates an engine rooted at dataDir. An empty dataDir means the
// current directory.
func NewEngine(dataDir string) *Engine {
	if dataDir == "" {
		dataDir = "."
	}
	return &Engine{dataDir: dataDir}
}

// Path returns the database file used for name.
func (e *Engine) Path(name string) string {
	return filepath.Join(e.dataDir, url.PathEscape(name)+".db")
}

// Open opens or creates the database file for name and brings it to version,
// running upgrade in the same transaction that bumps the stored version.
func (e *Engine) Open(ctx context.Context, name string, version uint64, upgrade types.UpgradeFunc) (types.Connection, error) {
	if name == "" {
		return nil, types.ErrNameEmpty
	}
	if version == 0 || version > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidVersion, version)
	}
	if err := os.MkdirAll(e.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", e.Path(name))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; one connection serializes transactions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	c := &conn{db: db, name: name}
	if err := c.migrate(ctx, version, upgrade); err != nil {
		db.Close()
		return nil, err
	}
	if err := c.loadCatalog(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// conn implements types.Connection.
type conn struct {
	db      *sql.DB
	name    string
	version uint64
	defs    map[string]types.CollectionDef
	closed  atomic.Bool
}

func (c *conn) Name() string { return c.name }
func (c *conn) Version() uint64 { return c.version }

func (c *conn) CollectionNames() []string {
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Begin starts a SQL transaction scoped to one collection.
func (c *conn) Begin(ctx context.Context, collection string, mode types.TxMode) (types.CollectionTx, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}
	def, ok := c.defs[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrCollectionNotFound, collection)
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin %s transaction: %w", mode, err)
	}
	return &collectionTx{tx: tx, def: def, mode: mode}, nil
}

// Close closes the database. Idempotent.
func (c *conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.db.Close()
}

// migrate compares the stored version with the requested one and runs the
// upgrade callback when the database is behind.
func (c *conn) migrate(ctx context.Context, version uint64, upgrade types.UpgradeFunc) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upgrade: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createCatalog); err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}

	var stored uint64
	if err := tx.QueryRowContext(ctx, selectUserVer).Scan(&stored); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version < stored {
		return fmt.Errorf("%w: stored %d, requested %d", types.ErrVersionDowngrade, stored, version)
	}

	if version > stored {
		u, err := newUpgrader(ctx, tx)
		if err != nil {
			return err
		}
		if upgrade != nil {
			if err := upgrade(u, stored); err != nil {
				return fmt.Errorf("upgrade from version %d: %w", stored, err)
			}
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(setUserVerFmt, version)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upgrade: %w", err)
	}
	c.version = version
	return nil
}

func (c *conn) loadCatalog(ctx context.Context) error {
	defs, err := readCatalog(ctx, c.db)
	if err != nil {
		return err
	}
	c.defs = defs
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func readCatalog(ctx context.Context, q queryer) (map[string]types.CollectionDef, error) {
	rows, err := q.QueryContext(ctx, selectCatalog)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	defer rows.Close()

	defs := make(map[string]types.CollectionDef)
	for rows.Next() {
		var def types.CollectionDef
		var autoInc int
		if err := rows.Scan(&def.Name, &def.KeyPath, &autoInc); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		def.AutoIncrement = autoInc != 0
		defs[def.Name] = def
	}
	return defs, rows.Err()
}

// upgrader implements types.Upgrader inside the upgrade transaction.
type upgrader struct {
	ctx  context.Context
	tx   *sql.Tx
	defs map[string]types.CollectionDef
}

func newUpgrader(ctx context.Context, tx *sql.Tx) (*upgrader, error) {
	defs, err := readCatalog(ctx, tx)
	if err != nil {
		return nil, err
	}
	return &upgrader{ctx: ctx, tx: tx, defs: defs}, nil
}

func (u *upgrader) CollectionNames() []string {
	names := make([]string, 0, len(u.defs))
	for name := range u.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (u *upgrader) HasCollection(name string) bool {
	_, ok := u.defs[name]
	return ok
}

func (u *upgrader) CreateCollection(def types.CollectionDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if u.HasCollection(def.Name) {
		return fmt.Errorf("%w: %s", types.ErrCollectionExists, def.Name)
	}
	if _, err := u.tx.ExecContext(u.ctx, createCollectionDDL(def.Name, def.AutoIncrement)); err != nil {
		return fmt.Errorf("create collection %s: %w", def.Name, err)
	}
	autoInc := 0
	if def.AutoIncrement {
		autoInc = 1
	}
	if _, err := u.tx.ExecContext(u.ctx, insertCatalog, def.Name, def.KeyPath, autoInc); err != nil {
		return fmt.Errorf("register collection %s: %w", def.Name, err)
	}
	u.defs[def.Name] = def
	return nil
}

// isNoRows reports whether err is sql.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
