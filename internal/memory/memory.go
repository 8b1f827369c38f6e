// Package memory implements the recordstore engine in process memory.
//
// Databases live in an engine-scoped registry, so reopening a name on the
// same engine sees the records written through earlier connections. Each
// collection is a B-tree ordered by key. Write transactions work on a
// copy-on-write clone of the tree and swap it in on Commit.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

const btreeDegree = 32

// Engine holds named in-memory databases.
type Engine struct {
	dbs *xsync.MapOf[string, *database]
}

// NewEngine returns an engine with no databases.
func NewEngine() *Engine {
	return &Engine{dbs: xsync.NewMapOf[string, *database]()}
}

type database struct {
	mu          sync.RWMutex
	version     uint64
	collections map[string]*collection
}

type collection struct {
	def  types.CollectionDef
	tree *btree.BTreeG[entry]
	// next is the key the generator hands out on the following Add, or
	// NoKey once the key space is exhausted.
	next types.Key
}

type entry struct {
	key  types.Key
	data []byte
}

func lessEntry(a, b entry) bool { return a.key < b.key }

func newCollection(def types.CollectionDef) *collection {
	return &collection{def: def, tree: btree.NewG(btreeDegree, lessEntry), next: 1}
}

// Open returns a connection to the named database, creating it on first use.
// The upgrade callback works on staged collections that are only applied
// when it returns nil.
func (e *Engine) Open(ctx context.Context, name string, version uint64, upgrade types.UpgradeFunc) (types.Connection, error) {
	if name == "" {
		return nil, types.ErrNameEmpty
	}
	if version == 0 || version > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidVersion, version)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, _ := e.dbs.LoadOrCompute(name, func() *database {
		return &database{collections: make(map[string]*collection)}
	})

	db.mu.Lock()
	defer db.mu.Unlock()

	if version < db.version {
		return nil, fmt.Errorf("%w: stored %d, requested %d", types.ErrVersionDowngrade, db.version, version)
	}
	if version > db.version {
		u := &upgrader{existing: db.collections, added: make(map[string]*collection)}
		if upgrade != nil {
			if err := upgrade(u, db.version); err != nil {
				return nil, fmt.Errorf("upgrade from version %d: %w", db.version, err)
			}
		}
		for name, c := range u.added {
			db.collections[name] = c
		}
		db.version = version
	}
	return &conn{db: db, name: name, version: version}, nil
}

// conn implements types.Connection.
type conn struct {
	db      *database
	name    string
	version uint64
	closed  atomic.Bool
}

func (c *conn) Name() string { return c.name }
func (c *conn) Version() uint64 { return c.version }

func (c *conn) CollectionNames() []string {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	return sortedNames(c.db.collections)
}

// Begin locks the database for the lifetime of the transaction: shared for
// ReadOnly, exclusive for ReadWrite.
func (c *conn) Begin(ctx context.Context, name string, mode types.TxMode) (types.CollectionTx, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := c.db.mu.RUnlock
	if mode == types.ReadWrite {
		c.db.mu.Lock()
		unlock = c.db.mu.Unlock
	} else {
		c.db.mu.RLock()
	}

	coll, ok := c.db.collections[name]
	if !ok {
		unlock()
		return nil, fmt.Errorf("%w: %s", types.ErrCollectionNotFound, name)
	}

	tx := &collectionTx{coll: coll, mode: mode, tree: coll.tree, next: coll.next, ctx: ctx, unlock: unlock}
	if mode == types.ReadWrite {
		tx.tree = coll.tree.Clone()
	}
	return tx, nil
}

// Close detaches the connection. The database stays in the engine.
func (c *conn) Close() error {
	c.closed.Store(true)
	return nil
}

// upgrader stages collections created during an upgrade.
type upgrader struct {
	existing map[string]*collection
	added    map[string]*collection
}

func (u *upgrader) CollectionNames() []string {
	names := sortedNames(u.existing)
	for name := range u.added {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (u *upgrader) HasCollection(name string) bool {
	if _, ok := u.existing[name]; ok {
		return true
	}
	_, ok := u.added[name]
	return ok
}

func (u *upgrader) CreateCollection(def types.CollectionDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if u.HasCollection(def.Name) {
		return fmt.Errorf("%w: %s", types.ErrCollectionExists, def.Name)
	}
	u.added[def.Name] = newCollection(def)
	return nil
}

func sortedNames(m map[string]*collection) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
