package types

import "context"

// TxMode selects the access mode of a collection transaction.
type TxMode int

const (
	ReadOnly TxMode = iota
	ReadWrite
)

func (m TxMode) String() string {
	if m == ReadWrite {
		return "readwrite"
	}
	return "readonly"
}

// UpgradeFunc runs once when a database is opened at a version higher than
// the stored one. oldVersion is zero for a new database. Returning an error
// aborts the open and leaves the stored version unchanged.
type UpgradeFunc func(u Upgrader, oldVersion uint64) error

// Upgrader is the schema view passed to an UpgradeFunc.
type Upgrader interface {
	CollectionNames() []string
	HasCollection(name string) bool
	CreateCollection(def CollectionDef) error
}

// Engine is the storage engine a Handle delegates to.
type Engine interface {
	// Open opens or creates the named database. When version is greater
	// than the stored version, upgrade is invoked exactly once before Open
	// returns. A version lower than the stored one fails with
	// ErrVersionDowngrade.
	Open(ctx context.Context, name string, version uint64, upgrade UpgradeFunc) (Connection, error)
}

// Connection is an open database.
type Connection interface {
	Name() string
	Version() uint64
	// CollectionNames lists provisioned collections in ascending order.
	CollectionNames() []string
	// Begin starts a transaction scoped to one collection.
	// Returns ErrCollectionNotFound if the collection is not provisioned.
	Begin(ctx context.Context, collection string, mode TxMode) (CollectionTx, error)
	Close() error
}

// CollectionTx is a transaction-scoped view of one collection.
// Rollback after Commit is a no-op.
type CollectionTx interface {
	Def() CollectionDef
	// Get returns the record stored under key; found is false if absent.
	Get(ctx context.Context, key Key) (rec Record, found bool, err error)
	// Put inserts or replaces the record under its in-line key. Without a
	// key it behaves like Add.
	Put(ctx context.Context, rec Record) (Key, error)
	// Add inserts the record. Returns ErrKeyExists if the key is taken.
	// Auto-increment collections assign a key when the record has none.
	Add(ctx context.Context, rec Record) (Key, error)
	// Delete removes the record under key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key Key) error
	// OpenCursor iterates the collection in ascending key order.
	OpenCursor(ctx context.Context) (Cursor, error)
	Commit() error
	Rollback() error
}

// Cursor walks a collection in ascending key order.
type Cursor interface {
	Next() bool
	Key() Key
	Value() Record
	Err() error
	Close() error
}
