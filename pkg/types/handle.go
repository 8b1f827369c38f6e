package types

import "context"

// Handle is the single point of access to one named database.
// Collection operations fail with ErrNotInitialized until Open succeeds.
type Handle interface {
	// Open opens the database, provisioning missing collections when the
	// schema version is ahead of the stored one. Calling Open on an open
	// handle returns nil without touching the engine.
	Open(ctx context.Context) error

	// Upsert replaces the record if its key exists, inserts it with that key
	// otherwise, and lets the engine assign a key when it has none.
	// Returns the key the record is stored under.
	Upsert(ctx context.Context, rec Record, collection string) (Key, error)

	// GetByID returns the record under key. found is false when absent.
	GetByID(ctx context.Context, key Key, collection string) (rec Record, found bool, err error)

	// Exists reports whether a record is stored under key.
	Exists(ctx context.Context, key Key, collection string) (bool, error)

	// ScanAll returns every record of the collection in ascending key order.
	ScanAll(ctx context.Context, collection string) ([]Record, error)

	// Delete removes the record under key. An absent key is not an error.
	Delete(ctx context.Context, key Key, collection string) error

	// Close releases the connection. Idempotent.
	Close() error

	State() State
}
