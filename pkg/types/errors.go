package types

import (
	"errors"
	"fmt"
)

// Operation error kinds. Typed errors below unwrap to one of these, so callers
// can test the kind with errors.Is.
var (
	ErrConnection     = errors.New("connection failed")
	ErrNotInitialized = errors.New("store handle is not initialized")
	ErrWrite          = errors.New("write failed")
	ErrRead           = errors.New("read failed")
	ErrDelete         = errors.New("delete failed")
)

// Engine errors.
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionExists   = errors.New("collection already exists")
	ErrInvalidCollection  = errors.New("invalid collection definition")
	ErrKeyExists          = errors.New("key already exists")
	ErrKeySpaceExhausted  = errors.New("key space exhausted")
	ErrInvalidKey         = errors.New("invalid key")
	ErrInvalidRecord      = errors.New("invalid record")
	ErrInvalidVersion     = errors.New("schema version must be positive")
	ErrVersionDowngrade   = errors.New("requested version is lower than the stored version")
	ErrClosed             = errors.New("connection is closed")
	ErrTxDone             = errors.New("transaction already finished")
	ErrReadOnly           = errors.New("transaction is read-only")
)

// ConnectionError reports a failure to open or upgrade a database.
type ConnectionError struct {
	Name    string
	Version uint64
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("open %q at version %d: %v", e.Name, e.Version, e.Err)
}

func (e *ConnectionError) Unwrap() []error { return []error{ErrConnection, e.Err} }

// NotInitializedError reports a collection operation attempted before Open
// completed.
type NotInitializedError struct {
	Op    string
	State State
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("%s: store handle is %s, call Open first", e.Op, e.State)
}

func (e *NotInitializedError) Unwrap() error { return ErrNotInitialized }

// WriteError reports a failed insert or update.
type WriteError struct {
	Collection string
	Key        Key
	Err        error
}

func (e *WriteError) Error() string {
	return opErrorString("write", e.Collection, e.Key, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrWrite, e.Err} }

// ReadError reports a failed lookup or scan.
type ReadError struct {
	Collection string
	Key        Key
	Err        error
}

func (e *ReadError) Error() string {
	return opErrorString("read", e.Collection, e.Key, e.Err)
}

func (e *ReadError) Unwrap() []error { return []error{ErrRead, e.Err} }

// DeleteError reports a failed delete.
type DeleteError struct {
	Collection string
	Key        Key
	Err        error
}

func (e *DeleteError) Error() string {
	return opErrorString("delete", e.Collection, e.Key, e.Err)
}

func (e *DeleteError) Unwrap() []error { return []error{ErrDelete, e.Err} }

func opErrorString(op, collection string, key Key, err error) string {
	if key == NoKey {
		return fmt.Sprintf("%s %s: %v", op, collection, err)
	}
	return fmt.Sprintf("%s %s/%d: %v", op, collection, key, err)
}
