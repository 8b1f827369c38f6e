package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/mesh-intelligence/recordstore/internal/codec"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// collectionTx implements types.CollectionTx over one SQL transaction.
type collectionTx struct {
	tx   *sql.Tx
	def  types.CollectionDef
	mode types.TxMode
	done bool
}

func (t *collectionTx) Def() types.CollectionDef { return t.def }

// Get loads the record stored under key.
func (t *collectionTx) Get(ctx context.Context, key types.Key) (types.Record, bool, error) {
	if t.done {
		return nil, false, types.ErrTxDone
	}
	var data []byte
	err := t.tx.QueryRowContext(ctx, selectRecordSQL(t.def.Name), int64(key)).Scan(&data)
	if isNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%d: %w", t.def.Name, key, err)
	}
	rec, err := codec.Decode(data, t.def.KeyPath, key)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Put inserts or replaces the record under its in-line key.
func (t *collectionTx) Put(ctx context.Context, rec types.Record) (types.Key, error) {
	key, ok, data, err := t.prepareWrite(rec)
	if err != nil {
		return types.NoKey, err
	}
	if !ok {
		return t.insertGenerated(ctx, data)
	}
	if _, err := t.tx.ExecContext(ctx, upsertRecordSQL(t.def.Name), int64(key), data); err != nil {
		return types.NoKey, fmt.Errorf("put %s/%d: %w", t.def.Name, key, err)
	}
	return key, nil
}

// Add inserts the record, failing with ErrKeyExists if its key is taken.
func (t *collectionTx) Add(ctx context.Context, rec types.Record) (types.Key, error) {
	key, ok, data, err := t.prepareWrite(rec)
	if err != nil {
		return types.NoKey, err
	}
	if !ok {
		return t.insertGenerated(ctx, data)
	}

	var one int
	err = t.tx.QueryRowContext(ctx, existsRecordSQL(t.def.Name), int64(key)).Scan(&one)
	switch {
	case err == nil:
		return types.NoKey, fmt.Errorf("%w: %s/%d", types.ErrKeyExists, t.def.Name, key)
	case !isNoRows(err):
		return types.NoKey, fmt.Errorf("check %s/%d: %w", t.def.Name, key, err)
	}

	if _, err := t.tx.ExecContext(ctx, insertRecordSQL(t.def.Name), int64(key), data); err != nil {
		return types.NoKey, fmt.Errorf("add %s/%d: %w", t.def.Name, key, err)
	}
	return key, nil
}

// Delete removes the record under key. An absent key affects no rows and
// is not an error.
func (t *collectionTx) Delete(ctx context.Context, key types.Key) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, deleteRecordSQL(t.def.Name), int64(key)); err != nil {
		return fmt.Errorf("delete %s/%d: %w", t.def.Name, key, err)
	}
	return nil
}

// OpenCursor queries every record ordered by primary key.
func (t *collectionTx) OpenCursor(ctx context.Context) (types.Cursor, error) {
	if t.done {
		return nil, types.ErrTxDone
	}
	rows, err := t.tx.QueryContext(ctx, scanRecordsSQL(t.def.Name))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.def.Name, err)
	}
	return &cursor{rows: rows, keyPath: t.def.KeyPath}, nil
}

func (t *collectionTx) Commit() error {
	if t.done {
		return types.ErrTxDone
	}
	t.done = true
	return t.tx.Commit()
}

func (t *collectionTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

func (t *collectionTx) writable() error {
	if t.done {
		return types.ErrTxDone
	}
	if t.mode != types.ReadWrite {
		return types.ErrReadOnly
	}
	return nil
}

// prepareWrite checks the transaction mode, then extracts the key and
// encodes the record body.
func (t *collectionTx) prepareWrite(rec types.Record) (types.Key, bool, []byte, error) {
	if err := t.writable(); err != nil {
		return types.NoKey, false, nil, err
	}
	return codec.PrepareWrite(t.def, rec)
}

func (t *collectionTx) insertGenerated(ctx context.Context, data []byte) (types.Key, error) {
	var seq int64
	err := t.tx.QueryRowContext(ctx, selectSequenceSQL, fmt.Sprintf(collectionTable, t.def.Name)).Scan(&seq)
	switch {
	case err == nil && seq == math.MaxInt64:
		return types.NoKey, fmt.Errorf("%w: %s", types.ErrKeySpaceExhausted, t.def.Name)
	case err != nil && !isNoRows(err):
		return types.NoKey, fmt.Errorf("read %s sequence: %w", t.def.Name, err)
	}

	res, err := t.tx.ExecContext(ctx, insertGeneratedSQL(t.def.Name), data)
	if err != nil {
		return types.NoKey, fmt.Errorf("add %s: %w", t.def.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.NoKey, fmt.Errorf("read generated key: %w", err)
	}
	return types.Key(id), nil
}

// cursor implements types.Cursor over sql.Rows.
type cursor struct {
	rows    *sql.Rows
	keyPath string
	key     types.Key
	val     types.Record
	err     error
}

func (c *cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}
	var pk int64
	var data []byte
	if err := c.rows.Scan(&pk, &data); err != nil {
		c.err = fmt.Errorf("scan row: %w", err)
		return false
	}
	rec, err := codec.Decode(data, c.keyPath, types.Key(pk))
	if err != nil {
		c.err = err
		return false
	}
	c.key, c.val = types.Key(pk), rec
	return true
}

func (c *cursor) Key() types.Key { return c.key }
func (c *cursor) Value() types.Record { return c.val }
func (c *cursor) Err() error { return c.err }
func (c *cursor) Close() error { return c.rows.Close() }
