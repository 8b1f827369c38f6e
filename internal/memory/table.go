package memory

import (
	"context"
	"fmt"
	"math"

	"github.com/google/btree"

	"github.com/mesh-intelligence/recordstore/internal/codec"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// collectionTx implements types.CollectionTx. A ReadWrite transaction owns a
// clone of the collection tree; Commit publishes it.
type collectionTx struct {
	coll   *collection
	mode   types.TxMode
	tree   *btree.BTreeG[entry]
	next   types.Key
	ctx    context.Context
	unlock func()
	done   bool
}

func (t *collectionTx) Def() types.CollectionDef { return t.coll.def }

func (t *collectionTx) Get(ctx context.Context, key types.Key) (types.Record, bool, error) {
	if t.done {
		return nil, false, types.ErrTxDone
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	e, ok := t.tree.Get(entry{key: key})
	if !ok {
		return nil, false, nil
	}
	rec, err := codec.Decode(e.data, t.coll.def.KeyPath, key)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (t *collectionTx) Put(ctx context.Context, rec types.Record) (types.Key, error) {
	key, ok, data, err := t.prepareWrite(ctx, rec)
	if err != nil {
		return types.NoKey, err
	}
	return t.store(key, ok, data)
}

func (t *collectionTx) Add(ctx context.Context, rec types.Record) (types.Key, error) {
	key, ok, data, err := t.prepareWrite(ctx, rec)
	if err != nil {
		return types.NoKey, err
	}
	if ok && t.tree.Has(entry{key: key}) {
		return types.NoKey, fmt.Errorf("%w: %s/%d", types.ErrKeyExists, t.coll.def.Name, key)
	}
	return t.store(key, ok, data)
}

func (t *collectionTx) Delete(ctx context.Context, key types.Key) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.tree.Delete(entry{key: key})
	return nil
}

// OpenCursor snapshots the entries of the transaction's tree.
func (t *collectionTx) OpenCursor(ctx context.Context) (types.Cursor, error) {
	if t.done {
		return nil, types.ErrTxDone
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := make([]entry, 0, t.tree.Len())
	t.tree.Ascend(func(e entry) bool {
		entries = append(entries, e)
		return true
	})
	return &cursor{entries: entries, keyPath: t.coll.def.KeyPath, pos: -1}, nil
}

// Commit publishes a ReadWrite transaction. If the context given to Begin
// is done, the staged writes are discarded and its error returned.
func (t *collectionTx) Commit() error {
	if t.done {
		return types.ErrTxDone
	}
	t.done = true
	if err := t.ctx.Err(); err != nil {
		t.unlock()
		return err
	}
	if t.mode == types.ReadWrite {
		t.coll.tree = t.tree
		t.coll.next = t.next
	}
	t.unlock()
	return nil
}

func (t *collectionTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.unlock()
	return nil
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

func (t *collectionTx) prepareWrite(ctx context.Context, rec types.Record) (types.Key, bool, []byte, error) {
	if err := t.writable(); err != nil {
		return types.NoKey, false, nil, err
	}
	if err := ctx.Err(); err != nil {
		return types.NoKey, false, nil, err
	}
	return codec.PrepareWrite(t.coll.def, rec)
}

// store writes data under key, or under a generated key when hasKey is
// false. An explicit key at or above the generator moves it past that key.
// Once math.MaxInt64 has been stored the generator is spent and next is
// NoKey.
func (t *collectionTx) store(key types.Key, hasKey bool, data []byte) (types.Key, error) {
	if !hasKey {
		if t.next == types.NoKey {
			return types.NoKey, fmt.Errorf("%w: %s", types.ErrKeySpaceExhausted, t.coll.def.Name)
		}
		key = t.next
	}
	if t.next != types.NoKey && key >= t.next {
		if key == math.MaxInt64 {
			t.next = types.NoKey
		} else {
			t.next = key + 1
		}
	}
	t.tree.ReplaceOrInsert(entry{key: key, data: data})
	return key, nil
}

// cursor walks a snapshot of entries, decoding each on Next.
type cursor struct {
	entries []entry
	keyPath string
	pos     int
	val     types.Record
	err     error
}

func (c *cursor) Next() bool {
	if c.err != nil || c.pos+1 >= len(c.entries) {
		return false
	}
	c.pos++
	e := c.entries[c.pos]
	rec, err := codec.Decode(e.data, c.keyPath, e.key)
	if err != nil {
		c.err = err
		return false
	}
	c.val = rec
	return true
}

func (c *cursor) Key() types.Key {
	if c.pos < 0 || c.pos >= len(c.entries) {
		return types.NoKey
	}
	return c.entries[c.pos].key
}

func (c *cursor) Value() types.Record { return c.val }
func (c *cursor) Err() error { return c.err }

func (c *cursor) Close() error {
	c.entries = nil
	return nil
}
