package enginetest

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// Factory returns a fresh engine with no databases.
type Factory func(t *testing.T) types.Engine

const dbName = "conformance"

var (
	userDef = types.CollectionDef{Name: "user", KeyPath: "id", AutoIncrement: true}
	tagDef  = types.CollectionDef{Name: "tag", KeyPath: "code"}
)

// RunEngineTests runs the conformance suite against engines built by factory.
func RunEngineTests(t *testing.T, name string, factory Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("OpenProvisionsOnFirstUse", func(t *testing.T) { testOpenProvisions(t, factory(t)) })
		t.Run("ReopenSkipsUpgrade", func(t *testing.T) { testReopenSkipsUpgrade(t, factory(t)) })
		t.Run("VersionBumpCreatesMissingOnly", func(t *testing.T) { testVersionBump(t, factory(t)) })
		t.Run("Downgrade", func(t *testing.T) { testDowngrade(t, factory(t)) })
		t.Run("InvalidVersion", func(t *testing.T) { testInvalidVersion(t, factory(t)) })
		t.Run("FailedUpgradeKeepsVersion", func(t *testing.T) { testFailedUpgrade(t, factory(t)) })
		t.Run("UnknownCollection", func(t *testing.T) { testUnknownCollection(t, factory(t)) })
		t.Run("AddGeneratesKeys", func(t *testing.T) { testAddGeneratesKeys(t, factory(t)) })
		t.Run("AddExplicitKey", func(t *testing.T) { testAddExplicitKey(t, factory(t)) })
		t.Run("PutReplaces", func(t *testing.T) { testPutReplaces(t, factory(t)) })
		t.Run("DeleteAbsent", func(t *testing.T) { testDeleteAbsent(t, factory(t)) })
		t.Run("CursorOrder", func(t *testing.T) { testCursorOrder(t, factory(t)) })
		t.Run("Rollback", func(t *testing.T) { testRollback(t, factory(t)) })
		t.Run("ReadOnly", func(t *testing.T) { testReadOnly(t, factory(t)) })
		t.Run("KeyRequired", func(t *testing.T) { testKeyRequired(t, factory(t)) })
		t.Run("Closed", func(t *testing.T) { testClosed(t, factory(t)) })
		t.Run("KeySpaceExhausted", func(t *testing.T) { testKeySpaceExhausted(t, factory(t)) })
		t.Run("NumbersRoundTrip", func(t *testing.T) { testNumbersRoundTrip(t, factory(t)) })
		t.Run("CommitAfterCancel", func(t *testing.T) { testCommitAfterCancel(t, factory(t)) })
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func provision(defs ...types.CollectionDef) types.UpgradeFunc {
	return func(u types.Upgrader, _ uint64) error {
		for _, def := range defs {
			if u.HasCollection(def.Name) {
				continue
			}
			if err := u.CreateCollection(def); err != nil {
				return err
			}
		}
		return nil
	}
}

func open(t *testing.T, e types.Engine, version uint64, defs ...types.CollectionDef) types.Connection {
	t.Helper()
	conn, err := e.Open(context.Background(), dbName, version, provision(defs...))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func write(t *testing.T, conn types.Connection, collection string, fn func(tx types.CollectionTx)) {
	t.Helper()
	tx, err := conn.Begin(context.Background(), collection, types.ReadWrite)
	require.NoError(t, err)
	fn(tx)
	require.NoError(t, tx.Commit())
}

func scan(t *testing.T, conn types.Connection, collection string) []types.Record {
	t.Helper()
	ctx := context.Background()
	tx, err := conn.Begin(ctx, collection, types.ReadOnly)
	require.NoError(t, err)
	defer tx.Rollback()

	cur, err := tx.OpenCursor(ctx)
	require.NoError(t, err)
	defer cur.Close()

	var out []types.Record
	for cur.Next() {
		out = append(out, cur.Value())
	}
	require.NoError(t, cur.Err())
	return out
}

func get(t *testing.T, conn types.Connection, collection string, key types.Key) (types.Record, bool) {
	t.Helper()
	ctx := context.Background()
	tx, err := conn.Begin(ctx, collection, types.ReadOnly)
	require.NoError(t, err)
	defer tx.Rollback()
	rec, found, err := tx.Get(ctx, key)
	require.NoError(t, err)
	return rec, found
}

func keys(records []types.Record, keyPath string) []types.Key {
	out := make([]types.Key, 0, len(records))
	for _, r := range records {
		k, _, _ := r.Key(keyPath)
		out = append(out, k)
	}
	return out
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testOpenProvisions(t *testing.T, e types.Engine) {
	calls := 0
	var gotOld uint64 = 99
	conn, err := e.Open(context.Background(), dbName, 4, func(u types.Upgrader, old uint64) error {
		calls++
		gotOld = old
		assert.Empty(t, u.CollectionNames())
		return u.CreateCollection(userDef)
	})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(0), gotOld)
	assert.Equal(t, uint64(4), conn.Version())
	assert.Equal(t, dbName, conn.Name())
	assert.Equal(t, []string{"user"}, conn.CollectionNames())
}

func testReopenSkipsUpgrade(t *testing.T, e types.Engine) {
	conn := open(t, e, 4, userDef)
	write(t, conn, "user", func(tx types.CollectionTx) {
		_, err := tx.Add(context.Background(), types.Record{"name": "Ana"})
		require.NoError(t, err)
	})
	require.NoError(t, conn.Close())

	conn2, err := e.Open(context.Background(), dbName, 4, func(types.Upgrader, uint64) error {
		t.Fatal("upgrade must not run when the version is unchanged")
		return nil
	})
	require.NoError(t, err)
	defer conn2.Close()

	records := scan(t, conn2, "user")
	require.Len(t, records, 1)
	assert.Equal(t, "Ana", records[0]["name"])
}

func testVersionBump(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	write(t, conn, "user", func(tx types.CollectionTx) {
		_, err := tx.Add(context.Background(), types.Record{"name": "Ana"})
		require.NoError(t, err)
	})
	require.NoError(t, conn.Close())

	var gotOld uint64
	var seen []string
	conn2, err := e.Open(context.Background(), dbName, 2, func(u types.Upgrader, old uint64) error {
		gotOld = old
		seen = u.CollectionNames()
		return provision(userDef, tagDef)(u, old)
	})
	require.NoError(t, err)
	defer conn2.Close()

	assert.Equal(t, uint64(1), gotOld)
	assert.Equal(t, []string{"user"}, seen)
	assert.Equal(t, []string{"tag", "user"}, conn2.CollectionNames())
	assert.Len(t, scan(t, conn2, "user"), 1, "existing collection must keep its records")
}

func testDowngrade(t *testing.T, e types.Engine) {
	conn := open(t, e, 4, userDef)
	require.NoError(t, conn.Close())

	_, err := e.Open(context.Background(), dbName, 3, provision(userDef))
	assert.ErrorIs(t, err, types.ErrVersionDowngrade)
}

func testInvalidVersion(t *testing.T, e types.Engine) {
	_, err := e.Open(context.Background(), dbName, 0, provision(userDef))
	assert.ErrorIs(t, err, types.ErrInvalidVersion)
}

func testFailedUpgrade(t *testing.T, e types.Engine) {
	boom := errors.New("boom")
	_, err := e.Open(context.Background(), dbName, 2, func(u types.Upgrader, _ uint64) error {
		if err := u.CreateCollection(userDef); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var gotOld uint64 = 99
	var seen []string
	conn, err := e.Open(context.Background(), dbName, 2, func(u types.Upgrader, old uint64) error {
		gotOld = old
		seen = u.CollectionNames()
		return nil
	})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, uint64(0), gotOld)
	assert.Empty(t, seen, "collections created by a failed upgrade must not persist")
}

func testUnknownCollection(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	_, err := conn.Begin(context.Background(), "missing", types.ReadOnly)
	assert.ErrorIs(t, err, types.ErrCollectionNotFound)
}

func testAddGeneratesKeys(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	var got []types.Key
	write(t, conn, "user", func(tx types.CollectionTx) {
		for _, name := range []string{"a", "b", "c"} {
			k, err := tx.Add(context.Background(), types.Record{"name": name})
			require.NoError(t, err)
			got = append(got, k)
		}
	})
	assert.Equal(t, []types.Key{1, 2, 3}, got)

	rec, found := get(t, conn, "user", 2)
	require.True(t, found)
	assert.Equal(t, types.Record{"id": types.Key(2), "name": "b"}, rec)
}

func testAddExplicitKey(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	ctx := context.Background()
	write(t, conn, "user", func(tx types.CollectionTx) {
		k, err := tx.Add(ctx, types.Record{"id": 10, "name": "ten"})
		require.NoError(t, err)
		assert.Equal(t, types.Key(10), k)

		_, err = tx.Add(ctx, types.Record{"id": 10, "name": "again"})
		assert.ErrorIs(t, err, types.ErrKeyExists)

		next, err := tx.Add(ctx, types.Record{"name": "generated"})
		require.NoError(t, err)
		assert.Equal(t, types.Key(11), next, "generator must move past explicit keys")
	})
}

func testPutReplaces(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	ctx := context.Background()
	write(t, conn, "user", func(tx types.CollectionTx) {
		_, err := tx.Add(ctx, types.Record{"name": "Ana", "age": "30"})
		require.NoError(t, err)
		k, err := tx.Put(ctx, types.Record{"id": 1, "name": "Ana B"})
		require.NoError(t, err)
		assert.Equal(t, types.Key(1), k)
	})

	rec, found := get(t, conn, "user", 1)
	require.True(t, found)
	assert.Equal(t, types.Record{"id": types.Key(1), "name": "Ana B"}, rec)
}

func testDeleteAbsent(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	write(t, conn, "user", func(tx types.CollectionTx) {
		assert.NoError(t, tx.Delete(context.Background(), 404))
	})
	_, found := get(t, conn, "user", 404)
	assert.False(t, found)
}

func testCursorOrder(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	write(t, conn, "user", func(tx types.CollectionTx) {
		for _, k := range []int{5, 1, 3} {
			_, err := tx.Add(context.Background(), types.Record{"id": k})
			require.NoError(t, err)
		}
	})
	assert.Equal(t, []types.Key{1, 3, 5}, keys(scan(t, conn, "user"), "id"))
	assert.Empty(t, scan(t, open(t, e, 2, userDef, tagDef), "tag"))
}

func testRollback(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	ctx := context.Background()
	tx, err := conn.Begin(ctx, "user", types.ReadWrite)
	require.NoError(t, err)
	_, err = tx.Add(ctx, types.Record{"name": "ghost"})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Rollback(), "second rollback is a no-op")

	assert.Empty(t, scan(t, conn, "user"))
}

func testReadOnly(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	ctx := context.Background()
	tx, err := conn.Begin(ctx, "user", types.ReadOnly)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.Add(ctx, types.Record{"name": "x"})
	assert.ErrorIs(t, err, types.ErrReadOnly)
	_, err = tx.Put(ctx, types.Record{"id": 1})
	assert.ErrorIs(t, err, types.ErrReadOnly)
	assert.ErrorIs(t, tx.Delete(ctx, 1), types.ErrReadOnly)
}

func testKeyRequired(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, tagDef)
	ctx := context.Background()
	write(t, conn, "tag", func(tx types.CollectionTx) {
		_, err := tx.Add(ctx, types.Record{"label": "no key"})
		assert.ErrorIs(t, err, types.ErrInvalidKey)

		_, err = tx.Put(ctx, types.Record{"code": "abc"})
		assert.ErrorIs(t, err, types.ErrInvalidKey)

		k, err := tx.Put(ctx, types.Record{"code": 7, "label": "seven"})
		require.NoError(t, err)
		assert.Equal(t, types.Key(7), k)
	})
}

func testClosed(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close(), "close is idempotent")

	_, err := conn.Begin(context.Background(), "user", types.ReadOnly)
	assert.ErrorIs(t, err, types.ErrClosed)
}

func testKeySpaceExhausted(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	ctx := context.Background()
	write(t, conn, "user", func(tx types.CollectionTx) {
		_, err := tx.Add(ctx, types.Record{"id": int64(math.MaxInt64), "name": "last"})
		require.NoError(t, err)
	})

	tx, err := conn.Begin(ctx, "user", types.ReadWrite)
	require.NoError(t, err)
	_, err = tx.Add(ctx, types.Record{"name": "next"})
	assert.ErrorIs(t, err, types.ErrKeySpaceExhausted)
	require.NoError(t, tx.Rollback())

	write(t, conn, "user", func(tx types.CollectionTx) {
		require.NoError(t, tx.Delete(ctx, math.MaxInt64))
		k, err := tx.Add(ctx, types.Record{"id": 5, "name": "explicit"})
		require.NoError(t, err, "explicit keys stay usable")
		assert.Equal(t, types.Key(5), k)
	})

	tx, err = conn.Begin(ctx, "user", types.ReadWrite)
	require.NoError(t, err)
	_, err = tx.Add(ctx, types.Record{"name": "next"})
	assert.ErrorIs(t, err, types.ErrKeySpaceExhausted, "deleted keys are never reused")
	require.NoError(t, tx.Rollback())

	assert.Equal(t, []types.Key{5}, keys(scan(t, conn, "user"), "id"))
}

func testNumbersRoundTrip(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	rec := types.Record{
		"id":    types.Key(7),
		"n":     int64(9007199254740993),
		"age":   int64(30),
		"ratio": 0.25,
		"tags":  []any{int64(1), "two"},
	}
	write(t, conn, "user", func(tx types.CollectionTx) {
		_, err := tx.Put(context.Background(), rec)
		require.NoError(t, err)
	})

	got, found := get(t, conn, "user", 7)
	require.True(t, found)
	assert.Equal(t, rec, got)
}

func testCommitAfterCancel(t *testing.T, e types.Engine) {
	conn := open(t, e, 1, userDef)
	ctx, cancel := context.WithCancel(context.Background())
	tx, err := conn.Begin(ctx, "user", types.ReadWrite)
	require.NoError(t, err)
	_, err = tx.Add(ctx, types.Record{"name": "late"})
	require.NoError(t, err)

	cancel()
	assert.Error(t, tx.Commit())
	require.NoError(t, tx.Rollback())

	assert.Empty(t, scan(t, conn, "user"))
}
