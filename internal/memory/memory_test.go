package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recordstore/internal/enginetest"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

var userDef = types.CollectionDef{Name: "user", KeyPath: "id", AutoIncrement: true}

func TestEngineConformance(t *testing.T) {
	enginetest.RunEngineTests(t, "Memory", func(t *testing.T) types.Engine {
		return NewEngine()
	})
}

func provisionUser(u types.Upgrader, _ uint64) error {
	if u.HasCollection(userDef.Name) {
		return nil
	}
	return u.CreateCollection(userDef)
}

func TestEngine_DatabasesAreIsolatedByName(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	a, err := e.Open(ctx, "a", 1, provisionUser)
	require.NoError(t, err)
	b, err := e.Open(ctx, "b", 1, provisionUser)
	require.NoError(t, err)

	tx, err := a.Begin(ctx, "user", types.ReadWrite)
	require.NoError(t, err)
	_, err = tx.Add(ctx, types.Record{"name": "only in a"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	rtx, err := b.Begin(ctx, "user", types.ReadOnly)
	require.NoError(t, err)
	defer rtx.Rollback()
	_, found, err := rtx.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEngine_StoredRecordIsCopied(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	conn, err := e.Open(ctx, "copy", 1, provisionUser)
	require.NoError(t, err)

	rec := types.Record{"name": "Ana"}
	tx, err := conn.Begin(ctx, "user", types.ReadWrite)
	require.NoError(t, err)
	key, err := tx.Add(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	rec["name"] = "mutated"

	rtx, err := conn.Begin(ctx, "user", types.ReadOnly)
	require.NoError(t, err)
	defer rtx.Rollback()
	got, found, err := rtx.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ana", got["name"])
}

func TestEngine_CursorIsSnapshot(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	conn, err := e.Open(ctx, "snap", 1, provisionUser)
	require.NoError(t, err)

	tx, err := conn.Begin(ctx, "user", types.ReadWrite)
	require.NoError(t, err)
	for _, name := range []string{"a", "b"} {
		_, err := tx.Add(ctx, types.Record{"name": name})
		require.NoError(t, err)
	}
	cur, err := tx.OpenCursor(ctx)
	require.NoError(t, err)
	_, err = tx.Add(ctx, types.Record{"name": "c"})
	require.NoError(t, err)

	var seen []types.Key
	for cur.Next() {
		seen = append(seen, cur.Key())
	}
	require.NoError(t, cur.Err())
	require.NoError(t, cur.Close())
	require.NoError(t, tx.Commit())
	assert.Equal(t, []types.Key{1, 2}, seen)
}

func TestEngine_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine().Open(ctx, "x", 1, provisionUser)
	assert.ErrorIs(t, err, context.Canceled)
}
