package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recordstore/internal/enginetest"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

func TestEngineConformance(t *testing.T) {
	enginetest.RunEngineTests(t, "SQLite", func(t *testing.T) types.Engine {
		return NewEngine(t.TempDir())
	})
}

func provisionUser(u types.Upgrader, _ uint64) error {
	if u.HasCollection(types.UserCollection) {
		return nil
	}
	return u.CreateCollection(types.DefaultSchema().Collections[0])
}

func TestEngine_OpenCreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	e := NewEngine(dir)

	conn, err := e.Open(context.Background(), "records", 4, provisionUser)
	require.NoError(t, err)
	defer conn.Close()

	_, err = os.Stat(filepath.Join(dir, "records.db"))
	assert.NoError(t, err, "database file should be created under the data dir")
}

func TestEngine_PathEscapesName(t *testing.T) {
	e := NewEngine("/data")
	assert.Equal(t, filepath.Join("/data", "a%2Fb.db"), e.Path("a/b"))
	assert.Equal(t, filepath.Join(".", "x.db"), NewEngine("").Path("x"))
}

func TestEngine_StoresVersionInUserVersion(t *testing.T) {
	dir := t.TempDir()
	e := NewEngine(dir)
	conn, err := e.Open(context.Background(), "records", 4, provisionUser)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	db, err := sql.Open("sqlite", e.Path("records"))
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, 4, version)

	var keyPath string
	var autoInc int
	require.NoError(t, db.QueryRow("SELECT key_path, auto_increment FROM _collections WHERE name = 'user'").Scan(&keyPath, &autoInc))
	assert.Equal(t, "id", keyPath)
	assert.Equal(t, 1, autoInc)
}

func TestEngine_StoredValueOmitsKey(t *testing.T) {
	e := NewEngine(t.TempDir())
	conn, err := e.Open(context.Background(), "records", 4, provisionUser)
	require.NoError(t, err)

	ctx := context.Background()
	tx, err := conn.Begin(ctx, types.UserCollection, types.ReadWrite)
	require.NoError(t, err)
	_, err = tx.Add(ctx, types.Record{"name": "Ana", "age": "30", "profession": "Engineer"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, conn.Close())

	db, err := sql.Open("sqlite", e.Path("records"))
	require.NoError(t, err)
	defer db.Close()

	var data string
	require.NoError(t, db.QueryRow(`SELECT data FROM "c_user" WHERE pk = 1`).Scan(&data))
	assert.JSONEq(t, `{"name":"Ana","age":"30","profession":"Engineer"}`, data)
}

func TestEngine_DeletedKeysAreNotReused(t *testing.T) {
	e := NewEngine(t.TempDir())
	conn, err := e.Open(context.Background(), "records", 4, provisionUser)
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	tx, err := conn.Begin(ctx, types.UserCollection, types.ReadWrite)
	require.NoError(t, err)
	first, err := tx.Add(ctx, types.Record{"name": "a"})
	require.NoError(t, err)
	require.NoError(t, tx.Delete(ctx, first))
	second, err := tx.Add(ctx, types.Record{"name": "b"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Greater(t, second, first)
}

func TestEngine_CanceledContext(t *testing.T) {
	e := NewEngine(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Open(ctx, "records", 4, provisionUser)
	assert.ErrorIs(t, err, context.Canceled)
}
