package recordstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

func TestNewHandle_SQLite(t *testing.T) {
	dir := t.TempDir()
	h, err := NewHandle(types.Config{Backend: types.BackendSQLite, DataDir: dir, Name: "people"})
	require.NoError(t, err)
	assert.Equal(t, types.StateClosed, h.State())

	ctx := context.Background()
	require.NoError(t, h.Open(ctx))
	defer h.Close()

	_, err = os.Stat(filepath.Join(dir, "people.db"))
	assert.NoError(t, err)

	key, err := h.Upsert(ctx, types.User{Name: "Ana"}.ToRecord(), types.UserCollection)
	require.NoError(t, err)
	ok, err := h.Exists(ctx, key, types.UserCollection)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewHandle_DefaultsToSQLite(t *testing.T) {
	e, err := NewEngine(types.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "*sqlite.Engine", fmt.Sprintf("%T", e))
}

func TestNewHandle_Memory(t *testing.T) {
	h, err := NewHandle(types.Config{Backend: types.BackendMemory})
	require.NoError(t, err)
	require.NoError(t, h.Open(context.Background()))
	defer h.Close()

	records, err := h.ScanAll(context.Background(), types.UserCollection)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNewHandle_UnknownBackend(t *testing.T) {
	_, err := NewHandle(types.Config{Backend: "postgres"})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}
