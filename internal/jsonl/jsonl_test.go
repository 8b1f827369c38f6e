package jsonl

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

func TestDecode_SkipsBlankAndMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"id":1,"name":"Ana"}`,
		``,
		`not json`,
		`[1,2,3]`,
		`null`,
		`  {"id":2,"name":"Bo"}  `,
	}, "\n")

	records, skipped, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, "Ana", records[0]["name"])

	key, ok, err := records[1].Key("id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.Key(2), key)
}

func TestDecode_KeepsLargeIntegers(t *testing.T) {
	records, skipped, err := Decode(strings.NewReader(`{"id":7,"n":9007199254740993}`))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, int64(9007199254740993), records[0]["n"])
}

func TestEncode_OneRecordPerLine(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, []types.Record{{"id": 1}, {"id": 2, "name": "Bo"}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"id":1}`, lines[0])
	assert.JSONEq(t, `{"id":2,"name":"Bo"}`, lines[1])
}

func TestEncode_RejectsUnencodable(t *testing.T) {
	err := Encode(&bytes.Buffer{}, []types.Record{{"ch": make(chan int)}})
	assert.ErrorIs(t, err, types.ErrInvalidRecord)
}

func TestWriteFile_ReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	require.NoError(t, WriteFile(path, []types.Record{{"id": 1, "name": "Ana"}}))

	records, skipped, err := ReadFile(path)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "Ana", records[0]["name"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWriteFile_FailedEncodeKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":1}`+"\n"), 0o644))

	err := WriteFile(path, []types.Record{{"ch": make(chan int)}})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`+"\n", string(data))
}

func TestReadFile_Missing(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
