package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// binary is the recordstore executable built by TestMain.
var binary string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "recordstore-bin-")
	if err != nil {
		fmt.Fprintln(os.Stderr, "create temp dir:", err)
		os.Exit(1)
	}
	binary = filepath.Join(dir, "recordstore")

	build := exec.Command("go", "build", "-o", binary, ".")
	if out, err := build.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "build recordstore: %v\n%s", err, out)
		os.RemoveAll(dir)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// testEnv is an isolated config and data directory pair. config.yaml
// points at the data directory, so no --data-dir flag is needed.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		t:         t,
		configDir: filepath.Join(dir, "config"),
		dataDir:   filepath.Join(dir, "data"),
	}
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	cfg := "backend: sqlite\nname: recordstore\ndata_dir: " + env.dataDir + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"), []byte(cfg), 0o644))
	return env
}

type cmdResult struct {
	stdout   string
	stderr   string
	exitCode int
}

func (e *testEnv) run(stdin string, args ...string) cmdResult {
	e.t.Helper()
	cmd := exec.Command(binary, append([]string{"--config-dir", e.configDir}, args...)...)
	cmd.Stdin = bytes.NewBufferString(stdin)
	cmd.Env = append(os.Environ(), "RECORDSTORE_DATA_DIR=", "RECORDSTORE_BACKEND=", "RECORDSTORE_NAME=")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	code := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		require.True(e.t, errors.As(err, &exitErr), "run recordstore: %v", err)
		code = exitErr.ExitCode()
	}
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), exitCode: code}
}

func TestBinary_RecordsPersistAcrossProcesses(t *testing.T) {
	env := newTestEnv(t)

	res := env.run("", "add", "--name", "Ana", "--age", "30", "--profession", "Engineer")
	require.Equal(t, 0, res.exitCode, res.stderr)

	res = env.run("", "get", "1")
	require.Equal(t, 0, res.exitCode, res.stderr)
	assert.Equal(t, "[1] age=30 name=Ana profession=Engineer\n", res.stdout)

	_, err := os.Stat(filepath.Join(env.dataDir, "recordstore.db"))
	assert.NoError(t, err, "data_dir from config.yaml must be used")

	res = env.run("y\n", "delete", "1")
	require.Equal(t, 0, res.exitCode, res.stderr)
	assert.Contains(t, res.stdout, "(no records)")
}

func TestBinary_ExitCodes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("success", func(t *testing.T) {
		assert.Equal(t, 0, env.run("", "version").exitCode)
	})

	t.Run("user error", func(t *testing.T) {
		res := env.run("", "get", "41")
		assert.Equal(t, 1, res.exitCode)
		assert.Contains(t, res.stderr, "no record user/41")
	})

	t.Run("unknown command", func(t *testing.T) {
		assert.Equal(t, 1, env.run("", "frobnicate").exitCode)
	})

	t.Run("system error", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))

		res := env.run("", "--data-dir", filepath.Join(blocker, "data"), "list")
		assert.Equal(t, 2, res.exitCode)
		assert.Contains(t, res.stderr, `open "recordstore" at version 4`)
	})
}
