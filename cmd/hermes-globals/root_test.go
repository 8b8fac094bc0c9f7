package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestParseIntCommand(t *testing.T) {
	out, err := run(t, "parse-int", "0x1F")
	require.NoError(t, err)
	assert.Equal(t, "31\n", out)

	out, err = run(t, "parse-int", "5", "37")
	require.NoError(t, err)
	assert.Equal(t, "NaN\n", out)

	_, err = run(t, "parse-int", "5", "sixteen")
	assert.Error(t, err)
}

func TestParseFloatCommand(t *testing.T) {
	out, err := run(t, "parse-float", "1e")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestDumpCommand(t *testing.T) {
	out, err := run(t, "dump", "--symbol=false")
	require.NoError(t, err)
	assert.Contains(t, out, "parseInt")
	assert.NotContains(t, out, "Symbol ")

	_, err = run(t, "dump", "--max-heap-cells", "10")
	assert.Error(t, err)
}

func TestConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxHeapCells: -1\n"), 0o644))
	_, err := run(t, "dump", "--config", path)
	assert.Error(t, err)
}
