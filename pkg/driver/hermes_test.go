package driver

import (
	"bytes"
	stderrors "errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexmckenley/hermes/pkg/errors"
	"github.com/alexmckenley/hermes/pkg/vm"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LogLevel = "error"
	cfg.Stdout = &bytes.Buffer{}
	return cfg
}

func TestNewHermes(t *testing.T) {
	h, err := NewHermes(testConfig())
	require.NoError(t, err)
	require.NoError(t, h.Verify())

	n, err := h.ParseInt("0x1F", nil)
	require.NoError(t, err)
	assert.Equal(t, 31.0, n)

	radix := 2.0
	n, err = h.ParseInt("1012", &radix)
	require.NoError(t, err)
	assert.Equal(t, 5.0, n)

	f, err := h.ParseFloat("-InfinityXYZ")
	require.NoError(t, err)
	assert.Equal(t, math.Inf(-1), f)
}

func TestGlobalsAndDump(t *testing.T) {
	h, err := NewHermes(testConfig())
	require.NoError(t, err)

	byName := make(map[string]Binding)
	for _, b := range h.Globals() {
		byName[b.Name] = b
	}
	assert.Equal(t, "---", byName["NaN"].Attributes())
	assert.Equal(t, "w-c", byName["parseInt"].Attributes())
	assert.Equal(t, "---", byName["HermesInternal"].Attributes())
	assert.Contains(t, byName, "Symbol")

	var out bytes.Buffer
	require.NoError(t, h.Dump(&out))
	assert.Contains(t, out.String(), "parseFloat")
	assert.True(t, strings.HasSuffix(out.String(), "live cells\n"))
}

func TestNewHermesWithoutSymbol(t *testing.T) {
	cfg := testConfig()
	cfg.ES6Symbol = false
	h, err := NewHermes(cfg)
	require.NoError(t, err)
	for _, b := range h.Globals() {
		assert.NotEqual(t, "Symbol", b.Name)
	}
}

func TestNewHermesOutOfMemory(t *testing.T) {
	cfg := testConfig()
	cfg.MaxHeapCells = 100
	_, err := NewHermes(cfg)
	require.Error(t, err)

	var be *errors.BootstrapError
	require.True(t, stderrors.As(err, &be))
	var oom *errors.OutOfMemoryError
	assert.True(t, stderrors.As(err, &oom))
	assert.Same(t, be, pkgerrors.Cause(err))
}

func TestPrintGoesToConfiguredStdout(t *testing.T) {
	cfg := testConfig()
	out := &bytes.Buffer{}
	cfg.Stdout = out
	h, err := NewHermes(cfg)
	require.NoError(t, err)
	_, err = h.CallGlobal("print", vm.NewString("hello"), vm.NumberValue(42))
	require.NoError(t, err)
	assert.Equal(t, "hello 42\n", out.String())

	_, err = h.CallGlobal("NaN")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hermes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("es6Symbol: false\nmaxHeapCells: 5000\nlogLevel: debug\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.ES6Symbol)
	assert.Equal(t, 5000, cfg.MaxHeapCells)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NotNil(t, cfg.Stdout)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"negative heap", Config{MaxHeapCells: -1}, "maxHeapCells"},
		{"bad level", Config{LogLevel: "loud"}, "logLevel"},
		{"ok", Config{LogLevel: "warn"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ce *errors.ConfigError
			require.True(t, stderrors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}

	_, err := NewHermes(Config{MaxHeapCells: -3})
	assert.Error(t, err)
}
