package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"Sheet 1"}, cfg.Sheets)
	assert.Equal(t, 100000, cfg.Engine.MaxSteps)
	assert.Equal(t, "", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestParse_Overrides(t *testing.T) {
	src := `
sheets: ["Data", "Report"]
engine: max_steps: 50
store: path: "book.db"
log: {
	level:  "debug"
	format: "json"
}
`
	cfg, err := Parse("book.cue", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"Data", "Report"}, cfg.Sheets)
	assert.Equal(t, 50, cfg.Engine.MaxSteps)
	assert.Equal(t, "book.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse("partial.cue", []byte(`engine: max_steps: 10`))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Engine.MaxSteps)
	assert.Equal(t, []string{"Sheet 1"}, cfg.Sheets)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]struct {
		src  string
		want string
	}{
		"unknown field":    {`colour: "red"`, "colour"},
		"negative steps":   {`engine: max_steps: -1`, "max_steps"},
		"bad level":        {`log: level: "loud"`, "level"},
		"bad format":       {`log: format: "xml"`, "format"},
		"empty sheet name": {`sheets: [""]`, "sheets"},
		"no sheets":        {`sheets: []`, "at least one sheet"},
		"duplicate sheets": {`sheets: ["A", "A"]`, "duplicate sheet"},
		"syntax error":     {`engine: {`, "book.cue"},
		"wrong type":       {`store: path: 3`, "path"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("book.cue", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_ErrorCarriesPosition(t *testing.T) {
	_, err := Parse("book.cue", []byte("\nengine: max_steps: 0\n"))
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.True(t, strings.HasPrefix(err.Error(), "book.cue:") || strings.HasPrefix(err.Error(), "schema.cue:"),
		"error should name a source file: %s", err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridcore.cue")
	require.NoError(t, os.WriteFile(path, []byte(`sheets: ["One"]`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"One"}, cfg.Sheets)

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	cfg := Default()
	cfg.Logger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	cfg.Logger(&buf, true).Debug("shown", "k", "v")
	assert.Contains(t, buf.String(), "k=v")

	buf.Reset()
	cfg.Log.Format = "json"
	cfg.Logger(&buf, false).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	cfg.Log.Level = "error"
	cfg.Logger(&buf, false).Warn("quiet")
	assert.Empty(t, buf.String())
}
