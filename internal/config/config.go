// Package config loads gridcore configuration from CUE files.
//
// A configuration file is unified with the embedded #Config schema, so
// unknown fields and out-of-range values are rejected with a source
// position, and omitted fields take their schema defaults.
package config

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

// Config is the decoded configuration.
type Config struct {
	Sheets []string     `json:"sheets"`
	Engine EngineConfig `json:"engine"`
	Store  StoreConfig  `json:"store"`
	Log    LogConfig    `json:"log"`
}

// EngineConfig tunes the transaction engine.
type EngineConfig struct {
	MaxSteps int `json:"max_steps"`
}

// StoreConfig locates the transaction log.
type StoreConfig struct {
	Path string `json:"path"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Error is a configuration error with its CUE source position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the configuration of an empty file.
func Default() *Config {
	cfg, err := Parse("default.cue", nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Load reads and validates the CUE file at path.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, src)
}

// Parse validates src against the schema and decodes it. filename is
// used in error positions.
func Parse(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := def.Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	if len(cfg.Sheets) == 0 {
		return nil, &Error{Field: "sheets", Message: "at least one sheet is required", Pos: v.LookupPath(cue.ParsePath("sheets")).Pos()}
	}
	seen := make(map[string]bool, len(cfg.Sheets))
	for _, name := range cfg.Sheets {
		if seen[name] {
			return nil, &Error{Field: "sheets", Message: fmt.Sprintf("duplicate sheet %q", name), Pos: v.LookupPath(cue.ParsePath("sheets")).Pos()}
		}
		seen[name] = true
	}
	return &cfg, nil
}

// Logger builds the slog logger the configuration asks for. verbose forces
// debug level.
func (c *Config) Logger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch c.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "config"
	if path := first.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		return &Error{Field: field, Message: first.Error(), Pos: positions[0]}
	}
	return &Error{Field: field, Message: first.Error()}
}
