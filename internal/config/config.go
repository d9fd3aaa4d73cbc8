// Package config loads the optional weave.cue configuration file.
//
// The file is plain CUE checked against an embedded schema (schema.cue),
// so typos and out-of-range values fail with a file position instead of
// being ignored.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFile is the config file looked up in the working directory when
// no path is given.
const DefaultFile = "weave.cue"

// Config holds resolved settings.
type Config struct {
	Database        string
	LogLevel        string
	DefaultPriority int
	DefaultGroup    int
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Database: "weave.db",
		LogLevel: "info",
	}
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Error reports an invalid config file.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// fileConfig mirrors #Config. Pointers distinguish omitted fields.
type fileConfig struct {
	Database        *string `json:"database"`
	LogLevel        *string `json:"log_level"`
	DefaultPriority *int    `json:"default_priority"`
	DefaultGroup    *int    `json:"default_group"`
}

// Load reads path. An empty path loads DefaultFile if it exists and
// otherwise returns Default().
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates data against the schema and merges it over Default().
// filename is used in error positions only.
func Parse(filename string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var fc fileConfig
	if err := unified.Decode(&fc); err != nil {
		return Config{}, formatCUEError(err)
	}

	cfg := Default()
	if fc.Database != nil {
		cfg.Database = *fc.Database
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.DefaultPriority != nil {
		cfg.DefaultPriority = *fc.DefaultPriority
	}
	if fc.DefaultGroup != nil {
		cfg.DefaultGroup = *fc.DefaultGroup
	}
	return cfg, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}

	first := errs[0]
	format, args := first.Msg()
	msg := fmt.Sprintf(format, args...)
	if path := cueerrors.Path(first); len(path) > 0 {
		msg = strings.Join(path, ".") + ": " + msg
	}
	cfgErr := &Error{Message: msg}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		cfgErr.Pos = positions[0]
	}
	return cfgErr
}
