package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Full(t *testing.T) {
	src := `
database:         "/tmp/notes.db"
log_level:        "debug"
default_priority: 3
default_group:    7
`
	cfg, err := Parse("weave.cue", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, Config{
		Database:        "/tmp/notes.db",
		LogLevel:        "debug",
		DefaultPriority: 3,
		DefaultGroup:    7,
	}, cfg)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestParse_EmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse("weave.cue", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Partial(t *testing.T) {
	cfg, err := Parse("weave.cue", []byte(`default_group: 2`))
	require.NoError(t, err)

	want := Default()
	want.DefaultGroup = 2
	assert.Equal(t, want, cfg)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", `foo: 1`, "foo"},
		{"bad log level", `log_level: "verbose"`, "log_level"},
		{"negative priority", `default_priority: -1`, "default_priority"},
		{"wrong type", `default_group: "two"`, "default_group"},
		{"empty database", `database: ""`, "database"},
		{"syntax error", `database: "x`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("weave.cue", []byte(tt.src))
			require.Error(t, err)

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.cue")
	require.NoError(t, os.WriteFile(path, []byte(`log_level: "warn"`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}

func TestLoad_DefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile(DefaultFile, []byte(`database: "here.db"`), 0o644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "here.db", cfg.Database)
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for level, want := range tests {
		assert.Equal(t, want, Config{LogLevel: level}.SlogLevel(), level)
	}
}
