package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowlens/pkg/flowlens/config"
	flerrors "github.com/randalmurphal/flowlens/pkg/flowlens/errors"
)

// TestNew verifies Config creation from maps.
func TestNew(t *testing.T) {
	for _, data := range []map[string]any{nil, {}, {"key": "value"}} {
		cfg := config.New(data)
		assert.NotNil(t, cfg.Raw())
	}
}

// TestDottedLookup verifies nested section access.
func TestDottedLookup(t *testing.T) {
	cfg := config.New(map[string]any{
		"server": map[string]any{"addr": ":9000"},
		"analysis": map[string]any{
			"refresh_interval": "45s",
			"max_concurrency":  4,
		},
		"log.level": "debug", // literal dotted key
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"nested string", cfg.String("server.addr", ""), ":9000"},
		{"nested duration", cfg.Duration("analysis.refresh_interval", 0), 45 * time.Second},
		{"nested int", cfg.Int("analysis.max_concurrency", 0), 4},
		{"literal key wins", cfg.String("log.level", "info"), "debug"},
		{"missing leaf", cfg.String("server.port", "none"), "none"},
		{"path through scalar", cfg.String("server.addr.host", "none"), "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	assert.True(t, cfg.Has("analysis.max_concurrency"))
	assert.False(t, cfg.Has("analysis.history_size"))
	assert.Equal(t, ":9000", cfg.Sub("server").String("addr", ""))
	assert.Empty(t, cfg.Sub("missing").Raw())
}

// TestString verifies string extraction with defaults.
func TestString(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		defaultVal string
		want       string
	}{
		{"key exists", map[string]any{"name": "alice"}, "default", "alice"},
		{"key missing", map[string]any{"other": "value"}, "default", "default"},
		{"empty string", map[string]any{"name": ""}, "default", ""},
		{"wrong type int", map[string]any{"name": 123}, "default", "default"},
		{"nil map", nil, "default", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String("name", tt.defaultVal))
		})
	}
}

// TestDuration verifies duration extraction with various input types.
func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want time.Duration
	}{
		{"string", "1m30s", 90 * time.Second},
		{"int seconds", 5, 5 * time.Second},
		{"int64 seconds", int64(7), 7 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"duration", 2 * time.Minute, 2 * time.Minute},
		{"invalid string", "soon", time.Hour},
		{"wrong type", true, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"d": tt.val})
			assert.Equal(t, tt.want, cfg.Duration("d", time.Hour))
		})
	}
}

// TestIntAndBool verifies numeric and boolean coercion.
func TestIntAndBool(t *testing.T) {
	cfg := config.New(map[string]any{
		"whole":    float64(8),
		"fraction": 8.5,
		"big":      int64(1 << 40),
		"flag":     true,
		"notflag":  "true",
	})

	assert.Equal(t, 8, cfg.Int("whole", 0))
	assert.Equal(t, -1, cfg.Int("fraction", -1))
	assert.Equal(t, 1<<40, cfg.Int("big", 0))
	assert.True(t, cfg.Bool("flag", false))
	assert.False(t, cfg.Bool("notflag", false))
}

// TestFromYAML verifies YAML parsing, including nested sections.
func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
analysis:
  refresh_interval: 10s
  max_concurrency: 2
flows:
  watch: true
`))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Duration("analysis.refresh_interval", 0))
	assert.Equal(t, 2, cfg.Int("analysis.max_concurrency", 0))
	assert.True(t, cfg.Bool("flows.watch", false))

	_, err = config.FromYAML([]byte(`invalid: yaml: content:`))
	assert.Error(t, err)
}

// TestFromFile verifies loading by extension and env expansion.
func TestFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("FLOWLENS_TEST_FLOWS", "/data/flows.json")

	yamlPath := filepath.Join(tmpDir, "flowlens.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("flows:\n  path: ${FLOWLENS_TEST_FLOWS}\n"), 0o644))

	jsonPath := filepath.Join(tmpDir, "flowlens.JSON")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"server": {"addr": ":8080"}}`), 0o644))

	txtPath := filepath.Join(tmpDir, "flowlens.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("content"), 0o644))

	t.Run("yaml with env", func(t *testing.T) {
		cfg, err := config.FromFile(yamlPath)
		require.NoError(t, err)
		assert.Equal(t, "/data/flows.json", cfg.String("flows.path", ""))
	})

	t.Run("json upper-case extension", func(t *testing.T) {
		cfg, err := config.FromFile(jsonPath)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.String("server.addr", ""))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := config.FromFile(txtPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported config file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(tmpDir, "nope.yaml"))
		assert.Error(t, err)
	})
}

// TestSettings verifies defaults, overlay and validation.
func TestSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := config.LoadSettings("")
		require.NoError(t, err)
		assert.Equal(t, config.DefaultSettings(), s)
		assert.Equal(t, 30*time.Second, s.Analysis.RefreshInterval)
		assert.Equal(t, 30*time.Second, s.Backend.Timeout)
		assert.Equal(t, 50, s.Analysis.HistorySize)
	})

	t.Run("overlay", func(t *testing.T) {
		s, err := config.SettingsFrom(config.New(map[string]any{
			"store": map[string]any{"driver": "sqlite", "path": "/tmp/fl.db"},
			"log":   map[string]any{"level": "DEBUG", "format": "json"},
		}))
		require.NoError(t, err)
		assert.Equal(t, "sqlite", s.Store.Driver)
		assert.Equal(t, "debug", s.Log.Level)
		assert.Equal(t, ":1881", s.Server.Addr)
	})

	tests := []struct {
		name  string
		data  map[string]any
		field string
	}{
		{"unknown driver", map[string]any{"store": map[string]any{"driver": "redis"}}, "store.driver"},
		{"sqlite without path", map[string]any{"store": map[string]any{"driver": "sqlite"}}, "store.path"},
		{"zero concurrency", map[string]any{"analysis": map[string]any{"max_concurrency": 0}}, "analysis.max_concurrency"},
		{"negative timeout", map[string]any{"backend": map[string]any{"timeout": "-1s"}}, "backend.timeout"},
		{"unknown level", map[string]any{"log": map[string]any{"level": "trace"}}, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.SettingsFrom(config.New(tt.data))
			var verr *flerrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

// TestSettings_SlogLevel verifies level mapping.
func TestSettings_SlogLevel(t *testing.T) {
	s := config.DefaultSettings()
	assert.Equal(t, "INFO", s.SlogLevel().String())
	s.Log.Level = "warn"
	assert.Equal(t, "WARN", s.SlogLevel().String())
}
