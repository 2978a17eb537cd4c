package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/randalmurphal/flowlens/pkg/flowlens/errors"
)

// Settings is the validated service configuration.
type Settings struct {
	Server   ServerSettings
	Analysis AnalysisSettings
	Backend  BackendSettings
	Store    StoreSettings
	Flows    FlowsSettings
	Log      LogSettings
	Metrics  MetricsSettings
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Addr string `key:"server.addr" validate:"required"`
}

// AnalysisSettings configures workspace passes.
type AnalysisSettings struct {
	RefreshInterval time.Duration `key:"analysis.refresh_interval" validate:"gt=0"`
	MaxConcurrency  int           `key:"analysis.max_concurrency" validate:"gte=1,lte=256"`
	HistorySize     int           `key:"analysis.history_size" validate:"gte=1"`
}

// BackendSettings configures remote model calls.
type BackendSettings struct {
	Timeout          time.Duration `key:"backend.timeout" validate:"gt=0"`
	ProbeTimeout     time.Duration `key:"backend.probe_timeout" validate:"gt=0"`
	UsageHistorySize int           `key:"backend.usage_history_size" validate:"gte=1"`
}

// StoreSettings selects the persistence driver.
type StoreSettings struct {
	Driver string `key:"store.driver" validate:"oneof=memory sqlite"`
	Path   string `key:"store.path" validate:"required_if=Driver sqlite"`
}

// FlowsSettings locates the flows document.
type FlowsSettings struct {
	Path  string `key:"flows.path"`
	Watch bool   `key:"flows.watch"`
}

// LogSettings configures the slog handler.
type LogSettings struct {
	Level  string `key:"log.level" validate:"oneof=debug info warn error"`
	Format string `key:"log.format" validate:"oneof=json text"`
}

// MetricsSettings toggles the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool `key:"metrics.enabled"`
}

// DefaultSettings returns the configuration used for missing keys.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Addr: ":1881"},
		Analysis: AnalysisSettings{
			RefreshInterval: 30 * time.Second,
			MaxConcurrency:  8,
			HistorySize:     50,
		},
		Backend: BackendSettings{
			Timeout:          30 * time.Second,
			ProbeTimeout:     5 * time.Second,
			UsageHistorySize: 100,
		},
		Store: StoreSettings{Driver: "memory"},
		Log:   LogSettings{Level: "info", Format: "text"},
	}
}

// SettingsFrom overlays cfg on the defaults and validates the result.
func SettingsFrom(cfg Config) (Settings, error) {
	d := DefaultSettings()
	s := Settings{
		Server: ServerSettings{
			Addr: cfg.String("server.addr", d.Server.Addr),
		},
		Analysis: AnalysisSettings{
			RefreshInterval: cfg.Duration("analysis.refresh_interval", d.Analysis.RefreshInterval),
			MaxConcurrency:  cfg.Int("analysis.max_concurrency", d.Analysis.MaxConcurrency),
			HistorySize:     cfg.Int("analysis.history_size", d.Analysis.HistorySize),
		},
		Backend: BackendSettings{
			Timeout:          cfg.Duration("backend.timeout", d.Backend.Timeout),
			ProbeTimeout:     cfg.Duration("backend.probe_timeout", d.Backend.ProbeTimeout),
			UsageHistorySize: cfg.Int("backend.usage_history_size", d.Backend.UsageHistorySize),
		},
		Store: StoreSettings{
			Driver: cfg.String("store.driver", d.Store.Driver),
			Path:   cfg.String("store.path", d.Store.Path),
		},
		Flows: FlowsSettings{
			Path:  cfg.String("flows.path", d.Flows.Path),
			Watch: cfg.Bool("flows.watch", d.Flows.Watch),
		},
		Log: LogSettings{
			Level:  strings.ToLower(cfg.String("log.level", d.Log.Level)),
			Format: strings.ToLower(cfg.String("log.format", d.Log.Format)),
		},
		Metrics: MetricsSettings{
			Enabled: cfg.Bool("metrics.enabled", d.Metrics.Enabled),
		},
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettings reads and validates the file at path.
// An empty path yields DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return SettingsFrom(New(nil))
	}
	cfg, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	return SettingsFrom(cfg)
}

var validate = validator.New()

func init() {
	// Report the config key instead of the Go field name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if key := f.Tag.Get("key"); key != "" {
			return key
		}
		return f.Name
	})
}

// Validate checks every section and returns the first violation.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &errors.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed %q constraint (value %v)", fe.ActualTag(), fe.Value()),
		}
	}
	return fmt.Errorf("validate settings: %w", err)
}

// SlogLevel maps Log.Level to a slog level.
func (s Settings) SlogLevel() slog.Level {
	switch s.Log.Level {
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
