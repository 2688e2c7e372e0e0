// Package config loads the service configuration from defaults, an optional
// YAML or JSON file and GETAROUND_ environment variables, in that order.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/YnaPqt/deploiement-getaround/internal/analysis"
	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every configuration environment variable.
// Nested keys are separated by a double underscore, e.g.
// GETAROUND_SERVER__PORT=9090 or GETAROUND_CACHE__REDISADDR=redis:6379.
const EnvPrefix = "GETAROUND_"

// Load builds the configuration. path may be empty to skip the file layer.
// The profile key, from file or environment, picks the defaults that the
// other layers override.
func Load(path string) (*domain.Config, error) {
	k := koanf.New(".")

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, "__", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := domain.DefaultConfig()
	if domain.Profile(k.String("profile")) == domain.ProfileDistributed {
		cfg = domain.DistributedConfig()
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           cfg,
			WeaklyTypedInput: true,
			ZeroFields:       true,
			TagName:          "json",
		},
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}

// envKey maps GETAROUND_SERVER__PORT to server.port.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks values the services cannot start without.
func Validate(cfg *domain.Config) error {
	switch cfg.Profile {
	case domain.ProfileStandalone, domain.ProfileDistributed:
	default:
		return fmt.Errorf("unknown profile %q", cfg.Profile)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	switch cfg.Dataset.Source {
	case "csv":
		if cfg.Dataset.Path == "" {
			return fmt.Errorf("dataset.path is required for csv source")
		}
	case "database":
	default:
		return fmt.Errorf("unknown dataset source %q", cfg.Dataset.Source)
	}

	if len(cfg.Analysis.Thresholds) == 0 {
		return fmt.Errorf("analysis.thresholds must not be empty")
	}
	if err := analysis.ValidateThresholds(cfg.Analysis.Thresholds); err != nil {
		return fmt.Errorf("analysis.thresholds: %w", err)
	}
	if err := analysis.ValidateThreshold(cfg.Analysis.DefaultThreshold); err != nil {
		return fmt.Errorf("analysis.defaultThreshold: %w", err)
	}

	if cfg.Predictor.URL == "" {
		return fmt.Errorf("predictor.url is required")
	}

	if _, err := ParseLevel(cfg.Logging.Level); err != nil {
		return err
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Logging.Format)
	}

	return nil
}

// ParseLevel converts a configured level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// SetupLogger installs the default slog logger described by cfg.
func SetupLogger(cfg domain.LoggingConfig) *slog.Logger {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
