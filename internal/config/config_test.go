package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if cfg.Profile != domain.ProfileStandalone {
		t.Errorf("expected standalone profile, got %s", cfg.Profile)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if len(cfg.Analysis.Thresholds) != len(domain.DefaultThresholds) {
		t.Errorf("expected default thresholds, got %v", cfg.Analysis.Thresholds)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `server:
  port: 9090
dataset:
  source: csv
  path: /data/rentals.csv
analysis:
  thresholds: [15, 30, 45]
  defaultThreshold: 30
cache:
  localMaxSize: 42
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"server.port", cfg.Server.Port, 9090},
		{"dataset.path", cfg.Dataset.Path, "/data/rentals.csv"},
		{"analysis.defaultThreshold", cfg.Analysis.DefaultThreshold, 30.0},
		{"analysis.thresholds", len(cfg.Analysis.Thresholds), 3},
		{"cache.localMaxSize", cfg.Cache.LocalMaxSize, 42},
		{"cache.type kept", cfg.Cache.Type, "memory"},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"predictor.url kept", cfg.Predictor.URL, domain.DefaultConfig().Predictor.URL},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"server": {"port": 7070}, "predictor": {"timeout": 3}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Port != 7070 || cfg.Predictor.Timeout != 3 {
		t.Errorf("unexpected config: port=%d timeout=%d", cfg.Server.Port, cfg.Predictor.Timeout)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("GETAROUND_SERVER__PORT", "6060")
	t.Setenv("GETAROUND_ANALYSIS__THRESHOLDS", "5,10,20")
	t.Setenv("GETAROUND_CACHE__LOCALMAXSIZE", "12")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if cfg.Server.Port != 6060 {
		t.Errorf("expected port 6060, got %d", cfg.Server.Port)
	}
	if len(cfg.Analysis.Thresholds) != 3 || cfg.Analysis.Thresholds[2] != 20 {
		t.Errorf("expected thresholds from env, got %v", cfg.Analysis.Thresholds)
	}
	if cfg.Cache.LocalMaxSize != 12 {
		t.Errorf("expected local max size 12, got %d", cfg.Cache.LocalMaxSize)
	}
}

func TestLoadDistributedProfile(t *testing.T) {
	t.Setenv("GETAROUND_PROFILE", "distributed")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Repository.Driver != "postgres" || cfg.Cache.Type != "redis" || cfg.EventBus.Type != "nats" {
		t.Errorf("expected distributed backends, got %s/%s/%s", cfg.Repository.Driver, cfg.Cache.Type, cfg.EventBus.Type)
	}
	if cfg.Dataset.Source != "database" {
		t.Errorf("expected database dataset source, got %s", cfg.Dataset.Source)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"UnsupportedFormat", "config.toml", "port = 1"},
		{"BadPort", "config.yaml", "server:\n  port: 70000\n"},
		{"BadSource", "config.yaml", "dataset:\n  source: s3\n"},
		{"NegativeThreshold", "config.yaml", "analysis:\n  thresholds: [10, -5]\n"},
		{"DuplicateThreshold", "config.yaml", "analysis:\n  thresholds: [10, 10]\n"},
		{"BadLevel", "config.yaml", "logging:\n  level: loud\n"},
		{"BadProfile", "config.yaml", "profile: cloud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.file, tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
		if _, err := ParseLevel(level); err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", level, err)
		}
	}
}
