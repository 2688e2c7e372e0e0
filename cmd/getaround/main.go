// Getaround - Rental delay what-if analysis and price estimates.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/YnaPqt/deploiement-getaround/internal/config"
	"github.com/YnaPqt/deploiement-getaround/internal/dataset"
	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/YnaPqt/deploiement-getaround/internal/repository"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	cfgPath  string
	dataPath string
)

var rootCmd = &cobra.Command{
	Use:           "getaround",
	Short:         "Rental delay analysis for Getaround check-in thresholds",
	Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "rentals CSV export, overrides dataset.path (- reads stdin)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the logger. Commands other
// than serve keep stdout for their own output and log text to stderr.
func loadConfig(service bool) (*domain.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dataPath != "" {
		cfg.Dataset.Source = "csv"
		cfg.Dataset.Path = dataPath
	}

	if os.Getenv("GETAROUND_DEBUG") == "true" {
		cfg.Logging.Level = "debug"
	}
	if !service {
		cfg.Logging.Format = "text"
		if cfg.Logging.Level == "info" {
			cfg.Logging.Level = "warn"
		}
	}
	config.SetupLogger(cfg.Logging)
	return cfg, nil
}

// stdinPath as --data reads the CSV export from standard input.
const stdinPath = "-"

// openDataset builds the dataset source for the configured source. The
// returned repository is nil for CSV sources and must be closed by the caller.
func openDataset(cfg *domain.Config) (domain.DatasetSource, *repository.SQLRepository, error) {
	switch cfg.Dataset.Source {
	case "csv":
		if cfg.Dataset.Path == stdinPath {
			ds, err := readDataset(os.Stdin, "stdin")
			if err != nil {
				return nil, nil, err
			}
			return ds, nil, nil
		}
		return dataset.NewProvider(dataset.CSVFile{Path: cfg.Dataset.Path}), nil, nil
	case "database":
		repo, err := repository.New(cfg.Repository)
		if err != nil {
			return nil, nil, fmt.Errorf("open repository: %w", err)
		}
		reader := dataset.RepositoryReader{Repo: repo, Driver: repo.Driver()}
		return dataset.NewProvider(reader), repo, nil
	default:
		return nil, nil, fmt.Errorf("unknown dataset source %q", cfg.Dataset.Source)
	}
}

// readDataset builds a dataset from a CSV stream read in full.
func readDataset(r io.Reader, name string) (dataset.Static, error) {
	raw, err := dataset.ReadCSV(r)
	if err != nil {
		return dataset.Static{}, fmt.Errorf("read %s: %w", name, err)
	}
	ds, err := dataset.Build(raw, name)
	if err != nil {
		return dataset.Static{}, fmt.Errorf("build dataset from %s: %w", name, err)
	}
	return dataset.Static{Dataset: ds}, nil
}

// loadDataset opens and loads the configured dataset once.
func loadDataset(ctx context.Context, cfg *domain.Config) (domain.DatasetSource, func(), error) {
	source, repo, err := openDataset(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeRepo := func() {
		if repo != nil {
			if err := repo.Close(); err != nil {
				slog.Error("failed to close repository", "error", err)
			}
		}
	}

	if _, err := source.Load(ctx); err != nil {
		closeRepo()
		return nil, nil, err
	}
	return source, closeRepo, nil
}
