package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YnaPqt/deploiement-getaround/internal/analysis"
	"github.com/YnaPqt/deploiement-getaround/internal/api"
	"github.com/YnaPqt/deploiement-getaround/internal/bus"
	"github.com/YnaPqt/deploiement-getaround/internal/cache"
	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/YnaPqt/deploiement-getaround/internal/predict"
	"github.com/YnaPqt/deploiement-getaround/internal/rules"
	"github.com/YnaPqt/deploiement-getaround/internal/telemetry"
	"github.com/YnaPqt/deploiement-getaround/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis HTTP API and the async worker",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	slog.Info("starting getaround",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"profile", cfg.Profile,
		"dataset", cfg.Dataset.Source,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := telemetry.New(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	// Initialize Dataset
	source, repo, err := openDataset(cfg)
	if err != nil {
		return err
	}
	if repo != nil {
		defer repo.Close()
		slog.Info("repository initialized", "driver", repo.Driver())
	}

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		return fmt.Errorf("init event bus: %w", err)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Segment Engine
	segments, err := rules.NewEngine(100)
	if err != nil {
		return fmt.Errorf("init segment engine: %w", err)
	}
	defer segments.Close()

	analyzer := analysis.NewAnalyzer(source, segments, cfg.Analysis.Thresholds).WithMetrics(metrics)

	// Load the dataset up front so the first request does not pay for it
	if _, err := analyzer.DatasetVersion(ctx); err != nil {
		return err
	}

	jobTTL := time.Duration(cfg.Worker.JobTTL) * time.Second

	// Initialize Async Worker
	var asyncWorker *worker.Worker
	if cfg.Worker.Enabled {
		asyncWorker = worker.NewWorker(busImpl, cacheImpl, analyzer, metrics, jobTTL)
		if err := asyncWorker.Start(); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		slog.Info("async worker started")
	}

	// Initialize Server
	var repoDep domain.RentalRepository
	if repo != nil {
		repoDep = repo
	}
	srv := api.NewServer(cfg.Server, api.Dependencies{
		Analyzer:         analyzer,
		Repository:       repoDep,
		Cache:            cacheImpl,
		Bus:              busImpl,
		Predictor:        predict.NewClient(cfg.Predictor, metrics),
		Metrics:          metrics,
		DefaultThreshold: cfg.Analysis.DefaultThreshold,
		ReportTTL:        time.Duration(cfg.Analysis.ReportTTL) * time.Second,
		JobTTL:           jobTTL,
		Version:          Version,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("getaround is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)
	printBanner(cfg, Version)

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case err := <-errCh:
		slog.Error("server failed", "error", err)
		return err
	}

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("getaround shutdown complete")
	return nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  +-------------------------------------------+")
	fmt.Println("  |              GETAROUND                    |")
	fmt.Println("  |     Rental Delay Threshold Analysis       |")
	fmt.Println("  +-------------------------------------------+")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Profile:  %s\n", cfg.Profile)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET  /analysis            - Metrics for one threshold")
	fmt.Println("    GET  /analysis/curve      - Revenue risk over thresholds")
	fmt.Println("    GET  /analysis/breakdown  - Delays by check-in type")
	fmt.Println("    POST /analysis/jobs       - Submit an async analysis")
	fmt.Println("    GET  /analysis/jobs/{id}  - Poll an async analysis")
	fmt.Println("    GET  /thresholds          - Candidate thresholds")
	fmt.Println("    POST /predict             - Estimate a rental price")
	fmt.Println("    GET  /health              - Health check")
	fmt.Println("    GET  /metrics             - Prometheus metrics")
	fmt.Println()
}
