package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/YnaPqt/deploiement-getaround/internal/analysis"
	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/YnaPqt/deploiement-getaround/internal/rules"
	"github.com/spf13/cobra"
)

type analysisFlags struct {
	checkin    string
	threshold  float64
	thresholds []float64
	segment    string
	json       bool
}

var flags analysisFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print revenue risk, blocked rentals and solved cases for one threshold",
	RunE:  runAnalyze,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Print the revenue risk curve over the candidate thresholds",
	RunE:  runSweep,
}

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Print checkout delays by check-in type and severity",
	RunE:  runBreakdown,
}

func init() {
	for _, cmd := range []*cobra.Command{analyzeCmd, sweepCmd, breakdownCmd} {
		cmd.Flags().StringVar(&flags.checkin, "checkin", string(domain.FilterAll), "check-in filter: All, mobile or connect")
		cmd.Flags().StringVar(&flags.segment, "segment", "", "CEL expression restricting the rentals")
		cmd.Flags().BoolVar(&flags.json, "json", false, "print JSON instead of text")
		rootCmd.AddCommand(cmd)
	}
	analyzeCmd.Flags().Float64Var(&flags.threshold, "threshold", 0, "minimum delay between rentals, in minutes (default from config)")
	for _, cmd := range []*cobra.Command{analyzeCmd, sweepCmd} {
		cmd.Flags().Float64SliceVar(&flags.thresholds, "thresholds", nil, "candidate thresholds, in list order (default from config)")
	}
}

// newAnalyzer loads the dataset and returns an analyzer over it.
func newAnalyzer(ctx context.Context) (*analysis.Analyzer, *domain.Config, func(), error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return nil, nil, nil, err
	}
	provider, closeFn, err := loadDataset(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	segments, err := rules.NewEngine(10)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return analysis.NewAnalyzer(provider, segments, cfg.Analysis.Thresholds), cfg, closeFn, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	analyzer, cfg, closeFn, err := newAnalyzer(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	checkin, err := domain.ParseCheckinFilter(flags.checkin)
	if err != nil {
		return err
	}
	threshold := cfg.Analysis.DefaultThreshold
	if cmd.Flags().Changed("threshold") {
		threshold = flags.threshold
	}

	report, err := analyzer.Analyze(ctx, analysis.Params{
		Checkin:    checkin,
		Threshold:  threshold,
		Thresholds: flags.thresholds,
		Segment:    flags.segment,
	})
	if err != nil {
		return err
	}

	if flags.json {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	return writeReport(cmd.OutOrStdout(), report)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	analyzer, _, closeFn, err := newAnalyzer(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	checkin, err := domain.ParseCheckinFilter(flags.checkin)
	if err != nil {
		return err
	}
	curve, err := analyzer.Curve(ctx, checkin, flags.thresholds, flags.segment)
	if err != nil {
		return err
	}

	if flags.json {
		return writeJSON(cmd.OutOrStdout(), curve)
	}
	return writeCurve(cmd.OutOrStdout(), checkin, curve)
}

func runBreakdown(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	analyzer, _, closeFn, err := newAnalyzer(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	checkin, err := domain.ParseCheckinFilter(flags.checkin)
	if err != nil {
		return err
	}
	breakdown, err := analyzer.Breakdown(ctx, checkin, flags.segment)
	if err != nil {
		return err
	}

	if flags.json {
		return writeJSON(cmd.OutOrStdout(), breakdown)
	}
	return writeBreakdown(cmd.OutOrStdout(), breakdown)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
