package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/YnaPqt/deploiement-getaround/internal/dataset"
	"github.com/YnaPqt/deploiement-getaround/internal/repository"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <rentals.csv>",
	Short: "Load a rentals CSV export into the rentals table, keeping row order",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <rentals.csv>",
	Short: "Write the rentals table back to a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(importCmd, exportCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	rentals, err := dataset.CSVFile{Path: args[0]}.ReadRentals(ctx)
	if err != nil {
		return err
	}

	// Reject files the analysis could not load
	if _, err := dataset.Build(rentals, args[0]); err != nil {
		return fmt.Errorf("validate %s: %w", args[0], err)
	}

	repo, err := repository.New(cfg.Repository)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer repo.Close()

	if err := repo.SaveRentals(ctx, rentals); err != nil {
		return fmt.Errorf("save rentals: %w", err)
	}

	count, err := repo.CountRentals(ctx)
	if err != nil {
		return err
	}
	slog.Info("rentals imported", "file", args[0], "driver", repo.Driver(), "rows", count)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rentals into %s\n", count, repo.Driver())
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	repo, err := repository.New(cfg.Repository)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer repo.Close()

	rentals, err := repo.ListRentals(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(f, rentals); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rentals to %s\n", len(rentals), args[0])
	return nil
}
