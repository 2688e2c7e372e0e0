package main

import (
	"context"
	"strings"
	"testing"

	"github.com/YnaPqt/deploiement-getaround/internal/dataset"
	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

const rentalsCSV = `car_id,checkin_type,state,delay_at_checkout_in_minutes,time_delta_with_previous_rental_in_minutes
1,mobile,ended,10,
2,mobile,ended,45,30
3,connect,ended,-5,90
`

func TestReadDataset(t *testing.T) {
	t.Run("Stream", func(t *testing.T) {
		ds, err := readDataset(strings.NewReader(rentalsCSV), "stdin")
		if err != nil {
			t.Fatalf("readDataset failed: %v", err)
		}
		if ds.Dataset == nil || len(ds.Dataset.Records) == 0 {
			t.Fatalf("expected records, got %+v", ds.Dataset)
		}
		if ds.Dataset.Source != "stdin" {
			t.Errorf("expected source stdin, got %q", ds.Dataset.Source)
		}

		loaded, err := ds.Load(context.Background())
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded != ds.Dataset {
			t.Error("expected Load to return the prebuilt dataset")
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if _, err := readDataset(strings.NewReader(""), "stdin"); err == nil {
			t.Error("expected error for an empty stream")
		}
	})
}

func TestOpenDataset(t *testing.T) {
	t.Run("CSVPath", func(t *testing.T) {
		cfg := &domain.Config{Dataset: domain.DatasetConfig{Source: "csv", Path: "rentals.csv"}}
		source, repo, err := openDataset(cfg)
		if err != nil {
			t.Fatalf("openDataset failed: %v", err)
		}
		if repo != nil {
			t.Error("expected no repository for a CSV source")
		}
		if _, ok := source.(*dataset.Provider); !ok {
			t.Errorf("expected a lazy provider, got %T", source)
		}
	})

	t.Run("UnknownSource", func(t *testing.T) {
		cfg := &domain.Config{Dataset: domain.DatasetConfig{Source: "ftp"}}
		if _, _, err := openDataset(cfg); err == nil {
			t.Error("expected error for an unknown source")
		}
	})
}
