package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

// Reader produces raw rental rows from some storage.
type Reader interface {
	ReadRentals(ctx context.Context) ([]*domain.RawRental, error)
	Name() string
}

// Provider loads the dataset on first use and then serves the same snapshot
// for the lifetime of the process. A failed load is retried on the next call.
type Provider struct {
	mu     sync.Mutex
	reader Reader
	ds     *domain.Dataset
}

// NewProvider creates a provider backed by reader.
func NewProvider(reader Reader) *Provider {
	return &Provider{reader: reader}
}

// Load returns the dataset, reading and cleaning it on the first call.
func (p *Provider) Load(ctx context.Context) (*domain.Dataset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ds != nil {
		return p.ds, nil
	}

	raw, err := p.reader.ReadRentals(ctx)
	if err != nil {
		return nil, fmt.Errorf("read rentals from %s: %w", p.reader.Name(), err)
	}

	ds, err := Build(raw, p.reader.Name())
	if err != nil {
		return nil, fmt.Errorf("clean rentals from %s: %w", p.reader.Name(), err)
	}

	slog.Info("dataset loaded",
		"source", ds.Source,
		"rows", len(raw),
		"records", len(ds.Records),
		"dropped", ds.Dropped,
		"version", ds.Version,
	)

	p.ds = ds
	return ds, nil
}

// Loaded reports whether the dataset is already in memory.
func (p *Provider) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ds != nil
}

// RepositoryReader reads rentals from the SQL repository.
type RepositoryReader struct {
	Repo   domain.RentalRepository
	Driver string
}

// Name identifies the source in logs and reports.
func (r RepositoryReader) Name() string {
	return "database:" + r.Driver
}

// ReadRentals lists all stored rows in table order.
func (r RepositoryReader) ReadRentals(ctx context.Context) ([]*domain.RawRental, error) {
	return r.Repo.ListRentals(ctx)
}

// Static serves a prebuilt dataset.
type Static struct {
	Dataset *domain.Dataset
}

// Load returns the wrapped dataset.
func (s Static) Load(ctx context.Context) (*domain.Dataset, error) {
	return s.Dataset, nil
}
