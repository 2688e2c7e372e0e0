// Package repository provides SQL storage for the raw rentals table.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.RentalRepository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (*SQLRepository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// Driver returns the configured driver name.
func (r *SQLRepository) Driver() string {
	return r.driver
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// ListRentals returns every stored row in table order.
func (r *SQLRepository) ListRentals(ctx context.Context) ([]*domain.RawRental, error) {
	query := `
		SELECT position, rental_id, car_id, checkin_type, state,
			   delay_at_checkout_in_minutes, previous_ended_rental_id,
			   time_delta_with_previous_rental_in_minutes
		FROM rentals
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rentals []*domain.RawRental
	for rows.Next() {
		var rental domain.RawRental
		var delay, delta sql.NullFloat64

		if err := rows.Scan(
			&rental.Position, &rental.RentalID, &rental.CarID,
			&rental.CheckinType, &rental.State,
			&delay, &rental.PreviousEndedRentalID, &delta,
		); err != nil {
			return nil, err
		}

		rental.DelayAtCheckout = fromNull(delay)
		rental.TimeDeltaWithPrevious = fromNull(delta)
		rentals = append(rentals, &rental)
	}

	return rentals, rows.Err()
}

// SaveRentals replaces the table content in a single transaction.
// Positions are rewritten from slice order.
func (r *SQLRepository) SaveRentals(ctx context.Context, rentals []*domain.RawRental) error {
	for i, rental := range rentals {
		if rental == nil {
			return fmt.Errorf("%w: nil rental at index %d", ErrInvalidInput, i)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM rentals"); err != nil {
		return err
	}

	query := `
		INSERT INTO rentals (
			position, rental_id, car_id, checkin_type, state,
			delay_at_checkout_in_minutes, previous_ended_rental_id,
			time_delta_with_previous_rental_in_minutes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.PrepareContext(ctx, r.rebind(query))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rental := range rentals {
		if _, err := stmt.ExecContext(ctx,
			i, rental.RentalID, rental.CarID, rental.CheckinType, rental.State,
			toNull(rental.DelayAtCheckout), rental.PreviousEndedRentalID,
			toNull(rental.TimeDeltaWithPrevious),
		); err != nil {
			return fmt.Errorf("insert rental at position %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// CountRentals returns the number of stored rows.
func (r *SQLRepository) CountRentals(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rentals").Scan(&n)
	return n, err
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

func toNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
