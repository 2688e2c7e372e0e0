package domain

import (
	"context"
	"time"
)

// RentalRepository is the SQL-backed source of raw rental rows.
// Rows are returned in their original table order; the analysis depends on it.
type RentalRepository interface {
	// ListRentals returns every stored row ordered by position.
	ListRentals(ctx context.Context) ([]*RawRental, error)

	// SaveRentals replaces the stored rows with the given ones, keeping their order.
	SaveRentals(ctx context.Context, rentals []*RawRental) error

	// CountRentals returns the number of stored rows.
	CountRentals(ctx context.Context) (int, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string `json:"driver"`

	// SQLite specific
	SQLitePath string `json:"sqlitePath"`

	// PostgreSQL specific
	PostgresHost     string `json:"postgresHost"`
	PostgresPort     int    `json:"postgresPort"`
	PostgresUser     string `json:"postgresUser"`
	PostgresPassword string `json:"postgresPassword"`
	PostgresDB       string `json:"postgresDb"`
	PostgresSSLMode  string `json:"postgresSslMode"`

	// Connection pool settings
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
}
