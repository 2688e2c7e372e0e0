package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	_ "modernc.org/sqlite"
)

const defaultSQLitePath = "./getaround.db"

// openSQLite opens the rentals database file, creating its directory if needed.
// ":memory:" keeps the table in process memory, which the import tests use.
func openSQLite(cfg domain.RepositoryConfig) (*sql.DB, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = defaultSQLitePath
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return db, nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(ON)"
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		// Ping reports the real failure if this did not work.
		_ = os.MkdirAll(dir, 0755)
	}

	// Imports write once and reads dominate afterwards
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
}
