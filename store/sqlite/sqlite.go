// Package sqlite stores customers, stocks and prices in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (or creates) the database at path and migrates its schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS portfolio_stocks (
		customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		ticker TEXT NOT NULL,
		quantity TEXT NOT NULL,
		PRIMARY KEY (customer_id, ticker)
	);

	CREATE TABLE IF NOT EXISTS stocks (
		ticker TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		exchange TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stock_prices (
		ticker TEXT NOT NULL,
		date TEXT NOT NULL,
		open_price TEXT,
		high_price TEXT,
		low_price TEXT,
		close_price TEXT NOT NULL,
		volume INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (ticker, date)
	);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}
