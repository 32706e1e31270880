package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// migrations se aplican en orden y se registran en schema_migrations. El SQL es
// el mismo para SQLite y PostgreSQL.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS portfolios (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
		symbol TEXT NOT NULL,
		quantity BIGINT NOT NULL,
		buy_price TEXT NOT NULL,
		UNIQUE (portfolio_id, symbol)
	)`,
	`CREATE TABLE IF NOT EXISTS quote_snapshots (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		day TEXT NOT NULL,
		price TEXT NOT NULL,
		date TIMESTAMP NOT NULL,
		UNIQUE (symbol, day)
	)`,
	`CREATE TABLE IF NOT EXISTS portfolio_snapshots (
		id TEXT PRIMARY KEY,
		portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
		day TEXT NOT NULL,
		date TIMESTAMP NOT NULL,
		total_value DOUBLE PRECISION NOT NULL,
		total_investment DOUBLE PRECISION NOT NULL,
		pnl DOUBLE PRECISION NOT NULL,
		pnl_percentage DOUBLE PRECISION NOT NULL,
		max_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		min_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		UNIQUE (portfolio_id, day)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_portfolios_user ON portfolios(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_quote_snapshots_date ON quote_snapshots(date)`,
}

// RunMigrations aplica las migraciones que todavía no están registradas.
func RunMigrations(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var current int
	if err := db.Get(&current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		tx, err := db.Beginx()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if _, err := tx.Exec(tx.Rebind(`INSERT INTO schema_migrations (version) VALUES (?)`), version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		log.Debug().Int("version", version).Msg("migration applied")
	}
	return nil
}
