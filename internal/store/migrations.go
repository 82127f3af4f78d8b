package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type migration struct {
	version int
	name    string
	sql     string
}

// migrations are applied in order; never edit one that has shipped
var migrations = []migration{
	{
		version: 1,
		name:    "create processed_orders",
		sql: `
			CREATE TABLE IF NOT EXISTS processed_orders (
				order_id       TEXT PRIMARY KEY,
				order_name     TEXT NOT NULL DEFAULT '',
				processed_at   TEXT NOT NULL,
				customer_name  TEXT NOT NULL DEFAULT '',
				email          TEXT NOT NULL DEFAULT '',
				gift_email     TEXT NOT NULL DEFAULT '',
				is_gift        INTEGER NOT NULL DEFAULT 0,
				birth_date     TEXT NOT NULL DEFAULT '',
				birth_time     TEXT NOT NULL DEFAULT '',
				birth_place    TEXT NOT NULL DEFAULT '',
				birth_province TEXT NOT NULL DEFAULT '',
				message        TEXT NOT NULL DEFAULT '',
				zodiac_sign    TEXT NOT NULL DEFAULT ''
			)`,
	},
	{
		version: 2,
		name:    "index processed_at",
		sql:     `CREATE INDEX IF NOT EXISTS idx_processed_orders_processed_at ON processed_orders (processed_at)`,
	},
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM migrations`)
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
		s.logger.Info("migration applied", zap.Int("version", m.version), zap.String("name", m.name))
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}
