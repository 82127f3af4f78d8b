// Package store keeps the ledger of Shopify orders whose reports were
// already generated, so polling and webhooks never send a report twice.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrAlreadyProcessed is returned by MarkProcessed for a known order.
var ErrAlreadyProcessed = errors.New("order already processed")

// ProcessedOrder is one ledger row.
type ProcessedOrder struct {
	OrderID     string
	OrderName   string
	ProcessedAt time.Time
	Customer    CustomerRecord
}

// CustomerRecord is the customer data the report was generated from.
type CustomerRecord struct {
	Name          string
	Email         string
	GiftEmail     string
	IsGift        bool
	BirthDate     string
	BirthTime     string
	BirthPlace    string
	BirthProvince string
	Message       string
	ZodiacSign    string
}

// Store is a SQLite-backed ledger.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens or creates the ledger database at path and applies pending
// migrations. ":memory:" gives a throwaway ledger.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("ledger opened", zap.String("path", path))
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsProcessed reports whether the order is in the ledger.
func (s *Store) IsProcessed(ctx context.Context, orderID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_orders WHERE order_id = ?`, orderID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to query order %s: %w", orderID, err)
	}
	return true, nil
}

// MarkProcessed records an order. The first record wins; a second call for
// the same order returns ErrAlreadyProcessed and changes nothing.
func (s *Store) MarkProcessed(ctx context.Context, o ProcessedOrder) error {
	if o.OrderID == "" {
		return errors.New("order id must not be empty")
	}
	if o.ProcessedAt.IsZero() {
		o.ProcessedAt = time.Now()
	}

	c := o.Customer
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO processed_orders (
			order_id, order_name, processed_at,
			customer_name, email, gift_email, is_gift,
			birth_date, birth_time, birth_place, birth_province,
			message, zodiac_sign
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderID, o.OrderName, o.ProcessedAt.UTC().Format(time.RFC3339Nano),
		c.Name, c.Email, c.GiftEmail, c.IsGift,
		c.BirthDate, c.BirthTime, c.BirthPlace, c.BirthProvince,
		c.Message, c.ZodiacSign,
	)
	if err != nil {
		return fmt.Errorf("failed to record order %s: %w", o.OrderID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record order %s: %w", o.OrderID, err)
	}
	if n == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// List returns up to limit orders, most recent first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]ProcessedOrder, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, order_name, processed_at,
			customer_name, email, gift_email, is_gift,
			birth_date, birth_time, birth_place, birth_province,
			message, zodiac_sign
		FROM processed_orders
		ORDER BY processed_at DESC, order_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var out []ProcessedOrder
	for rows.Next() {
		var (
			o         ProcessedOrder
			c         = &o.Customer
			processed string
		)
		if err := rows.Scan(&o.OrderID, &o.OrderName, &processed,
			&c.Name, &c.Email, &c.GiftEmail, &c.IsGift,
			&c.BirthDate, &c.BirthTime, &c.BirthPlace, &c.BirthProvince,
			&c.Message, &c.ZodiacSign); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if o.ProcessedAt, err = time.Parse(time.RFC3339Nano, processed); err != nil {
			return nil, fmt.Errorf("order %s has a malformed timestamp: %w", o.OrderID, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
