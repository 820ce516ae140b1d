package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/pkg/database"
)

// PostgresStore keeps holdings in PostgreSQL, one named portfolio per row set
// ⭐ SSOT: Holdings 저장/조회는 여기서만
type PostgresStore struct {
	db   *database.DB
	name string
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS portfolio_saves (
		portfolio  TEXT PRIMARY KEY,
		saved_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS portfolio_holdings (
		portfolio       TEXT NOT NULL REFERENCES portfolio_saves (portfolio) ON DELETE CASCADE,
		ticker          TEXT NOT NULL,
		shares          DOUBLE PRECISION NOT NULL,
		price_per_share DOUBLE PRECISION NOT NULL,
		market_value    DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (portfolio, ticker)
	);
`

const insertHoldingSQL = `
	INSERT INTO portfolio_holdings (
		portfolio, ticker, shares, price_per_share, market_value
	) VALUES ($1, $2, $3, $4, $5)
`

// NewPostgresStore creates a store for the portfolio called name
func NewPostgresStore(db *database.DB, name string) *PostgresStore {
	return &PostgresStore{db: db, name: name}
}

// EnsureSchema creates the tables if they do not exist yet
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create holdings schema: %w", err)
	}
	return nil
}

// Save replaces the saved holdings in one transaction
func (s *PostgresStore) Save(ctx context.Context, records []contracts.HoldingRecord) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO portfolio_saves (portfolio, saved_at) VALUES ($1, NOW())
			ON CONFLICT (portfolio) DO UPDATE SET saved_at = NOW()
		`, s.name)
		if err != nil {
			return fmt.Errorf("failed to mark portfolio saved: %w", err)
		}

		if _, err := tx.Exec(ctx, "DELETE FROM portfolio_holdings WHERE portfolio = $1", s.name); err != nil {
			return fmt.Errorf("failed to delete old holdings: %w", err)
		}

		// one round trip for the whole set
		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(insertHoldingSQL, s.name, r.Ticker, r.Shares, r.PricePerShare, r.MarketValue())
		}
		results := tx.SendBatch(ctx, batch)
		for _, r := range records {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to insert holding %s: %w", r.Ticker, err)
			}
		}
		return results.Close()
	})
}

// Load returns the saved holdings sorted by ticker
func (s *PostgresStore) Load(ctx context.Context) ([]contracts.HoldingRecord, error) {
	var one int
	err := s.db.Pool.QueryRow(ctx, "SELECT 1 FROM portfolio_saves WHERE portfolio = $1", s.name).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSavedPortfolio
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT ticker, shares, price_per_share
		FROM portfolio_holdings
		WHERE portfolio = $1
		ORDER BY ticker
	`, s.name)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	records := make([]contracts.HoldingRecord, 0)
	for rows.Next() {
		var r contracts.HoldingRecord
		if err := rows.Scan(&r.Ticker, &r.Shares, &r.PricePerShare); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
