package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SqueezeWatch/internal/domain/models"
	domrepo "SqueezeWatch/internal/domain/repository"
	pkgch "SqueezeWatch/pkg/clickhouse"
)

// CHTickerStore implements TickerStore backed by ClickHouse.
type CHTickerStore struct {
	db *sql.DB
}

func NewCHTickerStore(ch *pkgch.Client) *CHTickerStore {
	return &CHTickerStore{db: ch.DB()}
}

func (s *CHTickerStore) ActiveTickers(ctx context.Context) ([]string, error) {
	const q = `
        SELECT ticker
        FROM squeezewatch.tracked_tickers FINAL
        WHERE active = 1
        ORDER BY ticker ASC
    `
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("active tickers: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 128)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *CHTickerStore) UpsertTicker(ctx context.Context, t models.TrackedTicker) error {
	added := t.AddedAt
	if added.IsZero() {
		added = time.Now()
	}
	const q = `
        INSERT INTO squeezewatch.tracked_tickers (ticker, name, category, active, added_at)
        VALUES (?, ?, ?, ?, ?)
    `
	if _, err := s.db.ExecContext(ctx, q, t.Ticker, t.Name, t.Category, boolToUInt8(t.Active), added); err != nil {
		return fmt.Errorf("upsert ticker: %w", err)
	}
	return nil
}

var _ domrepo.TickerStore = (*CHTickerStore)(nil)

// CHConfigStore implements ConfigStore backed by ClickHouse.
type CHConfigStore struct {
	db *sql.DB
}

func NewCHConfigStore(ch *pkgch.Client) *CHConfigStore {
	return &CHConfigStore{db: ch.DB()}
}

func (s *CHConfigStore) GetAll(ctx context.Context) (map[string]string, error) {
	const q = `SELECT key, value FROM squeezewatch.system_config FINAL`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string, 16)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *CHConfigStore) Set(ctx context.Context, key, value string) error {
	const q = `INSERT INTO squeezewatch.system_config (key, value, updated_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, key, value, time.Now()); err != nil {
		return fmt.Errorf("set config: %w", err)
	}
	return nil
}

var _ domrepo.ConfigStore = (*CHConfigStore)(nil)
