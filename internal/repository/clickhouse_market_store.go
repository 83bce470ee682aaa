package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"SqueezeWatch/internal/domain/models"
	domrepo "SqueezeWatch/internal/domain/repository"
	pkgch "SqueezeWatch/pkg/clickhouse"
	applogger "SqueezeWatch/pkg/logger"
	"SqueezeWatch/pkg/util"
)

// CHMetricStore implements MetricStore backed by ClickHouse.
type CHMetricStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHMetricStore(ch *pkgch.Client) *CHMetricStore {
	return &CHMetricStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHMetricStore) SetLogger(l *applogger.Logger) { s.l = l }

const metricColumns = `ticker, trade_date, open_price, high_price, low_price, close_price,
    prev_close_price, borrow_balance, borrow_balance_change, margin_balance, short_balance,
    margin_ratio, hv_20d, volume, avg_volume_20d, turnover, resistance_level`

func (s *CHMetricStore) UpsertMetrics(ctx context.Context, rows []models.DailyMetric) error {
	if len(rows) == 0 {
		return nil
	}
	// Chunked multi-row VALUES to reduce round-trips.
	const chunkSize = 1000
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*17)
		for _, m := range rows[start:end] {
			date, err := util.ParseTradeDate(m.TradeDate)
			if err != nil {
				return fmt.Errorf("upsert metrics: %w", err)
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				m.Ticker, date,
				m.OpenPrice, m.HighPrice, m.LowPrice, m.ClosePrice, m.PrevClosePrice,
				m.BorrowBalance, m.BorrowBalanceChange, m.MarginBalance, m.ShortBalance,
				m.MarginRatio, m.HV20D, m.Volume, m.AvgVolume20D, m.Turnover, m.ResistanceLevel,
			)
		}
		q := fmt.Sprintf("INSERT INTO squeezewatch.daily_metrics (%s) VALUES %s", metricColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse upsert_metrics error", applogger.Int("rows", end-start), applogger.Error(err))
			}
			return fmt.Errorf("upsert metrics: %w", err)
		}
	}
	return nil
}

func (s *CHMetricStore) GetMetric(ctx context.Context, ticker, tradeDate string) (*models.DailyMetric, error) {
	date, err := util.ParseTradeDate(tradeDate)
	if err != nil {
		return nil, err
	}
	const q = `
        SELECT ` + metricColumns + `
        FROM squeezewatch.daily_metrics FINAL
        WHERE ticker = ? AND trade_date = ?
        LIMIT 1
    `
	row := s.db.QueryRowContext(ctx, q, ticker, date)
	m, err := scanMetric(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_metric error",
				applogger.String("ticker", ticker),
				applogger.String("date", tradeDate),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get metric: %w", err)
	}
	return m, nil
}

func (s *CHMetricStore) GetByDate(ctx context.Context, tradeDate string) ([]models.DailyMetric, error) {
	date, err := util.ParseTradeDate(tradeDate)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	const q = `
        SELECT ` + metricColumns + `
        FROM squeezewatch.daily_metrics FINAL
        WHERE trade_date = ?
        ORDER BY ticker ASC
    `
	rows, err := s.db.QueryContext(ctx, q, date)
	if err != nil {
		return nil, fmt.Errorf("get metrics by date: %w", err)
	}
	defer rows.Close()

	out := make([]models.DailyMetric, 0, 256)
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse metrics_by_date ok",
			applogger.String("date", tradeDate),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHMetricStore) GetRange(ctx context.Context, ticker, from, to string) ([]models.DailyMetric, error) {
	fromDate, err := util.ParseTradeDate(from)
	if err != nil {
		return nil, err
	}
	toDate, err := util.ParseTradeDate(to)
	if err != nil {
		return nil, err
	}
	const q = `
        SELECT ` + metricColumns + `
        FROM squeezewatch.daily_metrics FINAL
        WHERE ticker = ? AND trade_date >= ? AND trade_date <= ?
        ORDER BY trade_date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, ticker, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("get metric range: %w", err)
	}
	defer rows.Close()

	out := make([]models.DailyMetric, 0, 64)
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *CHMetricStore) TradeDates(ctx context.Context, from, to string) ([]string, error) {
	fromDate, err := util.ParseTradeDate(from)
	if err != nil {
		return nil, err
	}
	toDate, err := util.ParseTradeDate(to)
	if err != nil {
		return nil, err
	}
	const q = `
        SELECT DISTINCT trade_date
        FROM squeezewatch.daily_metrics
        WHERE trade_date >= ? AND trade_date <= ?
        ORDER BY trade_date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("list trade dates: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 64)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan trade date: %w", err)
		}
		out = append(out, util.FormatTradeDate(d))
	}
	return out, rows.Err()
}

func (s *CHMetricStore) LatestTradeDate(ctx context.Context) (string, error) {
	const q = `SELECT max(trade_date) FROM squeezewatch.daily_metrics`
	var d time.Time
	if err := s.db.QueryRowContext(ctx, q).Scan(&d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("latest trade date: %w", err)
	}
	if d.IsZero() || d.Year() <= 1970 {
		return "", nil
	}
	return util.FormatTradeDate(d), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMetric(r rowScanner) (*models.DailyMetric, error) {
	var m models.DailyMetric
	var date time.Time
	if err := r.Scan(
		&m.Ticker, &date,
		&m.OpenPrice, &m.HighPrice, &m.LowPrice, &m.ClosePrice, &m.PrevClosePrice,
		&m.BorrowBalance, &m.BorrowBalanceChange, &m.MarginBalance, &m.ShortBalance,
		&m.MarginRatio, &m.HV20D, &m.Volume, &m.AvgVolume20D, &m.Turnover, &m.ResistanceLevel,
	); err != nil {
		return nil, err
	}
	m.TradeDate = util.FormatTradeDate(date)
	return &m, nil
}

var _ domrepo.MetricStore = (*CHMetricStore)(nil)

// CHWarrantStore implements WarrantStore backed by ClickHouse.
type CHWarrantStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHWarrantStore(ch *pkgch.Client) *CHWarrantStore {
	return &CHWarrantStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHWarrantStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHWarrantStore) UpsertQuotes(ctx context.Context, rows []models.WarrantQuote) error {
	if len(rows) == 0 {
		return nil
	}
	const chunkSize = 1000
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, q := range rows[start:end] {
			date, err := util.ParseTradeDate(q.TradeDate)
			if err != nil {
				return fmt.Errorf("upsert quotes: %w", err)
			}
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args, q.WarrantID, q.UnderlyingTicker, date, q.ImpliedVol, q.ClosePrice, q.Volume)
		}
		stmt := fmt.Sprintf(
			"INSERT INTO squeezewatch.warrant_quotes (warrant_id, underlying_ticker, trade_date, implied_vol, close_price, volume) VALUES %s",
			strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse upsert_quotes error", applogger.Int("rows", end-start), applogger.Error(err))
			}
			return fmt.Errorf("upsert quotes: %w", err)
		}
	}
	return nil
}

func (s *CHWarrantStore) AvgImpliedVol(ctx context.Context, underlying, tradeDate string) (float64, bool, error) {
	date, err := util.ParseTradeDate(tradeDate)
	if err != nil {
		return 0, false, err
	}
	const q = `
        SELECT avg(implied_vol), count()
        FROM squeezewatch.warrant_quotes FINAL
        WHERE underlying_ticker = ? AND trade_date = ? AND implied_vol > 0
    `
	var (
		avg float64
		n   uint64
	)
	if err := s.db.QueryRowContext(ctx, q, underlying, date).Scan(&avg, &n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("avg implied vol: %w", err)
	}
	if n == 0 {
		return 0, false, nil
	}
	return avg, true, nil
}

var _ domrepo.WarrantStore = (*CHWarrantStore)(nil)
