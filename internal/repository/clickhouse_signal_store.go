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

// CHSignalStore implements SignalStore backed by ClickHouse.
type CHSignalStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSignalStore(ch *pkgch.Client) *CHSignalStore {
	return &CHSignalStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

const signalColumns = `ticker, trade_date, score, trend, comment,
    borrow_score, gamma_score, margin_score, momentum_score, notification_sent, generated_at`

func (s *CHSignalStore) UpsertSignals(ctx context.Context, rows []models.SqueezeSignal) error {
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
		args := make([]interface{}, 0, (end-start)*11)
		for _, sig := range rows[start:end] {
			date, err := util.ParseTradeDate(sig.TradeDate)
			if err != nil {
				return fmt.Errorf("upsert signals: %w", err)
			}
			generated := sig.GeneratedAt
			if generated.IsZero() {
				generated = time.Now()
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sig.Ticker, date, sig.Score, string(sig.Trend), sig.Comment,
				sig.Factors.Borrow, sig.Factors.Gamma, sig.Factors.Margin, sig.Factors.Momentum,
				boolToUInt8(sig.NotificationSent), generated,
			)
		}
		stmt := fmt.Sprintf("INSERT INTO squeezewatch.squeeze_signals (%s) VALUES %s", signalColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse upsert_signals error", applogger.Int("rows", end-start), applogger.Error(err))
			}
			return fmt.Errorf("upsert signals: %w", err)
		}
	}
	return nil
}

func (s *CHSignalStore) GetSignal(ctx context.Context, ticker, tradeDate string) (*models.SqueezeSignal, error) {
	date, err := util.ParseTradeDate(tradeDate)
	if err != nil {
		return nil, err
	}
	const q = `
        SELECT ` + signalColumns + `
        FROM squeezewatch.squeeze_signals FINAL
        WHERE ticker = ? AND trade_date = ?
        LIMIT 1
    `
	var (
		sig      models.SqueezeSignal
		d        time.Time
		trend    string
		notified uint8
	)
	err = s.db.QueryRowContext(ctx, q, ticker, date).Scan(
		&sig.Ticker, &d, &sig.Score, &trend, &sig.Comment,
		&sig.Factors.Borrow, &sig.Factors.Gamma, &sig.Factors.Margin, &sig.Factors.Momentum,
		&notified, &sig.GeneratedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_signal error",
				applogger.String("ticker", ticker),
				applogger.String("date", tradeDate),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get signal: %w", err)
	}
	sig.TradeDate = util.FormatTradeDate(d)
	sig.Trend = models.Trend(trend)
	sig.NotificationSent = notified != 0
	return &sig, nil
}

// MarkNotified re-inserts the row with the flag set; the replacing merge keeps
// the newest version per (ticker, trade_date).
func (s *CHSignalStore) MarkNotified(ctx context.Context, ticker, tradeDate string) error {
	sig, err := s.GetSignal(ctx, ticker, tradeDate)
	if err != nil {
		return err
	}
	if sig == nil {
		return fmt.Errorf("mark notified: no signal for %s@%s", ticker, tradeDate)
	}
	if sig.NotificationSent {
		return nil
	}
	sig.NotificationSent = true
	sig.GeneratedAt = time.Now()
	return s.UpsertSignals(ctx, []models.SqueezeSignal{*sig})
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var _ domrepo.SignalStore = (*CHSignalStore)(nil)
