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

// CHCBStore implements CBStore backed by ClickHouse.
type CHCBStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHCBStore(ch *pkgch.Client) *CHCBStore {
	return &CHCBStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCBStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCBStore) ActiveIssuance(ctx context.Context) ([]models.CBIssuance, error) {
	const q = `
        SELECT cb_ticker, cb_name, underlying_ticker, conversion_price,
               trigger_ratio, trigger_days, total_issued, outstanding,
               redemption_called, active
        FROM squeezewatch.cb_issuance FINAL
        WHERE active = 1
        ORDER BY cb_ticker ASC
    `
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("active issuance: %w", err)
	}
	defer rows.Close()

	out := make([]models.CBIssuance, 0, 32)
	for rows.Next() {
		var (
			b         models.CBIssuance
			called    uint8
			activeCol uint8
		)
		if err := rows.Scan(
			&b.CBTicker, &b.CBName, &b.UnderlyingTicker, &b.ConversionPrice,
			&b.TriggerRatio, &b.TriggerDays, &b.TotalIssued, &b.Outstanding,
			&called, &activeCol,
		); err != nil {
			return nil, fmt.Errorf("scan issuance: %w", err)
		}
		b.RedemptionCalled = called != 0
		b.Active = activeCol != 0
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *CHCBStore) UpsertIssuance(ctx context.Context, rows []models.CBIssuance) error {
	if len(rows) == 0 {
		return nil
	}
	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*10)
	for _, b := range rows {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			b.CBTicker, b.CBName, b.UnderlyingTicker, b.ConversionPrice,
			b.TriggerRatio, b.TriggerDays, b.TotalIssued, b.Outstanding,
			boolToUInt8(b.RedemptionCalled), boolToUInt8(b.Active),
		)
	}
	stmt := fmt.Sprintf(
		`INSERT INTO squeezewatch.cb_issuance (cb_ticker, cb_name, underlying_ticker, conversion_price,
            trigger_ratio, trigger_days, total_issued, outstanding, redemption_called, active) VALUES %s`,
		strings.Join(values, ","),
	)
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert issuance: %w", err)
	}
	return nil
}

const cbTrackingColumns = `cb_ticker, underlying_ticker, trade_date, close_price, conversion_price,
    price_ratio, above_trigger, consecutive_days, days_remaining, trigger_progress,
    outstanding, balance_change_pct, warning_level, comment, evaluated_at`

func (s *CHCBStore) LatestState(ctx context.Context, cbTicker, beforeDate string) (*models.CBTracking, error) {
	date, err := util.ParseTradeDate(beforeDate)
	if err != nil {
		return nil, err
	}
	const q = `
        SELECT ` + cbTrackingColumns + `
        FROM squeezewatch.cb_tracking FINAL
        WHERE cb_ticker = ? AND trade_date < ?
        ORDER BY trade_date DESC
        LIMIT 1
    `
	row := s.db.QueryRowContext(ctx, q, cbTicker, date)
	t, err := scanCBTracking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse cb_latest_state error",
				applogger.String("cb_ticker", cbTicker),
				applogger.String("before", beforeDate),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest cb state: %w", err)
	}
	return t, nil
}

func (s *CHCBStore) UpsertTracking(ctx context.Context, rows []models.CBTracking) error {
	if len(rows) == 0 {
		return nil
	}
	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*15)
	for _, t := range rows {
		date, err := util.ParseTradeDate(t.TradeDate)
		if err != nil {
			return fmt.Errorf("upsert tracking: %w", err)
		}
		evaluated := t.EvaluatedAt
		if evaluated.IsZero() {
			evaluated = time.Now()
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			t.CBTicker, t.UnderlyingTicker, date, t.ClosePrice, t.ConversionPrice,
			t.PriceRatio, boolToUInt8(t.AboveTrigger), t.ConsecutiveDays, t.DaysRemaining, t.TriggerProgress,
			t.Outstanding, t.BalanceChangePct, string(t.WarningLevel), t.Comment, evaluated,
		)
	}
	stmt := fmt.Sprintf("INSERT INTO squeezewatch.cb_tracking (%s) VALUES %s", cbTrackingColumns, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse upsert_tracking error", applogger.Int("rows", len(rows)), applogger.Error(err))
		}
		return fmt.Errorf("upsert tracking: %w", err)
	}
	return nil
}

func (s *CHCBStore) WarningsByDate(ctx context.Context, tradeDate string, minLevel models.WarningLevel, limit int) ([]models.CBTracking, error) {
	date, err := util.ParseTradeDate(tradeDate)
	if err != nil {
		return nil, err
	}
	levels := levelsAtOrAbove(minLevel)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(levels)), ",")
	q := fmt.Sprintf(`
        SELECT `+cbTrackingColumns+`
        FROM squeezewatch.cb_tracking FINAL
        WHERE trade_date = ? AND warning_level IN (%s)
        ORDER BY consecutive_days DESC, cb_ticker ASC
    `, placeholders)
	args := make([]interface{}, 0, len(levels)+2)
	args = append(args, date)
	for _, lv := range levels {
		args = append(args, string(lv))
	}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("cb warnings: %w", err)
	}
	defer rows.Close()

	out := make([]models.CBTracking, 0, 32)
	for rows.Next() {
		t, err := scanCBTracking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracking: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *CHCBStore) SummaryByDate(ctx context.Context, tradeDate string) (*models.CBWarningSummary, error) {
	date, err := util.ParseTradeDate(tradeDate)
	if err != nil {
		return nil, err
	}
	const q = `
        SELECT count(),
               countIf(warning_level = 'CRITICAL'),
               countIf(warning_level = 'WARNING'),
               countIf(warning_level = 'CAUTION'),
               countIf(warning_level = 'SAFE')
        FROM squeezewatch.cb_tracking FINAL
        WHERE trade_date = ?
    `
	sum := &models.CBWarningSummary{TradeDate: tradeDate}
	if err := s.db.QueryRowContext(ctx, q, date).Scan(
		&sum.Total, &sum.CriticalCount, &sum.WarningCount, &sum.CautionCount, &sum.SafeCount,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sum, nil
		}
		return nil, fmt.Errorf("cb summary: %w", err)
	}
	return sum, nil
}

func scanCBTracking(r rowScanner) (*models.CBTracking, error) {
	var (
		t     models.CBTracking
		date  time.Time
		above uint8
		level string
	)
	if err := r.Scan(
		&t.CBTicker, &t.UnderlyingTicker, &date, &t.ClosePrice, &t.ConversionPrice,
		&t.PriceRatio, &above, &t.ConsecutiveDays, &t.DaysRemaining, &t.TriggerProgress,
		&t.Outstanding, &t.BalanceChangePct, &level, &t.Comment, &t.EvaluatedAt,
	); err != nil {
		return nil, err
	}
	t.TradeDate = util.FormatTradeDate(date)
	t.AboveTrigger = above != 0
	t.WarningLevel = models.WarningLevel(level)
	return &t, nil
}

func levelsAtOrAbove(min models.WarningLevel) []models.WarningLevel {
	all := []models.WarningLevel{models.WarnSafe, models.WarnCaution, models.WarnWarning, models.WarnCritical}
	out := make([]models.WarningLevel, 0, len(all))
	for _, lv := range all {
		if lv.Rank() >= min.Rank() {
			out = append(out, lv)
		}
	}
	return out
}

var _ domrepo.CBStore = (*CHCBStore)(nil)
