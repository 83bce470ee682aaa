package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SqueezeWatch/internal/cbtrigger"
	"SqueezeWatch/internal/domain/models"
	domrepo "SqueezeWatch/internal/domain/repository"
	applogger "SqueezeWatch/pkg/logger"
)

// CBTrackingUseCase runs the daily trigger transition for every active bond.
// The storage layer's upsert keyed by (bond, trade_date) serializes re-runs
// of the same date; bonds are independent of each other.
type CBTrackingUseCase struct {
	cb      domrepo.CBStore
	metrics domrepo.MetricStore
	cfg     *ConfigService
	alerts  domrepo.AlertPublisher
	rec     domrepo.Metrics
	log     *applogger.Logger
}

func NewCBTrackingUseCase(cb domrepo.CBStore, metrics domrepo.MetricStore, cfg *ConfigService, alerts domrepo.AlertPublisher, rec domrepo.Metrics, log *applogger.Logger) *CBTrackingUseCase {
	return &CBTrackingUseCase{cb: cb, metrics: metrics, cfg: cfg, alerts: alerts, rec: rec, log: log}
}

// RunDate evaluates all active bonds for one trade date and upserts the
// resulting tracking rows. Bonds whose underlying has no metric that day or
// whose inputs are invalid are skipped; their prior state stays untouched.
func (u *CBTrackingUseCase) RunDate(ctx context.Context, tradeDate string) ([]models.CBTracking, error) {
	start := time.Now()
	issuance, err := u.cb.ActiveIssuance(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cb issuance: %w", err)
	}

	rows := make([]models.CBTracking, 0, len(issuance))
	for _, bond := range issuance {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, err := u.metrics.GetMetric(ctx, bond.UnderlyingTicker, tradeDate)
		if err != nil {
			return nil, fmt.Errorf("load metric %s@%s: %w", bond.UnderlyingTicker, tradeDate, err)
		}
		if m == nil {
			u.warn("cb underlying has no metric", bond.CBTicker, nil)
			continue
		}

		prevRow, err := u.cb.LatestState(ctx, bond.CBTicker, tradeDate)
		if err != nil {
			return nil, fmt.Errorf("load cb state %s: %w", bond.CBTicker, err)
		}
		var prev cbtrigger.State
		if prevRow != nil {
			prev = cbtrigger.State{
				ConsecutiveDays: prevRow.ConsecutiveDays,
				Outstanding:     prevRow.Outstanding,
				LastTradeDate:   prevRow.TradeDate,
			}
		}

		params := u.paramsFor(bond)
		res, err := cbtrigger.Evaluate(cbtrigger.Input{
			CBTicker:         bond.CBTicker,
			UnderlyingTicker: bond.UnderlyingTicker,
			TradeDate:        tradeDate,
			ClosePrice:       m.ClosePrice,
			ConversionPrice:  bond.ConversionPrice,
			Outstanding:      bond.Outstanding,
		}, prev, params)
		if err != nil {
			if errors.Is(err, cbtrigger.ErrInvalidInput) {
				u.warn("cb transition rejected", bond.CBTicker, err)
				continue
			}
			return nil, err
		}
		rows = append(rows, *res)
	}

	if len(rows) > 0 {
		if err := u.cb.UpsertTracking(ctx, rows); err != nil {
			return nil, fmt.Errorf("upsert cb tracking: %w", err)
		}
	}

	if u.alerts != nil {
		alerting := make([]models.CBTracking, 0, len(rows))
		for _, r := range rows {
			if r.WarningLevel.Rank() >= models.WarnCaution.Rank() {
				alerting = append(alerting, r)
			}
		}
		if len(alerting) > 0 {
			if err := u.alerts.PublishCBAlerts(ctx, alerting); err != nil {
				u.warn("cb alert publish failed", tradeDate, err)
				if u.rec != nil {
					u.rec.RecordError("cb_alert_publish")
				}
			}
		}
	}

	if u.rec != nil {
		u.rec.RecordLatency("cb_tracking_run", time.Since(start).Seconds())
	}
	return rows, nil
}

// Warnings lists tracking rows at or above minLevel for one date (latest
// stored when empty), most progressed bonds first.
func (u *CBTrackingUseCase) Warnings(ctx context.Context, tradeDate string, minLevel models.WarningLevel, limit int) ([]models.CBTracking, error) {
	date, err := u.resolveDate(ctx, tradeDate)
	if err != nil {
		return nil, err
	}
	rows, err := u.cb.WarningsByDate(ctx, date, minLevel, limit)
	if err != nil {
		return nil, fmt.Errorf("cb warnings %s: %w", date, err)
	}
	return rows, nil
}

// Summary aggregates one date's tracking rows by warning level.
func (u *CBTrackingUseCase) Summary(ctx context.Context, tradeDate string) (*models.CBWarningSummary, error) {
	date, err := u.resolveDate(ctx, tradeDate)
	if err != nil {
		return nil, err
	}
	sum, err := u.cb.SummaryByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("cb summary %s: %w", date, err)
	}
	return sum, nil
}

func (u *CBTrackingUseCase) resolveDate(ctx context.Context, tradeDate string) (string, error) {
	if tradeDate != "" {
		return tradeDate, nil
	}
	latest, err := u.metrics.LatestTradeDate(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve trade date: %w", err)
	}
	if latest == "" {
		return "", ErrNoData
	}
	return latest, nil
}

// paramsFor prefers the bond-specific clause, falling back to the global
// defaults for issuance rows without one.
func (u *CBTrackingUseCase) paramsFor(bond models.CBIssuance) cbtrigger.Params {
	p := u.cfg.CBDefaults()
	if bond.TriggerRatio > 0 {
		p.TriggerRatio = bond.TriggerRatio
	}
	if bond.TriggerDays > 0 {
		p.TriggerDays = bond.TriggerDays
	}
	return p
}

func (u *CBTrackingUseCase) warn(msg, key string, err error) {
	if u.log == nil {
		return
	}
	fields := []applogger.Field{applogger.String("key", key)}
	if err != nil {
		fields = append(fields, applogger.Error(err))
	}
	u.log.Warn(msg, fields...)
}
