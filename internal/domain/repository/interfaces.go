package repository

import (
	"context"

	"SqueezeWatch/internal/domain/models"
)

// MetricStore is the keyed record store for daily per-ticker metrics.
// Upserts replace by (ticker, trade_date).
type MetricStore interface {
	UpsertMetrics(ctx context.Context, rows []models.DailyMetric) error
	GetMetric(ctx context.Context, ticker, tradeDate string) (*models.DailyMetric, error)
	GetByDate(ctx context.Context, tradeDate string) ([]models.DailyMetric, error)
	GetRange(ctx context.Context, ticker, from, to string) ([]models.DailyMetric, error)
	TradeDates(ctx context.Context, from, to string) ([]string, error)
	LatestTradeDate(ctx context.Context) (string, error)
}

// WarrantStore reads and writes warrant quotes keyed by (warrant_id, trade_date).
type WarrantStore interface {
	UpsertQuotes(ctx context.Context, rows []models.WarrantQuote) error
	// AvgImpliedVol aggregates implied volatility across a ticker's warrants
	// for one date; ok=false when the ticker had no quotes that day.
	AvgImpliedVol(ctx context.Context, underlying, tradeDate string) (iv float64, ok bool, err error)
}

// SignalStore persists squeeze signals keyed by (ticker, trade_date).
// Rows are never deleted; MarkNotified is the only post-write mutation.
type SignalStore interface {
	UpsertSignals(ctx context.Context, rows []models.SqueezeSignal) error
	GetSignal(ctx context.Context, ticker, tradeDate string) (*models.SqueezeSignal, error)
	MarkNotified(ctx context.Context, ticker, tradeDate string) error
}

// CBStore persists convertible-bond issuance and per-date tracking state.
type CBStore interface {
	ActiveIssuance(ctx context.Context) ([]models.CBIssuance, error)
	// LatestState returns the bond's most recent tracking row strictly before
	// beforeDate, so re-running a date never double-counts it; nil when the
	// bond has no earlier evaluation.
	LatestState(ctx context.Context, cbTicker, beforeDate string) (*models.CBTracking, error)
	UpsertTracking(ctx context.Context, rows []models.CBTracking) error
	WarningsByDate(ctx context.Context, tradeDate string, minLevel models.WarningLevel, limit int) ([]models.CBTracking, error)
	SummaryByDate(ctx context.Context, tradeDate string) (*models.CBWarningSummary, error)
}

// TickerStore is the tracked-ticker registry.
type TickerStore interface {
	ActiveTickers(ctx context.Context) ([]string, error)
	UpsertTicker(ctx context.Context, t models.TrackedTicker) error
}

// ConfigStore is the runtime-adjustable key/value configuration.
type ConfigStore interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// AlertPublisher emits signal and CB warning events to the notification
// collaborator (delivery itself is out of process).
type AlertPublisher interface {
	PublishSignalAlerts(ctx context.Context, signals []models.SqueezeSignal) error
	PublishCBAlerts(ctx context.Context, warnings []models.CBTracking) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordSignalComputed(trend string)
	RecordError(kind string)
	RecordLastScore(ticker string, score float64)
	RecordLatency(op string, seconds float64)
	RecordEngineUp(up bool)
}
