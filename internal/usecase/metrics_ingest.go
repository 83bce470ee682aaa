package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SqueezeWatch/internal/domain/models"
	domrepo "SqueezeWatch/internal/domain/repository"
	pkgkafka "SqueezeWatch/pkg/kafka"
	applogger "SqueezeWatch/pkg/logger"
)

// DailyMetricsHandler consumes end-of-day metric messages and upserts them
// into storage. Re-delivered messages land on the same (ticker, trade_date)
// key, so replays are harmless.
type DailyMetricsHandler struct {
	topic   string
	store   domrepo.MetricStore
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func NewDailyMetricsHandler(topic string, store domrepo.MetricStore, metrics domrepo.Metrics, log *applogger.Logger) *DailyMetricsHandler {
	return &DailyMetricsHandler{topic: topic, store: store, metrics: metrics, log: log}
}

func (h *DailyMetricsHandler) Topic() string { return h.topic }

func (h *DailyMetricsHandler) Handle(ctx context.Context, b []byte) error {
	var m models.DailyMetric
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("metrics_unmarshal")
		return err
	}
	if m.Ticker == "" || m.TradeDate == "" {
		h.metrics.RecordError("metrics_invalid")
		return fmt.Errorf("daily metric missing ticker or trade_date")
	}

	start := time.Now()
	if err := h.store.UpsertMetrics(ctx, []models.DailyMetric{m}); err != nil {
		h.metrics.RecordError("metrics_store")
		return err
	}
	h.metrics.RecordLatency("metric_upsert", time.Since(start).Seconds())
	if h.log != nil {
		h.log.Debug("metric ingested", applogger.String("ticker", m.Ticker), applogger.String("date", m.TradeDate))
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*DailyMetricsHandler)(nil)

// WarrantQuotesHandler consumes warrant quote snapshots for the implied
// volatility input.
type WarrantQuotesHandler struct {
	topic   string
	store   domrepo.WarrantStore
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func NewWarrantQuotesHandler(topic string, store domrepo.WarrantStore, metrics domrepo.Metrics, log *applogger.Logger) *WarrantQuotesHandler {
	return &WarrantQuotesHandler{topic: topic, store: store, metrics: metrics, log: log}
}

func (h *WarrantQuotesHandler) Topic() string { return h.topic }

func (h *WarrantQuotesHandler) Handle(ctx context.Context, b []byte) error {
	var q models.WarrantQuote
	if err := json.Unmarshal(b, &q); err != nil {
		h.metrics.RecordError("warrants_unmarshal")
		return err
	}
	if q.WarrantID == "" || q.TradeDate == "" {
		h.metrics.RecordError("warrants_invalid")
		return fmt.Errorf("warrant quote missing warrant_id or trade_date")
	}

	start := time.Now()
	if err := h.store.UpsertQuotes(ctx, []models.WarrantQuote{q}); err != nil {
		h.metrics.RecordError("warrants_store")
		return err
	}
	h.metrics.RecordLatency("warrant_upsert", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*WarrantQuotesHandler)(nil)
