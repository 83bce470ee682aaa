package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SqueezeWatch/internal/domain/models"
	domrepo "SqueezeWatch/internal/domain/repository"
	domsvc "SqueezeWatch/internal/domain/service"
	engine "SqueezeWatch/internal/services/engine"
	"SqueezeWatch/pkg/cache"
	applogger "SqueezeWatch/pkg/logger"
)

// ErrPipelineRunning means another process already holds the date's run lock.
var ErrPipelineRunning = errors.New("usecase: pipeline already running for date")

// scoreBatchSize matches the engine's per-request ticker cap; the nightly
// universe goes out in slices of this size.
const scoreBatchSize = 500

// Broadcaster pushes freshly computed signals to live subscribers.
type Broadcaster interface {
	BroadcastSignal(sig models.SqueezeSignal)
}

// DailyPipeline is the nightly run: score the tracked universe through the
// engine client, persist the signals, emit alert events, then evaluate CB
// trigger state for the date.
type DailyPipeline struct {
	tickers domrepo.TickerStore
	signals domrepo.SignalStore
	metrics domrepo.MetricStore
	engine  domsvc.SignalEngine
	cbRun   *CBTrackingUseCase
	alerts  domrepo.AlertPublisher
	locker  cache.Service
	hub     Broadcaster
	rec     domrepo.Metrics
	log     *applogger.Logger
}

func NewDailyPipeline(
	tickers domrepo.TickerStore,
	signals domrepo.SignalStore,
	metrics domrepo.MetricStore,
	eng domsvc.SignalEngine,
	cbRun *CBTrackingUseCase,
	alerts domrepo.AlertPublisher,
	locker cache.Service,
	rec domrepo.Metrics,
	log *applogger.Logger,
) *DailyPipeline {
	return &DailyPipeline{
		tickers: tickers,
		signals: signals,
		metrics: metrics,
		engine:  eng,
		cbRun:   cbRun,
		alerts:  alerts,
		locker:  locker,
		rec:     rec,
		log:     log,
	}
}

// SetBroadcaster attaches the live feed hub.
func (p *DailyPipeline) SetBroadcaster(b Broadcaster) { p.hub = b }

// Run executes the pipeline for one trade date (latest stored when empty).
func (p *DailyPipeline) Run(ctx context.Context, tradeDate string) error {
	start := time.Now()
	if tradeDate == "" {
		latest, err := p.metrics.LatestTradeDate(ctx)
		if err != nil {
			return fmt.Errorf("resolve trade date: %w", err)
		}
		if latest == "" {
			return ErrNoData
		}
		tradeDate = latest
	}

	if p.locker != nil {
		ok, err := p.locker.TryLock(ctx, "pipeline:"+tradeDate, 30*time.Minute)
		if err != nil {
			return fmt.Errorf("pipeline lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrPipelineRunning, tradeDate)
		}
		defer func() { _ = p.locker.Unlock(context.WithoutCancel(ctx), "pipeline:"+tradeDate) }()
	}

	universe, err := p.tickers.ActiveTickers(ctx)
	if err != nil {
		return fmt.Errorf("load tracked tickers: %w", err)
	}
	if p.log != nil {
		p.log.Info("pipeline started", applogger.String("date", tradeDate), applogger.Int("tickers", len(universe)))
	}

	batch, err := p.scoreUniverse(ctx, universe, tradeDate)
	if err != nil {
		if errors.Is(err, engine.ErrUnavailable) && p.rec != nil {
			p.rec.RecordError("engine_unavailable")
		}
		return fmt.Errorf("batch scoring %s: %w", tradeDate, err)
	}

	computed := make([]models.SqueezeSignal, 0, len(batch.Results))
	for _, entry := range batch.Results {
		switch {
		case entry.Signal != nil:
			computed = append(computed, *entry.Signal)
		case entry.Missing:
			if p.log != nil {
				p.log.Debug("no data for ticker", applogger.String("ticker", entry.Ticker))
			}
		default:
			if p.log != nil {
				p.log.Warn("scoring failed", applogger.String("ticker", entry.Ticker), applogger.String("reason", entry.Error))
			}
			if p.rec != nil {
				p.rec.RecordError("score_failed")
			}
		}
	}

	if len(computed) > 0 {
		if err := p.signals.UpsertSignals(ctx, computed); err != nil {
			return fmt.Errorf("persist signals: %w", err)
		}
	}

	if p.hub != nil {
		for _, sig := range computed {
			p.hub.BroadcastSignal(sig)
		}
	}

	if err := p.notifyBullish(ctx, computed); err != nil && p.log != nil {
		p.log.Warn("alert publish failed", applogger.Error(err))
	}

	if p.cbRun != nil {
		if _, err := p.cbRun.RunDate(ctx, tradeDate); err != nil {
			return fmt.Errorf("cb tracking %s: %w", tradeDate, err)
		}
	}

	if p.rec != nil {
		p.rec.RecordLatency("pipeline_run", time.Since(start).Seconds())
	}
	if p.log != nil {
		p.log.Info("pipeline finished",
			applogger.String("date", tradeDate),
			applogger.Int("signals", len(computed)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// scoreUniverse scores the universe in engine-sized slices and merges the
// chunk results, so every tracked ticker appears in the output no matter how
// large the universe grows.
func (p *DailyPipeline) scoreUniverse(ctx context.Context, universe []string, tradeDate string) (*models.BatchSignals, error) {
	out := &models.BatchSignals{TradeDate: tradeDate, Results: make([]models.BatchSignalEntry, 0, len(universe))}
	for start := 0; start < len(universe); start += scoreBatchSize {
		end := start + scoreBatchSize
		if end > len(universe) {
			end = len(universe)
		}
		batch, err := p.engine.GetBatchSignals(ctx, universe[start:end], tradeDate)
		if err != nil {
			return nil, err
		}
		out.TradeDate = batch.TradeDate
		out.Results = append(out.Results, batch.Results...)
	}
	return out, nil
}

// notifyBullish publishes alert events for bullish signals and flips their
// notification flag once the publish is acknowledged.
func (p *DailyPipeline) notifyBullish(ctx context.Context, signals []models.SqueezeSignal) error {
	if p.alerts == nil {
		return nil
	}
	bullish := make([]models.SqueezeSignal, 0, len(signals))
	for _, sig := range signals {
		if sig.Trend == models.TrendBullish && !sig.NotificationSent {
			bullish = append(bullish, sig)
		}
	}
	if len(bullish) == 0 {
		return nil
	}
	if err := p.alerts.PublishSignalAlerts(ctx, bullish); err != nil {
		if p.rec != nil {
			p.rec.RecordError("signal_alert_publish")
		}
		return err
	}
	for _, sig := range bullish {
		if err := p.signals.MarkNotified(ctx, sig.Ticker, sig.TradeDate); err != nil {
			return fmt.Errorf("mark notified %s@%s: %w", sig.Ticker, sig.TradeDate, err)
		}
	}
	return nil
}
