package usecase

import (
	"context"
	"errors"

	"SqueezeWatch/internal/domain/models"
	domrepo "SqueezeWatch/internal/domain/repository"
	domsvc "SqueezeWatch/internal/domain/service"
	engine "SqueezeWatch/internal/services/engine"
	applogger "SqueezeWatch/pkg/logger"
)

// SignalQueryService answers caller-facing signal queries through the scoring
// engine, degrading to stored rows when the engine is unreachable so reads
// keep working through an engine outage.
type SignalQueryService struct {
	engine  domsvc.SignalEngine
	signals domrepo.SignalStore
	rec     domrepo.Metrics
	log     *applogger.Logger
}

func NewSignalQueryService(eng domsvc.SignalEngine, signals domrepo.SignalStore, rec domrepo.Metrics, log *applogger.Logger) *SignalQueryService {
	return &SignalQueryService{engine: eng, signals: signals, rec: rec, log: log}
}

// Single returns the live signal, or a stored/degraded one when the engine is
// down. Degraded responses carry identity only, never a stale-looking score.
func (s *SignalQueryService) Single(ctx context.Context, ticker, tradeDate string) (*models.SqueezeSignal, error) {
	sig, err := s.engine.GetSignal(ctx, ticker, tradeDate)
	if err == nil {
		s.recordEngine(true)
		return sig, nil
	}
	if !errors.Is(err, engine.ErrUnavailable) {
		return nil, err
	}
	s.recordEngine(false)
	return s.fallback(ctx, ticker, tradeDate), nil
}

// Batch mirrors Single per ticker when the engine is down: stored rows where
// they exist, degraded placeholders otherwise.
func (s *SignalQueryService) Batch(ctx context.Context, tickers []string, tradeDate string) (*models.BatchSignals, error) {
	batch, err := s.engine.GetBatchSignals(ctx, tickers, tradeDate)
	if err == nil {
		s.recordEngine(true)
		return batch, nil
	}
	if !errors.Is(err, engine.ErrUnavailable) {
		return nil, err
	}
	s.recordEngine(false)

	out := &models.BatchSignals{TradeDate: tradeDate, Results: make([]models.BatchSignalEntry, 0, len(tickers))}
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Results = append(out.Results, models.BatchSignalEntry{
			Ticker: ticker,
			Signal: s.fallback(ctx, ticker, tradeDate),
		})
	}
	return out, nil
}

// Top has no degraded form: ranking needs fresh scores across the whole
// universe, so engine errors surface to the caller.
func (s *SignalQueryService) Top(ctx context.Context, tradeDate string, limit, minScore int) (*models.TopCandidates, error) {
	top, err := s.engine.GetTopCandidates(ctx, tradeDate, limit, minScore)
	if err != nil {
		if errors.Is(err, engine.ErrUnavailable) {
			s.recordEngine(false)
		}
		return nil, err
	}
	s.recordEngine(true)
	return top, nil
}

func (s *SignalQueryService) fallback(ctx context.Context, ticker, tradeDate string) *models.SqueezeSignal {
	if s.signals != nil && tradeDate != "" {
		stored, err := s.signals.GetSignal(ctx, ticker, tradeDate)
		if err != nil && s.log != nil {
			s.log.Warn("stored signal fallback failed", applogger.String("ticker", ticker), applogger.Error(err))
		}
		if stored != nil {
			return stored
		}
	}
	return models.DegradedSignal(ticker, tradeDate)
}

func (s *SignalQueryService) recordEngine(up bool) {
	if s.rec != nil {
		s.rec.RecordEngineUp(up)
		if !up {
			s.rec.RecordError("engine_unavailable")
		}
	}
}
