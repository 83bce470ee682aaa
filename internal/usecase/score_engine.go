package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"SqueezeWatch/internal/domain/models"
	domrepo "SqueezeWatch/internal/domain/repository"
	"SqueezeWatch/internal/scoring"
	applogger "SqueezeWatch/pkg/logger"
)

// ErrNoData means no metric row exists for the requested ticker and date.
var ErrNoData = errors.New("usecase: no metric data for ticker/date")

// ScoreUseCase is the engine-side query implementation: it joins stored
// metrics with warrant implied volatility and runs the scorer.
type ScoreUseCase struct {
	metrics  domrepo.MetricStore
	warrants domrepo.WarrantStore
	cfg      *ConfigService
	rec      domrepo.Metrics
	log      *applogger.Logger
}

func NewScoreUseCase(metrics domrepo.MetricStore, warrants domrepo.WarrantStore, cfg *ConfigService, rec domrepo.Metrics, log *applogger.Logger) *ScoreUseCase {
	return &ScoreUseCase{metrics: metrics, warrants: warrants, cfg: cfg, rec: rec, log: log}
}

func (u *ScoreUseCase) resolveDate(ctx context.Context, tradeDate string) (string, error) {
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

// Single scores one ticker for a date (latest when empty).
func (u *ScoreUseCase) Single(ctx context.Context, ticker, tradeDate string) (*models.SqueezeSignal, error) {
	date, err := u.resolveDate(ctx, tradeDate)
	if err != nil {
		return nil, err
	}
	sig, err := u.score(ctx, ticker, date, u.cfg.Scorer())
	if err != nil {
		return nil, err
	}
	return sig, nil
}

func (u *ScoreUseCase) score(ctx context.Context, ticker, date string, scorer *scoring.Scorer) (*models.SqueezeSignal, error) {
	start := time.Now()
	m, err := u.metrics.GetMetric(ctx, ticker, date)
	if err != nil {
		return nil, fmt.Errorf("load metric %s@%s: %w", ticker, date, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s@%s", ErrNoData, ticker, date)
	}

	iv, hasIV, err := u.warrants.AvgImpliedVol(ctx, ticker, date)
	if err != nil {
		return nil, fmt.Errorf("load warrant iv %s@%s: %w", ticker, date, err)
	}

	fs := scorer.ScoreMetric(m, iv, hasIV)
	sig, err := scorer.Evaluate(ticker, date, fs)
	if err != nil {
		return nil, err
	}

	if u.rec != nil {
		u.rec.RecordSignalComputed(string(sig.Trend))
		u.rec.RecordLastScore(ticker, float64(sig.Score))
		u.rec.RecordLatency("score_single", time.Since(start).Seconds())
	}
	return sig, nil
}

// Batch scores many tickers for one date. Tickers without data are marked
// missing, never dropped; other per-ticker failures carry their error text.
func (u *ScoreUseCase) Batch(ctx context.Context, tickers []string, tradeDate string) (*models.BatchSignals, error) {
	date, err := u.resolveDate(ctx, tradeDate)
	if err != nil {
		return nil, err
	}

	scorer := u.cfg.Scorer()
	out := &models.BatchSignals{TradeDate: date, Results: make([]models.BatchSignalEntry, 0, len(tickers))}
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sig, err := u.score(ctx, ticker, date, scorer)
		switch {
		case err == nil:
			out.Results = append(out.Results, models.BatchSignalEntry{Ticker: ticker, Signal: sig})
		case errors.Is(err, ErrNoData) || errors.Is(err, scoring.ErrInsufficientData):
			out.Results = append(out.Results, models.BatchSignalEntry{Ticker: ticker, Missing: true})
		default:
			if u.log != nil {
				u.log.Warn("batch scoring failed", applogger.String("ticker", ticker), applogger.Error(err))
			}
			out.Results = append(out.Results, models.BatchSignalEntry{Ticker: ticker, Error: err.Error()})
		}
	}
	return out, nil
}

// Top ranks a date's scores at or above minScore: descending by score, ties
// broken by ticker for determinism.
func (u *ScoreUseCase) Top(ctx context.Context, tradeDate string, limit, minScore int) (*models.TopCandidates, error) {
	date, err := u.resolveDate(ctx, tradeDate)
	if err != nil {
		return nil, err
	}
	rows, err := u.metrics.GetByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load metrics for %s: %w", date, err)
	}

	scorer := u.cfg.Scorer()
	candidates := make([]models.SqueezeSignal, 0, len(rows))
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := &rows[i]
		iv, hasIV, err := u.warrants.AvgImpliedVol(ctx, m.Ticker, date)
		if err != nil {
			return nil, fmt.Errorf("load warrant iv %s@%s: %w", m.Ticker, date, err)
		}
		sig, err := scorer.Evaluate(m.Ticker, date, scorer.ScoreMetric(m, iv, hasIV))
		if err != nil {
			if errors.Is(err, scoring.ErrInsufficientData) {
				continue
			}
			return nil, err
		}
		if sig.Score >= minScore {
			candidates = append(candidates, *sig)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Ticker < candidates[j].Ticker
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return &models.TopCandidates{TradeDate: date, Candidates: candidates, GeneratedAt: time.Now()}, nil
}
