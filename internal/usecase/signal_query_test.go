package usecase

import (
	"context"
	"errors"
	"testing"

	"SqueezeWatch/internal/domain/models"
	engine "SqueezeWatch/internal/services/engine"
)

type fakeEngine struct {
	err    error
	signal *models.SqueezeSignal
}

func (f *fakeEngine) GetSignal(_ context.Context, ticker, tradeDate string) (*models.SqueezeSignal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.signal, nil
}

func (f *fakeEngine) GetBatchSignals(_ context.Context, tickers []string, tradeDate string) (*models.BatchSignals, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &models.BatchSignals{TradeDate: tradeDate}
	for _, tk := range tickers {
		out.Results = append(out.Results, models.BatchSignalEntry{Ticker: tk, Signal: f.signal})
	}
	return out, nil
}

func (f *fakeEngine) GetTopCandidates(_ context.Context, tradeDate string, limit, minScore int) (*models.TopCandidates, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.TopCandidates{TradeDate: tradeDate}, nil
}

type fakeSignalStore struct {
	rows map[string]models.SqueezeSignal // ticker+date
}

func (f *fakeSignalStore) UpsertSignals(_ context.Context, rows []models.SqueezeSignal) error {
	for _, r := range rows {
		if f.rows == nil {
			f.rows = map[string]models.SqueezeSignal{}
		}
		f.rows[r.Ticker+"@"+r.TradeDate] = r
	}
	return nil
}

func (f *fakeSignalStore) GetSignal(_ context.Context, ticker, tradeDate string) (*models.SqueezeSignal, error) {
	if s, ok := f.rows[ticker+"@"+tradeDate]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeSignalStore) MarkNotified(_ context.Context, ticker, tradeDate string) error {
	if s, ok := f.rows[ticker+"@"+tradeDate]; ok {
		s.NotificationSent = true
		f.rows[ticker+"@"+tradeDate] = s
	}
	return nil
}

func TestQuerySinglePassThrough(t *testing.T) {
	eng := &fakeEngine{signal: &models.SqueezeSignal{Ticker: "7203", Score: 80, Trend: models.TrendBullish}}
	q := NewSignalQueryService(eng, &fakeSignalStore{}, nil, nil)

	sig, err := q.Single(context.Background(), "7203", "2026-01-05")
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if sig.Score != 80 {
		t.Fatalf("live signal not returned: %+v", sig)
	}
}

func TestQuerySingleFallsBackToStored(t *testing.T) {
	store := &fakeSignalStore{}
	_ = store.UpsertSignals(context.Background(), []models.SqueezeSignal{
		{Ticker: "7203", TradeDate: "2026-01-05", Score: 72, Trend: models.TrendBullish},
	})
	q := NewSignalQueryService(&fakeEngine{err: engine.ErrUnavailable}, store, nil, nil)

	sig, err := q.Single(context.Background(), "7203", "2026-01-05")
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if sig.Score != 72 || sig.Trend != models.TrendBullish {
		t.Fatalf("stored row expected, got %+v", sig)
	}
}

func TestQuerySingleDegradedPlaceholder(t *testing.T) {
	q := NewSignalQueryService(&fakeEngine{err: engine.ErrUnavailable}, &fakeSignalStore{}, nil, nil)

	sig, err := q.Single(context.Background(), "7203", "2026-01-05")
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if sig.Trend != models.TrendDegraded {
		t.Fatalf("trend = %s, want DEGRADED", sig.Trend)
	}
	if sig.Score != 0 || sig.Factors.Borrow != nil {
		t.Fatalf("degraded signal must not carry a score or factors: %+v", sig)
	}
}

func TestQuerySingleOtherErrorsPropagate(t *testing.T) {
	q := NewSignalQueryService(&fakeEngine{err: engine.ErrInvalidRequest}, &fakeSignalStore{}, nil, nil)
	if _, err := q.Single(context.Background(), "7203", ""); !errors.Is(err, engine.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest to propagate, got %v", err)
	}
}

func TestQueryBatchDegradedPerTicker(t *testing.T) {
	store := &fakeSignalStore{}
	_ = store.UpsertSignals(context.Background(), []models.SqueezeSignal{
		{Ticker: "7203", TradeDate: "2026-01-05", Score: 68},
	})
	q := NewSignalQueryService(&fakeEngine{err: engine.ErrUnavailable}, store, nil, nil)

	batch, err := q.Batch(context.Background(), []string{"7203", "9984"}, "2026-01-05")
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(batch.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(batch.Results))
	}
	if batch.Results[0].Signal.Score != 68 {
		t.Fatalf("stored fallback expected for 7203: %+v", batch.Results[0])
	}
	if batch.Results[1].Signal.Trend != models.TrendDegraded {
		t.Fatalf("degraded placeholder expected for 9984: %+v", batch.Results[1])
	}
}

func TestQueryTopHasNoDegradedForm(t *testing.T) {
	q := NewSignalQueryService(&fakeEngine{err: engine.ErrUnavailable}, &fakeSignalStore{}, nil, nil)
	if _, err := q.Top(context.Background(), "2026-01-05", 10, 70); !errors.Is(err, engine.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable to surface, got %v", err)
	}
}
