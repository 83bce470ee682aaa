package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"SqueezeWatch/internal/domain/models"
)

type fakeTickerStore struct {
	active []string
}

func (f *fakeTickerStore) ActiveTickers(_ context.Context) ([]string, error) {
	return f.active, nil
}

func (f *fakeTickerStore) UpsertTicker(_ context.Context, _ models.TrackedTicker) error {
	return nil
}

// scriptedEngine scores every requested ticker with a per-ticker scripted
// signal and records the slices it was called with.
type scriptedEngine struct {
	signals map[string]models.SqueezeSignal
	calls   [][]string
}

func (f *scriptedEngine) GetSignal(_ context.Context, ticker, tradeDate string) (*models.SqueezeSignal, error) {
	if sig, ok := f.signals[ticker]; ok {
		return &sig, nil
	}
	return nil, ErrNoData
}

func (f *scriptedEngine) GetBatchSignals(_ context.Context, tickers []string, tradeDate string) (*models.BatchSignals, error) {
	f.calls = append(f.calls, append([]string(nil), tickers...))
	out := &models.BatchSignals{TradeDate: tradeDate}
	for _, tk := range tickers {
		if sig, ok := f.signals[tk]; ok {
			out.Results = append(out.Results, models.BatchSignalEntry{Ticker: tk, Signal: &sig})
		} else {
			out.Results = append(out.Results, models.BatchSignalEntry{Ticker: tk, Missing: true})
		}
	}
	return out, nil
}

func (f *scriptedEngine) GetTopCandidates(_ context.Context, tradeDate string, limit, minScore int) (*models.TopCandidates, error) {
	return &models.TopCandidates{TradeDate: tradeDate}, nil
}

type fakePublisher struct {
	err       error
	published []models.SqueezeSignal
}

func (f *fakePublisher) PublishSignalAlerts(_ context.Context, signals []models.SqueezeSignal) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, signals...)
	return nil
}

func (f *fakePublisher) PublishCBAlerts(_ context.Context, _ []models.CBTracking) error { return nil }

func (f *fakePublisher) Close() error { return nil }

func pipelineSignal(ticker string, trend models.Trend, notified bool) models.SqueezeSignal {
	return models.SqueezeSignal{
		Ticker:           ticker,
		TradeDate:        "2026-01-05",
		Score:            75,
		Trend:            trend,
		NotificationSent: notified,
	}
}

func newPipeline(tickers *fakeTickerStore, store *fakeSignalStore, eng *scriptedEngine, pub *fakePublisher) *DailyPipeline {
	return NewDailyPipeline(tickers, store, &fakeMetricStore{}, eng, nil, pub, nil, nil, nil)
}

func TestRunChunksLargeUniverse(t *testing.T) {
	universe := make([]string, 1001)
	signals := make(map[string]models.SqueezeSignal, len(universe))
	for i := range universe {
		tk := fmt.Sprintf("%04d", i)
		universe[i] = tk
		signals[tk] = pipelineSignal(tk, models.TrendNeutral, false)
	}
	eng := &scriptedEngine{signals: signals}
	store := &fakeSignalStore{}
	p := newPipeline(&fakeTickerStore{active: universe}, store, eng, &fakePublisher{})

	if err := p.Run(context.Background(), "2026-01-05"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(eng.calls) != 3 {
		t.Fatalf("batch calls = %d, want 3 for 1001 tickers", len(eng.calls))
	}
	total := 0
	for i, call := range eng.calls {
		if len(call) > 500 {
			t.Fatalf("call %d carries %d tickers, over the request cap", i, len(call))
		}
		total += len(call)
	}
	if total != len(universe) {
		t.Fatalf("tickers sent = %d, want every one of %d", total, len(universe))
	}
	if len(store.rows) != len(universe) {
		t.Fatalf("signals stored = %d, want %d", len(store.rows), len(universe))
	}
}

func TestRunPublishesThenMarksNotified(t *testing.T) {
	eng := &scriptedEngine{signals: map[string]models.SqueezeSignal{
		"7203": pipelineSignal("7203", models.TrendBullish, false),
		"6758": pipelineSignal("6758", models.TrendNeutral, false),
	}}
	store := &fakeSignalStore{}
	pub := &fakePublisher{}
	p := newPipeline(&fakeTickerStore{active: []string{"7203", "6758"}}, store, eng, pub)

	if err := p.Run(context.Background(), "2026-01-05"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0].Ticker != "7203" {
		t.Fatalf("only the bullish signal should be published: %+v", pub.published)
	}
	if got, _ := store.GetSignal(context.Background(), "7203", "2026-01-05"); got == nil || !got.NotificationSent {
		t.Fatalf("acknowledged publish must flip the notification flag: %+v", got)
	}
	if got, _ := store.GetSignal(context.Background(), "6758", "2026-01-05"); got == nil || got.NotificationSent {
		t.Fatalf("neutral signal must keep the flag unset: %+v", got)
	}
}

func TestRunPublishFailureLeavesFlagUnset(t *testing.T) {
	eng := &scriptedEngine{signals: map[string]models.SqueezeSignal{
		"7203": pipelineSignal("7203", models.TrendBullish, false),
	}}
	store := &fakeSignalStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	p := newPipeline(&fakeTickerStore{active: []string{"7203"}}, store, eng, pub)

	// A publish failure is logged, not fatal: the signals are already stored.
	if err := p.Run(context.Background(), "2026-01-05"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := store.GetSignal(context.Background(), "7203", "2026-01-05")
	if got == nil {
		t.Fatalf("signal must be persisted despite the publish failure")
	}
	if got.NotificationSent {
		t.Fatalf("failed publish must leave the notification flag unset")
	}
}

func TestRunSkipsAlreadyNotified(t *testing.T) {
	eng := &scriptedEngine{signals: map[string]models.SqueezeSignal{
		"7203": pipelineSignal("7203", models.TrendBullish, true),
		"9984": pipelineSignal("9984", models.TrendBullish, false),
	}}
	store := &fakeSignalStore{}
	pub := &fakePublisher{}
	p := newPipeline(&fakeTickerStore{active: []string{"7203", "9984"}}, store, eng, pub)

	if err := p.Run(context.Background(), "2026-01-05"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0].Ticker != "9984" {
		t.Fatalf("already-notified signal must not be re-published: %+v", pub.published)
	}
}
