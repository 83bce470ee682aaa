package usecase

import (
	"context"
	"testing"

	"SqueezeWatch/internal/domain/models"
)

type fakeMetricStore struct {
	rows   map[string]map[string]models.DailyMetric // ticker -> date -> row
	latest string
}

func (f *fakeMetricStore) UpsertMetrics(_ context.Context, rows []models.DailyMetric) error {
	for _, r := range rows {
		if f.rows == nil {
			f.rows = make(map[string]map[string]models.DailyMetric)
		}
		if f.rows[r.Ticker] == nil {
			f.rows[r.Ticker] = make(map[string]models.DailyMetric)
		}
		f.rows[r.Ticker][r.TradeDate] = r
	}
	return nil
}

func (f *fakeMetricStore) GetMetric(_ context.Context, ticker, tradeDate string) (*models.DailyMetric, error) {
	if byDate, ok := f.rows[ticker]; ok {
		if m, ok := byDate[tradeDate]; ok {
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeMetricStore) GetByDate(_ context.Context, tradeDate string) ([]models.DailyMetric, error) {
	var out []models.DailyMetric
	for _, byDate := range f.rows {
		if m, ok := byDate[tradeDate]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMetricStore) GetRange(_ context.Context, ticker, from, to string) ([]models.DailyMetric, error) {
	var out []models.DailyMetric
	for date, m := range f.rows[ticker] {
		if date >= from && date <= to {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMetricStore) TradeDates(_ context.Context, from, to string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, byDate := range f.rows {
		for date := range byDate {
			if date >= from && date <= to && !seen[date] {
				seen[date] = true
				out = append(out, date)
			}
		}
	}
	return out, nil
}

func (f *fakeMetricStore) LatestTradeDate(_ context.Context) (string, error) {
	return f.latest, nil
}

type fakeWarrantStore struct {
	iv map[string]float64 // ticker -> avg IV for the test date
}

func (f *fakeWarrantStore) UpsertQuotes(_ context.Context, _ []models.WarrantQuote) error { return nil }

func (f *fakeWarrantStore) AvgImpliedVol(_ context.Context, underlying, _ string) (float64, bool, error) {
	iv, ok := f.iv[underlying]
	return iv, ok, nil
}

type fakeConfigStore struct {
	kv map[string]string
}

func (f *fakeConfigStore) GetAll(_ context.Context) (map[string]string, error) {
	out := make(map[string]string, len(f.kv))
	for k, v := range f.kv {
		out[k] = v
	}
	return out, nil
}

func (f *fakeConfigStore) Set(_ context.Context, key, value string) error {
	if f.kv == nil {
		f.kv = map[string]string{}
	}
	f.kv[key] = value
	return nil
}

func strongMetric(ticker, date string) models.DailyMetric {
	return models.DailyMetric{
		Ticker:              ticker,
		TradeDate:           date,
		ClosePrice:          105,
		PrevClosePrice:      100,
		BorrowBalance:       1000,
		BorrowBalanceChange: -40,
		MarginRatio:         15,
		HV20D:               0.30,
		Volume:              250,
		AvgVolume20D:        100,
	}
}

func newScoreUseCase(ms *fakeMetricStore, ws *fakeWarrantStore) *ScoreUseCase {
	cfg := NewConfigService(&fakeConfigStore{}, nil)
	return NewScoreUseCase(ms, ws, cfg, nil, nil)
}

func TestScoreSingle(t *testing.T) {
	ms := &fakeMetricStore{latest: "2026-01-05"}
	_ = ms.UpsertMetrics(context.Background(), []models.DailyMetric{strongMetric("7203", "2026-01-05")})
	ws := &fakeWarrantStore{iv: map[string]float64{"7203": 0.20}}

	u := newScoreUseCase(ms, ws)
	sig, err := u.Single(context.Background(), "7203", "2026-01-05")
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if sig.Score <= 0 || sig.Score > 100 {
		t.Fatalf("score out of range: %d", sig.Score)
	}
	if sig.Factors.Gamma == nil {
		t.Fatalf("gamma should be computed with warrant IV present")
	}
}

func TestScoreSingleResolvesLatestDate(t *testing.T) {
	ms := &fakeMetricStore{latest: "2026-01-05"}
	_ = ms.UpsertMetrics(context.Background(), []models.DailyMetric{strongMetric("7203", "2026-01-05")})

	u := newScoreUseCase(ms, &fakeWarrantStore{})
	sig, err := u.Single(context.Background(), "7203", "")
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if sig.TradeDate != "2026-01-05" {
		t.Fatalf("date = %s, want latest 2026-01-05", sig.TradeDate)
	}
	// No warrant quotes that day: gamma excluded, not zeroed.
	if sig.Factors.Gamma != nil {
		t.Fatalf("gamma should be nil without warrant quotes")
	}
}

func TestScoreBatchKeepsEveryTicker(t *testing.T) {
	ms := &fakeMetricStore{latest: "2026-01-05"}
	_ = ms.UpsertMetrics(context.Background(), []models.DailyMetric{strongMetric("7203", "2026-01-05")})

	u := newScoreUseCase(ms, &fakeWarrantStore{})
	batch, err := u.Batch(context.Background(), []string{"7203", "0000"}, "2026-01-05")
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(batch.Results) != 2 {
		t.Fatalf("results = %d, want one entry per requested ticker", len(batch.Results))
	}
	if batch.Results[0].Ticker != "7203" || batch.Results[0].Signal == nil {
		t.Fatalf("scored entry wrong: %+v", batch.Results[0])
	}
	if batch.Results[1].Ticker != "0000" || !batch.Results[1].Missing {
		t.Fatalf("ticker without data must be marked missing: %+v", batch.Results[1])
	}
}

func TestScoreTopRankingAndFilter(t *testing.T) {
	ms := &fakeMetricStore{latest: "2026-01-05"}
	weak := strongMetric("1111", "2026-01-05")
	weak.BorrowBalanceChange = 45 // heavy short building
	weak.MarginRatio = 1
	weak.ClosePrice = 95
	weak.Volume = 50
	_ = ms.UpsertMetrics(context.Background(), []models.DailyMetric{
		strongMetric("7203", "2026-01-05"),
		strongMetric("9984", "2026-01-05"),
		weak,
	})

	u := newScoreUseCase(ms, &fakeWarrantStore{})
	top, err := u.Top(context.Background(), "2026-01-05", 10, 50)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top.Candidates) != 2 {
		t.Fatalf("candidates = %d, want the weak ticker filtered out", len(top.Candidates))
	}
	// Identical scores tie-break by ticker ascending.
	if top.Candidates[0].Ticker != "7203" || top.Candidates[1].Ticker != "9984" {
		t.Fatalf("tie-break order wrong: %s, %s", top.Candidates[0].Ticker, top.Candidates[1].Ticker)
	}
	for i := 1; i < len(top.Candidates); i++ {
		if top.Candidates[i].Score > top.Candidates[i-1].Score {
			t.Fatalf("candidates not sorted by score descending")
		}
	}
}

func TestScoreTopLimit(t *testing.T) {
	ms := &fakeMetricStore{latest: "2026-01-05"}
	_ = ms.UpsertMetrics(context.Background(), []models.DailyMetric{
		strongMetric("7203", "2026-01-05"),
		strongMetric("9984", "2026-01-05"),
	})

	u := newScoreUseCase(ms, &fakeWarrantStore{})
	top, err := u.Top(context.Background(), "2026-01-05", 1, 0)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top.Candidates) != 1 {
		t.Fatalf("limit not applied: %d candidates", len(top.Candidates))
	}
}

func TestScoreSingleNoData(t *testing.T) {
	ms := &fakeMetricStore{latest: "2026-01-05"}
	u := newScoreUseCase(ms, &fakeWarrantStore{})
	if _, err := u.Single(context.Background(), "7203", "2026-01-05"); err == nil {
		t.Fatalf("expected error for missing metric row")
	}
}

func TestScoreResolveDateEmptyStore(t *testing.T) {
	u := newScoreUseCase(&fakeMetricStore{}, &fakeWarrantStore{})
	if _, err := u.Single(context.Background(), "7203", ""); err == nil {
		t.Fatalf("expected ErrNoData with no trade dates stored")
	}
}
