package scoring

import (
	"errors"
	"strings"
	"testing"

	"SqueezeWatch/internal/domain/models"
)

func onlyBorrow(v float64) FactorSet {
	return FactorSet{Borrow: Factor{Value: v, Defined: true}}
}

func TestCompositeWeighted(t *testing.T) {
	s := newTestScorer(t)
	fs := FactorSet{
		Borrow:   Factor{Value: 80, Defined: true},
		Gamma:    Factor{Value: 70, Defined: true},
		Margin:   Factor{Value: 60, Defined: true},
		Momentum: Factor{Value: 50, Defined: true},
	}

	// 0.35*80 + 0.25*70 + 0.20*60 + 0.20*50 = 67.5 -> 68 (round half to even)
	score, trend, err := s.Composite(fs)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if score != 68 {
		t.Fatalf("score = %d, want 68", score)
	}
	if trend != models.TrendNeutral {
		t.Fatalf("trend = %s, want NEUTRAL", trend)
	}
}

func TestCompositeRoundHalfToEven(t *testing.T) {
	s := newTestScorer(t)

	score, _, err := s.Composite(onlyBorrow(72.5))
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if score != 72 {
		t.Fatalf("72.5 rounded to %d, want 72", score)
	}

	score, _, err = s.Composite(onlyBorrow(73.5))
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if score != 74 {
		t.Fatalf("73.5 rounded to %d, want 74", score)
	}
}

func TestCompositeTrendBoundaries(t *testing.T) {
	s := newTestScorer(t)
	cases := []struct {
		value float64
		want  models.Trend
	}{
		{70, models.TrendBullish},
		{69, models.TrendNeutral},
		{40, models.TrendNeutral},
		{39, models.TrendBearish},
	}
	for _, tc := range cases {
		_, trend, err := s.Composite(onlyBorrow(tc.value))
		if err != nil {
			t.Fatalf("Composite(%.0f): %v", tc.value, err)
		}
		if trend != tc.want {
			t.Fatalf("value %.0f: trend = %s, want %s", tc.value, trend, tc.want)
		}
	}
}

func TestCompositeRedistributesMissingWeight(t *testing.T) {
	s := newTestScorer(t)
	fs := FactorSet{
		Borrow:   Factor{Value: 80, Defined: true},
		Margin:   Factor{Value: 60, Defined: true},
		Momentum: Factor{Value: 40, Defined: true},
	}

	// Gamma missing: (0.35*80 + 0.20*60 + 0.20*40) / 0.75 = 64
	score, _, err := s.Composite(fs)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if score != 64 {
		t.Fatalf("score = %d, want 64", score)
	}
}

func TestCompositeInsufficientData(t *testing.T) {
	s := newTestScorer(t)
	if _, _, err := s.Composite(FactorSet{}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEvaluateSignal(t *testing.T) {
	s := newTestScorer(t)
	fs := FactorSet{
		Borrow:   Factor{Value: 90, Defined: true},
		Gamma:    Factor{Value: 80, Defined: true},
		Margin:   Factor{Value: 70, Defined: true},
		Momentum: Factor{Value: 60, Defined: true},
	}

	sig, err := s.Evaluate("7203", "2026-01-05", fs)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if sig.Ticker != "7203" || sig.TradeDate != "2026-01-05" {
		t.Fatalf("identity lost: %+v", sig)
	}
	if sig.Trend != models.TrendBullish {
		t.Fatalf("trend = %s, want BULLISH", sig.Trend)
	}
	if !strings.Contains(sig.Comment, "institutional short covering") {
		t.Fatalf("comment should name the strongest driver: %q", sig.Comment)
	}
	if sig.Factors.Borrow == nil || *sig.Factors.Borrow != 90 {
		t.Fatalf("borrow factor not exported: %+v", sig.Factors)
	}
	if sig.GeneratedAt.IsZero() {
		t.Fatalf("generated_at not set")
	}
}

func TestEvaluateGammaSqueezeComment(t *testing.T) {
	s := newTestScorer(t)
	fs := FactorSet{
		Borrow: Factor{Value: 95, Defined: true},
		Gamma:  Factor{Value: 85, Defined: true},
	}

	sig, err := s.Evaluate("9984", "2026-01-05", fs)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !strings.Contains(sig.Comment, "gamma squeeze") {
		t.Fatalf("expected gamma squeeze note: %q", sig.Comment)
	}
}

func TestExportUndefinedAsNil(t *testing.T) {
	fs := FactorSet{
		Borrow: Factor{Value: 66.666, Defined: true},
	}
	out := fs.Export()
	if out.Borrow == nil || *out.Borrow != 66.67 {
		t.Fatalf("borrow export = %v, want 66.67", out.Borrow)
	}
	if out.Gamma != nil || out.Margin != nil || out.Momentum != nil {
		t.Fatalf("undefined factors must export nil: %+v", out)
	}
}
