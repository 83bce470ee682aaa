package scoring

import (
	"math"
	"testing"

	"SqueezeWatch/internal/domain/models"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(nil)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBorrowScoreCovering(t *testing.T) {
	s := newTestScorer(t)

	// Covering 5% of the balance in one day saturates the score.
	f := s.BorrowScore(-50, 1000)
	if !f.Defined || !almostEqual(f.Value, 100) {
		t.Fatalf("full cover: got %+v", f)
	}

	// Covering 2.5% lands halfway up the covering band.
	f = s.BorrowScore(-25, 1000)
	if !almostEqual(f.Value, 75) {
		t.Fatalf("half cover: got %+v", f)
	}
}

func TestBorrowScoreBuilding(t *testing.T) {
	s := newTestScorer(t)

	// Flat balance sits at the top of the building band.
	f := s.BorrowScore(0, 1000)
	if !almostEqual(f.Value, 30) {
		t.Fatalf("flat: got %+v", f)
	}

	// Building 5% of the balance bottoms out at zero.
	f = s.BorrowScore(50, 1000)
	if !almostEqual(f.Value, 0) {
		t.Fatalf("full build: got %+v", f)
	}
}

func TestBorrowScoreUndefinedWithoutBalance(t *testing.T) {
	s := newTestScorer(t)
	if f := s.BorrowScore(-10, 0); f.Defined {
		t.Fatalf("expected undefined, got %+v", f)
	}
}

func TestGammaScore(t *testing.T) {
	s := newTestScorer(t)

	// IV 20% vs HV 25%: 20% divergence, undervalued optionality.
	f := s.GammaScore(0.20, 0.25)
	if !f.Defined || !almostEqual(f.Value, 70) {
		t.Fatalf("undervalued: got %+v", f)
	}

	// IV equal to HV is neutral.
	if f = s.GammaScore(0.25, 0.25); !almostEqual(f.Value, 50) {
		t.Fatalf("neutral: got %+v", f)
	}

	// IV above HV scores below neutral, with the softer slope.
	if f = s.GammaScore(0.30, 0.25); !almostEqual(f.Value, 40) {
		t.Fatalf("overvalued: got %+v", f)
	}
}

func TestGammaScoreUndefined(t *testing.T) {
	s := newTestScorer(t)
	if f := s.GammaScore(0, 0.25); f.Defined {
		t.Fatalf("missing IV: got %+v", f)
	}
	if f := s.GammaScore(0.25, 0); f.Defined {
		t.Fatalf("missing HV: got %+v", f)
	}
}

func TestMarginScoreTiers(t *testing.T) {
	s := newTestScorer(t)
	cases := []struct {
		ratio float64
		want  float64
	}{
		{0, 0},
		{2.5, 20},
		{5, 40},
		{7.5, 55},
		{10, 70},
		{15, 85},
		{20, 100},
		{35, 100},
	}
	for _, tc := range cases {
		f := s.MarginScore(tc.ratio)
		if !f.Defined || !almostEqual(f.Value, tc.want) {
			t.Fatalf("ratio %.1f: got %+v, want %.1f", tc.ratio, f, tc.want)
		}
	}
}

func TestMomentumScoreBreakout(t *testing.T) {
	s := newTestScorer(t)

	// +5% on 2.5x volume through resistance saturates at 100.
	f := s.MomentumScore(105, 100, 250, 100, 104)
	if !f.Defined || !almostEqual(f.Value, 100) {
		t.Fatalf("breakout: got %+v", f)
	}
}

func TestMomentumScoreQuietDay(t *testing.T) {
	s := newTestScorer(t)

	// Flat price on average volume loses the volume bonus.
	f := s.MomentumScore(100, 100, 100, 100, 0)
	if !almostEqual(f.Value, 40) {
		t.Fatalf("quiet day: got %+v", f)
	}
}

func TestMomentumScoreUndefined(t *testing.T) {
	s := newTestScorer(t)
	if f := s.MomentumScore(100, 0, 100, 100, 0); f.Defined {
		t.Fatalf("no previous close: got %+v", f)
	}
	if f := s.MomentumScore(100, 100, 100, 0, 0); f.Defined {
		t.Fatalf("no average volume: got %+v", f)
	}
}

func TestScoreMetricMissingInputs(t *testing.T) {
	s := newTestScorer(t)
	m := &models.DailyMetric{
		Ticker:              "7203",
		TradeDate:           "2026-01-05",
		BorrowBalance:       1000,
		BorrowBalanceChange: -25,
		MarginRatio:         7.5,
	}

	fs := s.ScoreMetric(m, 0, false)
	if !fs.Borrow.Defined || !fs.Margin.Defined {
		t.Fatalf("borrow/margin should be defined: %+v", fs)
	}
	if fs.Gamma.Defined {
		t.Fatalf("gamma should be undefined without warrant data")
	}
	if fs.Momentum.Defined {
		t.Fatalf("momentum should be undefined without close price")
	}
}
