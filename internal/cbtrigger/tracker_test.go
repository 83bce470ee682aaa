package cbtrigger

import (
	"errors"
	"testing"

	"SqueezeWatch/internal/domain/models"
)

func testInput() Input {
	return Input{
		CBTicker:         "7203CB1",
		UnderlyingTicker: "7203",
		TradeDate:        "2026-01-05",
		ClosePrice:       130,
		ConversionPrice:  100,
		Outstanding:      5000,
	}
}

func TestEvaluateAboveTriggerExtendsStreak(t *testing.T) {
	in := testInput()
	prev := State{ConsecutiveDays: 4, Outstanding: 5000, LastTradeDate: "2026-01-02"}

	got, err := Evaluate(in, prev, DefaultParams())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !got.AboveTrigger {
		t.Fatalf("ratio 1.30 should count as above trigger")
	}
	if got.ConsecutiveDays != 5 {
		t.Fatalf("consecutive = %d, want 5", got.ConsecutiveDays)
	}
	if got.DaysRemaining != 25 {
		t.Fatalf("remaining = %d, want 25", got.DaysRemaining)
	}
	if got.PriceRatio != 130.0 {
		t.Fatalf("price ratio = %.2f, want 130.00", got.PriceRatio)
	}
}

func TestEvaluateBelowTriggerResetsStreak(t *testing.T) {
	in := testInput()
	in.ClosePrice = 129.99
	prev := State{ConsecutiveDays: 25, Outstanding: 5000}

	got, err := Evaluate(in, prev, DefaultParams())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.AboveTrigger {
		t.Fatalf("ratio below 1.30 must not count")
	}
	if got.ConsecutiveDays != 0 {
		t.Fatalf("streak must reset to 0, got %d", got.ConsecutiveDays)
	}
	if got.WarningLevel != models.WarnSafe {
		t.Fatalf("level = %s, want SAFE after reset", got.WarningLevel)
	}
}

func TestEvaluateProgress(t *testing.T) {
	in := testInput()
	prev := State{ConsecutiveDays: 14}

	got, err := Evaluate(in, prev, DefaultParams())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.TriggerProgress != 50.0 {
		t.Fatalf("progress = %.2f, want 50.00", got.TriggerProgress)
	}
	if got.DaysRemaining != 15 {
		t.Fatalf("remaining = %d, want 15", got.DaysRemaining)
	}
}

func TestEvaluateProgressCapped(t *testing.T) {
	in := testInput()
	prev := State{ConsecutiveDays: 35}

	got, err := Evaluate(in, prev, DefaultParams())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.TriggerProgress != 100.0 {
		t.Fatalf("progress = %.2f, want capped at 100", got.TriggerProgress)
	}
	if got.DaysRemaining != 0 {
		t.Fatalf("remaining = %d, want 0", got.DaysRemaining)
	}
}

func TestEvaluateBalanceChange(t *testing.T) {
	in := testInput()
	in.Outstanding = 4500
	prev := State{ConsecutiveDays: 0, Outstanding: 5000}

	got, err := Evaluate(in, prev, DefaultParams())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.BalanceChangePct != -10.0 {
		t.Fatalf("balance change = %.2f, want -10.00", got.BalanceChangePct)
	}
}

func TestEvaluateInvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Input)
	}{
		{"zero conversion price", func(in *Input) { in.ConversionPrice = 0 }},
		{"zero close price", func(in *Input) { in.ClosePrice = 0 }},
		{"negative outstanding", func(in *Input) { in.Outstanding = -1 }},
	}
	for _, tc := range cases {
		in := testInput()
		tc.mutate(&in)
		if _, err := Evaluate(in, State{}, DefaultParams()); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestEvaluateZeroOutstandingAccepted(t *testing.T) {
	// A reported balance of zero (fully converted, or missing upstream and
	// defaulted) is not a broken row; only a negative balance is.
	in := testInput()
	in.Outstanding = 0
	prev := State{ConsecutiveDays: 3, Outstanding: 5000}

	got, err := Evaluate(in, prev, DefaultParams())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.ConsecutiveDays != 4 {
		t.Fatalf("consecutive = %d, want streak unaffected by the balance", got.ConsecutiveDays)
	}
	if got.BalanceChangePct != -100.0 {
		t.Fatalf("balance change = %.2f, want -100.00 against the prior balance", got.BalanceChangePct)
	}

	// Without a prior balance the change percentage stays neutral.
	got, err = Evaluate(in, State{}, DefaultParams())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.BalanceChangePct != 0 {
		t.Fatalf("balance change = %.2f, want 0 without prior balance", got.BalanceChangePct)
	}
}

func TestEvaluateInvalidParams(t *testing.T) {
	if _, err := Evaluate(testInput(), State{}, Params{TriggerRatio: 1.3, TriggerDays: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero trigger days, got %v", err)
	}
	if _, err := Evaluate(testInput(), State{}, Params{TriggerRatio: 0, TriggerDays: 30}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero trigger ratio, got %v", err)
	}
}

func TestLevelLadder(t *testing.T) {
	cases := []struct {
		consecutive int
		want        models.WarningLevel
	}{
		{0, models.WarnSafe},
		{9, models.WarnSafe},
		{10, models.WarnCaution},
		{19, models.WarnCaution},
		{20, models.WarnWarning},
		{29, models.WarnWarning},
		{30, models.WarnCritical},
		{45, models.WarnCritical},
	}
	for _, tc := range cases {
		if got := Level(tc.consecutive, 30); got != tc.want {
			t.Fatalf("Level(%d, 30) = %s, want %s", tc.consecutive, got, tc.want)
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	in := testInput()
	prev := State{ConsecutiveDays: 7, Outstanding: 5000}

	a, err := Evaluate(in, prev, DefaultParams())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	b, err := Evaluate(in, prev, DefaultParams())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if a.ConsecutiveDays != b.ConsecutiveDays || a.TriggerProgress != b.TriggerProgress ||
		a.WarningLevel != b.WarningLevel || a.PriceRatio != b.PriceRatio {
		t.Fatalf("re-running the same date diverged: %+v vs %+v", a, b)
	}
}

func TestFactorScore(t *testing.T) {
	if got := FactorScore(10, 0.1, 0, true); got != 100 {
		t.Fatalf("announced redemption = %.1f, want 100", got)
	}
	// Deep discount, large balance, long streak saturates.
	if got := FactorScore(-30, 0.8, 26, false); got != 100 {
		t.Fatalf("saturated case = %.1f, want 100", got)
	}
	// Moderate premium, mid balance, mid streak.
	if got := FactorScore(5, 0.4, 12, false); got != 50 {
		t.Fatalf("moderate case = %.1f, want 50", got)
	}
	// High premium, small balance, no streak.
	if got := FactorScore(25, 0.1, 0, false); got != 5 {
		t.Fatalf("weak case = %.1f, want 5", got)
	}
}
