package scoring

import (
	"errors"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.WeightBorrow != 0.35 || c.WeightGamma != 0.25 || c.WeightMargin != 0.20 || c.WeightMomentum != 0.20 {
		t.Fatalf("unexpected default weights: %+v", c)
	}
	if c.BullishThreshold != 70 || c.BearishThreshold != 40 {
		t.Fatalf("unexpected default thresholds: %d/%d", c.BullishThreshold, c.BearishThreshold)
	}
}

func TestValidateWeightSum(t *testing.T) {
	c := DefaultConfig()
	c.WeightBorrow = 0.5
	if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateWeightSumTolerance(t *testing.T) {
	c := DefaultConfig()
	c.WeightBorrow = 0.3501
	if err := c.Validate(); err != nil {
		t.Fatalf("sum within tolerance rejected: %v", err)
	}
}

func TestValidateThresholdOrder(t *testing.T) {
	c := DefaultConfig()
	c.BullishThreshold = 30
	c.BearishThreshold = 40
	if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateMarginTiers(t *testing.T) {
	c := DefaultConfig()
	c.MarginTier2Max = 25.0
	if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestFromKVOverrides(t *testing.T) {
	c, err := FromKV(map[string]string{
		KeyWeightBorrow:     "0.40",
		KeyWeightGamma:      "0.20",
		KeyThresholdBullish: "75",
		"UNRELATED_KEY":     "ignored",
	})
	if err != nil {
		t.Fatalf("FromKV: %v", err)
	}
	if c.WeightBorrow != 0.40 || c.WeightGamma != 0.20 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.BullishThreshold != 75 {
		t.Fatalf("threshold override not applied: %d", c.BullishThreshold)
	}
	// Untouched keys keep their defaults.
	if c.WeightMargin != 0.20 || c.WeightMomentum != 0.20 {
		t.Fatalf("defaults lost: %+v", c)
	}
}

func TestFromKVMalformedValue(t *testing.T) {
	if _, err := FromKV(map[string]string{KeyWeightBorrow: "abc"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestFromKVInvariantViolation(t *testing.T) {
	// Individually valid values whose sum breaks the weight invariant.
	_, err := FromKV(map[string]string{KeyWeightBorrow: "0.50"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
