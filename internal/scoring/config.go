package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig marks configurations rejected at load time.
var ErrInvalidConfig = errors.New("scoring: invalid configuration")

const weightTolerance = 0.001

// Config holds the squeeze scoring parameters. Weights must sum to 1.0
// within tolerance and the bullish threshold may not sit below the bearish
// one; both are checked at load time, never at scoring time.
type Config struct {
	WeightBorrow   float64 `yaml:"weight_borrow" default:"0.35" validate:"gte=0,lte=1"`
	WeightGamma    float64 `yaml:"weight_gamma" default:"0.25" validate:"gte=0,lte=1"`
	WeightMargin   float64 `yaml:"weight_margin" default:"0.20" validate:"gte=0,lte=1"`
	WeightMomentum float64 `yaml:"weight_momentum" default:"0.20" validate:"gte=0,lte=1"`

	BullishThreshold int `yaml:"bullish_threshold" default:"70" validate:"gte=0,lte=100"`
	BearishThreshold int `yaml:"bearish_threshold" default:"40" validate:"gte=0,lte=100"`

	// Borrow mapping, expressed as day-over-day change in percent of balance:
	// covering BorrowCoverFullPct of the balance maps to 100, building
	// BorrowBuildZeroPct maps to 0.
	BorrowCoverFullPct float64 `yaml:"borrow_cover_full_pct" default:"5.0" validate:"gt=0"`
	BorrowBuildZeroPct float64 `yaml:"borrow_build_zero_pct" default:"5.0" validate:"gt=0"`

	// Margin ratio tier boundaries in percent.
	MarginTier1Max float64 `yaml:"margin_tier1_max" default:"5.0" validate:"gt=0"`
	MarginTier2Max float64 `yaml:"margin_tier2_max" default:"10.0" validate:"gt=0"`
	MarginTier3Max float64 `yaml:"margin_tier3_max" default:"20.0" validate:"gt=0"`
}

var validate = validator.New()

// DefaultConfig returns the baseline configuration (0.35/0.25/0.20/0.20, 70/40).
func DefaultConfig() *Config {
	c := &Config{}
	_ = defaults.Set(c)
	return c
}

// Validate checks struct constraints plus the cross-field invariants.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	sum := c.WeightBorrow + c.WeightGamma + c.WeightMargin + c.WeightMomentum
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, expected 1.0", ErrInvalidConfig, sum)
	}
	if c.BullishThreshold < c.BearishThreshold {
		return fmt.Errorf("%w: bullish threshold %d below bearish %d", ErrInvalidConfig, c.BullishThreshold, c.BearishThreshold)
	}
	if !(c.MarginTier1Max < c.MarginTier2Max && c.MarginTier2Max < c.MarginTier3Max) {
		return fmt.Errorf("%w: margin tiers must be strictly increasing", ErrInvalidConfig)
	}
	return nil
}

// Config keys as persisted in the system_config store.
const (
	KeyWeightBorrow     = "SQUEEZE_WEIGHT_BORROW"
	KeyWeightGamma      = "SQUEEZE_WEIGHT_GAMMA"
	KeyWeightMargin     = "SQUEEZE_WEIGHT_MARGIN"
	KeyWeightMomentum   = "SQUEEZE_WEIGHT_MOMENTUM"
	KeyThresholdBullish = "SQUEEZE_THRESHOLD_BULLISH"
	KeyThresholdBearish = "SQUEEZE_THRESHOLD_BEARISH"
	KeyMarginTier1Max   = "MARGIN_SCORE_TIER1_MAX"
	KeyMarginTier2Max   = "MARGIN_SCORE_TIER2_MAX"
	KeyMarginTier3Max   = "MARGIN_SCORE_TIER3_MAX"
	KeyBorrowCoverFull  = "BORROW_SCORE_COVER_FULL_PCT"
	KeyBorrowBuildZero  = "BORROW_SCORE_BUILD_ZERO_PCT"
)

// FromKV builds a Config from stored key/value pairs, starting from defaults.
// Unknown keys are ignored; malformed or invariant-violating values reject
// the whole configuration.
func FromKV(kv map[string]string) (*Config, error) {
	c := DefaultConfig()

	floats := map[string]*float64{
		KeyWeightBorrow:    &c.WeightBorrow,
		KeyWeightGamma:     &c.WeightGamma,
		KeyWeightMargin:    &c.WeightMargin,
		KeyWeightMomentum:  &c.WeightMomentum,
		KeyMarginTier1Max:  &c.MarginTier1Max,
		KeyMarginTier2Max:  &c.MarginTier2Max,
		KeyMarginTier3Max:  &c.MarginTier3Max,
		KeyBorrowCoverFull: &c.BorrowCoverFullPct,
		KeyBorrowBuildZero: &c.BorrowBuildZeroPct,
	}
	ints := map[string]*int{
		KeyThresholdBullish: &c.BullishThreshold,
		KeyThresholdBearish: &c.BearishThreshold,
	}

	for key, dst := range floats {
		if raw, ok := kv[key]; ok {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, raw, err)
			}
			*dst = v
		}
	}
	for key, dst := range ints {
		if raw, ok := kv[key]; ok {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, raw, err)
			}
			*dst = v
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
