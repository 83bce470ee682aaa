package scoring

import (
	"SqueezeWatch/internal/domain/models"
)

// Factor is one sub-score in [0,100]. Defined is false when required inputs
// were missing; callers must treat that differently from a computed low score.
type Factor struct {
	Value   float64
	Defined bool
}

func defined(v float64) Factor { return Factor{Value: v, Defined: true} }

func undefinedFactor() Factor { return Factor{} }

// FactorSet groups the four sub-scores for one ticker and date.
type FactorSet struct {
	Borrow   Factor
	Gamma    Factor
	Margin   Factor
	Momentum Factor
}

// Scorer computes factor and composite scores with a validated configuration.
type Scorer struct {
	cfg *Config
}

// NewScorer rejects invalid configurations up front.
func NewScorer(cfg *Config) (*Scorer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the active configuration.
func (s *Scorer) Config() *Config { return s.cfg }

// BorrowScore maps the day-over-day borrow-balance change to [0,100].
// Covering (negative change) scores above 50 and grows with magnitude;
// zero or positive change stays at or below 30.
func (s *Scorer) BorrowScore(change, balance float64) Factor {
	if balance <= 0 {
		return undefinedFactor()
	}
	changePct := change / balance * 100
	if change >= 0 {
		return defined(clamp(30-changePct/s.cfg.BorrowBuildZeroPct*30, 0, 30))
	}
	return defined(clamp(50+(-changePct)/s.cfg.BorrowCoverFullPct*50, 0, 100))
}

// GammaScore maps IV-HV divergence to [0,100]. IV below HV (undervalued
// optionality) scores above 50. Undefined when either volatility is absent.
func (s *Scorer) GammaScore(iv, hv float64) Factor {
	if iv <= 0 || hv <= 0 {
		return undefinedFactor()
	}
	div := (hv - iv) / hv // positive when IV < HV
	if div > 0 {
		return defined(clamp(50+div*100, 0, 100))
	}
	return defined(clamp(50+div*50, 0, 100))
}

// MarginScore maps the margin ratio (percent) onto configurable tiers.
func (s *Scorer) MarginScore(ratio float64) Factor {
	if ratio <= 0 {
		return defined(0)
	}
	t1, t2, t3 := s.cfg.MarginTier1Max, s.cfg.MarginTier2Max, s.cfg.MarginTier3Max
	switch {
	case ratio >= t3:
		return defined(100)
	case ratio >= t2:
		return defined(70 + (ratio-t2)/(t3-t2)*30)
	case ratio >= t1:
		return defined(40 + (ratio-t1)/(t2-t1)*30)
	default:
		return defined(ratio / t1 * 40)
	}
}

// MomentumScore combines price change against the previous close, relative
// volume, and a resistance breakout bonus. Price contributes at most 25
// points above neutral and volume at most 25, so neither dimension alone
// saturates the score. Undefined without a previous close or average volume.
func (s *Scorer) MomentumScore(price, prevPrice float64, volume int64, avgVolume, resistance float64) Factor {
	if prevPrice <= 0 || avgVolume <= 0 {
		return undefinedFactor()
	}

	priceChange := (price - prevPrice) / prevPrice
	base := 50 + clamp(priceChange*500, -25, 25)

	volumeRatio := float64(volume) / avgVolume
	var volumeBonus float64
	switch {
	case volumeRatio > 2.0:
		volumeBonus = 25
	case volumeRatio > 1.5:
		volumeBonus = 15
	case volumeRatio > 1.0:
		volumeBonus = 5
	default:
		volumeBonus = -10
	}

	var breakoutBonus float64
	if resistance > 0 && price > resistance {
		breakoutBonus = 10
	}

	return defined(clamp(base+volumeBonus+breakoutBonus, 0, 100))
}

// ScoreMetric derives the full factor set from one day's metric row plus the
// aggregated warrant implied volatility (hasIV=false when the ticker had no
// warrant quotes that day).
func (s *Scorer) ScoreMetric(m *models.DailyMetric, avgIV float64, hasIV bool) FactorSet {
	fs := FactorSet{
		Borrow: s.BorrowScore(m.BorrowBalanceChange, m.BorrowBalance),
		Margin: s.MarginScore(m.MarginRatio),
	}
	if m.ClosePrice > 0 {
		fs.Momentum = s.MomentumScore(m.ClosePrice, m.PrevClosePrice, m.Volume, m.AvgVolume20D, m.ResistanceLevel)
	}
	if hasIV {
		fs.Gamma = s.GammaScore(avgIV, m.HV20D)
	}
	return fs
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
