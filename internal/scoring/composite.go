package scoring

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"SqueezeWatch/internal/domain/models"
)

// ErrInsufficientData is returned when no factor could be computed; the
// composite never substitutes defaults for missing sub-scores.
var ErrInsufficientData = errors.New("scoring: insufficient data for composite score")

// Composite combines the defined sub-scores into one integer score and a
// trend label. Weights of undefined factors are redistributed proportionally
// among the defined ones; the final rounding is round-half-to-even so that
// repeated runs reproduce bit-identical scores (72.5 -> 72, 73.5 -> 74).
func (s *Scorer) Composite(fs FactorSet) (int, models.Trend, error) {
	type weighted struct {
		w float64
		f Factor
	}
	parts := []weighted{
		{s.cfg.WeightBorrow, fs.Borrow},
		{s.cfg.WeightGamma, fs.Gamma},
		{s.cfg.WeightMargin, fs.Margin},
		{s.cfg.WeightMomentum, fs.Momentum},
	}

	var sum, totalWeight float64
	for _, p := range parts {
		if !p.f.Defined {
			continue
		}
		sum += p.w * p.f.Value
		totalWeight += p.w
	}
	if totalWeight <= 0 {
		return 0, "", ErrInsufficientData
	}

	raw := clamp(sum/totalWeight, 0, 100)
	score := int(math.RoundToEven(raw))

	trend := models.TrendNeutral
	switch {
	case score >= s.cfg.BullishThreshold:
		trend = models.TrendBullish
	case score < s.cfg.BearishThreshold:
		trend = models.TrendBearish
	}
	return score, trend, nil
}

// Evaluate produces the full signal for one ticker and date.
func (s *Scorer) Evaluate(ticker, tradeDate string, fs FactorSet) (*models.SqueezeSignal, error) {
	score, trend, err := s.Composite(fs)
	if err != nil {
		return nil, err
	}
	return &models.SqueezeSignal{
		Ticker:      ticker,
		TradeDate:   tradeDate,
		Score:       score,
		Trend:       trend,
		Comment:     s.comment(fs, trend),
		Factors:     fs.Export(),
		GeneratedAt: time.Now(),
	}, nil
}

// Export converts the factor set to the persisted representation, rounding
// defined scores to two decimals and leaving undefined ones nil.
func (fs FactorSet) Export() models.FactorScores {
	round2p := func(f Factor) *float64 {
		if !f.Defined {
			return nil
		}
		v := math.Round(f.Value*100) / 100
		return &v
	}
	return models.FactorScores{
		Borrow:   round2p(fs.Borrow),
		Gamma:    round2p(fs.Gamma),
		Margin:   round2p(fs.Margin),
		Momentum: round2p(fs.Momentum),
	}
}

// comment builds the tactical rationale from the strongest defined factors.
func (s *Scorer) comment(fs FactorSet, trend models.Trend) string {
	type named struct {
		name string
		f    Factor
	}
	factors := []named{
		{"institutional short covering", fs.Borrow},
		{"gamma compression", fs.Gamma},
		{"short crowding", fs.Margin},
		{"price-volume momentum", fs.Momentum},
	}
	ranked := factors[:0:0]
	for _, f := range factors {
		if f.f.Defined {
			ranked = append(ranked, f)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].f.Value > ranked[j].f.Value })

	var parts []string
	switch trend {
	case models.TrendBullish:
		if len(ranked) > 0 {
			parts = append(parts, "high squeeze potential, strongest driver: "+ranked[0].name)
		} else {
			parts = append(parts, "high squeeze potential")
		}
		if fs.Gamma.Defined && fs.Gamma.Value > 70 {
			parts = append(parts, "warrants priced below realized volatility, watch for a gamma squeeze")
		}
	case models.TrendBearish:
		parts = append(parts, "low squeeze probability, stay on the sidelines")
	default:
		parts = append(parts, "neutral signal, wait for clearer direction")
	}
	if !fs.Gamma.Defined {
		parts = append(parts, "no warrant data, gamma factor excluded")
	}
	return strings.Join(parts, "; ")
}
