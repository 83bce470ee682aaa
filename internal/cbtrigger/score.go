package cbtrigger

// FactorScore maps a bond's squeeze-relevant attributes onto [0,100] for use
// as an auxiliary factor: a discount to conversion value (negative premium),
// a large remaining balance, and a long trigger streak all push it up. An
// announced forced redemption scores the maximum outright.
func FactorScore(premiumRate, remainingRatio float64, daysAboveTrigger int, redemptionCalled bool) float64 {
	if redemptionCalled {
		return 100
	}

	var score float64

	// Premium contribution, up to 40 points.
	switch {
	case premiumRate < 0:
		score += minf(40, -premiumRate*2)
	case premiumRate < 10:
		score += 30 - premiumRate*2
	default:
		score += maxf(0, 20-premiumRate)
	}

	// Remaining balance contribution, up to 30 points.
	switch {
	case remainingRatio > 0.7:
		score += 30
	case remainingRatio > 0.5:
		score += 25
	case remainingRatio > 0.3:
		score += 15
	default:
		score += 5
	}

	// Streak contribution, up to 30 points.
	switch {
	case daysAboveTrigger >= 25:
		score += 30
	case daysAboveTrigger >= 15:
		score += 25
	case daysAboveTrigger >= 10:
		score += 15
	case daysAboveTrigger >= 5:
		score += 8
	}

	return minf(100, score)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
