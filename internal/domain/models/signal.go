package models

import "time"

// Trend classifies a composite squeeze score.
type Trend string

const (
	TrendBullish  Trend = "BULLISH"
	TrendNeutral  Trend = "NEUTRAL"
	TrendBearish  Trend = "BEARISH"
	TrendDegraded Trend = "DEGRADED" // engine unreachable, no factor breakdown
)

// FactorScores holds the four normalized sub-scores (0-100).
// A nil field means the factor could not be computed for that day
// (e.g. no warrant quotes for the gamma factor) - never coerced to zero.
type FactorScores struct {
	Borrow   *float64 `json:"borrow_score,omitempty"`
	Gamma    *float64 `json:"gamma_score,omitempty"`
	Margin   *float64 `json:"margin_score,omitempty"`
	Momentum *float64 `json:"momentum_score,omitempty"`
}

// SqueezeSignal is the per-ticker, per-date scoring result.
type SqueezeSignal struct {
	Ticker           string       `json:"ticker"`
	TradeDate        string       `json:"trade_date"`
	Score            int          `json:"score"` // 0-100
	Trend            Trend        `json:"trend"`
	Comment          string       `json:"comment"`
	Factors          FactorScores `json:"factors"`
	NotificationSent bool         `json:"notification_sent"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

// DegradedSignal builds the placeholder returned when the scoring engine
// is unreachable: basic identity only, no score or factor breakdown.
func DegradedSignal(ticker, tradeDate string) *SqueezeSignal {
	return &SqueezeSignal{
		Ticker:      ticker,
		TradeDate:   tradeDate,
		Trend:       TrendDegraded,
		Comment:     "scoring engine unavailable, factor breakdown omitted",
		GeneratedAt: time.Now(),
	}
}

// BatchSignalEntry is one ticker's slot in a batch response. Every requested
// ticker appears exactly once; Missing marks tickers with no data that day.
type BatchSignalEntry struct {
	Ticker  string         `json:"ticker"`
	Signal  *SqueezeSignal `json:"signal,omitempty"`
	Missing bool           `json:"missing,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// BatchSignals is the batch query result.
type BatchSignals struct {
	TradeDate string             `json:"trade_date"`
	Results   []BatchSignalEntry `json:"results"`
}

// TopCandidates is the ranked candidate list for a date.
type TopCandidates struct {
	TradeDate   string          `json:"trade_date"`
	Candidates  []SqueezeSignal `json:"candidates"`
	GeneratedAt time.Time       `json:"generated_at"`
}
