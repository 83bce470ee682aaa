package models

import "time"

// WarningLevel is the redemption-risk classification for a convertible bond.
type WarningLevel string

const (
	WarnSafe     WarningLevel = "SAFE"
	WarnCaution  WarningLevel = "CAUTION"
	WarnWarning  WarningLevel = "WARNING"
	WarnCritical WarningLevel = "CRITICAL"
)

// Rank orders warning levels for filtering (SAFE lowest).
func (w WarningLevel) Rank() int {
	switch w {
	case WarnCaution:
		return 1
	case WarnWarning:
		return 2
	case WarnCritical:
		return 3
	default:
		return 0
	}
}

// CBIssuance is a convertible bond's issuance record. Conversion price and
// trigger parameters are bond-specific; Active gates daily tracking - a bond
// retired by maturity, full redemption, or full conversion stops updating.
type CBIssuance struct {
	CBTicker         string
	CBName           string
	UnderlyingTicker string
	ConversionPrice  float64
	TriggerRatio     float64 // e.g. 1.30 for a 130% trigger
	TriggerDays      int     // consecutive days required, e.g. 30
	TotalIssued      float64
	Outstanding      float64
	RedemptionCalled bool
	Active           bool
}

// CBTracking is one bond's state after evaluating one trade date.
// The most recent row per bond is the running state for the next transition.
type CBTracking struct {
	CBTicker         string       `json:"cb_ticker"`
	UnderlyingTicker string       `json:"underlying_ticker"`
	TradeDate        string       `json:"trade_date"`
	ClosePrice       float64      `json:"close_price"`
	ConversionPrice  float64      `json:"conversion_price"`
	PriceRatio       float64      `json:"price_ratio"` // close / conversion
	AboveTrigger     bool         `json:"above_trigger"`
	ConsecutiveDays  int          `json:"consecutive_days"`
	DaysRemaining    int          `json:"days_remaining"`
	TriggerProgress  float64      `json:"trigger_progress"` // 0-100
	Outstanding      float64      `json:"outstanding_balance"`
	BalanceChangePct float64      `json:"balance_change_pct"`
	WarningLevel     WarningLevel `json:"warning_level"`
	Comment          string       `json:"comment"`
	EvaluatedAt      time.Time    `json:"evaluated_at"`
}

// CBWarningSummary aggregates one date's warnings by level.
type CBWarningSummary struct {
	TradeDate     string `json:"trade_date"`
	Total         int    `json:"total"`
	CriticalCount int    `json:"critical_count"`
	WarningCount  int    `json:"warning_count"`
	CautionCount  int    `json:"caution_count"`
	SafeCount     int    `json:"safe_count"`
}
