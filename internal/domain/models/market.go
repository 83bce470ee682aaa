package models

import "time"

// DailyMetric is one ticker's end-of-day microstructure snapshot.
// Immutable per (ticker, trade_date); re-upserts with the same key replace the row.
type DailyMetric struct {
	Ticker              string
	TradeDate           string // 2006-01-02
	OpenPrice           float64
	HighPrice           float64
	LowPrice            float64
	ClosePrice          float64
	PrevClosePrice      float64
	BorrowBalance       float64
	BorrowBalanceChange float64 // day-over-day, negative = short covering
	MarginBalance       float64
	ShortBalance        float64
	MarginRatio         float64 // percent
	HV20D               float64 // 20-trading-day historical volatility, annualized
	Volume              int64
	AvgVolume20D        float64
	Turnover            float64
	ResistanceLevel     float64 // 0 when unknown
}

// WarrantQuote is one warrant's end-of-day quote joined to its underlying.
type WarrantQuote struct {
	WarrantID        string
	UnderlyingTicker string
	TradeDate        string
	ImpliedVol       float64 // fraction, e.g. 0.25
	ClosePrice       float64
	Volume           int64
}

// TrackedTicker is an entry in the scoring universe.
type TrackedTicker struct {
	Ticker   string
	Name     string
	Category string
	Active   bool
	AddedAt  time.Time
}
