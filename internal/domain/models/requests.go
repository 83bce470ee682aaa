package models

// Requests for the signal and CB HTTP endpoints. Defined in domain for consistency and reuse.

type SignalRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required"`
	Date   string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type BatchSignalsRequest struct {
	Tickers []string `json:"tickers" validate:"required,min=1,max=500,dive,required"`
	Date    string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type TopCandidatesRequest struct {
	Date     string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	Limit    int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
	MinScore int    `query:"min_score" json:"min_score" default:"60" validate:"gte=0,lte=100"`
}

type CBWarningsRequest struct {
	Date     string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	MinLevel string `query:"min_level" json:"min_level" default:"CAUTION" validate:"oneof=SAFE CAUTION WARNING CRITICAL"`
	Limit    int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
}

type CBSummaryRequest struct {
	Date string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type ConfigUpdateRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

type BackfillRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}
