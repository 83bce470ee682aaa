package service

import (
	"context"

	"SqueezeWatch/internal/domain/models"
)

// SignalEngine is the capability set of the out-of-process scoring engine.
// Any transport (in-process call, queue, network RPC) may implement it as
// long as the call/response/failure contract holds: connection-level
// unavailability surfaces as engine.ErrUnavailable, application-level
// rejections as engine.ErrInvalidRequest or engine.ErrInternal.
type SignalEngine interface {
	// GetSignal scores one ticker; empty date means the latest trade date.
	GetSignal(ctx context.Context, ticker, tradeDate string) (*models.SqueezeSignal, error)

	// GetBatchSignals scores many tickers. Every requested ticker appears in
	// the result, explicitly marked missing when it has no data.
	GetBatchSignals(ctx context.Context, tickers []string, tradeDate string) (*models.BatchSignals, error)

	// GetTopCandidates ranks a date's signals at or above minScore,
	// descending by score with ticker as the deterministic tiebreak.
	GetTopCandidates(ctx context.Context, tradeDate string, limit, minScore int) (*models.TopCandidates, error)
}
