package api

import (
	"encoding/json"
	"net/http"
	"time"

	"SqueezeWatch/internal/domain/models"
	icache "SqueezeWatch/internal/service/cache"
	"SqueezeWatch/internal/service/metrics"
	"SqueezeWatch/internal/service/ratelimit"
	"SqueezeWatch/internal/usecase"
	xhttp "SqueezeWatch/pkg/http"
	xlogger "SqueezeWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

const topCacheTTL = 60 * time.Second

// SignalsEchoHandler serves caller-facing signal queries over Echo.
type SignalsEchoHandler struct {
	logger *xlogger.Logger
	query  *usecase.SignalQueryService
	cache  icache.BytesCache
	rl     *ratelimit.Limiter
}

func NewSignalsEchoHandler(logger *xlogger.Logger, query *usecase.SignalQueryService) *SignalsEchoHandler {
	metrics.Register()
	return &SignalsEchoHandler{logger: logger, query: query, rl: ratelimit.New()}
}

// SetCache enables response caching for the top-candidates endpoint.
func (h *SignalsEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signal", h.Signal)
	g.POST("/signals/batch", h.Batch)
	g.GET("/candidates/top", h.Top)
}

func (h *SignalsEchoHandler) Signal(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("signal").Observe(time.Since(start).Seconds()) }()

	if !h.rl.Allow(c.RealIP(), 20, 10) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
	}

	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig, err := h.query.Single(c.Request().Context(), req.Ticker, req.Date)
	if err != nil {
		metrics.APIErrors.WithLabelValues("signal").Inc()
		h.logger.Error("signal query error", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if sig.Trend == models.TrendDegraded {
		metrics.DegradedResponses.WithLabelValues("signal").Inc()
	}
	return xhttp.SuccessResponse(c, sig)
}

func (h *SignalsEchoHandler) Batch(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("batch").Observe(time.Since(start).Seconds()) }()

	if !h.rl.Allow(c.RealIP(), 5, 2) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
	}

	req := &models.BatchSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	batch, err := h.query.Batch(c.Request().Context(), req.Tickers, req.Date)
	if err != nil {
		metrics.APIErrors.WithLabelValues("batch").Inc()
		h.logger.Error("batch query error", xlogger.Int("tickers", len(req.Tickers)), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, batch)
}

func (h *SignalsEchoHandler) Top(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("top").Observe(time.Since(start).Seconds()) }()

	if !h.rl.Allow(c.RealIP(), 10, 5) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
	}

	req := &models.TopCandidatesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cacheKey := icache.TopKey(req.Date, req.Limit, req.MinScore)
	if h.cache != nil {
		if b, ok, _ := h.cache.GetBytes(cacheKey); ok {
			var cached models.TopCandidates
			if err := json.Unmarshal(b, &cached); err == nil {
				c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
				return xhttp.SuccessResponse(c, &cached)
			}
		}
	}

	top, err := h.query.Top(c.Request().Context(), req.Date, req.Limit, req.MinScore)
	if err != nil {
		metrics.APIErrors.WithLabelValues("top").Inc()
		h.logger.Error("top candidates error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(top); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, topCacheTTL)
		}
	}
	return xhttp.SuccessResponse(c, top)
}
