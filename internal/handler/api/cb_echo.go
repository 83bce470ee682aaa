package api

import (
	"encoding/json"
	"time"

	"SqueezeWatch/internal/domain/models"
	icache "SqueezeWatch/internal/service/cache"
	"SqueezeWatch/internal/service/metrics"
	"SqueezeWatch/internal/usecase"
	xhttp "SqueezeWatch/pkg/http"
	xlogger "SqueezeWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

const cbCacheTTL = 5 * time.Minute

// CBEchoHandler serves convertible-bond warning queries.
type CBEchoHandler struct {
	logger *xlogger.Logger
	cb     *usecase.CBTrackingUseCase
	cache  icache.BytesCache
}

func NewCBEchoHandler(logger *xlogger.Logger, cb *usecase.CBTrackingUseCase) *CBEchoHandler {
	metrics.Register()
	return &CBEchoHandler{logger: logger, cb: cb}
}

// SetCache enables response caching for warning lists.
func (h *CBEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *CBEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/cb")
	g.GET("/warnings", h.Warnings)
	g.GET("/summary", h.Summary)
}

func (h *CBEchoHandler) Warnings(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("cb_warnings").Observe(time.Since(start).Seconds()) }()

	req := &models.CBWarningsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cacheKey := icache.WarningsKey(req.Date, req.MinLevel, req.Limit)
	if h.cache != nil {
		if b, ok, _ := h.cache.GetBytes(cacheKey); ok {
			var cached []models.CBTracking
			if err := json.Unmarshal(b, &cached); err == nil {
				return xhttp.SuccessResponse(c, cached)
			}
		}
	}

	rows, err := h.cb.Warnings(c.Request().Context(), req.Date, models.WarningLevel(req.MinLevel), req.Limit)
	if err != nil {
		metrics.APIErrors.WithLabelValues("cb_warnings").Inc()
		h.logger.Error("cb warnings error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(rows); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, cbCacheTTL)
		}
	}
	return xhttp.SuccessResponse(c, rows)
}

func (h *CBEchoHandler) Summary(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("cb_summary").Observe(time.Since(start).Seconds()) }()

	req := &models.CBSummaryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sum, err := h.cb.Summary(c.Request().Context(), req.Date)
	if err != nil {
		metrics.APIErrors.WithLabelValues("cb_summary").Inc()
		h.logger.Error("cb summary error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, sum)
}
