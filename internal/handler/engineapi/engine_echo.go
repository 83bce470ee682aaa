package engineapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"SqueezeWatch/internal/domain/models"
	"SqueezeWatch/internal/scoring"
	icache "SqueezeWatch/internal/service/cache"
	"SqueezeWatch/internal/usecase"
	xhttp "SqueezeWatch/pkg/http"
	xlogger "SqueezeWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// topCacheTTL bounds how stale a ranked scan may be served. Kept short so a
// config reload takes effect within one interval.
const topCacheTTL = 30 * time.Second

// EngineEchoHandler serves the engine-process scoring endpoints. Responses
// are raw model JSON so the in-process client decodes them directly; errors
// map to plain status codes for the client's failure classification.
type EngineEchoHandler struct {
	logger *xlogger.Logger
	score  *usecase.ScoreUseCase
	cfg    *usecase.ConfigService
	cache  icache.BytesCache
}

func NewEngineEchoHandler(logger *xlogger.Logger, score *usecase.ScoreUseCase, cfg *usecase.ConfigService) *EngineEchoHandler {
	return &EngineEchoHandler{logger: logger, score: score, cfg: cfg}
}

// SetCache enables in-process caching of ranked-scan responses. The engine
// has no Redis; a process-local TTL cache is enough for a stateless tier.
func (h *EngineEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *EngineEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/engine")
	g.POST("/signal", h.Signal)
	g.POST("/signals/batch", h.Batch)
	g.POST("/candidates/top", h.Top)
	g.POST("/config/reload", h.ReloadConfig)
	e.GET("/healthz", h.Healthz)
}

func (h *EngineEchoHandler) Signal(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, verr)
	}

	sig, err := h.score.Single(c.Request().Context(), req.Ticker, req.Date)
	if err != nil {
		return h.scoringError(c, "signal", err)
	}
	return c.JSON(http.StatusOK, sig)
}

func (h *EngineEchoHandler) Batch(c echo.Context) error {
	req := &models.BatchSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, verr)
	}

	start := time.Now()
	batch, err := h.score.Batch(c.Request().Context(), req.Tickers, req.Date)
	if err != nil {
		return h.scoringError(c, "batch", err)
	}
	h.logger.Debug("batch scored",
		xlogger.Int("tickers", len(req.Tickers)),
		xlogger.Duration("duration_ms", time.Since(start)),
	)
	return c.JSON(http.StatusOK, batch)
}

func (h *EngineEchoHandler) Top(c echo.Context) error {
	req := &models.TopCandidatesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, verr)
	}

	cacheKey := icache.TopKey(req.Date, req.Limit, req.MinScore)
	if h.cache != nil {
		if b, ok, _ := h.cache.GetBytes(cacheKey); ok {
			var cached models.TopCandidates
			if err := json.Unmarshal(b, &cached); err == nil {
				return c.JSON(http.StatusOK, &cached)
			}
		}
	}

	top, err := h.score.Top(c.Request().Context(), req.Date, req.Limit, req.MinScore)
	if err != nil {
		return h.scoringError(c, "top", err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(top); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, topCacheTTL)
		}
	}
	return c.JSON(http.StatusOK, top)
}

func (h *EngineEchoHandler) ReloadConfig(c echo.Context) error {
	if err := h.cfg.Reload(c.Request().Context()); err != nil {
		if errors.Is(err, scoring.ErrInvalidConfig) {
			h.logger.Warn("config reload rejected", xlogger.Error(err))
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		h.logger.Error("config reload failed", xlogger.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "reloaded"})
}

func (h *EngineEchoHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *EngineEchoHandler) scoringError(c echo.Context, endpoint string, err error) error {
	switch {
	case errors.Is(err, usecase.ErrNoData), errors.Is(err, scoring.ErrInsufficientData):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("scoring failed", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
