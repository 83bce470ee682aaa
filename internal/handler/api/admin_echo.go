package api

import (
	"context"
	"time"

	"SqueezeWatch/internal/domain/models"
	"SqueezeWatch/internal/service/metrics"
	"SqueezeWatch/internal/usecase"
	xhttp "SqueezeWatch/pkg/http"
	xlogger "SqueezeWatch/pkg/logger"
	"SqueezeWatch/pkg/queue"

	"github.com/labstack/echo/v4"
)

// EngineReloader pushes a config reload to the remote scoring engine.
type EngineReloader interface {
	ReloadConfig(ctx context.Context) error
}

// AdminEchoHandler serves runtime configuration and maintenance endpoints.
type AdminEchoHandler struct {
	logger   *xlogger.Logger
	cfg      *usecase.ConfigService
	reloader EngineReloader
	queue    queue.QueueService
}

func NewAdminEchoHandler(logger *xlogger.Logger, cfg *usecase.ConfigService, reloader EngineReloader, q queue.QueueService) *AdminEchoHandler {
	metrics.Register()
	return &AdminEchoHandler{logger: logger, cfg: cfg, reloader: reloader, queue: q}
}

func (h *AdminEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/admin")
	g.PUT("/config", h.UpdateConfig)
	g.POST("/backfill", h.Backfill)
}

// UpdateConfig persists one key, reloads the local configuration, then asks
// the engine process to reload as well. Both tiers reject invalid merges and
// keep serving the previous configuration.
func (h *AdminEchoHandler) UpdateConfig(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("config_update").Observe(time.Since(start).Seconds()) }()

	req := &models.ConfigUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.cfg.Update(c.Request().Context(), req.Key, req.Value); err != nil {
		metrics.APIErrors.WithLabelValues("config_update").Inc()
		h.logger.Error("config update rejected", xlogger.String("key", req.Key), xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}

	if h.reloader != nil {
		if err := h.reloader.ReloadConfig(c.Request().Context()); err != nil {
			// The engine picks the change up on its next reload; the write
			// itself succeeded.
			h.logger.Warn("engine reload push failed", xlogger.Error(err))
		}
	}

	h.logger.Info("config updated", xlogger.String("key", req.Key))
	return xhttp.SuccessResponse(c, map[string]string{"key": req.Key, "value": req.Value})
}

// Backfill enqueues a historical re-scoring run; the queue worker replays the
// range date by date.
func (h *AdminEchoHandler) Backfill(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("backfill").Observe(time.Since(start).Seconds()) }()

	req := &models.BackfillRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.From > req.To {
		return xhttp.BadRequestResponse(c, "from must not be after to")
	}

	payload := usecase.BackfillPayload{From: req.From, To: req.To}
	if err := h.queue.PublishMessage(c.Request().Context(), usecase.BackfillJobType, payload); err != nil {
		metrics.APIErrors.WithLabelValues("backfill").Inc()
		h.logger.Error("backfill enqueue failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.logger.Info("backfill enqueued", xlogger.String("from", req.From), xlogger.String("to", req.To))
	return xhttp.CreatedResponse(c, map[string]string{"from": req.From, "to": req.To, "status": "queued"})
}
