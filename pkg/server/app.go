package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SqueezeWatch/internal/handler/api"
	mid "SqueezeWatch/internal/middleware"
	"SqueezeWatch/internal/scheduler"
	"SqueezeWatch/pkg/config"
	xhttp "SqueezeWatch/pkg/http"
	pkgkafka "SqueezeWatch/pkg/kafka"
	applogger "SqueezeWatch/pkg/logger"
	"SqueezeWatch/pkg/queue"

	"github.com/labstack/echo/v4"
)

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the business-tier process lifecycle: HTTP API, Kafka
// ingest, the backfill queue, the nightly scheduler, and the live feed.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	consumer    *pkgkafka.Consumer
	queue       *queue.RedisQueue
	sched       *scheduler.Scheduler
	fanout      *mid.BroadcastPipeline
	hub         *api.LiveHub
	closers     []closer
}

// Option configures App.
type Option func(*App)

func WithHTTPHandler(h xhttp.Handler) Option { return func(a *App) { a.httpHandler = h } }

func WithConsumer(c *pkgkafka.Consumer) Option { return func(a *App) { a.consumer = c } }

func WithQueue(q *queue.RedisQueue) Option { return func(a *App) { a.queue = q } }

func WithScheduler(s *scheduler.Scheduler) Option { return func(a *App) { a.sched = s } }

func WithFanout(f *mid.BroadcastPipeline) Option { return func(a *App) { a.fanout = f } }

func WithHub(h *api.LiveHub) Option { return func(a *App) { a.hub = h } }

// WithCloser registers a resource to close on shutdown, in reverse order.
func WithCloser(name string, fn func() error) Option {
	return func(a *App) { a.closers = append(a.closers, closer{name: name, fn: fn}) }
}

// New creates a new App instance.
func New(cfg *config.Config, log *applogger.Logger, opts ...Option) *App {
	a := &App{cfg: cfg, log: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.fanout != nil {
		a.fanout.Start()
	}

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.log.Error("queue start error", applogger.Error(err))
			return err
		}
	}

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
	}

	if a.sched != nil {
		if err := a.sched.Start(); err != nil {
			a.log.Error("scheduler start error", applogger.Error(err))
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("app started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services, producers last so buffered alerts
// can still flush.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.sched != nil {
		if err := a.sched.Stop(ctx); err != nil {
			a.log.Warn("scheduler stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.log.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.fanout != nil {
		a.fanout.Stop()
	}
	if a.hub != nil {
		_ = a.hub.Close()
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}

// routeSet registers several handlers as one.
type routeSet struct {
	handlers []xhttp.Handler
}

// Routes combines handlers into a single route registrar.
func Routes(handlers ...xhttp.Handler) xhttp.Handler {
	return &routeSet{handlers: handlers}
}

func (r *routeSet) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}
