package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SqueezeWatch/internal/di"
	"SqueezeWatch/internal/handler/engineapi"
	icache "SqueezeWatch/internal/service/cache"
	"SqueezeWatch/internal/usecase"
	"SqueezeWatch/pkg/config"
	xhttp "SqueezeWatch/pkg/http"
	applogger "SqueezeWatch/pkg/logger"
)

// The engine is the stateless scoring process. It shares the ClickHouse
// store with the app tier but carries no Kafka, Redis, or scheduler wiring,
// so it is assembled by hand instead of through the injector.
func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	chClient, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		l.Error("clickhouse init failed", applogger.Error(err))
		os.Exit(1)
	}

	rec := di.ProvideMetrics()
	metricStore := di.ProvideMetricStore(chClient, l)
	warrantStore := di.ProvideWarrantStore(chClient, l)
	configStore := di.ProvideConfigStore(chClient)

	cfgSvc := di.ProvideConfigService(configStore, l)
	score := usecase.NewScoreUseCase(metricStore, warrantStore, cfgSvc, rec, l)
	handler := engineapi.NewEngineEchoHandler(l, score, cfgSvc)
	handler.SetCache(icache.NewTTLCache())

	server := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Engine.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
	if err := server.Start(); err != nil {
		l.Error("engine server start failed", applogger.Error(err))
		os.Exit(1)
	}
	l.Info("engine started", applogger.Int("port", cfg.Engine.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("engine shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		l.Error("engine shutdown error", applogger.Error(err))
	}
	if err := chClient.Close(); err != nil {
		l.Warn("clickhouse close error", applogger.Error(err))
	}
}
