package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"catalytics/internal/domain/models"
	"catalytics/internal/scheduler"
	svcmetrics "catalytics/internal/service/metrics"
	"catalytics/internal/usecase"
	"catalytics/pkg/config"
	xhttp "catalytics/pkg/http"
	pkgkafka "catalytics/pkg/kafka"
	applogger "catalytics/pkg/logger"
	"catalytics/pkg/queue"
)

// Components are the wired parts of the application. Optional parts are nil
// when disabled in config.
type Components struct {
	Handlers  []xhttp.Handler
	Ingest    *usecase.IngestProcessor
	Consumer  *pkgkafka.Consumer
	Snapshots pkgkafka.MessageHandler
	Queue     *queue.RedisQueue
	Scheduler *scheduler.IngestScheduler
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	c          Components
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, logger *applogger.Logger, c Components) *App {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &App{cfg: cfg, logger: logger, c: c}
}

// Ingest runs one ingestion in-process, bypassing the queue.
func (a *App) Ingest(ctx context.Context, category models.Category, day time.Time) (usecase.IngestReport, error) {
	if a.c.Ingest == nil {
		return usecase.IngestReport{}, errors.New("ingest processor not configured")
	}
	return a.c.Ingest.Ingest(ctx, category, day)
}

// Run starts every configured service and blocks until ctx is cancelled or
// the process receives SIGINT/SIGTERM. Infrastructure clients are released by
// the DI cleanup, not here.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		svcmetrics.Register()
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.c.Handlers,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
		xhttp.WithMetricsPath(metricsPath),
	)

	if a.c.Consumer != nil && a.c.Snapshots != nil {
		a.c.Consumer.RegisterHandler(a.c.Snapshots)
		if err := a.c.Consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
	}

	if a.c.Queue != nil {
		if err := a.c.Queue.Start(); err != nil {
			a.shutdown()
			return fmt.Errorf("start job queue: %w", err)
		}
	}

	if a.c.Scheduler != nil {
		if err := a.c.Scheduler.Start(); err != nil {
			a.shutdown()
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.shutdown()
		return fmt.Errorf("start http server: %w", err)
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	a.shutdown()
	return nil
}

// shutdown stops services in reverse start order.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
		}
	}
	if a.c.Scheduler != nil {
		a.c.Scheduler.Stop(ctx)
	}
	if a.c.Queue != nil {
		if err := a.c.Queue.Stop(ctx); err != nil {
			a.logger.Warn("job queue stop error", applogger.Error(err))
		}
	}
	if a.c.Consumer != nil {
		if err := a.c.Consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
}

