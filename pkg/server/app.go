package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/scheduler"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	scheduler  *scheduler.Scheduler
	chClient   *pkgch.Client
	producer   *pkgkafka.Producer
	store      domrepo.SignalStore
	events     domrepo.EventPublisher
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	sched *scheduler.Scheduler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	store domrepo.SignalStore,
	events domrepo.EventPublisher,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		scheduler: sched,
		chClient:  chClient,
		producer:  producer,
		store:     store,
		events:    events,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithMetricsMiddleware(a.log, time.Second))
	}
	a.httpServer = xhttp.NewServer(a.handler, serverOpts...)

	if a.cfg.Scheduler.Enabled {
		if err := a.scheduler.RegisterAll(); err != nil {
			a.log.Error("scheduler registration error", applogger.Error(err))
			return err
		}
		a.scheduler.Start()
		if a.cfg.Scheduler.RunOnStart {
			go a.scheduler.RunAllNow()
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("signal pipeline up",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("environment", a.cfg.Environment))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.cfg.Scheduler.Enabled {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// The event publisher owns the producer; close it directly only
	// when no publisher wraps it.
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.log.Warn("event publisher close error", applogger.Error(err))
		}
	} else if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("signal store close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
