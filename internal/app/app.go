package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/Image-Admin-Panel/config"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/controller/restapi"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/controller/worker/health"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/controller/worker/outbox"
	infrakafka "github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/httpserver"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/kafka/producer"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
)

// multipart framing on top of the largest accepted file
const _bodyOverhead = 1 << 20

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Use-Case
	panel, err := NewPanel(ctx, cfg, l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - NewPanel: %w", err))
	}

	// Health Monitor Worker
	healthMonitor := health.New(panel.Status, l, cfg.Health.Interval, cfg.Backend.Timeout)

	// Outbox Relay Worker
	var outboxRelayWorker *outbox.OutboxRelay
	if cfg.EventsEnabled() {
		kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
		}

		outboxRelayWorker = outbox.New(
			panel.History,
			infrakafka.NewEventProducer(kafkaProducer, cfg.Kafka.Topic),
			l,
			cfg.OutboxRelay.PollInterval,
			cfg.OutboxRelay.CleanupInterval,
			cfg.OutboxRelay.MarkFailedInterval,
			cfg.OutboxRelay.ProcessBatchTimeout,
			cfg.OutboxRelay.BatchSize,
			cfg.OutboxRelay.MaxRetries,
		)
	}

	// HTTP Server
	httpServer := httpserver.New(
		l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.ReadTimeout(cfg.HTTP.ReadTimeout),
		httpserver.WriteTimeout(cfg.HTTP.WriteTimeout),
		httpserver.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
		httpserver.BodyLimit(int(cfg.Upload.MaxSize)+_bodyOverhead),
	)
	restapi.NewRouter(httpServer.App, cfg, panel.Gallery, panel.Poller, panel.History, panel.Status, l)

	// Start Components
	if _, err = panel.Gallery.Refresh(ctx); err != nil {
		l.Warn("app - Run - panel.Gallery.Refresh: %v", err)
	}
	err = healthMonitor.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - healthMonitor.Start: %w", err))
	}
	if outboxRelayWorker != nil {
		err = outboxRelayWorker.Start(ctx)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - outboxRelayWorker.Start: %w", err))
		}
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	hmShutdownCtx, hmShutdownCancel := context.WithTimeout(ctx, cfg.Backend.Timeout)
	defer hmShutdownCancel()
	err = healthMonitor.Shutdown(hmShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - healthMonitor.Shutdown: %w", err))
	}

	if outboxRelayWorker != nil {
		orlShutdownCtx, orlShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
		defer orlShutdownCancel()
		err = outboxRelayWorker.Shutdown(orlShutdownCtx)
		if err != nil {
			l.Error(fmt.Errorf("app - Run - outboxRelayWorker.Shutdown: %w", err))
		}
	}

	// events recorded after the relay stopped stay in the outbox for the next run
	pShutdownCtx, pShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer pShutdownCancel()
	err = panel.Close(pShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - panel.Close: %w", err))
	}
}
