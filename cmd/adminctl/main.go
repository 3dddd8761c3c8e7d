package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/config"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/app"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/controller/cli"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure"
	infrakafka "github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/kafka/consumer"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/joho/godotenv"
)

const _closeTimeout = 5 * time.Second

func main() {
	// Config
	if _, err := os.Stat(".env"); err == nil {
		err = godotenv.Load()
		if err != nil {
			log.Fatalf("config error: %s", err)
		}
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	warnings, err := cfg.Validate()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}
	for _, w := range warnings {
		log.Printf("Config warning: %s", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logs go to stderr next to the progress bars; keep them quiet by default
	level := "warn"
	if cfg.Log.Debug {
		level = "debug"
	}

	panel, err := app.NewPanel(ctx, cfg, logger.NewWithWriter(level, os.Stderr))
	if err != nil {
		log.Fatalf("adminctl: %s", err)
	}

	deps := cli.Deps{
		Gallery: panel.Gallery,
		Resize:  panel.Poller,
		History: panel.History,
		Status:  panel.Status,
	}
	if len(cfg.Kafka.Brokers) > 0 {
		deps.OpenEvents = func(ctx context.Context, fromBeginning bool) (infrastructure.EventsReceiver, error) {
			c, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic,
				consumer.FromBeginning(fromBeginning),
				consumer.ConnAttempts(3),
			)
			if err != nil {
				return nil, err
			}

			return infrakafka.NewEventConsumer(c), nil
		}
	}

	root := cli.NewRootCmd(deps)
	err = root.ExecuteContext(ctx)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), _closeTimeout)
	defer closeCancel()
	if cerr := panel.Close(closeCtx); cerr != nil {
		log.Printf("adminctl: %s", cerr)
	}

	if err != nil {
		closeCancel()
		stop()
		os.Exit(1)
	}
}
