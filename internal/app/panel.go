package app

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Admin-Panel/config"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure/backend"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/repo"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/repo/persistent"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/gallery"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/history"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/resize"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/status"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/postgres"
)

// Panel holds the use cases shared by the HTTP server and adminctl.
type Panel struct {
	Gallery *gallery.GalleryUseCase
	Poller  *resize.Poller
	History *history.HistoryUseCase
	Status  *status.StatusUseCase

	pg *postgres.Postgres
}

// NewPanel wires the backend client, the URL resolver and the use cases.
// History goes to Postgres when PG_URL is set and to memory otherwise; the
// outbox is only written when Kafka is configured too.
func NewPanel(ctx context.Context, cfg *config.Config, l logger.Interface) (*Panel, error) {
	client, err := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, l)
	if err != nil {
		return nil, fmt.Errorf("app - NewPanel - backend.New: %w", err)
	}

	urlResolver, err := newResolver(ctx, cfg, client, l)
	if err != nil {
		return nil, fmt.Errorf("app - NewPanel - newResolver: %w", err)
	}

	p := &Panel{}

	var workflowRepo repo.WorkflowRepo = persistent.NewMemoryWorkflowRepo(0)
	var outboxRepo repo.WorkflowOutboxRepo
	var transactor repo.Transactor = persistent.NopTransactor{}

	if cfg.HistoryEnabled() {
		p.pg, err = postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
		if err != nil {
			return nil, fmt.Errorf("app - NewPanel - postgres.New: %w", err)
		}

		workflowRepo = persistent.NewWorkflowRepo(p.pg)
		transactor = p.pg
		if cfg.EventsEnabled() {
			outboxRepo = persistent.NewWorkflowOutboxRepo(p.pg)
		}
	}

	p.Gallery = gallery.New(client, urlResolver, l, cfg.Upload.MaxSize)
	p.History = history.New(workflowRepo, outboxRepo, transactor, l)
	p.Poller = resize.New(
		client,
		l,
		resize.Interval(cfg.Poller.Interval),
		resize.Timeout(cfg.Poller.Timeout),
		resize.OnComplete(p.Gallery.ApplyResize),
		resize.WithRecorder(p.History),
	)
	p.Status = status.New(client, l)

	return p, nil
}

// Close stops the poller and releases the database pool.
func (p *Panel) Close(ctx context.Context) error {
	err := p.Poller.Shutdown(ctx)

	if p.pg != nil {
		p.pg.Close()
	}

	if err != nil {
		return fmt.Errorf("app - Panel - Close: %w", err)
	}

	return nil
}
