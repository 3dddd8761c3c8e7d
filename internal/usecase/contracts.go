package usecase

import (
	"context"
	"encoding/json"
	"io"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/gallery"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/resolver"
	"github.com/google/uuid"
)

type (
	Gallery interface {
		Refresh(ctx context.Context) ([]entity.ImageRecord, error)
		List(ctx context.Context) ([]gallery.Item, error)
		Upload(ctx context.Context, filename, contentType string, size int64, data io.Reader) (json.RawMessage, error)
		ValidateUpload(contentType string, size int64) error
		MaxUploadSize() int64
		Delete(ctx context.Context, filename string) (json.RawMessage, error)
		ResolveURL(ctx context.Context, filename, prefer string) (string, resolver.Source, error)
		ViewURL(ctx context.Context, filename string) (string, resolver.Source, error)
		Download(ctx context.Context, filename string) (io.ReadCloser, string, error)
		Record(filename string) (entity.ImageRecord, bool)
	}

	Resize interface {
		Start(ctx context.Context, filename string, width, height int) (entity.ResizeWorkflow, error)
		Get(id uuid.UUID) (entity.ResizeWorkflow, error)
		List() []entity.ResizeWorkflow
		Dismiss(id uuid.UUID) (entity.ResizeWorkflow, error)
		Wait(ctx context.Context, id uuid.UUID) (entity.ResizeWorkflow, error)
	}

	History interface {
		Record(ctx context.Context, w *entity.ResizeWorkflow) error
		Get(ctx context.Context, id uuid.UUID) (*entity.ResizeWorkflow, error)
		List(ctx context.Context, limit int) ([]*entity.ResizeWorkflow, error)
	}

	Status interface {
		Check(ctx context.Context) entity.BackendHealth
		Current() entity.BackendHealth
	}

	// Outbox is what the relay worker needs to publish workflow events.
	Outbox interface {
		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error
		IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		CleanupOutbox(ctx context.Context) error
	}
)
