package repo

import (
	"context"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/google/uuid"
)

type (
	// WorkflowRepo stores resize workflow snapshots for the history view.
	WorkflowRepo interface {
		Save(ctx context.Context, w *entity.ResizeWorkflow) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.ResizeWorkflow, error)
		ListRecent(ctx context.Context, limit int) ([]*entity.ResizeWorkflow, error)
	}

	WorkflowOutboxRepo interface {
		Create(ctx context.Context, event *entity.OutboxEvent) error
		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		DeleteOldProcessedAndFailed(ctx context.Context) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
