package history

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/repo"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/google/uuid"
)

// HistoryUseCase persists workflow snapshots and, when an outbox is wired,
// queues an event for every workflow that reaches a terminal state.
type HistoryUseCase struct {
	workflowRepo repo.WorkflowRepo
	outboxRepo   repo.WorkflowOutboxRepo
	transactor   repo.Transactor

	logger logger.Interface
}

// New builds the use case; outboxRepo may be nil when events are disabled.
func New(
	workflowRepo repo.WorkflowRepo,
	outboxRepo repo.WorkflowOutboxRepo,
	transactor repo.Transactor,
	l logger.Interface,
) *HistoryUseCase {
	return &HistoryUseCase{
		workflowRepo: workflowRepo,
		outboxRepo:   outboxRepo,
		transactor:   transactor,
		logger:       l,
	}
}

func (uc *HistoryUseCase) Record(ctx context.Context, w *entity.ResizeWorkflow) error {
	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. snapshot
		if err := uc.workflowRepo.Save(ctx, w); err != nil {
			return fmt.Errorf("HistoryUseCase - Record - uc.workflowRepo.Save: %w", err)
		}

		if uc.outboxRepo == nil || !w.State.Terminal() || w.Dismissed {
			return nil
		}

		// 2. event, same transaction
		event, err := newOutboxEvent(w)
		if err != nil {
			return fmt.Errorf("HistoryUseCase - Record - newOutboxEvent: %w", err)
		}
		if err := uc.outboxRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("HistoryUseCase - Record - uc.outboxRepo.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("HistoryUseCase - Record - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}

func (uc *HistoryUseCase) Get(ctx context.Context, id uuid.UUID) (*entity.ResizeWorkflow, error) {
	w, err := uc.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("HistoryUseCase - Get - uc.workflowRepo.GetByID: %w", err)
	}

	return w, nil
}

func (uc *HistoryUseCase) List(ctx context.Context, limit int) ([]*entity.ResizeWorkflow, error) {
	ws, err := uc.workflowRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("HistoryUseCase - List - uc.workflowRepo.ListRecent: %w", err)
	}

	return ws, nil
}

func (uc *HistoryUseCase) GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	events, err := uc.outboxRepo.GetPendingEvents(ctx, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("HistoryUseCase - GetPendingEvents - uc.outboxRepo.GetPendingEvents: %w", err)
	}

	return events, nil
}

func (uc *HistoryUseCase) MarkAsProcessingBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outboxRepo.MarkAsProcessingBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("HistoryUseCase - MarkAsProcessingBatch - uc.outboxRepo.MarkAsProcessingBatch: %w", err)
	}

	return nil
}

func (uc *HistoryUseCase) MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outboxRepo.MarkAsProcessedBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("HistoryUseCase - MarkAsProcessedBatch - uc.outboxRepo.MarkAsProcessedBatch: %w", err)
	}

	return nil
}

func (uc *HistoryUseCase) IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outboxRepo.IncrementRetryCountBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("HistoryUseCase - IncrementRetryCountBatch - uc.outboxRepo.IncrementRetryCountBatch: %w", err)
	}

	return nil
}

func (uc *HistoryUseCase) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	err := uc.outboxRepo.MarkMaxRetriesAsFailed(ctx, maxRetries)
	if err != nil {
		return fmt.Errorf("HistoryUseCase - MarkMaxRetriesAsFailed - uc.outboxRepo.MarkMaxRetriesAsFailed: %w", err)
	}

	return nil
}

func (uc *HistoryUseCase) CleanupOutbox(ctx context.Context) error {
	count, err := uc.outboxRepo.DeleteOldProcessedAndFailed(ctx)
	if err != nil {
		return fmt.Errorf("HistoryUseCase - CleanupOutbox - uc.outboxRepo.DeleteOldProcessedAndFailed: %w", err)
	}

	if count > 0 {
		uc.logger.Info("HistoryUseCase - CleanupOutbox - deleted old events, count = %d", count)
	}

	return nil
}

func eventIDs(events []*entity.OutboxEvent) uuid.UUIDs {
	IDs := make(uuid.UUIDs, 0, len(events))
	for _, event := range events {
		IDs = append(IDs, event.ID)
	}

	return IDs
}
