package persistent

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
	"github.com/google/uuid"
)

const _defaultMemoryCapacity = 200

// MemoryWorkflowRepo keeps the most recent workflows when no database is
// configured. The oldest snapshot is evicted once capacity is reached.
type MemoryWorkflowRepo struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]entity.ResizeWorkflow
	order    []uuid.UUID
	capacity int
}

func NewMemoryWorkflowRepo(capacity int) *MemoryWorkflowRepo {
	if capacity <= 0 {
		capacity = _defaultMemoryCapacity
	}

	return &MemoryWorkflowRepo{
		byID:     make(map[uuid.UUID]entity.ResizeWorkflow),
		capacity: capacity,
	}
}

func (r *MemoryWorkflowRepo) Save(_ context.Context, w *entity.ResizeWorkflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[w.ID]; !ok {
		r.order = append(r.order, w.ID)
		if len(r.order) > r.capacity {
			delete(r.byID, r.order[0])
			r.order = r.order[1:]
		}
	}

	r.byID[w.ID] = *w

	return nil
}

func (r *MemoryWorkflowRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.ResizeWorkflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("MemoryWorkflowRepo - GetByID: %w", errs.ErrWorkflowNotFound)
	}

	return &w, nil
}

// ListRecent returns up to limit workflows, newest first.
func (r *MemoryWorkflowRepo) ListRecent(_ context.Context, limit int) ([]*entity.ResizeWorkflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.ResizeWorkflow, 0, min(limit, len(r.order)))
	for _, id := range slices.Backward(r.order) {
		if len(out) == limit {
			break
		}

		w := r.byID[id]
		out = append(out, &w)
	}

	return out, nil
}

// NopTransactor runs f directly; memory repositories have nothing to commit.
type NopTransactor struct{}

func (NopTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}
