package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/google/uuid"
)

func newOutboxEvent(w *entity.ResizeWorkflow) (*entity.OutboxEvent, error) {
	b, err := json.Marshal(entity.NewWorkflowEvent(w))
	if err != nil {
		return nil, fmt.Errorf("history - newOutboxEvent - json.Marshal: %w", err)
	}

	return &entity.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: w.ID,
		Payload:     b,
		Status:      entity.OutboxPending,
		CreatedAt:   time.Now(),
		RetryCount:  0,
	}, nil
}
