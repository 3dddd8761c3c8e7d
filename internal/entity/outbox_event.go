package entity

import (
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxProcessed  OutboxStatus = "processed"
	OutboxFailed     OutboxStatus = "failed"
)

// OutboxEvent is a workflow event waiting to be relayed to Kafka.
type OutboxEvent struct {
	ID          uuid.UUID    `json:"id"`
	AggregateID uuid.UUID    `json:"aggregate_id"` // workflow id
	Payload     []byte       `json:"payload"`
	Status      OutboxStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
	RetryCount  int          `json:"retry_count"`
}

// WorkflowEvent is the published payload: a terminal workflow snapshot.
type WorkflowEvent struct {
	WorkflowID uuid.UUID     `json:"workflow_id"`
	Filename   string        `json:"filename"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	TaskID     string        `json:"task_id,omitempty"`
	State      WorkflowState `json:"state"`
	Message    string        `json:"message,omitempty"`
	Polls      int           `json:"polls"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

func NewWorkflowEvent(w *ResizeWorkflow) WorkflowEvent {
	return WorkflowEvent{
		WorkflowID: w.ID,
		Filename:   w.Filename,
		Width:      w.Width,
		Height:     w.Height,
		TaskID:     w.TaskID,
		State:      w.State,
		Message:    w.Message,
		Polls:      w.Polls,
		FinishedAt: w.FinishedAt,
	}
}
