package entity

import (
	"fmt"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
	"github.com/google/uuid"
)

type WorkflowState string

const (
	StateIdle       WorkflowState = "idle"
	StateSubmitting WorkflowState = "submitting"
	StateProcessing WorkflowState = "processing"
	StateCompleted  WorkflowState = "completed"
	StateFailed     WorkflowState = "failed"
	StateTimeout    WorkflowState = "timeout"
)

func (s WorkflowState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimeout
}

// TaskStatus is what the backend reports for a resize job.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

const (
	MsgResizeFailed = "resize failed, please try again"
	MsgPollFailed   = "could not check the task status, reload to verify the result"
	MsgPollTimeout  = "timed out waiting for the resize, it may still be running; reload to verify"

	// submission failures, by backend status
	MsgImageNotFound = "image not found, check that the file exists"
	MsgBadDimensions = "invalid dimensions, check the values"
	MsgServerError   = "server error, try again later"
	MsgSubmitFailed  = "could not resize the image, please try again"
	MsgSuperseded    = "superseded by a newer resize of the same image"
)

var transitions = map[WorkflowState][]WorkflowState{
	StateIdle:       {StateSubmitting},
	StateSubmitting: {StateProcessing, StateCompleted, StateFailed},
	StateProcessing: {StateProcessing, StateCompleted, StateFailed, StateTimeout},
}

// ResizeWorkflow tracks one resize request from submission to a terminal
// state.
type ResizeWorkflow struct {
	ID       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`

	TaskID    string        `json:"task_id,omitempty"`
	State     WorkflowState `json:"state"`
	Message   string        `json:"message,omitempty"`
	Polls     int           `json:"polls"`
	Dismissed bool          `json:"dismissed"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func NewResizeWorkflow(filename string, width, height int, now time.Time) *ResizeWorkflow {
	return &ResizeWorkflow{
		ID:        uuid.New(),
		Filename:  filename,
		Width:     width,
		Height:    height,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the workflow to state to. Terminal states are final.
func (w *ResizeWorkflow) Transition(to WorkflowState, now time.Time) error {
	allowed := false
	for _, s := range transitions[w.State] {
		if s == to {
			allowed = true

			break
		}
	}

	if !allowed {
		return fmt.Errorf("%s -> %s: %w", w.State, to, errs.ErrInvalidTransition)
	}

	w.State = to
	w.UpdatedAt = now

	if to.Terminal() {
		w.FinishedAt = &now
	}

	return nil
}
