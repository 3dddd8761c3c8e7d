package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/postgres"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	workflowsTable = "resize_workflows"

	// Columns
	idColumn         = "id"
	filenameColumn   = "filename"
	widthColumn      = "width"
	heightColumn     = "height"
	taskIDColumn     = "task_id"
	stateColumn      = "state"
	messageColumn    = "message"
	pollsColumn      = "polls"
	dismissedColumn  = "dismissed"
	createdAtColumn  = "created_at"
	updatedAtColumn  = "updated_at"
	finishedAtColumn = "finished_at"
)

var workflowColumns = []string{
	idColumn,
	filenameColumn,
	widthColumn,
	heightColumn,
	taskIDColumn,
	stateColumn,
	messageColumn,
	pollsColumn,
	dismissedColumn,
	createdAtColumn,
	updatedAtColumn,
	finishedAtColumn,
}

type WorkflowRepo struct {
	*postgres.Postgres
}

func NewWorkflowRepo(pg *postgres.Postgres) *WorkflowRepo {
	return &WorkflowRepo{pg}
}

// Save inserts the workflow or overwrites its mutable columns.
func (r *WorkflowRepo) Save(ctx context.Context, w *entity.ResizeWorkflow) error {
	sql, args, err := r.Builder.
		Insert(workflowsTable).
		Columns(workflowColumns...).
		Values(
			w.ID,
			w.Filename,
			w.Width,
			w.Height,
			w.TaskID,
			w.State,
			w.Message,
			w.Polls,
			w.Dismissed,
			w.CreatedAt,
			w.UpdatedAt,
			w.FinishedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			task_id = EXCLUDED.task_id,
			state = EXCLUDED.state,
			message = EXCLUDED.message,
			polls = EXCLUDED.polls,
			dismissed = EXCLUDED.dismissed,
			updated_at = EXCLUDED.updated_at,
			finished_at = EXCLUDED.finished_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("WorkflowRepo - Save - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("WorkflowRepo - Save - executor.Exec: %w", err)
	}

	return nil
}

func (r *WorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ResizeWorkflow, error) {
	sql, args, err := r.Builder.
		Select(workflowColumns...).
		From(workflowsTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("WorkflowRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	w, err := scanWorkflow(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("WorkflowRepo - GetByID: %w", errs.ErrWorkflowNotFound)
		}
		return nil, fmt.Errorf("WorkflowRepo - GetByID - executor.QueryRow: %w", err)
	}

	return w, nil
}

func (r *WorkflowRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ResizeWorkflow, error) {
	sql, args, err := r.Builder.
		Select(workflowColumns...).
		From(workflowsTable).
		OrderBy(createdAtColumn + " DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("WorkflowRepo - ListRecent - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("WorkflowRepo - ListRecent - executor.Query: %w", err)
	}
	defer rows.Close()

	workflows := make([]*entity.ResizeWorkflow, 0, limit)
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("WorkflowRepo - ListRecent - rows.Scan: %w", err)
		}
		workflows = append(workflows, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("WorkflowRepo - ListRecent - rows.Err: %w", err)
	}

	return workflows, nil
}

func scanWorkflow(row pgx.Row) (*entity.ResizeWorkflow, error) {
	var w entity.ResizeWorkflow

	err := row.Scan(
		&w.ID,
		&w.Filename,
		&w.Width,
		&w.Height,
		&w.TaskID,
		&w.State,
		&w.Message,
		&w.Polls,
		&w.Dismissed,
		&w.CreatedAt,
		&w.UpdatedAt,
		&w.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	return &w, nil
}
