package persistent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWorkflowRepo_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryWorkflowRepo(10)
	now := time.Now()

	w := entity.NewResizeWorkflow("a.png", 100, 50, now)
	require.NoError(t, repo.Save(ctx, w))

	require.NoError(t, w.Transition(entity.StateSubmitting, now))
	require.NoError(t, repo.Save(ctx, w))

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StateSubmitting, got.State)

	list, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryWorkflowRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryWorkflowRepo(10)

	w := entity.NewResizeWorkflow("a.png", 100, 50, time.Now())
	require.NoError(t, repo.Save(ctx, w))

	w.Message = "changed after save"

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Message)
}

func TestMemoryWorkflowRepo_ListRecentEvicts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryWorkflowRepo(3)

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		w := entity.NewResizeWorkflow(fmt.Sprintf("%d.png", i), 10, 10, time.Now())
		require.NoError(t, repo.Save(ctx, w))
		ids = append(ids, w.ID)
	}

	list, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "4.png", list[0].Filename)
	assert.Equal(t, "2.png", list[2].Filename)

	_, err = repo.GetByID(ctx, ids[0])
	assert.ErrorIs(t, err, errs.ErrWorkflowNotFound)

	list, err = repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
