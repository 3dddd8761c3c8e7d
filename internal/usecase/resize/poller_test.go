package resize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure/backend"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResizeAPI struct {
	mu sync.Mutex

	noTask    bool
	resizeErr error
	resizes   int

	statuses []entity.TaskStatus // last one repeats
	pollErr  error
	polls    map[string]int
}

func (f *fakeResizeAPI) Resize(ctx context.Context, _ string, _, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resizes++

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.resizeErr != nil {
		return "", f.resizeErr
	}
	if f.noTask {
		return "", nil
	}

	return fmt.Sprintf("task-%d", f.resizes), nil
}

func (f *fakeResizeAPI) TaskStatus(ctx context.Context, taskID string) (entity.TaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.polls == nil {
		f.polls = make(map[string]int)
	}
	f.polls[taskID]++

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.pollErr != nil {
		return "", f.pollErr
	}
	if len(f.statuses) == 0 {
		return entity.TaskProcessing, nil
	}

	n := min(f.polls[taskID], len(f.statuses))

	return f.statuses[n-1], nil
}

func (f *fakeResizeAPI) pollCount(taskID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.polls[taskID]
}

func (f *fakeResizeAPI) resizeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.resizes
}

type fakeRecorder struct {
	mu     sync.Mutex
	states []entity.WorkflowState
}

func (f *fakeRecorder) Record(_ context.Context, w *entity.ResizeWorkflow) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.states = append(f.states, w.State)

	return nil
}

func (f *fakeRecorder) recorded() []entity.WorkflowState {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]entity.WorkflowState(nil), f.states...)
}

func newTestPoller(api *fakeResizeAPI, opts ...Option) *Poller {
	return New(api, logger.New("disabled"), opts...)
}

func TestStart_InvalidInputMakesNoBackendCall(t *testing.T) {
	api := &fakeResizeAPI{}
	p := newTestPoller(api)

	tests := []struct {
		name          string
		filename      string
		width, height int
		want          error
	}{
		{"zero width", "a.png", 0, 100, errs.ErrInvalidDimensions},
		{"height over limit", "a.png", 100, 5001, errs.ErrInvalidDimensions},
		{"negative", "a.png", -5, 100, errs.ErrInvalidDimensions},
		{"no filename", "", 100, 100, errs.ErrFilenameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Start(context.Background(), tt.filename, tt.width, tt.height)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Zero(t, api.resizeCount())
	assert.Empty(t, p.List())
}

func TestPoller_TimeoutStopsPolling(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeResizeAPI{}
		p := newTestPoller(api)
		begin := time.Now()

		wf, err := p.Start(context.Background(), "a.png", 320, 240)
		require.NoError(t, err)
		require.Equal(t, entity.StateProcessing, wf.State)

		wf, err = p.Wait(context.Background(), wf.ID)
		require.NoError(t, err)

		assert.Equal(t, 5*time.Minute, time.Since(begin))
		assert.Equal(t, entity.StateTimeout, wf.State)
		assert.Equal(t, entity.MsgPollTimeout, wf.Message)
		require.NotNil(t, wf.FinishedAt)

		polls := api.pollCount(wf.TaskID)
		assert.GreaterOrEqual(t, polls, 149)
		assert.LessOrEqual(t, polls, 150)

		time.Sleep(10 * time.Minute)
		synctest.Wait()

		assert.Equal(t, polls, api.pollCount(wf.TaskID))
	})
}

func TestPoller_CompletionStopsPolling(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeResizeAPI{statuses: []entity.TaskStatus{
			entity.TaskQueued,
			entity.TaskProcessing,
			entity.TaskCompleted,
		}}

		var (
			p         *Poller
			callbacks int
		)
		p = newTestPoller(api, OnComplete(func(filename string, width, height int) {
			callbacks++
			assert.Equal(t, "a.png", filename)
			assert.Equal(t, 320, width)
			assert.Equal(t, 240, height)

			// the record is updated before the workflow reports completion
			wf := p.List()[0]
			assert.Equal(t, entity.StateProcessing, wf.State)
		}))
		begin := time.Now()

		wf, err := p.Start(context.Background(), "a.png", 320, 240)
		require.NoError(t, err)

		wf, err = p.Wait(context.Background(), wf.ID)
		require.NoError(t, err)

		assert.Equal(t, 6*time.Second, time.Since(begin))
		assert.Equal(t, entity.StateCompleted, wf.State)
		assert.Equal(t, 3, wf.Polls)
		assert.Equal(t, 1, callbacks)

		time.Sleep(time.Minute)
		synctest.Wait()

		assert.Equal(t, 3, api.pollCount(wf.TaskID))
	})
}

func TestPoller_BackendReportsFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeResizeAPI{statuses: []entity.TaskStatus{entity.TaskProcessing, entity.TaskFailed}}
		completed := false
		p := newTestPoller(api, OnComplete(func(string, int, int) { completed = true }))

		wf, err := p.Start(context.Background(), "a.png", 10, 10)
		require.NoError(t, err)

		wf, err = p.Wait(context.Background(), wf.ID)
		require.NoError(t, err)

		assert.Equal(t, entity.StateFailed, wf.State)
		assert.Equal(t, entity.MsgResizeFailed, wf.Message)
		assert.Equal(t, 2, wf.Polls)
		assert.False(t, completed)
	})
}

func TestPoller_PollErrorFailsWithoutRetry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeResizeAPI{pollErr: errors.New("connection reset")}
		p := newTestPoller(api)
		begin := time.Now()

		wf, err := p.Start(context.Background(), "a.png", 10, 10)
		require.NoError(t, err)

		wf, err = p.Wait(context.Background(), wf.ID)
		require.NoError(t, err)

		assert.Equal(t, 2*time.Second, time.Since(begin))
		assert.Equal(t, entity.StateFailed, wf.State)
		assert.Equal(t, entity.MsgPollFailed, wf.Message)

		time.Sleep(time.Minute)
		synctest.Wait()

		assert.Equal(t, 1, api.pollCount(wf.TaskID))
	})
}

func TestPoller_NoTaskIDCompletesImmediately(t *testing.T) {
	api := &fakeResizeAPI{noTask: true}

	var got [3]any
	p := newTestPoller(api, OnComplete(func(filename string, width, height int) {
		got = [3]any{filename, width, height}
	}))

	wf, err := p.Start(context.Background(), "a.png", 640, 480)
	require.NoError(t, err)

	assert.Equal(t, entity.StateCompleted, wf.State)
	assert.Empty(t, wf.TaskID)
	assert.Zero(t, wf.Polls)
	assert.Equal(t, [3]any{"a.png", 640, 480}, got)

	_, err = p.Wait(context.Background(), wf.ID)
	assert.NoError(t, err)
}

func TestPoller_SubmitFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", &backend.StatusError{Op: "Resize", StatusCode: http.StatusNotFound}, entity.MsgImageNotFound},
		{"bad request", &backend.StatusError{Op: "Resize", StatusCode: http.StatusBadRequest}, entity.MsgBadDimensions},
		{"server error", &backend.StatusError{Op: "Resize", StatusCode: http.StatusBadGateway}, entity.MsgServerError},
		{"other status", &backend.StatusError{Op: "Resize", StatusCode: http.StatusConflict}, entity.MsgSubmitFailed},
		{"transport", errors.New("dial tcp: connection refused"), "error: wrapped: dial tcp: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPoller(&fakeResizeAPI{resizeErr: fmt.Errorf("wrapped: %w", tt.err)})

			wf, err := p.Start(context.Background(), "a.png", 10, 10)
			require.NoError(t, err)

			assert.Equal(t, entity.StateFailed, wf.State)
			assert.Equal(t, tt.want, wf.Message)
		})
	}
}

func TestPoller_DismissStopsObserving(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeResizeAPI{}
		p := newTestPoller(api)

		wf, err := p.Start(context.Background(), "a.png", 10, 10)
		require.NoError(t, err)

		time.Sleep(5 * time.Second)
		synctest.Wait()
		require.Equal(t, 2, api.pollCount(wf.TaskID))

		dismissed, err := p.Dismiss(wf.ID)
		require.NoError(t, err)
		assert.True(t, dismissed.Dismissed)
		assert.Equal(t, entity.StateProcessing, dismissed.State)

		wf, err = p.Wait(context.Background(), wf.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateProcessing, wf.State)

		time.Sleep(10 * time.Minute)
		synctest.Wait()

		assert.Equal(t, 2, api.pollCount(wf.TaskID))

		_, err = p.Dismiss(wf.ID)
		assert.NoError(t, err, "dismissal always works")
	})
}

func TestPoller_DismissFinishedWorkflowChangesNothing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeResizeAPI{statuses: []entity.TaskStatus{entity.TaskCompleted}}
		rec := &fakeRecorder{}
		p := newTestPoller(api, WithRecorder(rec))

		wf, err := p.Start(context.Background(), "a.png", 10, 10)
		require.NoError(t, err)

		done, err := p.Wait(context.Background(), wf.ID)
		require.NoError(t, err)
		require.Equal(t, entity.StateCompleted, done.State)
		recorded := len(rec.recorded())

		got, err := p.Dismiss(wf.ID)
		require.NoError(t, err)
		assert.False(t, got.Dismissed)
		assert.Equal(t, entity.StateCompleted, got.State)
		assert.Equal(t, done.UpdatedAt, got.UpdatedAt)
		assert.Len(t, rec.recorded(), recorded)
	})
}

func TestPoller_CompletionAfterDismissSkipsCallback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeResizeAPI{}
		callbacks := 0
		p := newTestPoller(api, OnComplete(func(string, int, int) { callbacks++ }))

		wf, err := p.Start(context.Background(), "a.png", 10, 10)
		require.NoError(t, err)

		time.Sleep(3 * time.Second)
		synctest.Wait()

		_, err = p.Dismiss(wf.ID)
		require.NoError(t, err)

		// a completed poll result observed after the dismissal landed
		r, ok := p.lookup(wf.ID)
		require.True(t, ok)
		p.complete(r)

		got, err := p.Get(wf.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, callbacks)
		assert.True(t, got.Dismissed)
		assert.Equal(t, entity.StateProcessing, got.State)
	})
}

func TestPoller_NewWorkflowSupersedesPrevious(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeResizeAPI{}
		p := newTestPoller(api)

		first, err := p.Start(context.Background(), "a.png", 10, 10)
		require.NoError(t, err)

		time.Sleep(3 * time.Second)

		second, err := p.Start(context.Background(), "a.png", 20, 20)
		require.NoError(t, err)

		other, err := p.Start(context.Background(), "b.png", 20, 20)
		require.NoError(t, err)

		time.Sleep(10*time.Second + 500*time.Millisecond)
		synctest.Wait()

		assert.Equal(t, 1, api.pollCount(first.TaskID))
		assert.Equal(t, 5, api.pollCount(second.TaskID))
		assert.Equal(t, 5, api.pollCount(other.TaskID))

		got, err := p.Get(first.ID)
		require.NoError(t, err)
		assert.True(t, got.Dismissed)
		assert.Equal(t, entity.MsgSuperseded, got.Message)

		assert.Len(t, p.List(), 3)

		require.NoError(t, p.Shutdown(context.Background()))
	})
}

func TestPoller_RecordsEveryTransition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeResizeAPI{statuses: []entity.TaskStatus{entity.TaskProcessing, entity.TaskCompleted}}
		rec := &fakeRecorder{}
		p := newTestPoller(api, WithRecorder(rec), Interval(time.Second), Timeout(time.Minute))

		wf, err := p.Start(context.Background(), "a.png", 10, 10)
		require.NoError(t, err)

		_, err = p.Wait(context.Background(), wf.ID)
		require.NoError(t, err)

		assert.Equal(t, []entity.WorkflowState{
			entity.StateSubmitting,
			entity.StateProcessing,
			entity.StateProcessing,
			entity.StateCompleted,
		}, rec.recorded())
	})
}

func TestPoller_ShutdownStopsLoops(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeResizeAPI{}
		p := newTestPoller(api)

		wf, err := p.Start(context.Background(), "a.png", 10, 10)
		require.NoError(t, err)

		time.Sleep(3 * time.Second)
		require.NoError(t, p.Shutdown(context.Background()))

		got, err := p.Get(wf.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateProcessing, got.State)

		_, err = p.Start(context.Background(), "b.png", 10, 10)
		assert.Error(t, err)
	})
}

func TestPoller_UnknownWorkflow(t *testing.T) {
	p := newTestPoller(&fakeResizeAPI{})

	_, err := p.Get([16]byte{1})
	assert.ErrorIs(t, err, errs.ErrWorkflowNotFound)

	_, err = p.Dismiss([16]byte{1})
	assert.ErrorIs(t, err, errs.ErrWorkflowNotFound)
}
