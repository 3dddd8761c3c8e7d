package resize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure/backend"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
	"github.com/google/uuid"
)

const (
	_defaultInterval = 2 * time.Second
	_defaultTimeout  = 5 * time.Minute

	_recordTimeout  = 5 * time.Second
	_retainFinished = 15 * time.Minute
)

var (
	errPollTimeout = errors.New("polling deadline exceeded")
	errDismissed   = errors.New("workflow dismissed")
	errSuperseded  = errors.New("workflow superseded")
	errShutdown    = errors.New("poller shut down")
)

type (
	// CompletionFunc receives the dimensions that were submitted.
	CompletionFunc func(filename string, width, height int)

	// Recorder persists workflow snapshots.
	Recorder interface {
		Record(ctx context.Context, w *entity.ResizeWorkflow) error
	}
)

// run is one workflow and the loop observing it. wf is guarded by mu; the
// loop is the only writer of state once submission is over.
type run struct {
	id       uuid.UUID
	filename string

	mu     sync.Mutex
	wf     entity.ResizeWorkflow
	cancel context.CancelCauseFunc
	done   chan struct{}
}

func (r *run) snapshot() entity.ResizeWorkflow {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.wf
}

// Poller drives resize workflows: submit, then poll the task status at a
// fixed delay until a terminal state or the deadline.
type Poller struct {
	api        infrastructure.ResizeAPI
	recorder   Recorder
	onComplete CompletionFunc
	logger     logger.Interface

	interval time.Duration
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	runs   map[uuid.UUID]*run
	active map[string]uuid.UUID // filename -> observed workflow
}

func New(api infrastructure.ResizeAPI, l logger.Interface, opts ...Option) *Poller {
	p := &Poller{
		api:      api,
		logger:   l,
		interval: _defaultInterval,
		timeout:  _defaultTimeout,
		runs:     make(map[uuid.UUID]*run),
		active:   make(map[string]uuid.UUID),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.ctx, p.cancel = context.WithCancelCause(context.Background())

	return p
}

// Start validates the request, submits it and, when the backend hands back a
// task id, starts polling in the background. A submission failure is not an
// error: the returned workflow is in the failed state with a message.
func (p *Poller) Start(ctx context.Context, filename string, width, height int) (entity.ResizeWorkflow, error) {
	if filename == "" {
		return entity.ResizeWorkflow{}, fmt.Errorf("Poller - Start: %w", errs.ErrFilenameRequired)
	}

	if err := ValidateDimensions(width, height); err != nil {
		return entity.ResizeWorkflow{}, fmt.Errorf("Poller - Start - ValidateDimensions: %w", err)
	}

	if p.ctx.Err() != nil {
		return entity.ResizeWorkflow{}, fmt.Errorf("Poller - Start: %w", errShutdown)
	}

	now := time.Now()
	wf := entity.NewResizeWorkflow(filename, width, height, now)
	if err := wf.Transition(entity.StateSubmitting, now); err != nil {
		return entity.ResizeWorkflow{}, fmt.Errorf("Poller - Start - wf.Transition: %w", err)
	}

	runCtx, cancel := context.WithCancelCause(p.ctx)
	r := &run{
		id:       wf.ID,
		filename: filename,
		wf:       *wf,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	p.register(r)
	p.record(r.snapshot())

	p.logger.Debug("Poller - Start - %s: submitting %dx%d for %s", wf.ID, width, height, filename)

	// dismissal aborts the submission too
	submitCtx, stop := context.WithCancel(ctx)
	defer stop()
	unhook := context.AfterFunc(runCtx, stop)
	defer unhook()

	taskID, err := p.api.Resize(submitCtx, filename, width, height)

	if runCtx.Err() != nil {
		p.finish(r)

		return r.snapshot(), nil
	}

	switch {
	case err != nil:
		p.logger.Error(err, "Poller - Start - p.api.Resize")
		p.settle(r, entity.StateFailed, submitMessage(err))
	case taskID == "":
		p.complete(r)
	default:
		p.begin(runCtx, r, taskID)
	}

	return r.snapshot(), nil
}

// Get returns the workflow's last observed state.
func (p *Poller) Get(id uuid.UUID) (entity.ResizeWorkflow, error) {
	r, ok := p.lookup(id)
	if !ok {
		return entity.ResizeWorkflow{}, fmt.Errorf("Poller - Get: %w", errs.ErrWorkflowNotFound)
	}

	return r.snapshot(), nil
}

// List returns the tracked workflows, newest first.
func (p *Poller) List() []entity.ResizeWorkflow {
	p.mu.Lock()
	runs := make([]*run, 0, len(p.runs))
	for _, r := range p.runs {
		runs = append(runs, r)
	}
	p.mu.Unlock()

	out := make([]entity.ResizeWorkflow, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.snapshot())
	}

	slices.SortFunc(out, func(a, b entity.ResizeWorkflow) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out
}

// Dismiss stops observing a workflow. The backend job is left alone and the
// workflow keeps the state it had. A finished workflow is returned as is.
func (p *Poller) Dismiss(id uuid.UUID) (entity.ResizeWorkflow, error) {
	r, ok := p.lookup(id)
	if !ok {
		return entity.ResizeWorkflow{}, fmt.Errorf("Poller - Dismiss: %w", errs.ErrWorkflowNotFound)
	}

	r.mu.Lock()
	if r.wf.State.Terminal() || r.wf.Dismissed {
		snap := r.wf
		r.mu.Unlock()

		return snap, nil
	}
	r.wf.Dismissed = true
	r.wf.UpdatedAt = time.Now()
	snap := r.wf
	r.mu.Unlock()

	r.cancel(errDismissed)
	p.release(r)
	p.record(snap)

	p.logger.Debug("Poller - Dismiss - %s dismissed in state %s", id, snap.State)

	return snap, nil
}

// Wait blocks until the workflow stops being observed or ctx is done.
func (p *Poller) Wait(ctx context.Context, id uuid.UUID) (entity.ResizeWorkflow, error) {
	r, ok := p.lookup(id)
	if !ok {
		return entity.ResizeWorkflow{}, fmt.Errorf("Poller - Wait: %w", errs.ErrWorkflowNotFound)
	}

	select {
	case <-r.done:
		return r.snapshot(), nil
	case <-ctx.Done():
		return r.snapshot(), fmt.Errorf("Poller - Wait: %w", ctx.Err())
	}
}

// Shutdown cancels every polling loop and waits for them to return.
func (p *Poller) Shutdown(ctx context.Context) error {
	p.cancel(errShutdown)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Poller - Shutdown: %w", ctx.Err())
	}
}

func (p *Poller) begin(runCtx context.Context, r *run, taskID string) {
	r.mu.Lock()
	r.wf.TaskID = taskID
	err := r.wf.Transition(entity.StateProcessing, time.Now())
	snap := r.wf
	r.mu.Unlock()

	if err != nil {
		p.logger.Error(err, "Poller - begin - r.wf.Transition")
		p.finish(r)

		return
	}

	p.record(snap)

	p.logger.Debug("Poller - begin - %s: polling task %s every %s", snap.ID, taskID, p.interval)

	p.wg.Add(1)
	go p.poll(runCtx, r, taskID)
}

// poll runs one status request at a time: wait, poll, apply, repeat. The
// deadline and the timer live and die with this goroutine.
func (p *Poller) poll(runCtx context.Context, r *run, taskID string) {
	defer p.wg.Done()

	ctx, cancel := context.WithTimeoutCause(runCtx, p.timeout, errPollTimeout)
	defer cancel()

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.stopped(ctx, r)

			return
		case <-timer.C:
		}

		status, err := p.api.TaskStatus(ctx, taskID)
		if ctx.Err() != nil {
			p.stopped(ctx, r)

			return
		}

		if p.observe(ctx, r, status, err) {
			return
		}

		timer.Reset(p.interval)
	}
}

// observe applies one poll result and reports whether the loop is over.
func (p *Poller) observe(ctx context.Context, r *run, status entity.TaskStatus, pollErr error) bool {
	r.mu.Lock()
	if r.wf.Dismissed || ctx.Err() != nil {
		r.mu.Unlock()
		p.stopped(ctx, r)

		return true
	}

	r.wf.Polls++
	id, polls := r.wf.ID, r.wf.Polls
	r.mu.Unlock()

	switch {
	case pollErr != nil:
		p.logger.Error(pollErr, "Poller - observe - p.api.TaskStatus")
		p.settle(r, entity.StateFailed, entity.MsgPollFailed)

		return true
	case status == entity.TaskCompleted:
		p.complete(r)

		return true
	case status == entity.TaskFailed:
		p.settle(r, entity.StateFailed, entity.MsgResizeFailed)

		return true
	}

	p.logger.Debug("Poller - observe - %s: poll %d, status %q", id, polls, status)

	r.mu.Lock()
	err := r.wf.Transition(entity.StateProcessing, time.Now())
	snap := r.wf
	r.mu.Unlock()

	if err != nil {
		p.logger.Error(err, "Poller - observe - r.wf.Transition")
		p.finish(r)

		return true
	}

	p.record(snap)

	return false
}

// stopped handles the end of the polling context: only the deadline changes
// state, dismissal and shutdown leave the last observed one.
func (p *Poller) stopped(ctx context.Context, r *run) {
	if !errors.Is(context.Cause(ctx), errPollTimeout) || r.snapshot().Dismissed {
		p.finish(r)

		return
	}

	p.settle(r, entity.StateTimeout, entity.MsgPollTimeout)
}

func (p *Poller) complete(r *run) {
	snap := r.snapshot()
	if snap.Dismissed {
		p.finish(r)

		return
	}

	if p.onComplete != nil {
		p.onComplete(snap.Filename, snap.Width, snap.Height)
	}

	p.settle(r, entity.StateCompleted, "")
}

// settle moves the workflow to a terminal state and closes it.
func (p *Poller) settle(r *run, to entity.WorkflowState, msg string) {
	r.mu.Lock()
	if r.wf.Dismissed {
		r.mu.Unlock()
		p.finish(r)

		return
	}

	err := r.wf.Transition(to, time.Now())
	if err == nil {
		r.wf.Message = msg
	}
	snap := r.wf
	r.mu.Unlock()

	if err != nil {
		p.logger.Error(err, "Poller - settle - r.wf.Transition")
	} else {
		p.record(snap)
		p.logger.Info("Poller - settle - %s: %s %s -> %s", snap.ID, snap.Filename, snap.TaskID, snap.State)
	}

	p.finish(r)
}

func (p *Poller) finish(r *run) {
	r.cancel(nil)
	p.release(r)

	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

// register indexes r and supersedes any workflow still observed for the same
// file.
func (p *Poller) register(r *run) {
	p.mu.Lock()
	prevID, hasPrev := p.active[r.filename]
	prev := p.runs[prevID]

	p.pruneLocked(r.wf.CreatedAt)
	p.runs[r.id] = r
	p.active[r.filename] = r.id
	p.mu.Unlock()

	if !hasPrev || prev == nil {
		return
	}

	prev.mu.Lock()
	prev.wf.Dismissed = true
	prev.wf.Message = entity.MsgSuperseded
	prev.wf.UpdatedAt = time.Now()
	snap := prev.wf
	prev.mu.Unlock()

	prev.cancel(errSuperseded)
	p.record(snap)

	p.logger.Debug("Poller - register - %s superseded by %s", snap.ID, r.id)
}

func (p *Poller) release(r *run) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active[r.filename] == r.id {
		delete(p.active, r.filename)
	}
}

func (p *Poller) lookup(id uuid.UUID) (*run, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.runs[id]

	return r, ok
}

// pruneLocked forgets finished workflows older than the retention window.
func (p *Poller) pruneLocked(now time.Time) {
	for id, r := range p.runs {
		select {
		case <-r.done:
		default:
			continue
		}

		if now.Sub(r.snapshot().UpdatedAt) > _retainFinished {
			delete(p.runs, id)
		}
	}
}

func (p *Poller) record(w entity.ResizeWorkflow) {
	if p.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), _recordTimeout)
	defer cancel()

	if err := p.recorder.Record(ctx, &w); err != nil {
		p.logger.Error(err, "Poller - record - p.recorder.Record")
	}
}

// submitMessage picks the user-facing text for a failed submission.
func submitMessage(err error) string {
	code := backend.StatusCode(err)

	switch {
	case code == http.StatusNotFound:
		return entity.MsgImageNotFound
	case code == http.StatusBadRequest:
		return entity.MsgBadDimensions
	case code >= http.StatusInternalServerError:
		return entity.MsgServerError
	case code == 0 && err != nil:
		return "error: " + err.Error()
	default:
		return entity.MsgSubmitFailed
	}
}
