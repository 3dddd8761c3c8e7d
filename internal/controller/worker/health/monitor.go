package health

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
)

// Monitor probes the backend right away and then on every interval.
type Monitor struct {
	st     usecase.Status
	logger logger.Interface

	interval     time.Duration
	checkTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(st usecase.Status, l logger.Interface, interval, checkTimeout time.Duration) *Monitor {
	return &Monitor{
		st:           st,
		logger:       l,
		interval:     interval,
		checkTimeout: checkTimeout,
	}
}

func (m *Monitor) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Monitor - Start - worker already started")
	}

	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.check()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.check()
			}
		}
	}()

	return nil
}

func (m *Monitor) check() {
	ctx, cancel := context.WithTimeout(m.ctx, m.checkTimeout)
	defer cancel()

	h := m.st.Check(ctx)

	m.logger.Debug("Monitor - check - backend %s in %s", h.State, h.Latency)
}

func (m *Monitor) Shutdown(ctx context.Context) error {
	if !m.started.Load() {
		return nil
	}

	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Monitor - Shutdown: %w", ctx.Err())
	}
}
