package status

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure/backend"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
)

// StatusUseCase tracks whether the image backend answers its health check.
type StatusUseCase struct {
	api    infrastructure.ImageAPI
	logger logger.Interface

	mu      sync.RWMutex
	current entity.BackendHealth
}

func New(api infrastructure.ImageAPI, l logger.Interface) *StatusUseCase {
	return &StatusUseCase{
		api:     api,
		logger:  l,
		current: entity.BackendHealth{State: entity.BackendChecking},
	}
}

// Check probes the backend now and stores the outcome.
func (uc *StatusUseCase) Check(ctx context.Context) entity.BackendHealth {
	uc.mu.Lock()
	prev := uc.current.State
	uc.current.State = entity.BackendChecking
	uc.mu.Unlock()

	start := time.Now()
	err := uc.api.Health(ctx)
	now := time.Now()

	h := entity.BackendHealth{
		State:     entity.BackendOnline,
		CheckedAt: &now,
		Latency:   now.Sub(start),
	}

	var se *backend.StatusError
	switch {
	case err == nil:
	case errors.As(err, &se):
		h.State = entity.BackendError
		h.Error = fmt.Sprintf("status %d", se.StatusCode)
	default:
		h.State = entity.BackendOffline
		h.Error = err.Error()
	}

	uc.mu.Lock()
	uc.current = h
	uc.mu.Unlock()

	if h.State != prev && prev != entity.BackendChecking {
		uc.logger.Warn("StatusUseCase - Check - backend %s -> %s", prev, h.State)
	}

	if err != nil {
		uc.logger.Debug("StatusUseCase - Check - uc.api.Health: %v", err)
	}

	return h
}

// Current returns the last stored outcome.
func (uc *StatusUseCase) Current() entity.BackendHealth {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	return uc.current
}
