package infrastructure

import (
	"context"
	"encoding/json"
	"io"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
)

type (
	// ImageAPI is the catalogue part of the image backend.
	ImageAPI interface {
		Health(ctx context.Context) error
		ListImages(ctx context.Context) ([]byte, error)
		Upload(ctx context.Context, filename, contentType string, data io.Reader) (json.RawMessage, error)
		Delete(ctx context.Context, filename string) (json.RawMessage, error)
		Proxy(ctx context.Context, filename string) (io.ReadCloser, string, error)
		Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, error)
	}

	SignedURLIssuer interface {
		SignedURL(ctx context.Context, filename string) (string, error)
	}

	// ResizeAPI submits resize jobs and reports their status.
	ResizeAPI interface {
		Resize(ctx context.Context, filename string, width, height int) (string, error)
		TaskStatus(ctx context.Context, taskID string) (entity.TaskStatus, error)
	}

	URLProber interface {
		Probe(ctx context.Context, rawURL string) error
	}

	Presigner interface {
		PresignGet(ctx context.Context, key string) (string, error)
	}

	EventsSender interface {
		SendEvents(ctx context.Context, events []*entity.OutboxEvent) error
		Close() error
	}

	EventsReceiver interface {
		ReadEvent(ctx context.Context) (entity.WorkflowEvent, error)
		Close() error
	}
)
