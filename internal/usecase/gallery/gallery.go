package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/resolver"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
	"golang.org/x/sync/errgroup"
)

const (
	_defaultMaxUploadSize = 10 << 20
	_resolveConcurrency   = 8
)

// Item is a list entry with everything a view needs to render it.
type Item struct {
	Filename     string
	Size         int64
	SizeLabel    string
	CreatedAt    *time.Time
	CreatedLabel string
	Width        int
	Height       int

	ThumbnailURL string
	Source       resolver.Source
	Placeholder  bool

	Record entity.ImageRecord
}

type dimensions struct {
	width  int
	height int
}

// GalleryUseCase lists, uploads and deletes images through the backend and
// keeps the last listed records so later actions can update them in place.
// Dimensions set by a completed resize survive later refreshes until the
// image is deleted or uploaded again.
type GalleryUseCase struct {
	api      infrastructure.ImageAPI
	resolver *resolver.Resolver
	logger   logger.Interface

	maxUploadSize int64

	mu      sync.RWMutex
	records []entity.ImageRecord
	resized map[string]dimensions
}

func New(api infrastructure.ImageAPI, r *resolver.Resolver, l logger.Interface, maxUploadSize int64) *GalleryUseCase {
	if maxUploadSize <= 0 {
		maxUploadSize = _defaultMaxUploadSize
	}

	return &GalleryUseCase{
		api:           api,
		resolver:      r,
		logger:        l,
		maxUploadSize: maxUploadSize,
		records:       []entity.ImageRecord{},
		resized:       make(map[string]dimensions),
	}
}

// Refresh fetches the catalogue. A payload in an unknown shape becomes an
// empty list and a warning, not an error.
func (uc *GalleryUseCase) Refresh(ctx context.Context) ([]entity.ImageRecord, error) {
	data, err := uc.api.ListImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("GalleryUseCase - Refresh - uc.api.ListImages: %w", err)
	}

	records, ok := entity.DecodeImageList(data)
	if !ok {
		uc.logger.Warn("GalleryUseCase - Refresh - unexpected list payload: %.200s", data)
	}

	uc.mu.Lock()
	for i, r := range records {
		if d, ok := uc.resized[r.Filename()]; ok {
			records[i] = r.WithDimensions(d.width, d.height)
		}
	}
	uc.records = records
	uc.mu.Unlock()

	uc.logger.Debug("GalleryUseCase - Refresh - %d images", len(records))

	return records, nil
}

// Records returns the last listed records.
func (uc *GalleryUseCase) Records() []entity.ImageRecord {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	out := make([]entity.ImageRecord, len(uc.records))
	copy(out, uc.records)

	return out
}

// List refreshes the catalogue and resolves a thumbnail for every record.
// Records with no displayable URL are flagged as placeholders.
func (uc *GalleryUseCase) List(ctx context.Context) ([]Item, error) {
	records, err := uc.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(records))
	opts := uc.resolver.ThumbnailOptions()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(_resolveConcurrency)

	for i, rec := range records {
		g.Go(func() error {
			items[i] = newItem(rec)
			if items[i].Filename == entity.UnnamedFilename {
				items[i].Placeholder = true

				return nil
			}

			u, src, err := uc.resolver.Resolve(gctx, items[i].Filename, opts)
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				items[i].Placeholder = true

				return nil
			}

			items[i].ThumbnailURL = u
			items[i].Source = src

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("GalleryUseCase - List - g.Wait: %w", err)
	}

	return items, nil
}

// Upload validates the file before anything is sent, then uploads it and
// refreshes the list.
func (uc *GalleryUseCase) Upload(ctx context.Context, filename, contentType string, size int64, data io.Reader) (json.RawMessage, error) {
	if err := uc.ValidateUpload(contentType, size); err != nil {
		return nil, fmt.Errorf("GalleryUseCase - Upload - uc.ValidateUpload: %w", err)
	}

	resp, err := uc.api.Upload(ctx, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("GalleryUseCase - Upload - uc.api.Upload: %w", err)
	}

	uc.mu.Lock()
	delete(uc.resized, filename)
	uc.mu.Unlock()

	uc.logger.Info("GalleryUseCase - Upload - uploaded %s (%s)", filename, entity.FormatSize(size))

	if _, err := uc.Refresh(ctx); err != nil {
		uc.logger.Error(err, "GalleryUseCase - Upload - uc.Refresh")
	}

	return resp, nil
}

func (uc *GalleryUseCase) ValidateUpload(contentType string, size int64) error {
	if size == 0 {
		return errs.ErrEmptyFile
	}

	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%w: %q", errs.ErrUnsupportedFile, contentType)
	}

	if size > uc.maxUploadSize {
		return fmt.Errorf("%w: maximum is %s", errs.ErrFileTooLarge, entity.FormatSize(uc.maxUploadSize))
	}

	return nil
}

func (uc *GalleryUseCase) MaxUploadSize() int64 {
	return uc.maxUploadSize
}

// Delete removes the image on the backend, then drops exactly that record
// from the listed ones.
func (uc *GalleryUseCase) Delete(ctx context.Context, filename string) (json.RawMessage, error) {
	resp, err := uc.api.Delete(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("GalleryUseCase - Delete - uc.api.Delete: %w", err)
	}

	uc.mu.Lock()
	uc.records = entity.RemoveByFilename(uc.records, filename)
	delete(uc.resized, filename)
	uc.mu.Unlock()

	uc.logger.Info("GalleryUseCase - Delete - deleted %s", filename)

	return resp, nil
}

// ResolveURL resolves a display URL with the given preference
// ("proxy", "signed", "thumbnail" or empty for the configured default).
func (uc *GalleryUseCase) ResolveURL(ctx context.Context, filename, prefer string) (string, resolver.Source, error) {
	u, src, err := uc.resolver.Resolve(ctx, filename, uc.resolver.OptionsFor(prefer))
	if err != nil {
		return "", "", fmt.Errorf("GalleryUseCase - ResolveURL - uc.resolver.Resolve: %w", err)
	}

	return u, src, nil
}

// ViewURL resolves the URL used to open the full image.
func (uc *GalleryUseCase) ViewURL(ctx context.Context, filename string) (string, resolver.Source, error) {
	u, src, err := uc.resolver.Resolve(ctx, filename, uc.resolver.ViewOptions())
	if err != nil {
		return "", "", fmt.Errorf("GalleryUseCase - ViewURL - uc.resolver.Resolve: %w", err)
	}

	return u, src, nil
}

// Download streams the original: through the signed URL when it works,
// through the backend proxy otherwise. The caller closes the body.
func (uc *GalleryUseCase) Download(ctx context.Context, filename string) (io.ReadCloser, string, error) {
	signed, err := uc.resolver.SignedURL(ctx, filename)
	if err == nil {
		body, contentType, fetchErr := uc.api.Fetch(ctx, signed)
		if fetchErr == nil {
			return body, contentType, nil
		}
		err = fetchErr
	}

	if ctx.Err() != nil {
		return nil, "", fmt.Errorf("GalleryUseCase - Download: %w", ctx.Err())
	}

	uc.logger.Warn("GalleryUseCase - Download - signed url failed for %s, using proxy: %v", filename, err)

	body, contentType, err := uc.api.Proxy(ctx, filename)
	if err != nil {
		return nil, "", fmt.Errorf("GalleryUseCase - Download - uc.api.Proxy: %w", err)
	}

	return body, contentType, nil
}

// ApplyResize records new dimensions on the listed record named filename
// and keeps them for the records later refreshes return.
func (uc *GalleryUseCase) ApplyResize(filename string, width, height int) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.resized[filename] = dimensions{width: width, height: height}

	for i, r := range uc.records {
		if r.Filename() == filename {
			uc.records[i] = r.WithDimensions(width, height)
		}
	}

	uc.logger.Debug("GalleryUseCase - ApplyResize - %s now %dx%d", filename, width, height)
}

// Record looks up a listed record by filename.
func (uc *GalleryUseCase) Record(filename string) (entity.ImageRecord, bool) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	for _, r := range uc.records {
		if r.Filename() == filename {
			return r, true
		}
	}

	return nil, false
}
