package app

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Admin-Panel/config"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure/backend"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure/presign"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/resolver"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/s3client"
)

func newResolver(ctx context.Context, cfg *config.Config, client *backend.Client, l logger.Interface) (*resolver.Resolver, error) {
	var opts []resolver.Option

	if cfg.PresignEnabled() {
		s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
		defer s3Cancel()

		s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("app - newResolver - s3client.New: %w", err)
		}

		opts = append(opts, resolver.WithPresigner(presign.New(s3c, cfg.Storage.Bucket, cfg.S3.PresignTTL)))
	}

	return resolver.New(
		resolver.Config{
			BaseURL:            client.BaseURL(),
			PublicHost:         cfg.Storage.PublicURL,
			InternalHost:       cfg.Storage.InternalHost,
			UseProxy:           cfg.Resolver.UseProxy,
			AccessibilityCheck: cfg.Resolver.AccessibilityCheck,
			CheckTimeout:       cfg.Resolver.CheckTimeout,
			ThumbnailWidth:     cfg.Resolver.ThumbnailWidth,
			ThumbnailHeight:    cfg.Resolver.ThumbnailHeight,
		},
		client,
		client,
		l,
		opts...,
	), nil
}
