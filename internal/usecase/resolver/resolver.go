package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure/backend"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
)

type Source string

const (
	SourceThumbnail Source = "thumbnail"
	SourceProxy     Source = "proxy"
	SourceSigned    Source = "signed"
	SourcePresigned Source = "presigned"
)

const (
	_defaultThumbnailSize = 200
	_defaultCheckTimeout  = 5 * time.Second
)

type Config struct {
	BaseURL      string
	PublicHost   string
	InternalHost string
	UseProxy     bool

	AccessibilityCheck bool
	CheckTimeout       time.Duration

	ThumbnailWidth  int
	ThumbnailHeight int
}

// Options select the sources to try, in order. Width and Height only matter
// for the thumbnail source.
type Options struct {
	Order  []Source
	Width  int
	Height int
}

type Resolver struct {
	cfg       Config
	signer    infrastructure.SignedURLIssuer
	prober    infrastructure.URLProber
	presigner infrastructure.Presigner

	logger logger.Interface
}

type Option func(*Resolver)

// WithPresigner enables the presigned source.
func WithPresigner(p infrastructure.Presigner) Option {
	return func(r *Resolver) {
		r.presigner = p
	}
}

func New(
	cfg Config,
	signer infrastructure.SignedURLIssuer,
	prober infrastructure.URLProber,
	l logger.Interface,
	opts ...Option,
) *Resolver {
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = _defaultCheckTimeout
	}

	r := &Resolver{
		cfg:    cfg,
		signer: signer,
		prober: prober,
		logger: l,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve walks opts.Order and returns the first URL a source can produce.
// Failing sources are skipped; errs.ErrUnresolvable means every one failed.
func (r *Resolver) Resolve(ctx context.Context, filename string, opts Options) (string, Source, error) {
	for _, src := range opts.Order {
		u, err := r.candidate(ctx, src, filename, opts)
		if err == nil && r.cfg.AccessibilityCheck {
			err = r.probe(ctx, u)
		}

		if err != nil {
			if ctx.Err() != nil {
				return "", "", fmt.Errorf("Resolver - Resolve: %w", ctx.Err())
			}

			r.logger.Debug("Resolver - Resolve - %s source failed for %s: %v", src, filename, err)

			continue
		}

		r.logger.Debug("Resolver - Resolve - %s -> %s (%s)", filename, u, src)

		return u, src, nil
	}

	r.logger.Warn("Resolver - Resolve - no displayable url for %s", filename)

	return "", "", fmt.Errorf("Resolver - Resolve - %s: %w", filename, errs.ErrUnresolvable)
}

// ThumbnailOptions is the chain used for list views.
func (r *Resolver) ThumbnailOptions() Options {
	return Options{
		Order:  r.withPresigned([]Source{SourceThumbnail, SourceProxy, SourceSigned}),
		Width:  r.cfg.ThumbnailWidth,
		Height: r.cfg.ThumbnailHeight,
	}
}

// DisplayOptions honours the proxy preference.
func (r *Resolver) DisplayOptions() Options {
	if r.cfg.UseProxy {
		return Options{Order: r.withPresigned([]Source{SourceProxy, SourceSigned})}
	}

	return Options{Order: r.withPresigned([]Source{SourceSigned, SourceProxy})}
}

// ViewOptions prefers direct storage URLs for opening the full image.
func (r *Resolver) ViewOptions() Options {
	return Options{Order: r.withPresigned([]Source{SourceSigned, SourceProxy})}
}

// OptionsFor maps a user preference ("proxy", "signed", "thumbnail") to a
// chain; anything else gets DisplayOptions.
func (r *Resolver) OptionsFor(prefer string) Options {
	switch Source(prefer) {
	case SourceProxy:
		return Options{Order: r.withPresigned([]Source{SourceProxy, SourceSigned})}
	case SourceSigned:
		return Options{Order: r.withPresigned([]Source{SourceSigned, SourceProxy})}
	case SourceThumbnail:
		return r.ThumbnailOptions()
	default:
		return r.DisplayOptions()
	}
}

// SignedURL resolves only the signed source, rewritten and normalized.
func (r *Resolver) SignedURL(ctx context.Context, filename string) (string, error) {
	return r.signed(ctx, filename)
}

func (r *Resolver) withPresigned(order []Source) []Source {
	if r.presigner == nil {
		return order
	}

	out := make([]Source, 0, len(order)+1)
	for _, s := range order {
		out = append(out, s)
		if s == SourceSigned {
			out = append(out, SourcePresigned)
		}
	}

	return out
}

func (r *Resolver) candidate(ctx context.Context, src Source, filename string, opts Options) (string, error) {
	switch src {
	case SourceThumbnail:
		return r.thumbnail(filename, opts.Width, opts.Height)
	case SourceProxy:
		return r.proxy(filename)
	case SourceSigned:
		return r.signed(ctx, filename)
	case SourcePresigned:
		return r.presigned(ctx, filename)
	default:
		return "", fmt.Errorf("Resolver - candidate - unknown source %q", src)
	}
}

func (r *Resolver) thumbnail(filename string, width, height int) (string, error) {
	if width <= 0 {
		width = _defaultThumbnailSize
	}
	if height <= 0 {
		height = _defaultThumbnailSize
	}

	q := url.Values{}
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))

	u := backend.ImageURL(r.cfg.BaseURL, filename, "thumbnail") + "?" + q.Encode()
	if err := checkAbsolute(u); err != nil {
		return "", err
	}

	return u, nil
}

func (r *Resolver) proxy(filename string) (string, error) {
	u := backend.ImageURL(r.cfg.BaseURL, filename, "proxy")
	if err := checkAbsolute(u); err != nil {
		return "", err
	}

	return u, nil
}

func (r *Resolver) signed(ctx context.Context, filename string) (string, error) {
	if r.signer == nil {
		return "", errs.ErrSourceNotConfigured
	}

	raw, err := r.signer.SignedURL(ctx, filename)
	if err != nil {
		return "", fmt.Errorf("Resolver - signed - r.signer.SignedURL: %w", err)
	}

	rewritten := RewriteHost(raw, r.cfg.InternalHost, r.cfg.PublicHost)
	if rewritten != raw {
		r.logger.Debug("Resolver - signed - rewrote %s -> %s", raw, rewritten)
	}

	return Normalize(rewritten)
}

func (r *Resolver) presigned(ctx context.Context, filename string) (string, error) {
	if r.presigner == nil {
		return "", errs.ErrSourceNotConfigured
	}

	raw, err := r.presigner.PresignGet(ctx, filename)
	if err != nil {
		return "", fmt.Errorf("Resolver - presigned - r.presigner.PresignGet: %w", err)
	}

	// the host is part of the signature, so the URL is used as signed
	return Normalize(raw)
}

func (r *Resolver) probe(ctx context.Context, u string) error {
	if r.prober == nil {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.cfg.CheckTimeout)
	defer cancel()

	if err := r.prober.Probe(probeCtx, u); err != nil {
		return fmt.Errorf("Resolver - probe - r.prober.Probe: %w", err)
	}

	return nil
}
