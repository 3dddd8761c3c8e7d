package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure/backend"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/repo/persistent"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/gallery"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/history"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/resize"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/resolver"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/status"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const _testMaxUpload = 1024

// stubBackend serves the image API the panel talks to.
type stubBackend struct {
	srv *httptest.Server

	mu         sync.Mutex
	deleted    []string
	uploaded   []string
	signedBase string

	resizes    atomic.Int32
	taskStatus atomic.Value // string
	storageErr atomic.Bool
}

func newStubBackend(t *testing.T) *stubBackend {
	t.Helper()

	b := &stubBackend{signedBase: "http://minio:9000/images"}
	b.taskStatus.Store("processing")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("GET /api/v1/images", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"images":[
			{"filename":"a.png","size":2048,"width":800,"height":600},
			{"name":"b.png","size":10},
			{"size":1}
		]}`)
	})
	mux.HandleFunc("GET /api/v1/images/{name}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		base := b.signedBase
		b.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]string{"signed_url": base + "/" + r.PathValue("name") + "?sig=1"})
	})
	mux.HandleFunc("GET /api/v1/images/{name}/proxy", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		io.WriteString(w, "proxy-bytes")
	})
	mux.HandleFunc("DELETE /api/v1/images/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if name == "missing.png" {
			http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)

			return
		}

		b.mu.Lock()
		b.deleted = append(b.deleted, name)
		b.mu.Unlock()

		fmt.Fprintf(w, `{"deleted":%q}`, name)
	})
	mux.HandleFunc("POST /api/v1/upload", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}
		f.Close()

		b.mu.Lock()
		b.uploaded = append(b.uploaded, hdr.Filename)
		b.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"filename":%q}`, hdr.Filename)
	})
	mux.HandleFunc("POST /api/v1/resize/{name}", func(w http.ResponseWriter, r *http.Request) {
		n := b.resizes.Add(1)
		fmt.Fprintf(w, `{"task_id":"task-%d"}`, n)
	})
	mux.HandleFunc("GET /api/v1/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status":%q}`, b.taskStatus.Load().(string))
	})
	mux.HandleFunc("GET /storage/{name}", func(w http.ResponseWriter, r *http.Request) {
		if b.storageErr.Load() {
			w.WriteHeader(http.StatusForbidden)

			return
		}
		w.Header().Set("Content-Type", "image/png")
		io.WriteString(w, "signed-bytes")
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)

	return b
}

func (b *stubBackend) Uploaded() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.uploaded...)
}

func (b *stubBackend) Deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.deleted...)
}

func (b *stubBackend) signFrom(base string) {
	b.mu.Lock()
	b.signedBase = base
	b.mu.Unlock()
}

type testPanel struct {
	app     *fiber.App
	backend *stubBackend
	gallery *gallery.GalleryUseCase
	history *history.HistoryUseCase
}

func newTestPanel(t *testing.T) *testPanel {
	t.Helper()

	l := logger.New("disabled")
	b := newStubBackend(t)

	client, err := backend.New(b.srv.URL, 5*time.Second, l)
	require.NoError(t, err)

	res := resolver.New(resolver.Config{
		BaseURL:         client.BaseURL(),
		PublicHost:      "http://localhost:9001",
		InternalHost:    "minio:9000",
		ThumbnailWidth:  64,
		ThumbnailHeight: 64,
	}, client, client, l)

	gal := gallery.New(client, res, l, _testMaxUpload)
	hist := history.New(persistent.NewMemoryWorkflowRepo(0), nil, persistent.NopTransactor{}, l)
	poller := resize.New(client, l,
		resize.Interval(10*time.Millisecond),
		resize.Timeout(time.Minute),
		resize.OnComplete(gal.ApplyResize),
		resize.WithRecorder(hist),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = poller.Shutdown(ctx)
	})

	app := fiber.New()
	NewPanelRoutes(app.Group("/v1"), gal, poller, hist, status.New(client, l), l)

	return &testPanel{app: app, backend: b, gallery: gal, history: hist}
}

func (p *testPanel) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()

	resp, err := p.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func (p *testPanel) getJSON(t *testing.T, target string, out any) int {
	t.Helper()

	code, body := p.do(t, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}

	return code
}
