package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, 5*time.Second, logger.New("disabled"))
	require.NoError(t, err)

	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8000", "ftp://host", "http://"} {
		_, err := New(raw, time.Second, logger.New("disabled"))
		assert.Error(t, err, raw)
	}
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "http://api/api/v1/images/a.png", ImageURL("http://api/", "a.png"))
	assert.Equal(t, "http://api/api/v1/images/a%20b.png/proxy", ImageURL("http://api", "a b.png", "proxy"))
}

func TestClient_Health(t *testing.T) {
	var unhealthy atomic.Bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if unhealthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))

	require.NoError(t, c.Health(context.Background()))

	unhealthy.Store(true)
	err := c.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
}

func TestClient_ListImages(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/images", r.URL.Path)
		_, _ = w.Write([]byte(`{"images":[{"filename":"a.png"}]}`))
	}))

	b, err := c.ListImages(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"images":[{"filename":"a.png"}]}`, string(b))
}

func TestClient_Upload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/upload", r.URL.Path)

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()

		body, _ := io.ReadAll(f)
		assert.Equal(t, "a.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		assert.Equal(t, "PNGDATA", string(body))

		_, _ = w.Write([]byte(`{"filename":"a.png"}`))
	}))

	raw, err := c.Upload(context.Background(), "a.png", "image/png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"filename":"a.png"}`, string(raw))
}

func TestClient_UploadFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "disk full", http.StatusInsufficientStorage)
	}))

	_, err := c.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, http.StatusInsufficientStorage, StatusCode(err))
}

func TestClient_DeleteNonJSONAnswer(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/images/a.png", r.URL.Path)
		_, _ = w.Write([]byte("deleted"))
	}))

	raw, err := c.Delete(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Equal(t, `"deleted"`, string(raw))
}

func TestClient_SignedURL(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/images/a.png":
			_, _ = w.Write([]byte(`{"signed_url":"minio:9000/images/a.png?X-Amz=1"}`))
		case "/api/v1/images/empty.png":
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))

	u, err := c.SignedURL(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Equal(t, "minio:9000/images/a.png?X-Amz=1", u)

	_, err = c.SignedURL(context.Background(), "empty.png")
	assert.ErrorIs(t, err, errs.ErrMissingSignedURL)

	_, err = c.SignedURL(context.Background(), "missing.png")
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestClient_Resize(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{"string task id", `{"task_id":"t-1"}`, "t-1"},
		{"numeric task id", `{"task_id":42}`, "42"},
		{"null task id", `{"task_id":null}`, ""},
		{"no task id", `{"status":"done"}`, ""},
		{"empty body", ``, ""},
		{"plain text", `ok`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/resize/a.png", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var body map[string]int
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, map[string]int{"width": 300, "height": 200}, body)

				_, _ = w.Write([]byte(tt.answer))
			}))

			id, err := c.Resize(context.Background(), "a.png", 300, 200)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestClient_TaskStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tasks/t-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"Completed"}`))
	}))

	st, err := c.TaskStatus(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, entity.TaskCompleted, st)
}

func TestClient_ProxyAndFetch(t *testing.T) {
	var srvURL string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/images/a.png/proxy", "/bucket/a.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("BYTES"))
		default:
			http.NotFound(w, r)
		}
	}))
	srvURL = c.BaseURL()

	body, ct, err := c.Proxy(context.Background(), "a.png")
	require.NoError(t, err)
	b, _ := io.ReadAll(body)
	body.Close()
	assert.Equal(t, "BYTES", string(b))
	assert.Equal(t, "image/png", ct)

	body, _, err = c.Fetch(context.Background(), srvURL+"/bucket/a.png")
	require.NoError(t, err)
	body.Close()

	_, _, err = c.Fetch(context.Background(), srvURL+"/bucket/missing.png")
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestClient_Probe(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path != "/ok" {
			w.WriteHeader(http.StatusForbidden)
		}
	}))

	assert.NoError(t, c.Probe(context.Background(), c.BaseURL()+"/ok"))
	assert.Equal(t, http.StatusForbidden, StatusCode(c.Probe(context.Background(), c.BaseURL()+"/nope")))
}

func TestClient_ProbeFallsBackToGet(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method)
		mu.Unlock()

		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case r.URL.Path == "/gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			_, _ = w.Write([]byte("image-bytes"))
		}
	}))

	assert.NoError(t, c.Probe(context.Background(), c.BaseURL()+"/ok"))
	mu.Lock()
	assert.Equal(t, []string{http.MethodHead, http.MethodGet}, methods)
	mu.Unlock()

	assert.Equal(t, http.StatusNotFound, StatusCode(c.Probe(context.Background(), c.BaseURL()+"/gone")))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base, time.Second, logger.New("disabled"))
	require.NoError(t, err)

	_, err = c.TaskStatus(context.Background(), "t-1")
	require.Error(t, err)
	assert.Zero(t, StatusCode(err))
}
