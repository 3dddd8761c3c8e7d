package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
)

const (
	_defaultTimeout = 30 * time.Second
	_maxErrorBody   = 4 << 10

	imagesPath = "/api/v1/images"
	uploadPath = "/api/v1/upload"
	resizePath = "/api/v1/resize"
	tasksPath  = "/api/v1/tasks"
	healthPath = "/health"
)

// StatusError is returned for any non-2xx backend answer.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// StatusCode extracts the HTTP status from a backend error, 0 if there is none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}

	return 0
}

// Client talks to the image backend over its REST contract.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.Interface
}

func New(baseURL string, timeout time.Duration, l logger.Interface) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("backend - New - url.Parse: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend - New - %q: %w", baseURL, errs.ErrInvalidURL)
	}

	if timeout <= 0 {
		timeout = _defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  l,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// ImageURL builds {base}/api/v1/images/{filename}[/suffix...].
func ImageURL(base, filename string, suffix ...string) string {
	var b strings.Builder

	b.WriteString(strings.TrimRight(base, "/"))
	b.WriteString(imagesPath)
	b.WriteByte('/')
	b.WriteString(url.PathEscape(filename))

	for _, s := range suffix {
		b.WriteByte('/')
		b.WriteString(s)
	}

	return b.String()
}

func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, "Health", http.MethodGet, c.baseURL+healthPath, nil, "")
	if err != nil {
		return err
	}
	drain(resp)

	return nil
}

// ListImages returns the raw list payload; its shape varies between backends.
func (c *Client) ListImages(ctx context.Context) ([]byte, error) {
	resp, err := c.do(ctx, "ListImages", http.MethodGet, c.baseURL+imagesPath, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend - ListImages - io.ReadAll: %w", err)
	}

	return b, nil
}

// Upload streams data as the multipart field "file".
func (c *Client) Upload(ctx context.Context, filename, contentType string, data io.Reader) (json.RawMessage, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, data)
		}
		if err == nil {
			err = mw.Close()
		}

		pw.CloseWithError(err)
	}()

	resp, err := c.do(ctx, "Upload", http.MethodPost, c.baseURL+uploadPath, pr, mw.FormDataContentType())
	if err != nil {
		pr.CloseWithError(err)

		return nil, err
	}

	return readRaw(resp)
}

func (c *Client) Delete(ctx context.Context, filename string) (json.RawMessage, error) {
	resp, err := c.do(ctx, "Delete", http.MethodDelete, ImageURL(c.baseURL, filename), nil, "")
	if err != nil {
		return nil, err
	}

	return readRaw(resp)
}

// SignedURL returns the signed_url exactly as the backend sent it; host
// rewriting and cleanup are the resolver's job.
func (c *Client) SignedURL(ctx context.Context, filename string) (string, error) {
	resp, err := c.do(ctx, "SignedURL", http.MethodGet, ImageURL(c.baseURL, filename), nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		SignedURL string `json:"signed_url"`
	}

	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("backend - SignedURL - json.Decode: %w", err)
	}

	if payload.SignedURL == "" {
		return "", fmt.Errorf("backend - SignedURL: %w", errs.ErrMissingSignedURL)
	}

	return payload.SignedURL, nil
}

func (c *Client) Proxy(ctx context.Context, filename string) (io.ReadCloser, string, error) {
	resp, err := c.do(ctx, "Proxy", http.MethodGet, ImageURL(c.baseURL, filename, "proxy"), nil, "")
	if err != nil {
		return nil, "", err
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Fetch downloads an absolute URL, typically a signed object URL.
func (c *Client) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	resp, err := c.do(ctx, "Fetch", http.MethodGet, rawURL, nil, "")
	if err != nil {
		return nil, "", err
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Probe checks that rawURL answers a HEAD request with 2xx. Servers that
// refuse HEAD with 405 are asked with GET instead; the body is not read.
func (c *Client) Probe(ctx context.Context, rawURL string) error {
	resp, err := c.do(ctx, "Probe", http.MethodHead, rawURL, nil, "")
	if StatusCode(err) == http.StatusMethodNotAllowed {
		resp, err = c.do(ctx, "Probe", http.MethodGet, rawURL, nil, "")
		if err != nil {
			return err
		}
		resp.Body.Close()

		return nil
	}
	if err != nil {
		return err
	}
	drain(resp)

	return nil
}

// Resize submits a resize job. An empty task id means the backend finished
// the resize synchronously.
func (c *Client) Resize(ctx context.Context, filename string, width, height int) (string, error) {
	b, err := json.Marshal(map[string]int{"width": width, "height": height})
	if err != nil {
		return "", fmt.Errorf("backend - Resize - json.Marshal: %w", err)
	}

	target := c.baseURL + resizePath + "/" + url.PathEscape(filename)

	resp, err := c.do(ctx, "Resize", http.MethodPost, target, bytes.NewReader(b), "application/json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("backend - Resize - io.ReadAll: %w", err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return "", nil
	}

	var payload struct {
		TaskID json.RawMessage `json:"task_id"`
	}

	if err = json.Unmarshal(raw, &payload); err != nil {
		// not JSON: nothing to poll
		c.logger.Debug("backend - Resize - non-JSON answer for %s treated as synchronous", filename)

		return "", nil
	}

	return rawID(payload.TaskID), nil
}

func (c *Client) TaskStatus(ctx context.Context, taskID string) (entity.TaskStatus, error) {
	resp, err := c.do(ctx, "TaskStatus", http.MethodGet, c.baseURL+tasksPath+"/"+url.PathEscape(taskID), nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Status string `json:"status"`
	}

	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("backend - TaskStatus - json.Decode: %w", err)
	}

	return entity.TaskStatus(strings.ToLower(strings.TrimSpace(payload.Status))), nil
}

func (c *Client) do(ctx context.Context, op, method, target string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("backend - %s - http.NewRequest: %w", op, err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, */*")

	c.logger.Debug("backend - %s - %s %s", op, method, target)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend - %s - c.http.Do: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()

		b, _ := io.ReadAll(io.LimitReader(resp.Body, _maxErrorBody))
		se := &StatusError{Op: "backend - " + op, StatusCode: resp.StatusCode, Body: string(b)}

		c.logger.Debug("backend - %s - status %d, body: %s", op, resp.StatusCode, se.Body)

		return nil, se
	}

	return resp, nil
}

func readRaw(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend - readRaw - io.ReadAll: %w", err)
	}

	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}

	if json.Valid(b) {
		return json.RawMessage(b), nil
	}

	quoted, err := json.Marshal(string(b))
	if err != nil {
		return nil, fmt.Errorf("backend - readRaw - json.Marshal: %w", err)
	}

	return quoted, nil
}

// rawID accepts both string and numeric task ids.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return ""
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
