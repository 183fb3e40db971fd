package taskcluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vk/tvtaskgraph/internal/ctxlog"
	"github.com/vk/tvtaskgraph/internal/taskdef"
)

// DefaultProxyURL is where docker-worker exposes the taskcluster proxy.
const DefaultProxyURL = "http://taskcluster"

// DefaultTimeout bounds a single API request.
const DefaultTimeout = 30 * time.Second

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, strings.TrimSpace(e.Body))
}

// Client calls the queue and secrets services through a proxy base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the proxy at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultProxyURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateTask submits def under taskID.
func (c *Client) CreateTask(ctx context.Context, taskID string, def taskdef.Task) error {
	body, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", taskID, err)
	}
	_, err = c.do(ctx, http.MethodPut, c.queueURL(taskID), body)
	return err
}

// Task reads back the canonical definition of taskID as stored by the queue.
func (c *Client) Task(ctx context.Context, taskID string) (json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, c.queueURL(taskID), nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("queue returned invalid JSON for task %s", taskID)
	}
	return json.RawMessage(raw), nil
}

// Secret fetches the named secret and returns its "secret" member.
func (c *Client) Secret(ctx context.Context, name string) (json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, c.baseURL+"/secrets/v1/secret/"+escapePath(name), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Secret json.RawMessage `json:"secret"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode secret %s: %w", name, err)
	}
	if len(envelope.Secret) == 0 {
		return nil, fmt.Errorf("secret %s has no content", name)
	}
	return envelope.Secret, nil
}

func (c *Client) queueURL(taskID string) string {
	return c.baseURL + "/queue/v1/task/" + url.PathEscape(taskID)
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("Taskcluster request.", "method", method, "url", target)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	logger.Debug("Taskcluster response.", "method", method, "url", target, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// escapePath escapes each segment of a slash-separated secret name.
func escapePath(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
