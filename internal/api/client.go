// Package api talks to the task backend over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nibzard/tasklist-go/internal/task"
)

// Endpoint paths relative to the base URL.
const (
	PathList = "/todo"
	PathAdd  = "/add"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("network response was not ok: %s %s: %s", e.Method, e.Path, e.Status)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets a per-request deadline. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStrictResponses turns schema violations in responses into errors.
// Without it they are only logged.
func WithStrictResponses(strict bool) Option {
	return func(c *Client) {
		c.strict = strict
	}
}

// WithRegisterer records request metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) {
		if reg != nil {
			c.metrics = newClientMetrics(reg)
		}
	}
}

// Client is a task backend client. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	logger  *log.Logger
	strict  bool
	metrics *clientMetrics
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:   u,
		http:   &http.Client{},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// ListTasks fetches every task from the backend, in server order.
func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	body, err := c.do(ctx, http.MethodGet, PathList, nil)
	if err != nil {
		return nil, err
	}
	if err := c.checkSchema(task.ShapeList, PathList, body); err != nil {
		return nil, err
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", PathList, err)
	}
	tasks := make([]task.Task, 0, len(records))
	for i, record := range records {
		t, err := c.decodeTask(PathList, record)
		if err != nil {
			if c.strict {
				return nil, fmt.Errorf("decode %s response: task %d: %w", PathList, i, err)
			}
			c.logger.Warn("skipping task that is not an object", "path", PathList, "index", i, "err", err)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// AddTask creates a task from draft and returns the record the server echoed.
func (c *Client) AddTask(ctx context.Context, draft task.Draft) (task.Task, error) {
	payload, err := json.Marshal(draft)
	if err != nil {
		return task.Task{}, fmt.Errorf("encode draft: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, PathAdd, payload)
	if err != nil {
		return task.Task{}, err
	}
	if err := c.checkSchema(task.ShapeTask, PathAdd, body); err != nil {
		return task.Task{}, err
	}

	created, err := c.decodeTask(PathAdd, body)
	if err != nil {
		return task.Task{}, fmt.Errorf("decode %s response: %w", PathAdd, err)
	}
	return created, nil
}

// decodeTask decodes one record. Outside strict mode a field that does not
// decode is logged and left unset, with its raw value kept in Task.Extra.
func (c *Client) decodeTask(path string, data []byte) (task.Task, error) {
	t, problems, err := task.DecodeLenient(data)
	if err != nil {
		return task.Task{}, err
	}
	if len(problems) > 0 {
		if c.strict {
			return task.Task{}, problems[0]
		}
		for _, p := range problems {
			c.logger.Warn("task field not decoded", "path", path, "title", t.Title, "err", p)
		}
	}
	return t, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(path, 0, start)
		c.logger.Debug("request failed", "method", method, "path", path, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.observe(path, resp.StatusCode, start)
	c.logger.Debug("request done", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	return body, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.base.String(), "/") + path
}

func (c *Client) checkSchema(shape task.Shape, path string, body []byte) error {
	result := task.Validate(shape, body)
	for _, w := range result.Warnings {
		c.logger.Warn("schema check skipped", "path", path, "reason", w)
	}
	if result.Valid {
		return nil
	}
	if c.strict {
		return fmt.Errorf("%s response: %w", path, result.Err())
	}
	c.logger.Warn("response does not match task schema", "path", path, "err", result.Err())
	return nil
}
