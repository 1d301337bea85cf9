// Package backend talks to the Fithub API that owns the workout history.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fithub/records/internal/models"
)

var (
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrNotFound     = errors.New("backend: not found")
)

const maxAttempts = 3

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: %s %s returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Is lets callers match on ErrUnauthorized and ErrNotFound.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	}
	return false
}

func (e *StatusError) retryable() bool {
	return e.Code >= 500
}

// Client calls the Fithub REST API with a logged-in session cookie.
type Client struct {
	baseURL    string
	cookie     string
	httpClient *http.Client
	backoff    time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithBackoff sets the base delay between GET retries.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// NewClient creates a Client targeting baseURL. sessionCookie is sent
// verbatim as the Cookie header; empty means unauthenticated.
func NewClient(baseURL, sessionCookie string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cookie:     sessionCookie,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// get retries transport errors and 5xx responses with exponential backoff.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.do(ctx, http.MethodGet, path, params, nil)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

// FetchRecords returns the complete workout history of the session's user.
func (c *Client) FetchRecords(ctx context.Context) ([]models.TrainingRecord, error) {
	body, err := c.get(ctx, "/api/workout/records", nil)
	if err != nil {
		return nil, err
	}

	var records []models.TrainingRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("backend: decode records: %w", err)
	}
	return records, nil
}

// FetchRecordsPage returns one page of the history, newest first.
func (c *Client) FetchRecordsPage(ctx context.Context, page, size int) (*models.PagedRecords, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))

	body, err := c.get(ctx, "/api/workout/records/paged", params)
	if err != nil {
		return nil, err
	}

	var paged models.PagedRecords
	if err := json.Unmarshal(body, &paged); err != nil {
		return nil, fmt.Errorf("backend: decode paged records: %w", err)
	}
	return &paged, nil
}

// FetchExercises returns the exercise catalog, custom exercises included.
func (c *Client) FetchExercises(ctx context.Context) ([]models.Exercise, error) {
	body, err := c.get(ctx, "/api/workout/exercises", nil)
	if err != nil {
		return nil, err
	}

	var exercises []models.Exercise
	if err := json.Unmarshal(body, &exercises); err != nil {
		return nil, fmt.Errorf("backend: decode exercises: %w", err)
	}
	return exercises, nil
}

// SaveRecord validates req against the data-entry bounds and posts it.
// It is not retried: the backend appends sets on every call.
func (c *Client) SaveRecord(ctx context.Context, req models.SaveRecordRequest) (*models.SaveRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling record: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/api/workout/records", nil, data)
	if err != nil {
		return nil, err
	}

	var resp models.SaveRecordResponse
	if len(bytes.TrimSpace(body)) == 0 {
		return &resp, nil
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("backend: decode save response: %w", err)
	}
	return &resp, nil
}

// DeleteRecord removes a whole record with its exercises and sets.
func (c *Client) DeleteRecord(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/workout/records/"+strconv.FormatInt(id, 10), nil, nil)
	return err
}

// DeleteSet removes a single set.
func (c *Client) DeleteSet(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/workout/sets/"+strconv.FormatInt(id, 10), nil, nil)
	return err
}
