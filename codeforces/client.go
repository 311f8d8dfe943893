package codeforces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"cfanalytics/logger"
	"cfanalytics/model"
)

const (
	statusOK = "OK"
	// the API caps a single user.status page well above any real history
	submissionPageSize = 100000
)

var (
	ErrHandleNotFound = errors.New("handle not found")
	ErrEmptyHandle    = errors.New("handle is required")
)

// APIError is a well-formed response whose status is not OK.
type APIError struct {
	Method  string
	Comment string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("codeforces %s failed: %s", e.Method, e.Comment)
}

func (e *APIError) Unwrap() error {
	if strings.Contains(strings.ToLower(e.Comment), "not found") {
		return ErrHandleNotFound
	}
	return nil
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
	Result  T      `json:"result"`
}

type Client struct {
	base    string
	h       *http.Client
	retries int
	backoff time.Duration
	logger  *logger.LogStreamer
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.h = h }
}

// WithRetries sets the total number of attempts per call; values below 1 mean a single attempt.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = max(1, n) }
}

func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func WithLogger(l *logger.LogStreamer) Option {
	return func(c *Client) { c.logger = l }
}

func New(base string, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(base, "/"),
		h:       &http.Client{Timeout: 10 * time.Second},
		retries: 3,
		backoff: 500 * time.Millisecond,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetUserInfo calls user.info for a single handle.
func (c *Client) GetUserInfo(ctx context.Context, handle string) (model.UserInfo, error) {
	if strings.TrimSpace(handle) == "" {
		return model.UserInfo{}, ErrEmptyHandle
	}
	users, err := call[[]model.UserInfo](ctx, c, "user.info", url.Values{"handles": {handle}})
	if err != nil {
		return model.UserInfo{}, err
	}
	if len(users) == 0 {
		return model.UserInfo{}, fmt.Errorf("codeforces user.info %s: %w", handle, ErrHandleNotFound)
	}
	return users[0], nil
}

// GetUserSubmissions returns the full submission history, newest first as the API orders it.
func (c *Client) GetUserSubmissions(ctx context.Context, handle string) ([]model.Submission, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, ErrEmptyHandle
	}
	return call[[]model.Submission](ctx, c, "user.status", url.Values{
		"handle": {handle},
		"from":   {"1"},
		"count":  {fmt.Sprintf("%d", submissionPageSize)},
	})
}

// GetUserRating returns the rating history, oldest first.
func (c *Client) GetUserRating(ctx context.Context, handle string) ([]model.Contest, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, ErrEmptyHandle
	}
	return call[[]model.Contest](ctx, c, "user.rating", url.Values{"handle": {handle}})
}

// FetchSnapshot issues the three calls concurrently; the first failure cancels the rest.
func (c *Client) FetchSnapshot(ctx context.Context, handle string) (model.Snapshot, error) {
	var snap model.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := c.GetUserInfo(gctx, handle)
		snap.UserInfo = u
		return err
	})
	g.Go(func() error {
		s, err := c.GetUserSubmissions(gctx, handle)
		snap.Submissions = s
		return err
	})
	g.Go(func() error {
		r, err := c.GetUserRating(gctx, handle)
		snap.Contests = r
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

func call[T any](ctx context.Context, c *Client, method string, q url.Values) (T, error) {
	var zero T
	u := c.base + "/" + method + "?" + q.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			wait := c.backoff * time.Duration(attempt-1)
			c.logger.Log(zapcore.WarnLevel, "", "Retrying Codeforces call", map[string]any{
				"method":  method,
				"attempt": attempt,
				"wait":    wait.String(),
			}, "CLIENT", lastErr)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(wait):
			}
		}

		result, err := doCall[T](ctx, c, method, u)
		if err == nil {
			return result, nil
		}
		var re retryableError
		if !errors.As(err, &re) {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		lastErr = re.err
	}
	return zero, fmt.Errorf("codeforces %s gave up after %d attempts: %w", method, c.retries, lastErr)
}

func doCall[T any](ctx context.Context, c *Client, method, u string) (T, error) {
	var zero T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.h.Do(req)
	if err != nil {
		return zero, retryableError{err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, retryableError{err}
	}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return zero, retryableError{fmt.Errorf("codeforces %s returned %d: %s", method, resp.StatusCode, truncate(body))}
	}

	// The API reports FAILED envelopes with 4xx codes, so decode before looking at the status.
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, fmt.Errorf("codeforces %s returned %d with undecodable body: %w", method, resp.StatusCode, err)
	}
	if env.Status != statusOK {
		comment := env.Comment
		if comment == "" {
			comment = fmt.Sprintf("status %q, http %d", env.Status, resp.StatusCode)
		}
		return zero, &APIError{Method: method, Comment: comment}
	}
	return env.Result, nil
}

func truncate(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
