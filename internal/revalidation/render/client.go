// Package render talks to the static render boundary: the on-demand
// regeneration endpoint and the public pages it serves.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/brandsite-backend/config"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/logging"
)

const (
	secretHeader    = "x-revalidate-secret"
	cacheBustParam  = "_cb"
	defaultInterval = 250 * time.Millisecond
	maxInterval     = 2 * time.Second
)

// ErrNotRevalidated is returned when the boundary answers 2xx but reports
// that nothing was regenerated.
var ErrNotRevalidated = errors.New("render boundary did not revalidate")

// StatusError is a non-2xx answer from the render boundary.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Body)
}

// Retryable reports whether another attempt could succeed.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Client calls the render boundary.
type Client struct {
	regenerateURL string
	publicSiteURL string
	secret        string
	timeout       time.Duration
	retries       int
	interval      time.Duration
	http          *http.Client
}

// NewClient builds a client from the render configuration. A nil httpClient
// uses a plain http.Client; per-call deadlines come from the context.
func NewClient(cfg config.RenderConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		regenerateURL: strings.TrimRight(cfg.BaseURL, "/") + cfg.RevalidatePath,
		publicSiteURL: strings.TrimRight(cfg.PublicSiteURL, "/"),
		secret:        cfg.Secret,
		timeout:       cfg.Timeout,
		retries:       cfg.PrimaryRetries,
		interval:      defaultInterval,
		http:          httpClient,
	}
}

type regenerateRequest struct {
	Path string `json:"path"`
}

type regenerateResponse struct {
	Revalidated *bool  `json:"revalidated"`
	Message     string `json:"message"`
}

// Regenerate asks the boundary to rebuild the page at path. Network errors,
// 5xx and 429 are retried with exponential backoff; each attempt is bounded
// by the configured timeout.
func (c *Client) Regenerate(ctx context.Context, path string) error {
	log := logging.FromContext(ctx)
	body, err := json.Marshal(regenerateRequest{Path: path})
	if err != nil {
		return fmt.Errorf("encode regenerate request: %w", err)
	}

	attempt := 0
	op := func() error {
		attempt++
		err := c.regenerateOnce(ctx, body)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		if errors.Is(err, ErrNotRevalidated) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("regenerate attempt failed",
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", wait),
			slog.Any("error", err))
	}

	if err := backoff.RetryNotify(op, c.policy(ctx), notify); err != nil {
		return fmt.Errorf("regenerate %s after %d attempt(s): %w", path, attempt, err)
	}
	return nil
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.interval
	eb.MaxInterval = maxInterval
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.retries)), ctx)
}

func (c *Client) regenerateOnce(ctx context.Context, body []byte) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.regenerateURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set(secretHeader, c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: "regenerate", Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out regenerateResponse
	if len(raw) > 0 && json.Unmarshal(raw, &out) == nil && out.Revalidated != nil && !*out.Revalidated {
		if out.Message != "" {
			return fmt.Errorf("%w: %s", ErrNotRevalidated, out.Message)
		}
		return ErrNotRevalidated
	}
	return nil
}

// CacheBust fetches the public page with a unique query parameter and
// no-cache headers so intermediaries drop their copy. One attempt only.
func (c *Client) CacheBust(ctx context.Context, path string) error {
	u, err := url.Parse(c.publicSiteURL + path)
	if err != nil {
		return fmt.Errorf("parse public url: %w", err)
	}
	q := u.Query()
	q.Set(cacheBustParam, uuid.NewString())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cache-bust request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return &StatusError{Op: "cache-bust", Code: resp.StatusCode}
	}
	return nil
}
