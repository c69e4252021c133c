// v1
// internal/planner/client.go
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"projetbda/analytics/internal/circuitbreaker"
)

var (
	// ErrCircuitBreakerOpen is returned while the planner breaker refuses calls.
	ErrCircuitBreakerOpen = circuitbreaker.ErrOpen
	// ErrUpstream is matched by every error reported by the planner itself.
	ErrUpstream = errors.New("planner upstream error")
)

// APIError is a non-success answer from the planner.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("planner %s returned %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("planner %s returned %d: %s", e.Endpoint, e.Status, e.Message)
}

func (e *APIError) Is(target error) bool { return target == ErrUpstream }

// Observer receives one callback per planner round trip.
type Observer interface {
	ObservePlannerRequest(endpoint, outcome string, elapsed time.Duration)
}

// Options configure a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	JitterMax   time.Duration
	Breaker     circuitbreaker.Config
	Logger      *slog.Logger
	Observer    Observer
	StateHook   func(name string, to circuitbreaker.State)
	HTTPClient  *http.Client
}

// Client is a read-only client for the planning API. All requests carry the
// caller's context and go through a circuit breaker.
type Client struct {
	base         string
	h            *circuitbreaker.HTTPClient
	maxRetries   int
	backoffBase  time.Duration
	jitterMax    time.Duration
	resetTimeout time.Duration
	log          *slog.Logger
	observer     Observer
}

// New builds a client for the planner rooted at opts.BaseURL. The "/api"
// prefix is appended by the client.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	brkCfg := opts.Breaker
	if brkCfg.Validate() != nil {
		brkCfg = circuitbreaker.DefaultConfig()
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	var hookOpts []circuitbreaker.Option
	if opts.StateHook != nil {
		hookOpts = append(hookOpts, circuitbreaker.WithStateHook(opts.StateHook))
	}
	c := &Client{
		base:         base,
		h:            circuitbreaker.NewHTTPClient("planner", brkCfg, base+"/api/health", httpClient, logger, hookOpts...),
		maxRetries:   opts.MaxRetries,
		backoffBase:  opts.BackoffBase,
		jitterMax:    opts.JitterMax,
		resetTimeout: brkCfg.ResetTimeout,
		log:          logger.With(slog.String("component", "planner_client")),
		observer:     opts.Observer,
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.backoffBase <= 0 {
		c.backoffBase = 200 * time.Millisecond
	}
	return c
}

// envelope is the planner response wrapper: {"ok": bool, "data": ..., "error": "..."}.
type envelope struct {
	OK    *bool           `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// get issues GET /api<path> and returns the envelope data. Empty query
// values are omitted. Transport errors and 5xx answers are retried.
func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	u, err := url.Parse(c.base + "/api" + path)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				q.Add(k, v)
			}
		}
	}
	u.RawQuery = q.Encode()
	endpoint := u.String()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
		}
		start := time.Now()
		data, retry, err := c.once(ctx, endpoint)
		c.observe(path, err, time.Since(start))
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		c.log.Warn("planner_request_retry", slog.String("endpoint", endpoint), slog.Int("attempt", attempt+1), slog.Any("err", err))
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, endpoint string) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.h.Do(req)
	if err != nil {
		if errors.Is(err, ErrCircuitBreakerOpen) {
			return nil, false, fmt.Errorf("planner %s: %w", endpoint, err)
		}
		return nil, true, fmt.Errorf("planner %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("planner %s: read body: %w", endpoint, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(env.Error)
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(bytes.TrimSpace(body)))
		}
		return nil, resp.StatusCode >= 500, &APIError{Endpoint: endpoint, Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, false, fmt.Errorf("%w: planner %s: decode envelope: %v", ErrUpstream, endpoint, decodeErr)
	}
	if env.OK != nil && !*env.OK {
		return nil, false, &APIError{Endpoint: endpoint, Status: resp.StatusCode, Message: env.Error}
	}
	return env.Data, false, nil
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.backoffBase << (attempt - 1)
	if c.jitterMax > 0 {
		delay += time.Duration(rand.Int64N(int64(c.jitterMax)))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) observe(path string, err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrCircuitBreakerOpen):
		outcome = "breaker_open"
	case errors.Is(err, ErrUpstream):
		outcome = "upstream_error"
	default:
		outcome = "transport_error"
	}
	c.observer.ObservePlannerRequest(path, outcome, elapsed)
}

// BreakerState reports the planner breaker position.
func (c *Client) BreakerState() circuitbreaker.State { return c.h.Breaker().State() }

func decodeList[T any](raw json.RawMessage, endpoint string) ([]T, error) {
	out := make([]T, 0)
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUpstream, endpoint, err)
	}
	return out, nil
}
