// v1
// internal/circuitbreaker/http.go
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPClient wraps an http.Client with breaker behaviour. Transport errors
// and 5xx responses count as failures; the 5xx response is still returned to
// the caller so the body can be inspected.
type HTTPClient struct {
	Client *http.Client
	brk    *Breaker
}

type statusError struct{ code int }

func (e statusError) Error() string { return fmt.Sprintf("upstream status %d", e.code) }

// NewHTTPClient builds a guarded client. When probeURL is set, a GET against
// it must answer below 500 before traffic resumes after the open period.
func NewHTTPClient(name string, cfg Config, probeURL string, httpClient *http.Client, logger *slog.Logger, opts ...Option) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if probeURL != "" {
		opts = append(opts, WithProbe(func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
			if err != nil {
				return err
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			_, _ = io.CopyN(io.Discard, resp.Body, 64)
			if resp.StatusCode < 500 {
				return nil
			}
			return fmt.Errorf("probe_bad_status: %d", resp.StatusCode)
		}))
	}
	return &HTTPClient{Client: httpClient, brk: New(name, cfg, logger, opts...)}
}

// Breaker exposes the underlying breaker.
func (h *HTTPClient) Breaker() *Breaker { return h.brk }

// Do sends req through the breaker.
func (h *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := h.brk.Execute(req.Context(), func(ctx context.Context) error {
		r, err := h.Client.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}
		resp = r
		if r.StatusCode >= 500 {
			return statusError{code: r.StatusCode}
		}
		return nil
	})
	var se statusError
	if err != nil && errors.As(err, &se) && resp != nil {
		return resp, nil
	}
	if err != nil && resp != nil {
		resp.Body.Close()
		resp = nil
	}
	return resp, err
}
