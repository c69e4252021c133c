// v0
// internal/httpapi/health.go
package httpapi

import "sync"

// HealthState tracks readiness for the HTTP API. Liveness holds for as long
// as the process answers at all, so /health/live never consults it. Readiness
// is raised by the application once the server starts listening and lowered
// again as soon as shutdown begins, letting load balancers drain traffic
// before the listener closes.
type HealthState struct {
	mu    sync.RWMutex
	ready bool
}

// NewHealthState returns a tracker that reports not ready. Orchestrators
// polling /health/ready therefore see 503 until the application has finished
// wiring and calls SetReady(true).
func NewHealthState() *HealthState {
	return &HealthState{}
}

// SetReady records the readiness flag. The application calls it with true
// when the listener starts and with false when the shutdown signal arrives.
// It is safe to call from any goroutine.
func (h *HealthState) SetReady(value bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = value
}

// Ready reports the current readiness flag. Handlers call it on every
// request, so it only takes a read lock.
func (h *HealthState) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}
