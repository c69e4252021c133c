// v1
// internal/circuitbreaker/breaker.go
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned while the breaker refuses calls.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config holds the breaker tunables.
type Config struct {
	MaxFailures      int           // consecutive failures before opening
	ResetTimeout     time.Duration // time spent open before probing again
	SuccessesToClose int           // successes required in HalfOpen before closing
}

// DefaultConfig mirrors the defaults used by the properties loader.
func DefaultConfig() Config {
	return Config{MaxFailures: 5, ResetTimeout: 30 * time.Second, SuccessesToClose: 1}
}

// Validate rejects unusable tunables.
func (c Config) Validate() error {
	if c.MaxFailures < 1 {
		return errors.New("MaxFailures must be >= 1")
	}
	if c.ResetTimeout <= 0 {
		return errors.New("ResetTimeout must be > 0")
	}
	if c.SuccessesToClose < 1 {
		return errors.New("SuccessesToClose must be >= 1")
	}
	return nil
}

// Option customises a Breaker.
type Option func(*Breaker)

// WithProbe runs probe before the first call after the open period elapses.
func WithProbe(probe func(ctx context.Context) error) Option {
	return func(b *Breaker) { b.probe = probe }
}

// WithStateHook is invoked after every state transition, outside the lock.
func WithStateHook(hook func(name string, to State)) Option {
	return func(b *Breaker) { b.hook = hook }
}

func withClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// Breaker guards an unreliable dependency. It is safe for concurrent use.
type Breaker struct {
	name   string
	cfg    Config
	logger *slog.Logger
	probe  func(ctx context.Context) error
	hook   func(name string, to State)
	now    func() time.Time

	mu          sync.Mutex
	state       State
	recentFails int
	successes   int
	openedAt    time.Time
}

// New builds a closed breaker. Invalid tunables fall back to DefaultConfig.
func New(name string, cfg Config, logger *slog.Logger, opts ...Option) *Breaker {
	if err := cfg.Validate(); err != nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &Breaker{
		name:   name,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "circuit_breaker"), slog.String("breaker", name)),
		state:  Closed,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger.Info("breaker_created", "maxFailures", cfg.MaxFailures, "resetTimeout", cfg.ResetTimeout.String(), "successesToClose", cfg.SuccessesToClose)
	return b
}

// Name returns the breaker identifier.
func (b *Breaker) Name() string { return b.name }

// State returns the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs op unless the breaker is open. A failure that trips the
// breaker is reported as ErrOpen wrapping the cause. Errors caused by ctx
// expiring are returned without being counted.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	probing := false
	if b.state == Open {
		since := b.now().Sub(b.openedAt)
		if since < b.cfg.ResetTimeout {
			b.mu.Unlock()
			b.logger.Warn("breaker_fast_fail", "since_open", since.String())
			return ErrOpen
		}
		b.state = HalfOpen
		b.successes = 0
		probing = true
	}
	b.mu.Unlock()
	if probing {
		b.notify(HalfOpen)
		if b.probe != nil {
			b.logger.Info("breaker_probe_start")
			if err := b.probe(ctx); err != nil {
				b.logger.Warn("breaker_probe_failed", "error", err.Error())
				b.trip()
				return ErrOpen
			}
			b.logger.Info("breaker_probe_ok")
		}
	}

	if err := op(ctx); err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			// Caller gave up; the dependency is not at fault.
			return err
		}
		if b.onFailure(err) {
			return fmt.Errorf("%w: %v", ErrOpen, err)
		}
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	closed := false
	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessesToClose {
			b.state = Closed
			b.recentFails = 0
			b.successes = 0
			closed = true
		}
	default:
		b.recentFails = 0
	}
	b.mu.Unlock()
	if closed {
		b.logger.Info("breaker_closed")
		b.notify(Closed)
	}
}

// onFailure records err and reports whether the breaker is now open.
func (b *Breaker) onFailure(err error) bool {
	b.mu.Lock()
	b.recentFails++
	fails := b.recentFails
	shouldOpen := b.state == HalfOpen || b.recentFails >= b.cfg.MaxFailures
	b.mu.Unlock()
	b.logger.Warn("operation_failure", "failures", fails, "error", err.Error())
	if shouldOpen {
		b.trip()
	}
	return shouldOpen
}

func (b *Breaker) trip() {
	b.mu.Lock()
	b.state = Open
	b.openedAt = b.now()
	b.successes = 0
	b.mu.Unlock()
	b.logger.Error("breaker_opened", "maxFailures", b.cfg.MaxFailures)
	b.notify(Open)
}

func (b *Breaker) notify(to State) {
	if b.hook != nil {
		b.hook(b.name, to)
	}
}
