// v2
// internal/circuitbreaker/kafka.go
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// kafkaMessageReader mirrors the subset of kafka.Reader used by the wrapper.
type kafkaMessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
}

// KafkaSettings are the runtime tunables for the Kafka reader wrapper.
type KafkaSettings struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	AttemptTimeout   time.Duration
	Backoff          time.Duration
}

// DefaultKafkaSettings returns the documented defaults with protection off.
func DefaultKafkaSettings() KafkaSettings {
	return KafkaSettings{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		AttemptTimeout:   3 * time.Second,
		Backoff:          200 * time.Millisecond,
	}
}

// KafkaBreaker retries Kafka operations under a breaker policy.
type KafkaBreaker struct {
	enabled          bool
	failureThreshold int
	timeout          time.Duration
	backoff          time.Duration
	breaker          *Breaker
}

// NewKafkaBreaker builds the wrapper policy. Disabled settings yield a
// pass-through breaker.
func NewKafkaBreaker(name string, s KafkaSettings, logger *slog.Logger, opts ...Option) (*KafkaBreaker, error) {
	if s.FailureThreshold < 1 {
		return nil, errors.New("kafka breaker failure threshold must be >= 1")
	}
	if s.SuccessThreshold < 1 {
		return nil, errors.New("kafka breaker success threshold must be >= 1")
	}
	if s.OpenTimeout <= 0 {
		return nil, errors.New("kafka breaker open timeout must be > 0")
	}
	if s.AttemptTimeout < 0 || s.Backoff < 0 {
		return nil, errors.New("kafka breaker timeouts must be >= 0")
	}
	kb := &KafkaBreaker{
		enabled:          s.Enabled,
		failureThreshold: s.FailureThreshold,
		timeout:          s.AttemptTimeout,
		backoff:          s.Backoff,
	}
	if s.Enabled {
		kb.breaker = New(name, Config{
			MaxFailures:      s.FailureThreshold,
			ResetTimeout:     s.OpenTimeout,
			SuccessesToClose: s.SuccessThreshold,
		}, logger, opts...)
	}
	return kb, nil
}

// Enabled reports whether breaker protections are active.
func (k *KafkaBreaker) Enabled() bool {
	return k != nil && k.enabled && k.breaker != nil
}

// Breaker exposes the underlying breaker, nil when disabled.
func (k *KafkaBreaker) Breaker() *Breaker {
	if k == nil {
		return nil
	}
	return k.breaker
}

// CBKafkaReader wraps a kafka.Reader with breaker protections.
type CBKafkaReader struct {
	breaker *KafkaBreaker
	reader  kafkaMessageReader
}

// NewCBKafkaReader wraps the reader, applying breaker logic to FetchMessage.
func NewCBKafkaReader(reader kafkaMessageReader, breaker *KafkaBreaker) *CBKafkaReader {
	return &CBKafkaReader{reader: reader, breaker: breaker}
}

// FetchMessage retrieves a message with breaker-enforced retry/back-off.
func (r *CBKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r == nil || r.reader == nil {
		return kafka.Message{}, errors.New("nil kafka reader")
	}
	if !r.breaker.Enabled() {
		return r.reader.FetchMessage(ctx)
	}
	var msg kafka.Message
	err := r.breaker.do(ctx, func(execCtx context.Context) error {
		var innerErr error
		msg, innerErr = r.reader.FetchMessage(execCtx)
		return innerErr
	})
	return msg, err
}

func (k *KafkaBreaker) do(ctx context.Context, op func(ctx context.Context) error) error {
	if !k.Enabled() {
		return op(ctx)
	}
	attempts := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		attempts++
		attemptCtx, cancel := k.withAttemptContext(ctx)
		err := k.breaker.Execute(attemptCtx, op)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, ErrOpen) && attempts >= k.failureThreshold {
			return err
		}
		if waitErr := k.waitBackoff(ctx); waitErr != nil {
			return waitErr
		}
	}
}

func (k *KafkaBreaker) withAttemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if k.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, k.timeout)
}

func (k *KafkaBreaker) waitBackoff(ctx context.Context) error {
	if k.backoff <= 0 {
		return nil
	}
	timer := time.NewTimer(k.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
