// v1
// internal/ingest/consumer.go
package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"projetbda/analytics/internal/circuitbreaker"
)

// ConsumerConfig captures the runtime tunables of the plan event consumer.
type ConsumerConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	PollTimeout time.Duration
	Breaker     circuitbreaker.KafkaSettings
}

// Handler reacts to a decoded plan event.
type Handler func(ctx context.Context, ev PlanEvent)

// messageFetcher captures the read capability shared by the raw Kafka reader
// and the circuit breaker wrapper.
type messageFetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
}

type messageCommitter interface {
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Consumer streams plan events from Kafka and hands them to a Handler.
type Consumer struct {
	cfg       ConsumerConfig
	closer    io.Closer
	fetcher   messageFetcher
	committer messageCommitter
	handle    Handler
	log       *slog.Logger
	poll      time.Duration
	errDelay  time.Duration
}

// NewConsumer builds a Kafka reader wrapped by the circuit breaker.
func NewConsumer(cfg ConsumerConfig, handle Handler, log *slog.Logger, opts ...circuitbreaker.Option) (*Consumer, error) {
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	if handle == nil {
		return nil, errors.New("handler must not be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("plan event topic must not be empty")
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, errors.New("consumer group must not be empty")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    1e6,
	})

	log = log.With(slog.String("component", "plan_events"))
	var fetcher messageFetcher = reader
	breaker, err := circuitbreaker.NewKafkaBreaker("plan-events-consumer", cfg.Breaker, log, opts...)
	if err != nil {
		log.Error("plan_consumer_cb_init_failed", slog.Any("err", err))
	} else {
		fetcher = circuitbreaker.NewCBKafkaReader(reader, breaker)
		log.Info("plan_consumer_cb", slog.Bool("enabled", breaker.Enabled()))
	}

	return newConsumer(cfg, reader, fetcher, reader, handle, log), nil
}

func newConsumer(cfg ConsumerConfig, closer io.Closer, fetcher messageFetcher, committer messageCommitter, handle Handler, log *slog.Logger) *Consumer {
	poll := cfg.PollTimeout
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &Consumer{
		cfg:       cfg,
		closer:    closer,
		fetcher:   fetcher,
		committer: committer,
		handle:    handle,
		log:       log,
		poll:      poll,
		errDelay:  500 * time.Millisecond,
	}
}

// Close shuts down the underlying Kafka reader.
func (c *Consumer) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Run blocks until the context is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return errors.New("nil consumer")
	}

	c.log.Info("plan_consumer_started",
		slog.String("topic", c.cfg.Topic),
		slog.String("group", c.cfg.GroupID),
		slog.String("brokers", strings.Join(c.cfg.Brokers, ",")),
		slog.Duration("pollTimeout", c.poll),
	)
	defer c.log.Info("plan_consumer_stopped")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.poll)
		msg, err := c.fetcher.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, kafka.ErrGroupClosed) {
				return nil
			}
			c.log.Error("plan_consumer_fetch_error", slog.Any("err", err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.errDelay):
			}
			continue
		}

		ev, decodeErr := decodePlanEvent(msg.Value)
		if decodeErr != nil {
			c.log.Warn("plan_consumer_decode_error", slog.Any("err", decodeErr), slog.Int64("offset", msg.Offset))
		} else {
			c.log.Info("plan_event_received",
				slog.Int64("periodId", ev.PeriodID),
				slog.String("action", ev.Action),
				slog.Int64("offset", msg.Offset),
			)
			c.handle(ctx, ev)
		}

		if c.committer == nil {
			continue
		}
		commitCtx, commitCancel := context.WithTimeout(ctx, c.poll)
		if err := c.committer.CommitMessages(commitCtx, msg); err != nil {
			if !(errors.Is(err, context.Canceled) && ctx.Err() != nil) {
				c.log.Error("plan_consumer_commit_error", slog.Any("err", err))
			}
		}
		commitCancel()
	}
}
