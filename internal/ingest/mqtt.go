// v0
// internal/ingest/mqtt.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig captures the settings of the MQTT plan event subscriber. The
// planner's lightweight deployments publish the same JSON plan events on an
// MQTT topic instead of Kafka, so both sources feed one Handler.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	// QoS is the subscription quality of service (0, 1 or 2).
	QoS            byte
	ConnectTimeout time.Duration
}

// Subscriber receives plan events published on an MQTT topic.
type Subscriber struct {
	cfg    MQTTConfig
	client mqtt.Client
	handle Handler
	log    *slog.Logger

	mu  sync.Mutex
	ctx context.Context
}

// NewSubscriber validates cfg and prepares a paho client with a persistent
// session, so the broker keeps the subscription across reconnects.
func NewSubscriber(cfg MQTTConfig, handle Handler, log *slog.Logger) (*Subscriber, error) {
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	if handle == nil {
		return nil, errors.New("handler must not be nil")
	}
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, errors.New("mqtt broker must not be empty")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("mqtt topic must not be empty")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("mqtt client id must not be empty")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", cfg.QoS)
	}

	log = log.With(slog.String("component", "plan_events_mqtt"))
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout(cfg)).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("mqtt_connection_lost", slog.Any("err", err))
		}).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			log.Info("mqtt_reconnecting")
		})

	return newSubscriber(cfg, mqtt.NewClient(opts), handle, log), nil
}

func newSubscriber(cfg MQTTConfig, client mqtt.Client, handle Handler, log *slog.Logger) *Subscriber {
	return &Subscriber{
		cfg:    cfg,
		client: client,
		handle: handle,
		log:    log,
		ctx:    context.Background(),
	}
}

func connectTimeout(cfg MQTTConfig) time.Duration {
	if cfg.ConnectTimeout <= 0 {
		return 10 * time.Second
	}
	return cfg.ConnectTimeout
}

// Run connects, subscribes and then blocks until ctx is cancelled. Messages
// are dispatched on paho's router goroutine with ctx as their context.
func (s *Subscriber) Run(ctx context.Context) error {
	if s == nil {
		return errors.New("nil subscriber")
	}
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if err := wait(ctx, s.client.Connect(), connectTimeout(s.cfg)); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", s.cfg.Broker, err)
	}
	defer s.client.Disconnect(250)

	if err := wait(ctx, s.client.Subscribe(s.cfg.Topic, s.cfg.QoS, s.onMessage), connectTimeout(s.cfg)); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", s.cfg.Topic, err)
	}
	s.log.Info("plan_subscriber_started",
		slog.String("broker", s.cfg.Broker),
		slog.String("topic", s.cfg.Topic),
		slog.Int("qos", int(s.cfg.QoS)),
	)
	defer s.log.Info("plan_subscriber_stopped")

	<-ctx.Done()
	return ctx.Err()
}

// Close disconnects the client if Run left it connected.
func (s *Subscriber) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	if s.client.IsConnected() {
		s.client.Disconnect(250)
	}
	return nil
}

func (s *Subscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	s.deliver(ctx, msg.Topic(), msg.MessageID(), msg.Payload())
}

func (s *Subscriber) deliver(ctx context.Context, topic string, id uint16, payload []byte) {
	ev, err := decodePlanEvent(payload)
	if err != nil {
		s.log.Warn("plan_subscriber_decode_error",
			slog.Any("err", err),
			slog.String("topic", topic),
			slog.Int("messageId", int(id)),
		)
		return
	}
	s.log.Info("plan_event_received",
		slog.Int64("periodId", ev.PeriodID),
		slog.String("action", ev.Action),
		slog.String("topic", topic),
	)
	s.handle(ctx, ev)
}

// wait blocks on a paho token, giving up when ctx ends or after timeout.
func wait(ctx context.Context, tok mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("timed out")
	}
}
