// v0
// internal/ingest/mqtt_test.go
package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct {
	done chan struct{}
	err  error
}

func newDoneToken(err error) *doneToken {
	t := &doneToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *doneToken) Wait() bool                     { <-t.done; return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

// fakeBroker implements the slice of mqtt.Client the subscriber uses.
type fakeBroker struct {
	mqtt.Client

	mu           sync.Mutex
	connectErr   error
	connected    bool
	topic        string
	qos          byte
	handler      mqtt.MessageHandler
	disconnected int
}

func (b *fakeBroker) Connect() mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = b.connectErr == nil
	return newDoneToken(b.connectErr)
}

func (b *fakeBroker) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topic, b.qos, b.handler = topic, qos, cb
	return newDoneToken(nil)
}

func (b *fakeBroker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *fakeBroker) Disconnect(uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	b.disconnected++
}

func (b *fakeBroker) publish(payload string) {
	b.mu.Lock()
	cb := b.handler
	b.mu.Unlock()
	cb(b, &fakeMessage{topic: b.topic, payload: []byte(payload)})
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 7 }
func (m *fakeMessage) Payload() []byte   { return m.payload }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubscriberDispatchesDecodedEvents(t *testing.T) {
	broker := &fakeBroker{}
	var mu sync.Mutex
	var got []PlanEvent
	handle := func(_ context.Context, ev PlanEvent) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	}
	s := newSubscriber(MQTTConfig{Broker: "tcp://broker:1883", Topic: "planning/events", QoS: 1}, broker, handle, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for {
		broker.mu.Lock()
		subscribed := broker.handler != nil
		broker.mu.Unlock()
		if subscribed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if broker.topic != "planning/events" || broker.qos != 1 {
		t.Fatalf("subscribed to %q qos %d", broker.topic, broker.qos)
	}

	broker.publish(`{"periodeId":"3","action":"generated"}`)
	broker.publish(`not json`)
	broker.publish(`{"id_periode":4,"action":"deleted"}`)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %+v", got)
	}
	if got[0].PeriodID != 3 || got[0].Action != ActionGenerated || got[1].PeriodID != 4 {
		t.Fatalf("unexpected events %+v", got)
	}
	if broker.disconnected != 1 {
		t.Fatalf("expected one disconnect, got %d", broker.disconnected)
	}
}

func TestSubscriberConnectFailure(t *testing.T) {
	broker := &fakeBroker{connectErr: errors.New("connection refused")}
	s := newSubscriber(MQTTConfig{Broker: "tcp://broker:1883", Topic: "planning/events"}, broker,
		func(context.Context, PlanEvent) {}, discardLogger())

	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected connect error")
	}
	if broker.handler != nil {
		t.Fatal("subscribed despite failed connect")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewSubscriberValidates(t *testing.T) {
	handle := func(context.Context, PlanEvent) {}
	valid := MQTTConfig{Broker: "tcp://broker:1883", Topic: "planning/events", ClientID: "analytics"}

	if _, err := NewSubscriber(valid, handle, discardLogger()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for name, mutate := range map[string]func(*MQTTConfig){
		"broker":   func(c *MQTTConfig) { c.Broker = " " },
		"topic":    func(c *MQTTConfig) { c.Topic = "" },
		"clientID": func(c *MQTTConfig) { c.ClientID = "" },
		"qos":      func(c *MQTTConfig) { c.QoS = 3 },
	} {
		cfg := valid
		mutate(&cfg)
		if _, err := NewSubscriber(cfg, handle, discardLogger()); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := NewSubscriber(valid, nil, discardLogger()); err == nil {
		t.Error("nil handler accepted")
	}
}
