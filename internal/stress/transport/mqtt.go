package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/xid"
)

// mqttQoS is at-most-once; the harness counts accepted publishes only.
const mqttQoS byte = 0

// MQTT publishes over an MQTT broker; topics map one to one.
//
// A paho client keeps one handler per topic filter, so local subscribers of
// the same topic share a single broker subscription and are fanned out here.
type MQTT struct {
	client  mqtt.Client
	timeout time.Duration

	// subMu serializes broker subscribe and unsubscribe round trips. The
	// message callback never takes it, so traffic arriving while a SUBACK
	// is pending cannot stall paho's router.
	subMu sync.Mutex

	mu     sync.Mutex
	topics map[string]map[*sink]struct{}
}

// DialMQTT connects to broker (e.g. tcp://localhost:1883).
func DialMQTT(broker string, timeout time.Duration) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("pubstress-" + xid.New().String()).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true).
		SetCleanSession(true)

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt %s: connect timed out after %s", broker, timeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt %s: %w", broker, err)
	}
	return newMQTT(client, timeout), nil
}

func newMQTT(client mqtt.Client, timeout time.Duration) *MQTT {
	return &MQTT{
		client:  client,
		timeout: timeout,
		topics:  make(map[string]map[*sink]struct{}),
	}
}

// Name implements Transport.
func (m *MQTT) Name() string { return "mqtt" }

// Publish implements Publisher.
func (m *MQTT) Publish(ctx context.Context, topic string, data []byte) error {
	tok := m.client.Publish(topic, mqttQoS, false, data)
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe implements Subscriber.
func (m *MQTT) Subscribe(ctx context.Context, topic string) (<-chan Delivery, error) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	m.mu.Lock()
	_, subscribed := m.topics[topic]
	m.mu.Unlock()

	if !subscribed {
		tok := m.client.Subscribe(topic, mqttQoS, func(_ mqtt.Client, msg mqtt.Message) {
			m.fanOut(Delivery{Topic: msg.Topic(), Data: msg.Payload(), ReceivedAt: time.Now()})
		})
		if !tok.WaitTimeout(m.timeout) {
			return nil, fmt.Errorf("mqtt subscribe %s: timed out", topic)
		}
		if err := tok.Error(); err != nil {
			return nil, fmt.Errorf("mqtt subscribe %s: %w", topic, err)
		}
	}

	s := newSink()
	m.mu.Lock()
	subs, ok := m.topics[topic]
	if !ok {
		subs = make(map[*sink]struct{})
		m.topics[topic] = subs
	}
	subs[s] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.unsubscribe(topic, s)
	}()

	return s.ch, nil
}

func (m *MQTT) fanOut(d Delivery) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for s := range m.topics[d.Topic] {
		s.offer(d)
	}
}

func (m *MQTT) unsubscribe(topic string, s *sink) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	m.mu.Lock()
	subs := m.topics[topic]
	delete(subs, s)
	last := len(subs) == 0
	if last {
		delete(m.topics, topic)
	}
	m.mu.Unlock()

	s.close()
	if last {
		m.client.Unsubscribe(topic).WaitTimeout(m.timeout)
	}
}

// Close implements Transport.
func (m *MQTT) Close() error {
	m.mu.Lock()
	for topic, subs := range m.topics {
		for s := range subs {
			s.close()
		}
		delete(m.topics, topic)
	}
	m.mu.Unlock()

	m.client.Disconnect(250)
	return nil
}
