package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Memory is an in-process broker. Every subscriber of a topic receives
// every message published to it after it subscribed.
type Memory struct {
	mu     sync.RWMutex
	topics map[string]map[*sink]struct{}
	closed bool

	published atomic.Int64
	dropped   atomic.Int64
}

// NewMemory creates an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{topics: make(map[string]map[*sink]struct{})}
}

// Name implements Transport.
func (m *Memory) Name() string { return "memory" }

// Publish implements Publisher.
func (m *Memory) Publish(ctx context.Context, topic string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	m.published.Add(1)
	if subs := m.topics[topic]; len(subs) > 0 {
		d := Delivery{Topic: topic, Data: data, ReceivedAt: time.Now()}
		for s := range subs {
			if !s.offer(d) {
				m.dropped.Add(1)
			}
		}
	}
	return nil
}

// Subscribe implements Subscriber.
func (m *Memory) Subscribe(ctx context.Context, topic string) (<-chan Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	s := newSink()
	subs, ok := m.topics[topic]
	if !ok {
		subs = make(map[*sink]struct{})
		m.topics[topic] = subs
	}
	subs[s] = struct{}{}

	go func() {
		<-ctx.Done()
		m.unsubscribe(topic, s)
	}()

	return s.ch, nil
}

func (m *Memory) unsubscribe(topic string, s *sink) {
	m.mu.Lock()
	if subs, ok := m.topics[topic]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(m.topics, topic)
		}
	}
	m.mu.Unlock()

	s.close()
}

// Published returns the number of accepted publishes.
func (m *Memory) Published() int64 { return m.published.Load() }

// Dropped returns the number of deliveries lost to full subscriber buffers.
func (m *Memory) Dropped() int64 { return m.dropped.Load() }

// Close closes every subscription; later operations return ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for topic, subs := range m.topics {
		for s := range subs {
			s.close()
		}
		delete(m.topics, topic)
	}
	return nil
}
