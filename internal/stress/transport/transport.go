// Package transport defines the publish/subscribe contract the harness drives
// and the adapters that implement it.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
)

// ErrClosed is returned by operations on a closed transport.
var ErrClosed = errors.New("transport: closed")

// DeliveryBuffer is the per-subscription channel capacity. Deliveries that
// find the buffer full are dropped.
const DeliveryBuffer = 1024

// Delivery is one message handed to a subscriber.
type Delivery struct {
	Topic      string
	Data       []byte
	ReceivedAt time.Time
}

// Publisher sends an encoded message to a topic.
//
// Publish makes no ordering or delivery guarantee; a nil error only means
// the transport accepted the message.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte) error
}

// Subscriber streams deliveries for a topic until ctx is done, then closes
// the returned channel.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan Delivery, error)
}

// Transport is a connected publish/subscribe adapter.
type Transport interface {
	Publisher
	Subscriber
	Name() string
	Close() error
}

// New connects the adapter selected by cfg.
func New(ctx context.Context, cfg config.TransportConfig) (Transport, error) {
	timeout := cfg.ConnectTimeout.GetDuration(config.DefaultConnectTimeout)

	var (
		t   Transport
		err error
	)
	switch cfg.Kind {
	case config.TransportMemory, "":
		t = NewMemory()
	case config.TransportRedis:
		t, err = DialRedis(ctx, cfg.Broker, timeout)
	case config.TransportMQTT:
		t, err = DialMQTT(cfg.Broker, timeout)
	default:
		return nil, fmt.Errorf("transport %q: %w", cfg.Kind, config.ErrUnknownValue)
	}
	if err != nil {
		return nil, err
	}

	if cfg.FailRatio > 0 {
		t = NewFaulty(t, cfg.FailRatio)
	}
	return t, nil
}

// sink is a subscription channel that can be offered to and closed from
// different goroutines without racing.
type sink struct {
	mu     sync.Mutex
	ch     chan Delivery
	closed bool
}

func newSink() *sink {
	return &sink{ch: make(chan Delivery, DeliveryBuffer)}
}

// offer delivers without blocking; it reports false if the delivery was
// dropped.
func (s *sink) offer(d Delivery) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- d:
		return true
	default:
		return false
	}
}

func (s *sink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
