package transport

import (
	"context"
	"errors"
	"math/rand/v2"
)

// ErrInjected is the failure returned by a Faulty transport.
var ErrInjected = errors.New("transport: injected publish failure")

// Faulty wraps a transport and fails a fraction of publishes.
type Faulty struct {
	Transport
	ratio float64
	roll  func() float64
}

// NewFaulty fails each publish with probability ratio.
func NewFaulty(inner Transport, ratio float64) *Faulty {
	return &Faulty{Transport: inner, ratio: ratio, roll: rand.Float64}
}

// Publish implements Publisher.
func (f *Faulty) Publish(ctx context.Context, topic string, data []byte) error {
	if f.roll() < f.ratio {
		return ErrInjected
	}
	return f.Transport.Publish(ctx, topic, data)
}

// Name implements Transport.
func (f *Faulty) Name() string { return f.Transport.Name() + "+faults" }
