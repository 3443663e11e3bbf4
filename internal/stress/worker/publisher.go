package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/pubstress/internal/stress/message"
	"github.com/wesleyorama2/pubstress/internal/stress/rate"
	"github.com/wesleyorama2/pubstress/internal/stress/transport"
)

// PublisherOptions configures a publisher worker.
type PublisherOptions struct {
	Index    int
	Topic    string
	Duration time.Duration
	Pacer    rate.Pacer
	Codec    message.Codec
	// Payload is the profile padding attached to every message. Shared
	// read-only between workers.
	Payload []byte
}

// Publisher sends one message per tick to a single topic.
type Publisher struct {
	opts PublisherOptions
	out  transport.Publisher
	sent *atomic.Uint64

	sequence uint64
	failed   atomic.Uint64
}

// NewPublisher creates a publisher worker. sent is incremented once per
// accepted publish.
func NewPublisher(opts PublisherOptions, out transport.Publisher, sent *atomic.Uint64) *Publisher {
	return &Publisher{opts: opts, out: out, sent: sent}
}

// Run publishes until the worker's own elapsed time reaches the duration.
//
// Publish failures are absorbed: the tick is spent and the same sequence
// number is offered again on the next tick. Run returns an error only when
// ctx ends before the duration does.
func (p *Publisher) Run(ctx context.Context) error {
	start := time.Now()

	for time.Since(start) < p.opts.Duration {
		if p.publish(ctx) {
			p.sent.Add(1)
			p.sequence++
		} else {
			p.failed.Add(1)
		}

		if err := p.opts.Pacer.Wait(ctx); err != nil {
			return err
		}
	}

	paced := p.opts.Pacer.Stats()
	slog.Debug("publisher finished",
		"worker", p.opts.Index,
		"topic", p.opts.Topic,
		"sent", p.sequence,
		"failed", p.failed.Load(),
		"ticks", paced.Ticks,
		"paced", paced.Waited)
	return nil
}

// publish sends the current sequence and reports whether the transport
// accepted it. A panicking transport counts as a failure.
func (p *Publisher) publish(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	env := message.Seal(message.New(p.sequence), p.opts.Payload, time.Now())
	data, err := p.opts.Codec.Encode(env)
	if err != nil {
		return false
	}
	return p.out.Publish(ctx, p.opts.Topic, data) == nil
}

// Sequence returns the number of accepted publishes. Only meaningful once
// Run has returned.
func (p *Publisher) Sequence() uint64 { return p.sequence }

// Failed returns the number of rejected publishes.
func (p *Publisher) Failed() uint64 { return p.failed.Load() }
