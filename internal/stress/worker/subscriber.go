package worker

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
	"github.com/wesleyorama2/pubstress/internal/stress/latency"
	"github.com/wesleyorama2/pubstress/internal/stress/message"
	"github.com/wesleyorama2/pubstress/internal/stress/rate"
	"github.com/wesleyorama2/pubstress/internal/stress/transport"
)

// SubscriberOptions configures a subscriber worker.
type SubscriberOptions struct {
	Index    int
	Topic    string
	Duration time.Duration
	Mode     config.LatencyMode

	// Synthetic mode: one sample per Tick drawn uniformly from [Min, Max).
	Tick time.Duration
	Min  time.Duration
	Max  time.Duration

	// Measured mode: deliveries are decoded with Codec.
	Codec message.Codec
}

// Subscriber produces latency samples for one topic.
//
// In synthetic mode it models reception: every tick counts one received
// message and records a random latency. In measured mode it consumes real
// deliveries and records the time since each message was sealed.
type Subscriber struct {
	opts     SubscriberOptions
	source   transport.Subscriber
	received *atomic.Uint64
	tracker  *latency.Tracker

	// draw returns a synthetic sample in [Min, Max).
	draw func() time.Duration

	deliveries <-chan transport.Delivery
	cancel     context.CancelFunc
	count      uint64
}

// NewSubscriber creates a subscriber worker. source may be nil in synthetic
// mode.
func NewSubscriber(opts SubscriberOptions, source transport.Subscriber, received *atomic.Uint64, tracker *latency.Tracker) *Subscriber {
	s := &Subscriber{
		opts:     opts,
		source:   source,
		received: received,
		tracker:  tracker,
	}
	s.draw = s.uniform
	return s
}

func (s *Subscriber) uniform() time.Duration {
	span := s.opts.Max - s.opts.Min
	if span <= 0 {
		return s.opts.Min
	}
	return s.opts.Min + rand.N(span)
}

// Attach subscribes to the topic in measured mode. It must be called before
// publishers start so no early message is missed; in synthetic mode it does
// nothing.
func (s *Subscriber) Attach(ctx context.Context) error {
	if s.opts.Mode != config.LatencyMeasured {
		return nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch, err := s.source.Subscribe(subCtx, s.opts.Topic)
	if err != nil {
		cancel()
		return err
	}
	s.deliveries = ch
	s.cancel = cancel
	return nil
}

// Run samples until the worker's own elapsed time reaches the duration.
func (s *Subscriber) Run(ctx context.Context) error {
	rec := s.tracker.Recorder()
	defer rec.Flush()

	var err error
	if s.opts.Mode == config.LatencyMeasured {
		err = s.runMeasured(ctx, rec)
	} else {
		err = s.runSynthetic(ctx, rec)
	}

	slog.Debug("subscriber finished",
		"worker", s.opts.Index,
		"topic", s.opts.Topic,
		"mode", string(s.opts.Mode),
		"received", s.count)
	return err
}

func (s *Subscriber) runSynthetic(ctx context.Context, rec *latency.Recorder) error {
	pacer := rate.NewFixedInterval(s.opts.Tick)
	start := time.Now()

	for time.Since(start) < s.opts.Duration {
		s.received.Add(1)
		s.count++
		rec.Record(s.draw())

		if err := pacer.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Subscriber) runMeasured(ctx context.Context, rec *latency.Recorder) error {
	if s.deliveries == nil {
		if err := s.Attach(ctx); err != nil {
			return err
		}
	}
	defer s.cancel()

	deadline := time.NewTimer(s.opts.Duration)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return nil
		case d, ok := <-s.deliveries:
			if !ok {
				return nil
			}
			env, err := s.opts.Codec.Decode(d.Data)
			if err != nil {
				continue
			}
			s.received.Add(1)
			s.count++
			rec.Record(env.Age(d.ReceivedAt))
		}
	}
}

// Received returns the number of messages this worker counted. Only
// meaningful once Run has returned.
func (s *Subscriber) Received() uint64 { return s.count }
