// Package engine orchestrates a stress run.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
	"github.com/wesleyorama2/pubstress/internal/stress/latency"
	"github.com/wesleyorama2/pubstress/internal/stress/message"
	"github.com/wesleyorama2/pubstress/internal/stress/monitor"
	"github.com/wesleyorama2/pubstress/internal/stress/rate"
	"github.com/wesleyorama2/pubstress/internal/stress/report"
	"github.com/wesleyorama2/pubstress/internal/stress/resource"
	"github.com/wesleyorama2/pubstress/internal/stress/telemetry"
	"github.com/wesleyorama2/pubstress/internal/stress/transport"
	"github.com/wesleyorama2/pubstress/internal/stress/worker"
)

// Options are the runtime collaborators of an Engine.
type Options struct {
	// Transport replaces the adapter selected by the configuration. The
	// engine does not close a transport it did not create.
	Transport transport.Transport

	// Reporter receives monitor progress; nil discards it.
	Reporter monitor.Reporter

	// SampleInterval overrides resource.DefaultInterval.
	SampleInterval time.Duration
}

// Engine runs one stress test. An Engine is single use.
//
// It coordinates:
//   - transport connection and subscriber attachment
//   - publisher, subscriber and monitor goroutines
//   - optional resource sampling and metrics export
//   - aggregation of the final Result
//
// Example usage:
//
//	cfg := config.Default()
//	eng, _ := engine.NewEngine(cfg, engine.Options{})
//	result, _ := eng.Run(context.Background())
//	fmt.Printf("%.0f msg/s\n", result.Throughput)
type Engine struct {
	config *config.RunConfig
	opts   Options

	counters worker.Counters
	tracker  *latency.Tracker
	monitor  *monitor.Monitor
}

// NewEngine validates cfg and prepares an engine. Configuration errors are
// returned here, before anything is started.
func NewEngine(cfg *config.RunConfig, opts Options) (*Engine, error) {
	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Engine{
		config:  cfg,
		opts:    opts,
		tracker: latency.NewTracker("subscriber-latency"),
	}
	e.monitor = monitor.New(&e.counters, monitor.Options{
		Period:   cfg.MonitorPeriod.GetDuration(config.DefaultMonitorPeriod),
		Duration: cfg.Duration.GetDuration(config.DefaultDuration),
	}, opts.Reporter)
	return e, nil
}

// Counters returns the shared message counters.
func (e *Engine) Counters() *worker.Counters { return &e.counters }

// Tracker returns the shared latency tracker.
func (e *Engine) Tracker() *latency.Tracker { return e.tracker }

// Run executes the test window and aggregates the result.
//
// An error means the run did not complete: the transport could not be
// reached, a subscription failed, or ctx was cancelled. No partial result
// is returned in that case.
func (e *Engine) Run(ctx context.Context) (*report.Result, error) {
	cfg := e.config
	duration := cfg.Duration.GetDuration(config.DefaultDuration)
	runID := xid.New().String()
	log := slog.With("run", runID)

	tr := e.opts.Transport
	if tr == nil {
		var err error
		tr, err = transport.New(ctx, cfg.Transport)
		if err != nil {
			return nil, fmt.Errorf("failed to connect transport: %w", err)
		}
		defer tr.Close()
	}

	codec, err := message.NewCodec(cfg.Format)
	if err != nil {
		return nil, err
	}
	payload := message.NewPayload(cfg.MessageProfile)

	subscribers, err := e.attachSubscribers(ctx, tr, codec, duration)
	if err != nil {
		return nil, err
	}
	publishers := e.newPublishers(tr, codec, payload, duration)

	if addr := cfg.Report.MetricsAddr; addr != "" {
		exporter := telemetry.NewExporter(&e.counters, e.tracker)
		if err := exporter.Start(addr); err != nil {
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = exporter.Shutdown(shutdownCtx)
		}()
	}

	sampler, stopSampler := e.startSampler(log)

	log.Info("run started",
		"publishers", len(publishers),
		"subscribers", len(subscribers),
		"rate_hz", cfg.RateHz,
		"duration", duration,
		"transport", tr.Name())

	startedAt := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range publishers {
		g.Go(func() error { return p.Run(gctx) })
	}
	for _, s := range subscribers {
		g.Go(func() error { return s.Run(gctx) })
	}
	g.Go(func() error { return e.monitor.Run(gctx) })

	waitErr := g.Wait()
	elapsed := time.Since(startedAt)
	stopSampler()

	if waitErr != nil {
		return nil, waitErr
	}

	total := e.counters.Sent.Load()
	result := &report.Result{
		RunID:            runID,
		StartedAt:        startedAt,
		Config:           *cfg,
		Transport:        tr.Name(),
		TotalMessages:    total,
		MessagesReceived: e.counters.Received.Load(),
		Elapsed:          elapsed,
		Throughput:       report.Throughput(total, elapsed),
		Latency:          e.tracker.Snapshot(),
		Series:           e.monitor.Series(),
	}
	if sampler != nil {
		result.Resources = sampler.Summary()
	}

	log.Info("run finished",
		"sent", result.TotalMessages,
		"received", result.MessagesReceived,
		"elapsed", elapsed,
		"throughput", result.Throughput)
	return result, nil
}

func (e *Engine) attachSubscribers(ctx context.Context, tr transport.Transport, codec message.Codec, duration time.Duration) ([]*worker.Subscriber, error) {
	cfg := e.config
	subs := make([]*worker.Subscriber, cfg.SubscriberCount)

	for i := range subs {
		s := worker.NewSubscriber(worker.SubscriberOptions{
			Index:    i,
			Topic:    worker.Topic(cfg.TopicBase, i, cfg.TopicFanOut),
			Duration: duration,
			Mode:     cfg.Latency.Mode,
			Tick:     cfg.Latency.Tick.GetDuration(config.DefaultSubscriberTick),
			Min:      cfg.Latency.Min.GetDuration(config.DefaultLatencyMin),
			Max:      cfg.Latency.Max.GetDuration(config.DefaultLatencyMax),
			Codec:    codec,
		}, tr, &e.counters.Received, e.tracker)

		// On the error path earlier subscriptions end with ctx or when the
		// transport is closed.
		if err := s.Attach(ctx); err != nil {
			return nil, fmt.Errorf("subscriber %d: %w", i, err)
		}
		subs[i] = s
	}
	return subs, nil
}

func (e *Engine) newPublishers(tr transport.Transport, codec message.Codec, payload []byte, duration time.Duration) []*worker.Publisher {
	cfg := e.config
	pubs := make([]*worker.Publisher, cfg.PublisherCount)

	for i := range pubs {
		pubs[i] = worker.NewPublisher(worker.PublisherOptions{
			Index:    i,
			Topic:    worker.Topic(cfg.TopicBase, i, cfg.TopicFanOut),
			Duration: duration,
			Pacer:    rate.New(cfg.Pacing, cfg.RateHz),
			Codec:    codec,
			Payload:  payload,
		}, tr, &e.counters.Sent)
	}
	return pubs
}

// startSampler starts resource sampling unless disabled. The returned stop
// function blocks until the final sample is taken.
func (e *Engine) startSampler(log *slog.Logger) (*resource.Sampler, func()) {
	if e.config.Report.NoResources {
		return nil, func() {}
	}

	sampler, err := resource.NewSampler(e.opts.SampleInterval)
	if err != nil {
		log.Warn("resource sampling disabled", "error", err)
		return nil, func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sampler.Run(ctx); err != nil {
			log.Warn("resource sampling stopped", "error", err)
		}
	}()

	return sampler, func() {
		cancel()
		wg.Wait()
	}
}
