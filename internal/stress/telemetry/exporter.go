// Package telemetry exposes live run counters in Prometheus format.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wesleyorama2/pubstress/internal/stress/latency"
	"github.com/wesleyorama2/pubstress/internal/stress/worker"
)

const namespace = "pubstress"

// Exporter serves /metrics for one run. Values are read from the shared
// counters and tracker at scrape time.
type Exporter struct {
	registry *prometheus.Registry
	server   *http.Server
	listener net.Listener
}

// NewExporter registers the run metrics on a private registry.
func NewExporter(counters *worker.Counters, tracker *latency.Tracker) *Exporter {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages accepted by the transport.",
		}, func() float64 { return float64(counters.Sent.Load()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages counted by subscriber workers.",
		}, func() float64 { return float64(counters.Received.Load()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latency_p99_microseconds",
			Help:      "99th percentile subscriber latency so far.",
		}, func() float64 { return latency.Micros(tracker.Snapshot().P99) }),
	)

	return &Exporter{registry: reg}
}

// Handler returns the metrics handler.
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	return mux
}

// Registry returns the private registry.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

// Start listens on addr and serves in the background.
func (e *Exporter) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	e.listener = ln
	e.server = &http.Server{
		Handler:           e.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()

	slog.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (e *Exporter) Addr() string {
	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

// Shutdown stops the server if it was started.
func (e *Exporter) Shutdown(ctx context.Context) error {
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}
