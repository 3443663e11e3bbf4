package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rs/xid"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
	"github.com/wesleyorama2/pubstress/internal/stress/latency"
	"github.com/wesleyorama2/pubstress/internal/stress/monitor"
	"github.com/wesleyorama2/pubstress/internal/stress/report"
	"github.com/wesleyorama2/pubstress/internal/stress/resource"
)

func main() {
	result := createSampleResult()

	outputPath := "sample-report.html"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	err := report.GenerateHTML(result, outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sample report generated: %s\n", outputPath)
}

func createSampleResult() *report.Result {
	now := time.Now()

	cfg := config.Default()
	cfg.PublisherCount = 20
	cfg.SubscriberCount = 20
	cfg.RateHz = 200
	cfg.Duration = config.Duration(time.Minute)
	cfg.MessageProfile = config.ProfileMedium

	series := createSampleSeries(12, 5*time.Second, 4000, 20000)
	last := series[len(series)-1]
	sent, received := last.Sent, last.Received

	return &report.Result{
		RunID:            xid.New().String(),
		StartedAt:        now.Add(-time.Minute),
		Config:           *cfg,
		Transport:        string(cfg.Transport.Kind),
		TotalMessages:    sent,
		MessagesReceived: received,
		Elapsed:          time.Minute,
		Throughput:       report.Throughput(sent, time.Minute),
		Latency: latency.Statistics{
			P50:   24 * time.Microsecond,
			P95:   47 * time.Microsecond,
			P99:   49 * time.Microsecond,
			P999:  50 * time.Microsecond,
			Max:   50 * time.Microsecond,
			Count: int64(received),
		},
		Resources: resource.Summary{
			CPUPercentAvg: 37.4,
			MemoryMBPeak:  48.2,
		},
		Series: series,
	}
}

// createSampleSeries builds monitor intervals with a small wobble around the
// nominal rates. Counts are cumulative, as the monitor reports them.
func createSampleSeries(n int, period time.Duration, sendNominal, recvNominal float64) []monitor.Sample {
	samples := make([]monitor.Sample, 0, n)
	var sent, received uint64
	for i := 1; i <= n; i++ {
		wobble := 1 + 0.03*math.Sin(float64(i))
		sendRate := sendNominal * wobble
		recvRate := recvNominal * wobble
		sent += uint64(sendRate * period.Seconds())
		received += uint64(recvRate * period.Seconds())
		samples = append(samples, monitor.Sample{
			Elapsed:     time.Duration(i) * period,
			Sent:        sent,
			Received:    received,
			SendRate:    sendRate,
			ReceiveRate: recvRate,
		})
	}
	return samples
}
