// Package resource samples the CPU and memory use of the harness process.
//
// The figures are advisory: they describe the whole process, harness
// overhead included.
package resource

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// DefaultInterval is the sampling period used by the engine.
const DefaultInterval = 500 * time.Millisecond

// Summary is the resource usage over a run.
type Summary struct {
	CPUPercentAvg float64 `json:"cpu_percent_avg"`
	MemoryMBPeak  float64 `json:"memory_mb_peak"`
	Samples       int     `json:"-"`
}

// Sampler periodically records process CPU percent and resident memory.
type Sampler struct {
	proc     *process.Process
	interval time.Duration

	mu      sync.Mutex
	cpuSum  float64
	cpuN    int
	peakRSS uint64
}

// NewSampler creates a sampler for the current process.
func NewSampler(interval time.Duration) (*Sampler, error) {
	return NewSamplerForPID(int32(os.Getpid()), interval)
}

// NewSamplerForPID creates a sampler for an arbitrary process.
func NewSamplerForPID(pid int32, interval time.Duration) (*Sampler, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("resource sampler for pid %d: %w", pid, err)
	}

	s := &Sampler{proc: proc, interval: interval}

	// The first Percent(0) call only primes the CPU baseline.
	if _, err := proc.Percent(0); err != nil {
		return nil, fmt.Errorf("resource sampler for pid %d: %w", pid, err)
	}
	return s, nil
}

// Run samples every interval until ctx is done, then takes a final sample.
// Ending the context is the normal way to stop it.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.Sample()
		case <-ticker.C:
			if err := s.Sample(); err != nil {
				return err
			}
		}
	}
}

// Sample takes one measurement.
func (s *Sampler) Sample() error {
	cpu, err := s.proc.Percent(0)
	if err != nil {
		return fmt.Errorf("sample cpu: %w", err)
	}
	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return fmt.Errorf("sample memory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cpuSum += cpu
	s.cpuN++
	if mem.RSS > s.peakRSS {
		s.peakRSS = mem.RSS
	}
	return nil
}

// Summary returns the average CPU percent and peak RSS in MiB so far.
func (s *Sampler) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var avg float64
	if s.cpuN > 0 {
		avg = s.cpuSum / float64(s.cpuN)
	}
	return Summary{
		CPUPercentAvg: avg,
		MemoryMBPeak:  float64(s.peakRSS) / (1 << 20),
		Samples:       s.cpuN,
	}
}
