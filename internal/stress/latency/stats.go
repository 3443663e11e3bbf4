package latency

import "time"

// Statistics is an immutable percentile summary.
//
// P50 <= P95 <= P99 <= P999 <= Max whenever Count > 0; all fields are zero
// when Count == 0.
type Statistics struct {
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	P999  time.Duration `json:"p999"`
	Max   time.Duration `json:"max"`
	Count int64         `json:"count"`
}

// Micros converts a duration to fractional microseconds.
func Micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

// Ordered reports whether the percentiles are monotonically non-decreasing.
func (s Statistics) Ordered() bool {
	return s.P50 <= s.P95 && s.P95 <= s.P99 && s.P99 <= s.P999 && s.P999 <= s.Max
}
