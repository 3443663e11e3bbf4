package report

// Level grades a tier; it only drives presentation.
type Level int

const (
	LevelBest Level = iota
	LevelGood
	LevelWarn
)

// Tier is a display-only assessment line.
type Tier struct {
	Level   Level
	Message string
}

// Throughput tier thresholds in messages per second.
const (
	ExcellentThroughput = 50_000
	GoodThroughput      = 10_000
)

// p99 tier thresholds in microseconds.
const (
	LowLatencyMicros        = 100
	AcceptableLatencyMicros = 1_000
)

// ThroughputTier grades aggregate throughput.
func ThroughputTier(msgPerSec float64) Tier {
	switch {
	case msgPerSec > ExcellentThroughput:
		return Tier{LevelBest, "Excellent performance!"}
	case msgPerSec > GoodThroughput:
		return Tier{LevelGood, "Good performance"}
	default:
		return Tier{LevelWarn, "Performance could be improved"}
	}
}

// LatencyTier grades the p99 latency in microseconds.
func LatencyTier(p99Micros float64) Tier {
	switch {
	case p99Micros < LowLatencyMicros:
		return Tier{LevelBest, "Low latency!"}
	case p99Micros < AcceptableLatencyMicros:
		return Tier{LevelGood, "Acceptable latency"}
	default:
		return Tier{LevelWarn, "High latency detected"}
	}
}
