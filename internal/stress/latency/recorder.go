package latency

import "time"

// Recorder is a per-goroutine sample buffer in front of a Tracker.
//
// A Recorder is not safe for concurrent use; give each worker its own and
// call Flush before the worker exits.
type Recorder struct {
	tracker *Tracker
	buf     []int64
}

// Recorder returns a new buffered recorder feeding this tracker.
func (t *Tracker) Recorder() *Recorder {
	return &Recorder{
		tracker: t,
		buf:     make([]int64, 0, t.config.RecorderBuffer),
	}
}

// Record buffers one sample, flushing when the buffer is full.
func (r *Recorder) Record(d time.Duration) {
	r.buf = append(r.buf, r.tracker.clamp(d))
	if len(r.buf) == cap(r.buf) {
		r.Flush()
	}
}

// Pending returns the number of buffered samples.
func (r *Recorder) Pending() int {
	return len(r.buf)
}

// Flush moves the buffered samples into the tracker.
func (r *Recorder) Flush() {
	r.tracker.recordBatch(r.buf)
	r.buf = r.buf[:0]
}
