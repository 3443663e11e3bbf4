// Package worker implements the publisher and subscriber workloads of a
// stress run.
//
// Workers share nothing but the handles they are given at spawn: the
// Counters, the latency tracker and the transport. Each worker stops on its
// own clock once the run duration has elapsed; there is no stop signal other
// than an interrupted parent context.
package worker

import (
	"strconv"
	"sync/atomic"
)

// Counters are the run-wide message counters.
//
// Both counters only ever increase. They are read concurrently by the
// monitor while workers are still writing.
type Counters struct {
	Sent     atomic.Uint64
	Received atomic.Uint64
}

// Topic returns the topic name of worker index: base_(index mod fanOut).
func Topic(base string, index, fanOut int) string {
	if fanOut <= 0 {
		fanOut = 1
	}
	return base + "_" + strconv.Itoa(index%fanOut)
}
