// Package message defines the synthetic robot-state message published by the
// load generator and its wire encodings.
package message

import (
	"time"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
)

// RobotState is the fixed-shape synthetic message.
type RobotState struct {
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
	// Timestamp carries the publisher's sequence number.
	Timestamp int64 `json:"timestamp"`
}

// New builds the message for a publisher sequence number.
func New(sequence uint64) RobotState {
	s := float64(sequence)
	return RobotState{
		Position:  [3]float64{s, s, s},
		Velocity:  [3]float64{0.1, 0.2, 0.3},
		Timestamp: int64(sequence),
	}
}

// Envelope is what actually travels over a transport: the message, the
// publisher's send time and the size-class padding.
type Envelope struct {
	State   RobotState `json:"state"`
	SentAt  int64      `json:"sent_at"` // unix nanoseconds
	Payload []byte     `json:"payload,omitempty"`
}

// Seal wraps a message for sending at time now.
func Seal(state RobotState, payload []byte, now time.Time) Envelope {
	return Envelope{State: state, SentAt: now.UnixNano(), Payload: payload}
}

// Age returns how long ago the envelope was sealed.
func (e Envelope) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, e.SentAt))
}

// Payload sizes per message profile.
const (
	SmallPayload  = 0
	MediumPayload = 1 << 10
	LargePayload  = 64 << 10
)

// PayloadSize returns the padding size of a message profile.
func PayloadSize(p config.MessageProfile) int {
	switch p {
	case config.ProfileMedium:
		return MediumPayload
	case config.ProfileLarge:
		return LargePayload
	default:
		return SmallPayload
	}
}

// NewPayload returns a deterministic padding buffer for a profile, or nil
// for the small profile. The buffer is shared read-only by every send.
func NewPayload(p config.MessageProfile) []byte {
	n := PayloadSize(p)
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf
}
