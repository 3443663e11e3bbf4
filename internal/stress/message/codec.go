package message

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
)

// ErrShortBuffer is returned when a binary frame is truncated.
var ErrShortBuffer = errors.New("message: short buffer")

// Codec encodes envelopes for a transport.
type Codec interface {
	Name() string
	Encode(e Envelope) ([]byte, error)
	Decode(data []byte) (Envelope, error)
}

// NewCodec returns the codec for a serialization format.
func NewCodec(f config.Format) (Codec, error) {
	switch f {
	case config.FormatCompactBinary:
		return BinaryCodec{}, nil
	case config.FormatText:
		return JSONCodec{}, nil
	}
	return nil, fmt.Errorf("codec for %q: %w", f, config.ErrUnknownValue)
}

// binaryHeaderSize is 6 float64 + timestamp + sent_at + payload length.
const binaryHeaderSize = 6*8 + 8 + 8 + 4

// BinaryCodec is a fixed-layout little-endian encoding.
//
// Layout: position[3] f64, velocity[3] f64, timestamp i64, sent_at i64,
// payload length u32, payload bytes.
type BinaryCodec struct{}

// Name implements Codec.
func (BinaryCodec) Name() string { return string(config.FormatCompactBinary) }

// Encode implements Codec.
func (BinaryCodec) Encode(e Envelope) ([]byte, error) {
	if uint64(len(e.Payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("message: payload of %d bytes too large", len(e.Payload))
	}

	buf := make([]byte, binaryHeaderSize+len(e.Payload))
	off := 0
	for _, v := range e.State.Position {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
		off += 8
	}
	for _, v := range e.State.Velocity {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
		off += 8
	}
	binary.LittleEndian.PutUint64(buf[off:], uint64(e.State.Timestamp))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(e.SentAt))
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(e.Payload)))
	off += 4
	copy(buf[off:], e.Payload)

	return buf, nil
}

// Decode implements Codec.
func (BinaryCodec) Decode(data []byte) (Envelope, error) {
	var e Envelope
	if len(data) < binaryHeaderSize {
		return e, ErrShortBuffer
	}

	off := 0
	for i := range e.State.Position {
		e.State.Position[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
		off += 8
	}
	for i := range e.State.Velocity {
		e.State.Velocity[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
		off += 8
	}
	e.State.Timestamp = int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	e.SentAt = int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	n := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4

	if len(data)-off < n {
		return e, ErrShortBuffer
	}
	if n > 0 {
		e.Payload = make([]byte, n)
		copy(e.Payload, data[off:off+n])
	}
	return e, nil
}

// JSONCodec is the text encoding; the payload is base64 encoded.
type JSONCodec struct{}

// Name implements Codec.
func (JSONCodec) Name() string { return string(config.FormatText) }

// Encode implements Codec.
func (JSONCodec) Encode(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// Decode implements Codec.
func (JSONCodec) Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("message: decode json: %w", err)
	}
	return e, nil
}
