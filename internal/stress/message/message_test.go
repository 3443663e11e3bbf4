package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
)

func TestNew(t *testing.T) {
	m := New(7)

	assert.Equal(t, [3]float64{7, 7, 7}, m.Position)
	assert.Equal(t, [3]float64{0.1, 0.2, 0.3}, m.Velocity)
	assert.Equal(t, int64(7), m.Timestamp)
}

func TestPayloadSize(t *testing.T) {
	assert.Equal(t, 0, PayloadSize(config.ProfileSmall))
	assert.Equal(t, 1024, PayloadSize(config.ProfileMedium))
	assert.Equal(t, 65536, PayloadSize(config.ProfileLarge))

	assert.Nil(t, NewPayload(config.ProfileSmall))
	assert.Len(t, NewPayload(config.ProfileMedium), 1024)
}

func TestEnvelope_Age(t *testing.T) {
	sent := time.Unix(100, 0)
	e := Seal(New(1), nil, sent)

	assert.Equal(t, 250*time.Microsecond, e.Age(sent.Add(250*time.Microsecond)))
}

func TestCodecs(t *testing.T) {
	for _, format := range []config.Format{config.FormatCompactBinary, config.FormatText} {
		t.Run(string(format), func(t *testing.T) {
			codec, err := NewCodec(format)
			require.NoError(t, err)
			assert.Equal(t, string(format), codec.Name())

			for _, profile := range []config.MessageProfile{config.ProfileSmall, config.ProfileMedium} {
				in := Seal(New(42), NewPayload(profile), time.Unix(0, 123456789))

				data, err := codec.Encode(in)
				require.NoError(t, err)

				out, err := codec.Decode(data)
				require.NoError(t, err)
				assert.Equal(t, in, out, "profile %s", profile)
			}
		})
	}
}

func TestBinaryCodec_Size(t *testing.T) {
	data, err := BinaryCodec{}.Encode(Seal(New(1), NewPayload(config.ProfileMedium), time.Now()))
	require.NoError(t, err)
	assert.Len(t, data, binaryHeaderSize+MediumPayload)
}

func TestBinaryCodec_Truncated(t *testing.T) {
	data, err := BinaryCodec{}.Encode(Seal(New(1), []byte("abcdef"), time.Now()))
	require.NoError(t, err)

	_, err = BinaryCodec{}.Decode(data[:10])
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, err = BinaryCodec{}.Decode(data[:len(data)-2])
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestJSONCodec_Invalid(t *testing.T) {
	_, err := JSONCodec{}.Decode([]byte("{"))
	assert.Error(t, err)
}

func TestNewCodec_Unknown(t *testing.T) {
	_, err := NewCodec("xml")
	assert.ErrorIs(t, err, config.ErrUnknownValue)
}
