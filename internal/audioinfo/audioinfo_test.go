package audioinfo

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mpegFrame builds one silent MPEG1 Layer III frame: 128kbps, 44.1kHz,
// no padding, no CRC. Frame length is 144*128000/44100 = 417 bytes.
func mpegFrame() []byte {
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
	return frame
}

func TestDecode(t *testing.T) {
	var stream bytes.Buffer
	for i := 0; i < 10; i++ {
		stream.Write(mpegFrame())
	}

	info, err := Decode(&stream)
	require.NoError(t, err)

	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 128000, info.BitRate)

	// 10 frames x 1152 samples at 44.1kHz is roughly 261ms
	assert.InDelta(t, float64(261*time.Millisecond), float64(info.Duration), float64(10*time.Millisecond))
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(bytes.NewReader(bytes.Repeat([]byte{0x00}, 64)))
	assert.Error(t, err)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil))
	assert.Error(t, err)
}
