package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"melostore/internal/tags"
)

// mp3 bitrate (kbps) and sample rate (Hz) tables for MPEG1 layer III,
// indexed the way the frame header encodes them.
var (
	testBitrates    = map[byte]int{0x9: 128, 0xE: 320}
	testSampleRates = map[byte]int{0x0: 44100, 0x1: 48000}
)

// mpegFrames renders n syntactically valid MPEG1 layer III frames with the
// given bitrate and sample rate indexes.
func mpegFrames(n int, bitrateIdx, sampleRateIdx byte) []byte {
	frameLen := 144 * testBitrates[bitrateIdx] * 1000 / testSampleRates[sampleRateIdx]
	frame := make([]byte, frameLen)
	frame[0] = 0xFF
	frame[1] = 0xFB
	frame[2] = bitrateIdx<<4 | sampleRateIdx<<2
	frame[3] = 0x00

	out := make([]byte, 0, n*frameLen)
	for i := 0; i < n; i++ {
		out = append(out, frame...)
	}
	return out
}

// writeSongFile creates a playable file carrying the given full title.
func writeSongFile(t *testing.T, dir, name, fullTitle string, frames int, bitrateIdx, sampleRateIdx byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, mpegFrames(frames, bitrateIdx, sampleRateIdx), 0o644))

	st := tags.New()
	st.SetFullTitle(fullTitle)
	require.NoError(t, tags.WriteFile(path, st))
	return path
}
