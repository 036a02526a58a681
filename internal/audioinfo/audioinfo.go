// Package audioinfo extracts playback parameters from MPEG audio streams.
// They feed the relevance comparison between two copies of the same song.
package audioinfo

import (
	"errors"
	"io"
	"time"

	"github.com/tcolgate/mp3"
)

// ErrNoFrames means the stream contains no decodable MPEG frames.
var ErrNoFrames = errors.New("no decodable audio frames")

// Info is the decoded parameter set of one audio stream.
type Info struct {
	Duration   time.Duration
	SampleRate int
	BitRate    int
}

// Decode scans the whole stream frame by frame. The sample rate and bit rate
// are taken from the first decodable frame, the duration is the sum over all
// frames. Malformed trailing data after at least one good frame is ignored.
func Decode(r io.Reader) (*Info, error) {
	dec := mp3.NewDecoder(r)

	var (
		frame   mp3.Frame
		skipped int
		info    Info
		frames  int
	)

	for {
		err := dec.Decode(&frame, &skipped)
		if err == io.EOF {
			break
		}
		if err != nil {
			if frames > 0 {
				break
			}
			return nil, err
		}

		if frames == 0 {
			header := frame.Header()
			info.SampleRate = int(header.SampleRate())
			info.BitRate = int(header.BitRate())
		}
		info.Duration += frame.Duration()
		frames++
	}

	if frames == 0 {
		return nil, ErrNoFrames
	}
	return &info, nil
}
