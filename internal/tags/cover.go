package tags

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"

	"melostore/internal/models"
)

// CoverOptions bound the prepared cover. Sizes are pixels, MaxFileSize is
// bytes, Quality is the JPEG quality.
type CoverOptions struct {
	MinSize     int
	MaxSize     int
	MaxFileSize int
	Quality     int
}

// PrepareCover scales a cover image so its smaller dimension lands on
// MaxSize, crops it to a centered square and re-encodes it as JPEG. The
// original bytes are kept when they are already smaller than the re-encoded
// result. Fails with ErrCodeCoverMinSize or ErrCodeCoverMaxFileSize when the
// image falls outside the configured bounds.
func PrepareCover(data []byte, opts CoverOptions) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	width, height := cfg.Width, cfg.Height

	if opts.MinSize > 0 && (width < opts.MinSize || height < opts.MinSize) {
		return nil, models.NewDomainError(models.ErrCodeCoverMinSize,
			"minimum size of a cover width or height is %dpx", opts.MinSize)
	}

	out := data
	if opts.MaxSize > 0 {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}

		maxSize := float64(opts.MaxSize)
		var dev, maxDev float64
		if width > opts.MaxSize {
			maxDev = float64(height) / maxSize
			dev = float64(width) / maxSize
		} else {
			maxDev = float64(width) / maxSize
			dev = float64(height) / maxSize
		}
		if dev > maxDev {
			dev = maxDev
		}

		newWidth := int(math.Floor(float64(width) / dev))
		newHeight := int(math.Floor(float64(height) / dev))
		size := newWidth
		if newHeight < size {
			size = newHeight
		}

		scaled := resize.Resize(uint(newWidth), uint(newHeight), img, resize.Lanczos3)
		square := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.Draw(square, square.Bounds(), scaled,
			image.Pt((newWidth-size)/2, (newHeight-size)/2), draw.Src)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, square, &jpeg.Options{Quality: opts.Quality}); err != nil {
			return nil, err
		}
		if buf.Len() < len(data) {
			out = buf.Bytes()
		}
	}

	if opts.MaxFileSize > 0 && len(out) > opts.MaxFileSize {
		return nil, models.NewDomainError(models.ErrCodeCoverMaxFileSize,
			"maximum size of a cover file is %d byte(s)", opts.MaxFileSize)
	}
	return out, nil
}
