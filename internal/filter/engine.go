package filter

import (
	"errors"
	"fmt"

	"github.com/aliskhannn/image-filter/internal/pixel"
)

// ErrInvalidFormat is returned when a buffer is not in the BGRA32 layout the
// engine operates on. Converting is the decoder's job.
var ErrInvalidFormat = errors.New("unsupported pixel format")

// Apply runs t over every pixel of buf in place.
//
// Rows are addressed through the stride so padding bytes are never read or
// written. Blue, green and red are rewritten; alpha is left as is.
func Apply(buf *pixel.Buffer, t Transform) error {
	if buf == nil {
		return errors.New("nil pixel buffer")
	}
	if t == nil {
		return errors.New("nil transform")
	}
	if buf.Format != pixel.FormatBGRA32 {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, buf.Format)
	}

	const bpp = 4

	for y := 0; y < buf.Height; y++ {
		row := buf.Row(y)
		for i := 0; i+bpp <= len(row); i += bpp {
			px := row[i : i+bpp : i+bpp]
			r, g, b := t(px[2], px[1], px[0])
			px[0], px[1], px[2] = b, g, r
		}
	}

	return nil
}

// ApplyKind applies the transform registered for kind.
func ApplyKind(buf *pixel.Buffer, kind Kind) error {
	t := kind.Transform()
	if t == nil {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	return Apply(buf, t)
}
