// Package pixel provides a stride-aware raw pixel buffer for one decoded image.
package pixel

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDimensions = errors.New("width and height must be positive")
	ErrInvalidStride     = errors.New("stride is smaller than a pixel row")
	ErrInvalidLength     = errors.New("data length does not match height*stride")
)

// Format describes the byte layout of a single pixel.
type Format int

const (
	// FormatBGRA32 stores 4 bytes per pixel in Blue, Green, Red, Alpha order.
	FormatBGRA32 Format = iota
	// FormatRGBA32 stores 4 bytes per pixel in Red, Green, Blue, Alpha order.
	FormatRGBA32
)

// BytesPerPixel returns the number of bytes a single pixel occupies.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatBGRA32, FormatRGBA32:
		return 4
	default:
		return 0
	}
}

func (f Format) String() string {
	switch f {
	case FormatBGRA32:
		return "bgra32"
	case FormatRGBA32:
		return "rgba32"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Buffer owns the raw bytes of one image.
//
// Pixel (x, y) channel c lives at Data[y*Stride + x*BytesPerPixel() + c].
// Bytes between Width*BytesPerPixel() and Stride on each row are padding.
// A Buffer is not safe for concurrent mutation.
type Buffer struct {
	Width  int
	Height int
	Stride int
	Format Format
	Data   []byte
}

// New allocates a zeroed buffer with tightly packed rows.
func New(width, height int, format Format) (*Buffer, error) {
	return NewWithStride(width, height, width*format.BytesPerPixel(), format)
}

// NewWithStride allocates a zeroed buffer whose rows are stride bytes apart.
func NewWithStride(width, height, stride int, format Format) (*Buffer, error) {
	if err := validate(width, height, stride, format); err != nil {
		return nil, err
	}

	return &Buffer{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Data:   make([]byte, height*stride),
	}, nil
}

// Wrap adopts data as the backing slice of a new buffer without copying it.
func Wrap(width, height, stride int, format Format, data []byte) (*Buffer, error) {
	if err := validate(width, height, stride, format); err != nil {
		return nil, err
	}
	if len(data) != height*stride {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidLength, len(data), height*stride)
	}

	return &Buffer{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Data:   data,
	}, nil
}

func validate(width, height, stride int, format Format) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("unsupported pixel format %s", format)
	}
	if stride < width*bpp {
		return fmt.Errorf("%w: stride %d, row %d", ErrInvalidStride, stride, width*bpp)
	}

	return nil
}

// BytesPerPixel returns the pixel size of the buffer's format.
func (buf *Buffer) BytesPerPixel() int {
	return buf.Format.BytesPerPixel()
}

// Offset returns the index of the first byte of pixel (x, y).
// It panics if the coordinates are outside the image.
func (buf *Buffer) Offset(x, y int) int {
	if x < 0 || x >= buf.Width || y < 0 || y >= buf.Height {
		panic(fmt.Sprintf("pixel: (%d,%d) out of range %dx%d", x, y, buf.Width, buf.Height))
	}

	return y*buf.Stride + x*buf.BytesPerPixel()
}

// Get returns the channels of pixel (x, y) in storage order.
// For FormatBGRA32 that is blue, green, red, alpha; the names follow that
// layout.
func (buf *Buffer) Get(x, y int) (b, g, r, a uint8) {
	i := buf.Offset(x, y)
	p := buf.Data[i : i+4 : i+4]

	return p[0], p[1], p[2], p[3]
}

// Set writes the channels of pixel (x, y) in storage order.
func (buf *Buffer) Set(x, y int, b, g, r, a uint8) {
	i := buf.Offset(x, y)
	p := buf.Data[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = b, g, r, a
}

// Row returns the pixel bytes of row y, excluding any padding.
func (buf *Buffer) Row(y int) []byte {
	if y < 0 || y >= buf.Height {
		panic(fmt.Sprintf("pixel: row %d out of range %d", y, buf.Height))
	}

	start := y * buf.Stride
	end := start + buf.Width*buf.BytesPerPixel()

	return buf.Data[start:end:end]
}

// Pix returns the contiguous backing slice, padding included.
func (buf *Buffer) Pix() []byte {
	return buf.Data
}
