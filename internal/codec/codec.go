// Package codec converts between encoded JPEG/PNG files and BGRA pixel
// buffers. The actual decoding and encoding is done by imaging.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/aliskhannn/image-filter/internal/filter"
	"github.com/aliskhannn/image-filter/internal/model"
	"github.com/aliskhannn/image-filter/internal/pixel"
)

const defaultJPEGQuality = 95

// supported maps accepted extensions to their encoder format.
var supported = map[string]imaging.Format{
	".jpg":  imaging.JPEG,
	".jpeg": imaging.JPEG,
	".png":  imaging.PNG,
}

// Supported reports whether path has one of the accepted image extensions.
func Supported(path string) bool {
	_, ok := supported[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FormatOf returns the encoder format for path based on its extension.
func FormatOf(path string) (imaging.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))

	f, ok := supported[ext]
	if !ok {
		return 0, fmt.Errorf("unsupported extension %q: %w", ext, imaging.ErrUnsupportedFormat)
	}

	return f, nil
}

// Codec decodes images into BGRA buffers and encodes them back.
type Codec struct {
	jpegQuality int
	autoOrient  bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithJPEGQuality sets the JPEG encoder quality (1-100).
func WithJPEGQuality(q int) Option {
	return func(c *Codec) {
		if q >= 1 && q <= 100 {
			c.jpegQuality = q
		}
	}
}

// WithAutoOrientation applies the EXIF orientation tag while decoding.
func WithAutoOrientation(enabled bool) Option {
	return func(c *Codec) { c.autoOrient = enabled }
}

// New creates a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{jpegQuality: defaultJPEGQuality}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Decode reads the image at path into a new BGRA32 buffer and returns the
// format the file was encoded in. Every failure wraps model.ErrDecode.
func (c *Codec) Decode(path string) (*pixel.Buffer, imaging.Format, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", model.ErrDecode, path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to open %s: %v", model.ErrDecode, path, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(c.autoOrient))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to decode %s: %v", model.ErrDecode, path, err)
	}

	buf, err := FromImage(img)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", model.ErrDecode, path, err)
	}

	return buf, format, nil
}

// Encode writes buf to w in the given format.
func (c *Codec) Encode(w io.Writer, buf *pixel.Buffer, format imaging.Format) error {
	img, err := ToImage(buf)
	if err != nil {
		return err
	}

	var opts []imaging.EncodeOption
	if format == imaging.JPEG {
		opts = append(opts, imaging.JPEGQuality(c.jpegQuality))
	}

	if err := imaging.Encode(w, img, format, opts...); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrEncode, format, err)
	}

	return nil
}

// EncodeToBuffer encodes buf into memory.
func (c *Codec) EncodeToBuffer(buf *pixel.Buffer, format imaging.Format) (*bytes.Buffer, error) {
	out := bytes.NewBuffer(nil)
	if err := c.Encode(out, buf, format); err != nil {
		return nil, err
	}

	return out, nil
}

// FromImage copies img into a tightly packed BGRA32 buffer. Colors are kept
// non-premultiplied, so alpha survives a round trip unchanged.
func FromImage(img image.Image) (*pixel.Buffer, error) {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	buf, err := pixel.New(w, h, pixel.FormatBGRA32)
	if err != nil {
		return nil, err
	}

	for y := 0; y < h; y++ {
		in := src.Pix[y*src.Stride : y*src.Stride+w*4]
		out := buf.Row(y)
		for i := 0; i < len(in); i += 4 {
			out[i+0] = in[i+2]
			out[i+1] = in[i+1]
			out[i+2] = in[i+0]
			out[i+3] = in[i+3]
		}
	}

	return buf, nil
}

// ToImage copies a BGRA32 buffer into a new NRGBA image.
func ToImage(buf *pixel.Buffer) (*image.NRGBA, error) {
	if buf.Format != pixel.FormatBGRA32 {
		return nil, fmt.Errorf("%w: %s", filter.ErrInvalidFormat, buf.Format)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		in := buf.Row(y)
		out := dst.Pix[y*dst.Stride : y*dst.Stride+buf.Width*4]
		for i := 0; i < len(in); i += 4 {
			out[i+0] = in[i+2]
			out[i+1] = in[i+1]
			out[i+2] = in[i+0]
			out[i+3] = in[i+3]
		}
	}

	return dst, nil
}
