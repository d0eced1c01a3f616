// Package filter implements the per-pixel color transforms and the engine
// that applies them to a pixel buffer.
package filter

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownKind = errors.New("unknown filter kind")

// Transform maps one input color to one output color. Alpha is never passed
// in and is therefore left untouched by every transform.
type Transform func(r, g, b uint8) (outR, outG, outB uint8)

// Kind selects the transform applied to a batch.
type Kind int

const (
	Grayscale Kind = iota
	Sepia
)

var kindNames = map[Kind]string{
	Grayscale: "grayscale",
	Sepia:     "sepia",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses a filter name case-insensitively.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Transform returns the color transform for k, or nil for an unknown kind.
func (k Kind) Transform() Transform {
	switch k {
	case Grayscale:
		return GrayscalePixel
	case Sepia:
		return SepiaPixel
	default:
		return nil
	}
}

// MarshalText encodes the kind as its lowercase name.
func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}

	return []byte(name), nil
}

// UnmarshalText decodes a kind from its name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// GrayscalePixel averages the three channels with integer truncation.
func GrayscalePixel(r, g, b uint8) (uint8, uint8, uint8) {
	gray := uint8((int(r) + int(g) + int(b)) / 3)

	return gray, gray, gray
}

// Sepia coefficients, rows are the output channel.
const (
	sepiaRR, sepiaRG, sepiaRB = 0.393, 0.769, 0.189
	sepiaGR, sepiaGG, sepiaGB = 0.349, 0.686, 0.168
	sepiaBR, sepiaBG, sepiaBB = 0.272, 0.534, 0.131
)

// SepiaPixel applies the classic sepia matrix in float64 and clamps each
// channel into [0,255].
func SepiaPixel(r, g, b uint8) (uint8, uint8, uint8) {
	fr, fg, fb := float64(r), float64(g), float64(b)

	outR := clamp8(sepiaRR*fr + sepiaRG*fg + sepiaRB*fb)
	outG := clamp8(sepiaGR*fr + sepiaGG*fg + sepiaGB*fb)
	outB := clamp8(sepiaBR*fr + sepiaBG*fg + sepiaBB*fb)

	return outR, outG, outB
}

// clamp8 truncates v toward zero and saturates it to a byte.
func clamp8(v float64) uint8 {
	i := int(v)
	switch {
	case i < 0:
		return 0
	case i > 255:
		return 255
	default:
		return uint8(i)
	}
}
