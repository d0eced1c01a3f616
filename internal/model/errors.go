package model

import (
	"context"
	"errors"

	"github.com/aliskhannn/image-filter/internal/filter"
)

var (
	ErrDecode            = errors.New("decode failed")
	ErrEncode            = errors.New("encode failed")
	ErrDestinationExists = errors.New("destination exists")
	ErrIO                = errors.New("io failure")
	ErrCanceled          = errors.New("canceled before start")
)

// ErrorKind classifies why a unit failed.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindDecode            ErrorKind = "decode"
	KindInvalidFormat     ErrorKind = "invalid_format"
	KindDestinationExists ErrorKind = "destination_exists"
	KindEncode            ErrorKind = "encode"
	KindIO                ErrorKind = "io"
	KindCanceled          ErrorKind = "canceled"
)

// KindOf maps err onto its ErrorKind. Errors that carry no known sentinel
// are reported as KindIO.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, filter.ErrInvalidFormat):
		return KindInvalidFormat
	case errors.Is(err, ErrDestinationExists):
		return KindDestinationExists
	case errors.Is(err, ErrEncode):
		return KindEncode
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindIO
	}
}
