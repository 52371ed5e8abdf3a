// Package y4m reads and writes YUV4MPEG2 streams carrying planar 4:2:0 video.
//
// A stream is a header line followed by frames, each introduced by a FRAME
// line. Streams may be concatenated: a header that follows a frame starts a
// new stream with a possibly different format.
package y4m

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/smazurov/recsign/internal/overlay"
)

// MaxDimension bounds W and H so a frame is at most a few hundred MiB and
// its size cannot overflow.
const MaxDimension = overlay.MaxDimension

const (
	streamMagic = "YUV4MPEG2"
	frameMagic  = "FRAME"
)

var (
	// ErrInvalidHeader is returned for malformed stream or frame headers.
	ErrInvalidHeader = errors.New("y4m: invalid header")
	// ErrUnsupportedColorspace is returned for anything other than 4:2:0.
	ErrUnsupportedColorspace = errors.New("y4m: unsupported colorspace")
)

// Colorspaces with 4:2:0 subsampling. An absent C parameter means 420jpeg.
var supportedColorspaces = map[string]bool{
	"":         true,
	"420":      true,
	"420jpeg":  true,
	"420mpeg2": true,
	"420paldv": true,
}

// Header is a parsed YUV4MPEG2 stream header.
type Header struct {
	Width      int
	Height     int
	FrameRate  overlay.Fraction
	Interlace  string // I parameter without the tag, e.g. "p"
	Aspect     string // A parameter without the tag, e.g. "1:1"
	Colorspace string // C parameter without the tag, e.g. "420jpeg"
	Extensions []string

	raw string
}

// ParseHeader parses a stream header line. The trailing newline is optional.
func ParseHeader(line string) (Header, error) {
	line = strings.TrimRight(line, "\n")
	fields := strings.Split(line, " ")
	if len(fields) == 0 || fields[0] != streamMagic {
		return Header{}, fmt.Errorf("%w: missing %s signature", ErrInvalidHeader, streamMagic)
	}

	h := Header{raw: line}
	var haveRate bool
	for _, field := range fields[1:] {
		if field == "" {
			continue
		}
		tag, value := field[0], field[1:]
		switch tag {
		case 'W':
			w, err := strconv.Atoi(value)
			if err != nil || w <= 0 || w > MaxDimension {
				return Header{}, fmt.Errorf("%w: width %q", ErrInvalidHeader, value)
			}
			h.Width = w
		case 'H':
			v, err := strconv.Atoi(value)
			if err != nil || v <= 0 || v > MaxDimension {
				return Header{}, fmt.Errorf("%w: height %q", ErrInvalidHeader, value)
			}
			h.Height = v
		case 'F':
			rate, err := overlay.ParseFraction(value)
			if err != nil {
				return Header{}, fmt.Errorf("%w: frame rate: %w", ErrInvalidHeader, err)
			}
			h.FrameRate = rate
			haveRate = true
		case 'I':
			h.Interlace = value
		case 'A':
			h.Aspect = value
		case 'C':
			h.Colorspace = value
		case 'X':
			h.Extensions = append(h.Extensions, value)
		default:
			return Header{}, fmt.Errorf("%w: unknown parameter %q", ErrInvalidHeader, field)
		}
	}

	if h.Width == 0 || h.Height == 0 {
		return Header{}, fmt.Errorf("%w: width and height are required", ErrInvalidHeader)
	}
	if !haveRate {
		return Header{}, fmt.Errorf("%w: frame rate is required", ErrInvalidHeader)
	}
	if !supportedColorspaces[h.Colorspace] {
		return Header{}, fmt.Errorf("%w: %s", ErrUnsupportedColorspace, h.Colorspace)
	}
	return h, nil
}

// Format returns the frame format the header announces.
func (h Header) Format() overlay.FrameFormat {
	return overlay.FrameFormat{
		Width:     h.Width,
		Height:    h.Height,
		FrameRate: h.FrameRate,
	}
}

// FrameSize returns the payload size of one frame. Chroma planes round odd
// dimensions up.
func (h Header) FrameSize() int {
	cw := (h.Width + 1) / 2
	ch := (h.Height + 1) / 2
	return h.Width*h.Height + 2*cw*ch
}

// String returns the header line without the trailing newline. A parsed
// header is returned exactly as it was read.
func (h Header) String() string {
	if h.raw != "" {
		return h.raw
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s W%d H%d F%d:%d", streamMagic, h.Width, h.Height, h.FrameRate.Num, h.FrameRate.Den)
	if h.Interlace != "" {
		b.WriteString(" I" + h.Interlace)
	}
	if h.Aspect != "" {
		b.WriteString(" A" + h.Aspect)
	}
	if h.Colorspace != "" {
		b.WriteString(" C" + h.Colorspace)
	}
	for _, x := range h.Extensions {
		b.WriteString(" X" + x)
	}
	return b.String()
}
