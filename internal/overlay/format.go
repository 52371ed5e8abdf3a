package overlay

import (
	"fmt"
	"strconv"
	"strings"
)

// MinDimension is the smallest accepted frame width and height in pixels.
const MinDimension = 64

// MaxDimension is the largest accepted frame width and height in pixels.
// It keeps every plane offset and frame size well inside int32.
const MaxDimension = 16384

// Fraction is a frame rate expressed as numerator/denominator.
type Fraction struct {
	Num int
	Den int
}

// Integer returns the whole frames-per-second part of the fraction.
// A zero denominator yields 0.
func (f Fraction) Integer() int {
	if f.Den == 0 {
		return 0
	}
	return f.Num / f.Den
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// ParseFraction parses "30/1", "30000:1001" or a bare integer such as "25".
func ParseFraction(s string) (Fraction, error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, "/:")
	if sep == -1 {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Fraction{}, fmt.Errorf("invalid frame rate %q: %w", s, err)
		}
		return Fraction{Num: n, Den: 1}, nil
	}

	num, err := strconv.Atoi(s[:sep])
	if err != nil {
		return Fraction{}, fmt.Errorf("invalid frame rate numerator %q: %w", s, err)
	}
	den, err := strconv.Atoi(s[sep+1:])
	if err != nil {
		return Fraction{}, fmt.Errorf("invalid frame rate denominator %q: %w", s, err)
	}
	return Fraction{Num: num, Den: den}, nil
}

// FrameFormat is the stream geometry fixed by a negotiation event.
type FrameFormat struct {
	Width     int
	Height    int
	FrameRate Fraction
}

// FrameSize returns the byte size of one planar 4:2:0 frame.
func (f FrameFormat) FrameSize() int {
	return f.Width * f.Height * 3 / 2
}

func (f FrameFormat) String() string {
	return fmt.Sprintf("%dx%d@%s", f.Width, f.Height, f.FrameRate)
}

// Validate rejects formats the compositor cannot serve.
func (f FrameFormat) Validate() error {
	if f.Width < MinDimension || f.Height < MinDimension {
		return invalidFormat("dimensions %dx%d below minimum %d", f.Width, f.Height, MinDimension)
	}
	if f.Width > MaxDimension || f.Height > MaxDimension {
		return invalidFormat("dimensions %dx%d above maximum %d", f.Width, f.Height, MaxDimension)
	}
	if f.FrameRate.Den <= 0 {
		return invalidFormat("frame rate %s has non-positive denominator", f.FrameRate)
	}
	if f.FrameRate.Integer() < 1 {
		return invalidFormat("frame rate %s is below 1 fps", f.FrameRate)
	}
	return nil
}
