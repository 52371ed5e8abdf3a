package overlay

import (
	"fmt"
	"math"
	"strings"
)

// Standard selects the luma weighting used for RGB to YUV conversion.
type Standard int

// Supported standards.
const (
	BT601 Standard = iota
	BT709
	FCC
)

func (s Standard) String() string {
	switch s {
	case BT601:
		return "bt601"
	case BT709:
		return "bt709"
	case FCC:
		return "fcc"
	default:
		return fmt.Sprintf("standard(%d)", int(s))
	}
}

// coefficients returns Kr, Kg, Kb.
func (s Standard) coefficients() (kr, kg, kb float64) {
	switch s {
	case BT709:
		return 0.2126, 0.7152, 0.0722
	case FCC:
		return 0.3, 0.59, 0.11
	default:
		return 0.299, 0.587, 0.114
	}
}

// ParseStandard accepts bt601, bt709 and fcc, case-insensitively.
func ParseStandard(s string) (Standard, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bt601", "rec601", "601":
		return BT601, nil
	case "bt709", "rec709", "709":
		return BT709, nil
	case "fcc":
		return FCC, nil
	}
	return BT601, fmt.Errorf("unknown color standard %q", s)
}

// Range selects the 8-bit quantization of luma and chroma.
type Range int

// Supported ranges.
const (
	RangeFull   Range = iota // 0-255
	RangeStudio              // 16-235 luma, 16-240 chroma
)

func (r Range) String() string {
	switch r {
	case RangeFull:
		return "full"
	case RangeStudio:
		return "studio"
	default:
		return fmt.Sprintf("range(%d)", int(r))
	}
}

// ParseRange accepts full and studio (also "limited" and "tv").
func ParseRange(s string) (Range, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "pc", "jpeg":
		return RangeFull, nil
	case "studio", "limited", "tv", "mpeg":
		return RangeStudio, nil
	}
	return RangeStudio, fmt.Errorf("unknown color range %q", s)
}

// YUV is an 8-bit luma/chroma triple.
type YUV struct {
	Y uint8
	U uint8
	V uint8
}

func (c YUV) String() string {
	return fmt.Sprintf("Y=%d U=%d V=%d", c.Y, c.U, c.V)
}

// RGBToYUV converts an 8-bit RGB triple. The result is rounded and clamped,
// so every input maps to a valid sample.
func RGBToYUV(r, g, b uint8, std Standard, rng Range) YUV {
	kr, kg, kb := std.coefficients()

	fr := float64(r) / 255
	fg := float64(g) / 255
	fb := float64(b) / 255

	y := kr*fr + kg*fg + kb*fb
	u := (fb - y) / (1 - kb)
	v := (fr - y) / (1 - kr)

	if rng == RangeFull {
		return YUV{
			Y: quantize(y * 255),
			U: quantize(u*127.5 + 128),
			V: quantize(v*127.5 + 128),
		}
	}
	return YUV{
		Y: quantize(y*219 + 16),
		U: quantize(u*112 + 128),
		V: quantize(v*112 + 128),
	}
}

func quantize(f float64) uint8 {
	return uint8(math.Min(255, math.Max(0, math.Round(f))))
}
