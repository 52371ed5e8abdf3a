// Package gsthost runs the overlay inside a GStreamer pipeline.
//
// The pipeline is given as a launch description that contains an identity
// element named "recsign". Probes on its src pad feed caps, buffers and
// end-of-stream to a pipeline.Host. The GStreamer binding is only built with
// the gst build tag; caps parsing is always available.
package gsthost

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/smazurov/recsign/internal/overlay"
)

// ElementName is the name of the identity element the overlay attaches to.
const ElementName = "recsign"

// DefaultLaunch is a self-contained test pipeline.
const DefaultLaunch = "videotestsrc num-buffers=300 ! " +
	"video/x-raw,format=I420,width=640,height=480,framerate=30/1 ! " +
	"identity name=" + ElementName + " ! videoconvert ! autovideosink"

// ErrUnsupported is returned by Run when built without GStreamer support.
var ErrUnsupported = errors.New("gsthost: built without gstreamer support (rebuild with -tags gst)")

// ParseCaps extracts the frame format from a serialized raw video caps
// string such as
//
//	video/x-raw, format=(string)I420, width=(int)640, height=(int)480, framerate=(fraction)30/1
//
// Only I420 is accepted.
func ParseCaps(caps string) (overlay.FrameFormat, error) {
	fields := splitCaps(caps)
	if len(fields) == 0 || strings.TrimSpace(fields[0]) != "video/x-raw" {
		return overlay.FrameFormat{}, fmt.Errorf("%w: not raw video caps: %q", overlay.ErrInvalidFormat, caps)
	}

	values := make(map[string]string, len(fields)-1)
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = stripType(value)
	}

	if format := values["format"]; format != "I420" {
		return overlay.FrameFormat{}, fmt.Errorf("%w: pixel format %q is not I420", overlay.ErrInvalidFormat, format)
	}

	width, err := strconv.Atoi(values["width"])
	if err != nil {
		return overlay.FrameFormat{}, fmt.Errorf("%w: width %q", overlay.ErrInvalidFormat, values["width"])
	}
	height, err := strconv.Atoi(values["height"])
	if err != nil {
		return overlay.FrameFormat{}, fmt.Errorf("%w: height %q", overlay.ErrInvalidFormat, values["height"])
	}
	rate, err := overlay.ParseFraction(values["framerate"])
	if err != nil {
		return overlay.FrameFormat{}, fmt.Errorf("%w: %w", overlay.ErrInvalidFormat, err)
	}

	return overlay.FrameFormat{Width: width, Height: height, FrameRate: rate}, nil
}

// splitCaps splits on commas outside of brackets and quotes.
func splitCaps(caps string) []string {
	var fields []string
	var current strings.Builder
	depth := 0
	inQuote := false

	for _, r := range caps {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '{' || r == '[' || r == '<':
			depth++
		case r == '}' || r == ']' || r == '>':
			depth--
		case r == ',' && depth == 0:
			fields = append(fields, current.String())
			current.Reset()
			continue
		case r == ';' && depth == 0:
			// only the first structure is used
			return append(fields, current.String())
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		fields = append(fields, current.String())
	}
	return fields
}

// stripType removes a "(type)" prefix and surrounding quotes.
func stripType(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "(") {
		if end := strings.Index(value, ")"); end != -1 {
			value = strings.TrimSpace(value[end+1:])
		}
	}
	return strings.Trim(value, `"`)
}
