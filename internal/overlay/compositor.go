package overlay

import (
	"sync"
	"sync/atomic"

	"github.com/smazurov/recsign/internal/logging"
)

// RecordingRed is the fill color of the overlay disc.
var RecordingRed = [3]uint8{255, 0, 0}

// Frame is a planar 4:2:0 buffer handed to the compositor by the host.
type Frame interface {
	// Bytes returns the frame samples: luma, then both chroma planes.
	Bytes() []byte
	// Writable reports whether the samples may be modified in place.
	Writable() bool
}

// Buffer is a Frame backed by a caller-owned byte slice.
type Buffer []byte

// Bytes implements Frame.
func (b Buffer) Bytes() []byte { return b }

// Writable implements Frame.
func (b Buffer) Writable() bool { return true }

type readOnly []byte

func (b readOnly) Bytes() []byte  { return b }
func (b readOnly) Writable() bool { return false }

// ReadOnly wraps buf as a Frame the compositor must not modify.
func ReadOnly(buf []byte) Frame {
	return readOnly(buf)
}

// Settings is the outward configuration surface of the compositor.
type Settings struct {
	// Show gates the overlay together with the blink phase.
	Show bool
	// Silent demotes negotiation diagnostics to debug level.
	Silent bool
	// Standard and Range apply from the next negotiation on.
	Standard Standard
	Range    Range
}

// DefaultSettings returns show=true, silent=true, BT.601 studio range.
func DefaultSettings() Settings {
	return Settings{
		Show:     true,
		Silent:   true,
		Standard: BT601,
		Range:    RangeStudio,
	}
}

// Stats counts frames seen by a compositor.
type Stats struct {
	Frames      uint64
	Drawn       uint64
	PassedOver  uint64
	NotWritable uint64
}

// snapshot is everything Process needs, published as one unit.
type snapshot struct {
	format   FrameFormat
	geometry *Geometry
	color    YUV
	fps      uint64
}

// Compositor burns a blinking disc into 4:2:0 frames.
//
// Negotiate, EndOfStream and ApplySettings may run concurrently with Process:
// the active geometry and color are swapped as a single pointer, so a frame is
// always composited against one consistent format.
type Compositor struct {
	planner *Planner
	logger  logging.Logger

	mu       sync.Mutex // serializes negotiation and settings changes
	standard Standard
	rng      Range

	active  atomic.Pointer[snapshot]
	counter atomic.Uint64
	show    atomic.Bool
	silent  atomic.Bool

	drawn       atomic.Uint64
	passedOver  atomic.Uint64
	notWritable atomic.Uint64
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithPlanner replaces the geometry planner.
func WithPlanner(p *Planner) Option {
	return func(c *Compositor) {
		c.planner = p
	}
}

// NewCompositor creates a compositor with no active format.
func NewCompositor(settings Settings, logger logging.Logger, opts ...Option) *Compositor {
	c := &Compositor{
		planner:  NewPlanner(),
		logger:   logger,
		standard: settings.Standard,
		rng:      settings.Range,
	}
	c.show.Store(settings.Show)
	c.silent.Store(settings.Silent)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Negotiate plans geometry and fill color for format and makes them active.
// On error the previously active format, if any, stays in place.
func (c *Compositor) Negotiate(format FrameFormat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	geom, err := c.planner.Plan(format)
	if err != nil {
		c.logger.Warn("Rejected format", "format", format.String(), "error", err)
		return err
	}

	color := RGBToYUV(RecordingRed[0], RecordingRed[1], RecordingRed[2], c.standard, c.rng)
	c.active.Store(&snapshot{
		format:   format,
		geometry: geom,
		color:    color,
		fps:      uint64(format.FrameRate.Integer()),
	})

	logf := c.logger.Debug
	if !c.silent.Load() {
		logf = c.logger.Info
	}
	logf("Negotiated format",
		"width", format.Width,
		"height", format.Height,
		"framerate", format.FrameRate.Integer(),
		"diameter", geom.Diameter,
		"mask_bytes", len(geom.Mask),
		"standard", c.standard.String(),
		"range", c.rng.String(),
		"color", color.String(),
	)
	return nil
}

// Process advances the blink counter and, when the disc is due, draws it
// into frame. It reports whether the frame was modified. Frames that cannot
// be written are passed over without error.
func (c *Compositor) Process(frame Frame) bool {
	n := c.counter.Add(1)

	snap := c.active.Load()
	if snap == nil || !c.show.Load() || !Visible(n, snap.fps) {
		c.passedOver.Add(1)
		return false
	}

	if !frame.Writable() {
		c.notWritable.Add(1)
		c.logger.Debug("Frame not writable, forwarding unchanged", "frame", n, "size", len(frame.Bytes()))
		return false
	}

	buf := frame.Bytes()
	if len(buf) < snap.geometry.Extent() {
		c.notWritable.Add(1)
		c.logger.Debug("Frame shorter than negotiated format, forwarding unchanged",
			"frame", n, "size", len(buf), "expected", snap.format.FrameSize())
		return false
	}

	snap.geometry.Draw(buf, snap.color)
	c.drawn.Add(1)
	return true
}

// Visible reports whether the frame numbered n (counting from 1) falls in the
// shown half of its one-second window.
func Visible(n, fps uint64) bool {
	if fps == 0 {
		return false
	}
	return n%fps < fps/2
}

// EndOfStream releases the active geometry. The frame counter keeps running.
func (c *Compositor) EndOfStream() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old := c.active.Swap(nil); old != nil {
		c.logger.Debug("Released overlay geometry", "format", old.format.String())
	}
}

// ApplySettings updates the live configuration. Show and Silent take effect
// immediately; Standard and Range from the next negotiation.
func (c *Compositor) ApplySettings(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.show.Store(s.Show)
	c.silent.Store(s.Silent)
	c.standard = s.Standard
	c.rng = s.Range
}

// Settings returns the current configuration.
func (c *Compositor) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Settings{
		Show:     c.show.Load(),
		Silent:   c.silent.Load(),
		Standard: c.standard,
		Range:    c.rng,
	}
}

// Geometry returns the active geometry, or nil outside a negotiated stream.
func (c *Compositor) Geometry() *Geometry {
	if snap := c.active.Load(); snap != nil {
		return snap.geometry
	}
	return nil
}

// Color returns the active fill color.
func (c *Compositor) Color() (YUV, bool) {
	if snap := c.active.Load(); snap != nil {
		return snap.color, true
	}
	return YUV{}, false
}

// Format returns the active frame format.
func (c *Compositor) Format() (FrameFormat, bool) {
	if snap := c.active.Load(); snap != nil {
		return snap.format, true
	}
	return FrameFormat{}, false
}

// FrameCount returns the number of frames processed so far.
func (c *Compositor) FrameCount() uint64 {
	return c.counter.Load()
}

// Stats returns a copy of the frame counters.
func (c *Compositor) Stats() Stats {
	return Stats{
		Frames:      c.counter.Load(),
		Drawn:       c.drawn.Load(),
		PassedOver:  c.passedOver.Load(),
		NotWritable: c.notWritable.Load(),
	}
}
