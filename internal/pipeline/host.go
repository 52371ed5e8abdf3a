// Package pipeline connects a compositor to a media host: it turns caps,
// buffer and end-of-stream callbacks into compositor calls and reports
// them as events and metrics.
package pipeline

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/recsign/internal/events"
	"github.com/smazurov/recsign/internal/logging"
	"github.com/smazurov/recsign/internal/metrics"
	"github.com/smazurov/recsign/internal/overlay"
)

// Publisher publishes stream events.
type Publisher interface {
	Publish(ev events.Event)
}

// Host adapts one media stream to a Compositor.
type Host struct {
	id         string
	compositor *overlay.Compositor
	bus        Publisher
	logger     logging.Logger
}

// NewHost creates a host with a fresh stream id. bus may be nil.
func NewHost(c *overlay.Compositor, bus Publisher, logger logging.Logger) *Host {
	id := uuid.NewString()
	return &Host{
		id:         id,
		compositor: c,
		bus:        bus,
		logger:     logger,
	}
}

// ID returns the stream id used in logs, events and metric labels.
func (h *Host) ID() string {
	return h.id
}

// Compositor returns the compositor driven by the host.
func (h *Host) Compositor() *overlay.Compositor {
	return h.compositor
}

// OnCaps negotiates format. A rejected format is reported and returned; the
// host must refuse the stream.
func (h *Host) OnCaps(format overlay.FrameFormat) error {
	if err := h.compositor.Negotiate(format); err != nil {
		code := "UNKNOWN"
		var oe *overlay.OverlayError
		if errors.As(err, &oe) {
			code = oe.Code
		}
		h.publish(events.NegotiationFailedEvent{
			StreamID:  h.id,
			Format:    format.String(),
			Code:      code,
			Error:     err.Error(),
			Timestamp: now(),
		})
		return err
	}

	geom := h.compositor.Geometry()
	color, _ := h.compositor.Color()
	h.publish(events.FormatNegotiatedEvent{
		StreamID:  h.id,
		Width:     format.Width,
		Height:    format.Height,
		FrameRate: format.FrameRate.Integer(),
		Diameter:  geom.Diameter,
		Color:     color.String(),
		Timestamp: now(),
	})
	return nil
}

// OnFrame composites frame in place and reports whether it was modified.
// The caller forwards the frame downstream exactly once either way.
func (h *Host) OnFrame(frame overlay.Frame) bool {
	before := h.compositor.Stats()
	drawn := h.compositor.Process(frame)
	metrics.AddFrameStats(h.id, before, h.compositor.Stats())
	return drawn
}

// OnEOS releases the stream geometry.
func (h *Host) OnEOS() {
	h.compositor.EndOfStream()
	stats := h.compositor.Stats()
	h.logger.Info("End of stream", "stream_id", h.id, "frames", stats.Frames, "drawn", stats.Drawn, "not_writable", stats.NotWritable)
	h.publish(events.EndOfStreamEvent{
		StreamID:  h.id,
		Frames:    stats.Frames,
		Drawn:     stats.Drawn,
		Timestamp: now(),
	})
}

func (h *Host) publish(ev events.Event) {
	if h.bus != nil {
		h.bus.Publish(ev)
	}
}

func now() string {
	return time.Now().Format(time.RFC3339)
}
