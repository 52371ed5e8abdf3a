// Package metrics provides Prometheus metrics for the overlay and the
// ffmpeg encoder.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smazurov/recsign/internal/events"
	"github.com/smazurov/recsign/internal/overlay"
)

const namespace = "recsign"

var (
	overlayFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "overlay",
		Name:      "frames_total",
		Help:      "Frames seen by the compositor",
	}, []string{"stream_id"})

	overlayFramesDrawn = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "overlay",
		Name:      "frames_drawn_total",
		Help:      "Frames the disc was drawn into",
	}, []string{"stream_id"})

	overlayFramesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "overlay",
		Name:      "frames_skipped_total",
		Help:      "Visible frames forwarded unchanged because they could not be written",
	}, []string{"stream_id"})

	overlayNegotiations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "overlay",
		Name:      "negotiations_total",
		Help:      "Accepted format negotiations",
	}, []string{"stream_id"})

	overlayNegotiationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "overlay",
		Name:      "negotiation_failures_total",
		Help:      "Rejected format negotiations by error code",
	}, []string{"stream_id", "code"})

	overlayWidth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "overlay",
		Name:      "width_pixels",
		Help:      "Negotiated frame width",
	}, []string{"stream_id"})

	overlayHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "overlay",
		Name:      "height_pixels",
		Help:      "Negotiated frame height",
	}, []string{"stream_id"})

	overlayFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "overlay",
		Name:      "framerate",
		Help:      "Negotiated integer frame rate",
	}, []string{"stream_id"})

	overlayDiameter = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "overlay",
		Name:      "diameter_pixels",
		Help:      "Disc diameter for the negotiated format",
	}, []string{"stream_id"})
)

// AddFrameStats adds the difference between two compositor snapshots.
func AddFrameStats(streamID string, before, after overlay.Stats) {
	if d := after.Frames - before.Frames; d > 0 {
		overlayFrames.WithLabelValues(streamID).Add(float64(d))
	}
	if d := after.Drawn - before.Drawn; d > 0 {
		overlayFramesDrawn.WithLabelValues(streamID).Add(float64(d))
	}
	if d := after.NotWritable - before.NotWritable; d > 0 {
		overlayFramesSkipped.WithLabelValues(streamID).Add(float64(d))
	}
}

// SetNegotiated records an accepted format.
func SetNegotiated(streamID string, width, height, fps, diameter int) {
	overlayNegotiations.WithLabelValues(streamID).Inc()
	overlayWidth.WithLabelValues(streamID).Set(float64(width))
	overlayHeight.WithLabelValues(streamID).Set(float64(height))
	overlayFPS.WithLabelValues(streamID).Set(float64(fps))
	overlayDiameter.WithLabelValues(streamID).Set(float64(diameter))
}

// IncNegotiationFailure records a rejected format.
func IncNegotiationFailure(streamID, code string) {
	overlayNegotiationFailures.WithLabelValues(streamID, code).Inc()
}

// DeleteFormatMetrics removes the format gauges of a finished stream.
// Counters are kept so totals survive the end of the stream.
func DeleteFormatMetrics(streamID string) {
	overlayWidth.DeleteLabelValues(streamID)
	overlayHeight.DeleteLabelValues(streamID)
	overlayFPS.DeleteLabelValues(streamID)
	overlayDiameter.DeleteLabelValues(streamID)
}

// Bind keeps the format metrics in step with negotiation events on bus.
// Returns a function that removes the subscriptions.
func Bind(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.FormatNegotiatedEvent) {
			SetNegotiated(e.StreamID, e.Width, e.Height, e.FrameRate, e.Diameter)
		}),
		bus.Subscribe(func(e events.NegotiationFailedEvent) {
			IncNegotiationFailure(e.StreamID, e.Code)
		}),
		bus.Subscribe(func(e events.EndOfStreamEvent) {
			DeleteFormatMetrics(e.StreamID)
		}),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
