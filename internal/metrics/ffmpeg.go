package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	encoderFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "fps",
		Help:      "Current ffmpeg encoding FPS",
	}, []string{"stream_id"})

	encoderFrames = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "frames",
		Help:      "Frames encoded so far",
	}, []string{"stream_id"})

	encoderDroppedFrames = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "dropped_frames_total",
		Help:      "Total dropped frames",
	}, []string{"stream_id"})

	encoderDuplicateFrames = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "duplicate_frames_total",
		Help:      "Total duplicate frames",
	}, []string{"stream_id"})

	encoderSpeed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "processing_speed",
		Help:      "ffmpeg processing speed multiplier",
	}, []string{"stream_id"})
)

// EncoderProgress is one block of ffmpeg -progress output.
type EncoderProgress struct {
	FPS             float64
	Frames          float64
	DroppedFrames   float64
	DuplicateFrames float64
	Speed           float64
}

// SetEncoderProgress publishes a progress block for a stream.
func SetEncoderProgress(streamID string, p EncoderProgress) {
	encoderFPS.WithLabelValues(streamID).Set(p.FPS)
	encoderFrames.WithLabelValues(streamID).Set(p.Frames)
	encoderDroppedFrames.WithLabelValues(streamID).Set(p.DroppedFrames)
	encoderDuplicateFrames.WithLabelValues(streamID).Set(p.DuplicateFrames)
	encoderSpeed.WithLabelValues(streamID).Set(p.Speed)
}

// DeleteEncoderMetrics removes all encoder metrics for a stream.
func DeleteEncoderMetrics(streamID string) {
	encoderFPS.DeleteLabelValues(streamID)
	encoderFrames.DeleteLabelValues(streamID)
	encoderDroppedFrames.DeleteLabelValues(streamID)
	encoderDuplicateFrames.DeleteLabelValues(streamID)
	encoderSpeed.DeleteLabelValues(streamID)
}
