package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetEncoderProgress(t *testing.T) {
	streamID := "test-encoder-1"
	DeleteEncoderMetrics(streamID)

	SetEncoderProgress(streamID, EncoderProgress{
		FPS:             30,
		Frames:          120,
		DroppedFrames:   5,
		DuplicateFrames: 2,
		Speed:           1.5,
	})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"fps", testutil.ToFloat64(encoderFPS.WithLabelValues(streamID)), 30},
		{"frames", testutil.ToFloat64(encoderFrames.WithLabelValues(streamID)), 120},
		{"dropped", testutil.ToFloat64(encoderDroppedFrames.WithLabelValues(streamID)), 5},
		{"duplicate", testutil.ToFloat64(encoderDuplicateFrames.WithLabelValues(streamID)), 2},
		{"speed", testutil.ToFloat64(encoderSpeed.WithLabelValues(streamID)), 1.5},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	DeleteEncoderMetrics(streamID)
	if n := testutil.CollectAndCount(encoderFPS); n != 0 {
		t.Errorf("expected no fps series after delete, got %d", n)
	}
}
