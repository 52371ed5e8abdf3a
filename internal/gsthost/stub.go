//go:build !gst

package gsthost

import (
	"context"

	"github.com/smazurov/recsign/internal/logging"
	"github.com/smazurov/recsign/internal/pipeline"
)

// Available reports whether GStreamer support is compiled in.
func Available() bool { return false }

// Run always fails without the gst build tag.
func Run(_ context.Context, _ string, _ *pipeline.Host, _ logging.Logger) error {
	return ErrUnsupported
}
