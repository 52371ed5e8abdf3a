package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/smazurov/recsign/internal/logging"
	"github.com/smazurov/recsign/internal/overlay"
	"github.com/smazurov/recsign/internal/y4m"
)

// Filter runs a Host over a YUV4MPEG2 byte stream.
type Filter struct {
	host   *Host
	logger logging.Logger
}

// NewFilter creates a filter around host.
func NewFilter(host *Host, logger logging.Logger) *Filter {
	return &Filter{
		host:   host,
		logger: logger,
	}
}

// Run copies the stream from r to w, burning the overlay into every frame.
// Each header is negotiated before it is forwarded, and each frame is
// forwarded exactly once. Run returns nil at the end of input and ctx.Err()
// when cancelled. If r is an io.Closer it is closed on cancellation so a
// blocked read returns.
func (f *Filter) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := y4m.NewReader(r)
	writer := y4m.NewWriter(w)
	defer writer.Flush()

	if closer, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = closer.Close() })
		defer stop()
	}

	for {
		if err := ctx.Err(); err != nil {
			f.host.OnEOS()
			return err
		}

		chunk, err := reader.Next()
		if errors.Is(err, io.EOF) {
			f.host.OnEOS()
			return writer.Flush()
		}
		if err != nil {
			f.host.OnEOS()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("failed to read stream: %w", err)
		}

		switch chunk.Kind {
		case y4m.KindHeader:
			if err := f.host.OnCaps(chunk.Header.Format()); err != nil {
				f.host.OnEOS()
				return fmt.Errorf("format %s refused: %w", chunk.Header.Format(), err)
			}
			f.logger.Debug("Stream header", "stream_id", f.host.ID(), "header", chunk.Header.String())

		case y4m.KindFrame:
			f.host.OnFrame(overlay.Buffer(chunk.Data))
		}

		if err := writer.WriteChunk(chunk); err != nil {
			return fmt.Errorf("failed to write stream: %w", err)
		}
		if chunk.Kind == y4m.KindFrame {
			if err := writer.Flush(); err != nil {
				return fmt.Errorf("failed to write stream: %w", err)
			}
		}
	}
}
