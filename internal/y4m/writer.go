package y4m

import (
	"bufio"
	"fmt"
	"io"
)

// Writer emits a YUV4MPEG2 stream.
type Writer struct {
	bw     *bufio.Writer
	header *Header
}

// NewWriter returns a Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 1<<16)}
}

// WriteHeader starts a new stream.
func (w *Writer) WriteHeader(h Header) error {
	if _, err := w.bw.WriteString(h.String() + "\n"); err != nil {
		return err
	}
	w.header = &h
	return nil
}

// WriteFrame writes one frame of the current stream. params may be empty.
func (w *Writer) WriteFrame(params string, data []byte) error {
	if w.header == nil {
		return fmt.Errorf("%w: frame before stream header", ErrInvalidHeader)
	}
	if want := w.header.FrameSize(); len(data) != want {
		return fmt.Errorf("y4m: frame is %d bytes, stream expects %d", len(data), want)
	}

	line := frameMagic
	if params != "" {
		line += " " + params
	}
	if _, err := w.bw.WriteString(line + "\n"); err != nil {
		return err
	}
	_, err := w.bw.Write(data)
	return err
}

// WriteChunk writes a chunk returned by Reader.Next.
func (w *Writer) WriteChunk(c Chunk) error {
	if c.Kind == KindHeader {
		return w.WriteHeader(c.Header)
	}
	return w.WriteFrame(c.Params, c.Data)
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}
