package y4m

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxLineLength bounds header lines so garbage input cannot grow a line forever.
const maxLineLength = 4096

// Kind tells a header chunk from a frame chunk.
type Kind int

// Chunk kinds.
const (
	KindHeader Kind = iota
	KindFrame
)

// Chunk is one element of a stream: a header or a frame.
type Chunk struct {
	Kind   Kind
	Header Header
	// Params holds the FRAME line parameters, without the leading space.
	Params string
	// Data is the frame payload. It is only valid until the next call to Next.
	Data []byte
}

// Reader splits a YUV4MPEG2 byte stream into headers and frames.
type Reader struct {
	br     *bufio.Reader
	header *Header
	buf    []byte
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 1<<16)}
}

// Header returns the header of the current stream, if one has been read.
func (r *Reader) Header() (Header, bool) {
	if r.header == nil {
		return Header{}, false
	}
	return *r.header, true
}

// Next returns the next chunk. It returns io.EOF at a clean end of input and
// io.ErrUnexpectedEOF when the input stops inside a header or frame.
func (r *Reader) Next() (Chunk, error) {
	line, err := r.readLine()
	if err != nil {
		return Chunk{}, err
	}

	switch {
	case strings.HasPrefix(line, streamMagic):
		h, err := ParseHeader(line)
		if err != nil {
			return Chunk{}, err
		}
		r.header = &h
		return Chunk{Kind: KindHeader, Header: h}, nil

	case line == frameMagic || strings.HasPrefix(line, frameMagic+" "):
		if r.header == nil {
			return Chunk{}, fmt.Errorf("%w: frame before stream header", ErrInvalidHeader)
		}
		// Sized on the first frame, so a header the caller refuses costs nothing.
		size := r.header.FrameSize()
		if cap(r.buf) < size {
			r.buf = make([]byte, size)
		}
		r.buf = r.buf[:size]
		if _, err := io.ReadFull(r.br, r.buf); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Chunk{}, fmt.Errorf("y4m: reading frame: %w", err)
		}
		return Chunk{
			Kind:   KindFrame,
			Header: *r.header,
			Params: strings.TrimPrefix(strings.TrimPrefix(line, frameMagic), " "),
			Data:   r.buf,
		}, nil
	}

	return Chunk{}, fmt.Errorf("%w: unexpected line %q", ErrInvalidHeader, truncate(line, 32))
}

func (r *Reader) readLine() (string, error) {
	var b strings.Builder
	for {
		c, err := r.br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && b.Len() > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if c == '\n' {
			return b.String(), nil
		}
		if b.Len() >= maxLineLength {
			return "", fmt.Errorf("%w: line exceeds %d bytes", ErrInvalidHeader, maxLineLength)
		}
		b.WriteByte(c)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
