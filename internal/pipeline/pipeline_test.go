package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/recsign/internal/events"
	"github.com/smazurov/recsign/internal/overlay"
	"github.com/smazurov/recsign/internal/y4m"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 64x64 frames have a 2 pixel disc with a single inside cell at row 1, col 1.
const (
	smallLumaPixel = 64*2 + 2 + 64 + 1
	smallChromaCb  = 64*64 + 64*1/2 + 1
	smallChromaCr  = smallChromaCb + 64*64/4
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHost(bus Publisher) *Host {
	logger := newTestLogger()
	return NewHost(overlay.NewCompositor(overlay.DefaultSettings(), logger), bus, logger)
}

func header(w, h, fps int) y4m.Header {
	return y4m.Header{Width: w, Height: h, FrameRate: overlay.Fraction{Num: fps, Den: 1}, Colorspace: "420jpeg"}
}

// stream writes each header followed by n black frames.
func stream(t *testing.T, parts ...any) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := y4m.NewWriter(&buf)
	var current y4m.Header
	for _, p := range parts {
		switch v := p.(type) {
		case y4m.Header:
			require.NoError(t, w.WriteHeader(v))
			current = v
		case int:
			for i := 0; i < v; i++ {
				require.NoError(t, w.WriteFrame("", make([]byte, current.FrameSize())))
			}
		}
	}
	require.NoError(t, w.Flush())
	return buf.Bytes()
}

func readFrames(t *testing.T, data []byte) ([]y4m.Header, [][]byte) {
	t.Helper()
	r := y4m.NewReader(bytes.NewReader(data))
	var headers []y4m.Header
	var frames [][]byte
	for {
		c, err := r.Next()
		if errors.Is(err, io.EOF) {
			return headers, frames
		}
		require.NoError(t, err)
		if c.Kind == y4m.KindHeader {
			headers = append(headers, c.Header)
			continue
		}
		frames = append(frames, bytes.Clone(c.Data))
	}
}

func TestHostIDIsUUID(t *testing.T) {
	h := newTestHost(nil)
	_, err := uuid.Parse(h.ID())
	assert.NoError(t, err)
	assert.NotEqual(t, h.ID(), newTestHost(nil).ID())
}

func TestFilterBurnsBlinkingDisc(t *testing.T) {
	host := newTestHost(nil)
	in := stream(t, header(64, 64, 4), 8)

	var out bytes.Buffer
	require.NoError(t, NewFilter(host, newTestLogger()).Run(context.Background(), bytes.NewReader(in), &out))

	headers, frames := readFrames(t, out.Bytes())
	require.Len(t, headers, 1)
	assert.Equal(t, "YUV4MPEG2 W64 H64 F4:1 C420jpeg", headers[0].String())
	require.Len(t, frames, 8, "every frame is forwarded exactly once")

	// counter n is visible while n%4 < 2
	wantVisible := []bool{true, false, false, true, true, false, false, true}
	for i, frame := range frames {
		if wantVisible[i] {
			assert.Equal(t, byte(81), frame[smallLumaPixel], "frame %d luma", i+1)
			assert.Equal(t, byte(90), frame[smallChromaCb], "frame %d Cb", i+1)
			assert.Equal(t, byte(240), frame[smallChromaCr], "frame %d Cr", i+1)
		} else {
			assert.Equal(t, make([]byte, len(frame)), frame, "frame %d must be untouched", i+1)
		}
	}

	stats := host.Compositor().Stats()
	assert.Equal(t, uint64(8), stats.Frames)
	assert.Equal(t, uint64(4), stats.Drawn)
	assert.Nil(t, host.Compositor().Geometry(), "geometry released at end of stream")
}

func TestFilterRenegotiatesOnNewHeader(t *testing.T) {
	host := newTestHost(nil)
	in := stream(t, header(64, 64, 2), 1, header(128, 64, 2), 2)

	var out bytes.Buffer
	require.NoError(t, NewFilter(host, newTestLogger()).Run(context.Background(), bytes.NewReader(in), &out))

	headers, frames := readFrames(t, out.Bytes())
	require.Len(t, headers, 2)
	require.Len(t, frames, 3)

	// fps=2: counters 1 and 3 are hidden, counter 2 is visible
	assert.Equal(t, make([]byte, len(frames[0])), frames[0])
	require.Len(t, frames[1], 128*64*3/2)
	// 128 wide: d=4, r=2, centre cell (row 2, col 2) is inside
	assert.Equal(t, byte(81), frames[1][128*4+4+2*128+2])
	assert.Equal(t, make([]byte, len(frames[2])), frames[2])
}

func TestFilterRefusesInvalidFormat(t *testing.T) {
	bus := events.New()
	failed := make(chan events.NegotiationFailedEvent, 1)
	defer bus.Subscribe(func(e events.NegotiationFailedEvent) { failed <- e })()

	host := newTestHost(bus)
	in := stream(t, header(32, 32, 30), 1)

	var out bytes.Buffer
	err := NewFilter(host, newTestLogger()).Run(context.Background(), bytes.NewReader(in), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, overlay.ErrInvalidFormat)
	assert.Zero(t, out.Len(), "a refused stream must not be forwarded")

	select {
	case e := <-failed:
		assert.Equal(t, host.ID(), e.StreamID)
		assert.Equal(t, overlay.ErrCodeInvalidFormat, e.Code)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for NegotiationFailedEvent")
	}
}

func TestFilterPublishesLifecycleEvents(t *testing.T) {
	bus := events.New()
	negotiated := make(chan events.FormatNegotiatedEvent, 1)
	eos := make(chan events.EndOfStreamEvent, 1)
	defer bus.Subscribe(func(e events.FormatNegotiatedEvent) { negotiated <- e })()
	defer bus.Subscribe(func(e events.EndOfStreamEvent) { eos <- e })()

	host := newTestHost(bus)
	in := stream(t, header(640, 480, 30), 2)
	require.NoError(t, NewFilter(host, newTestLogger()).Run(context.Background(), bytes.NewReader(in), io.Discard))

	select {
	case e := <-negotiated:
		assert.Equal(t, host.ID(), e.StreamID)
		assert.Equal(t, 640, e.Width)
		assert.Equal(t, 480, e.Height)
		assert.Equal(t, 30, e.FrameRate)
		assert.Equal(t, 20, e.Diameter)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for FormatNegotiatedEvent")
	}

	select {
	case e := <-eos:
		assert.Equal(t, uint64(2), e.Frames)
		assert.Equal(t, uint64(2), e.Drawn)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for EndOfStreamEvent")
	}
}

func TestFilterTruncatedInput(t *testing.T) {
	in := stream(t, header(64, 64, 30), 1)
	in = in[:len(in)-10]

	err := NewFilter(newTestHost(nil), newTestLogger()).Run(context.Background(), bytes.NewReader(in), io.Discard)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFilterStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	host := newTestHost(nil)
	in := stream(t, header(64, 64, 30), 3)
	err := NewFilter(host, newTestLogger()).Run(ctx, bytes.NewReader(in), io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, host.Compositor().FrameCount())
}

func TestFilterCancelUnblocksPendingRead(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewFilter(newTestHost(nil), newTestLogger()).Run(ctx, pr, io.Discard)
	}()

	// the header arrives, then the writer goes quiet
	_, err := pw.Write([]byte("YUV4MPEG2 W64 H64 F30:1\n"))
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run stayed blocked in Read after cancel")
	}
}

type readOnlyFrame []byte

func (f readOnlyFrame) Bytes() []byte  { return f }
func (f readOnlyFrame) Writable() bool { return false }

func TestHostForwardsReadOnlyFrame(t *testing.T) {
	host := newTestHost(nil)
	require.NoError(t, host.OnCaps(overlay.FrameFormat{Width: 64, Height: 64, FrameRate: overlay.Fraction{Num: 30, Den: 1}}))

	frame := make([]byte, 64*64*3/2)
	assert.False(t, host.OnFrame(readOnlyFrame(frame)))
	assert.Equal(t, make([]byte, len(frame)), frame)
	assert.Equal(t, uint64(1), host.Compositor().Stats().NotWritable)
}
