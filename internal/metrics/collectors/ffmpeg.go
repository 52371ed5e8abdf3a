// Package collectors gathers ffmpeg encoder progress into metrics.
package collectors

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/recsign/internal/logging"
	"github.com/smazurov/recsign/internal/metrics"
)

// FFmpegCollector receives ffmpeg -progress output on a Unix socket.
type FFmpegCollector struct {
	logger     logging.Logger
	socketPath string
	streamID   string
	listener   net.Listener
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	stopOnce   sync.Once
}

// NewFFmpegCollector creates a new collector for one encoder.
func NewFFmpegCollector(socketPath, streamID string) *FFmpegCollector {
	return &FFmpegCollector{
		logger:     logging.GetLogger("metrics").With("stream_id", streamID),
		socketPath: socketPath,
		streamID:   streamID,
	}
}

// ProgressURL is the value for ffmpeg's -progress option.
func (f *FFmpegCollector) ProgressURL() string {
	return "unix://" + f.socketPath
}

// Start begins listening. The socket exists when Start returns.
func (f *FFmpegCollector) Start(ctx context.Context) error {
	if err := os.Remove(f.socketPath); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("Failed to clean up old socket file", "error", err)
	}

	listener, err := net.Listen("unix", f.socketPath)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.listener = listener
	f.ctx, f.cancel = context.WithCancel(ctx)
	f.mu.Unlock()

	f.logger.Debug("Progress socket listening", "socket", f.socketPath)
	go f.acceptLoop(listener)
	return nil
}

// Stop closes the socket and removes the stream's encoder metrics.
func (f *FFmpegCollector) Stop() error {
	var stopErr error
	f.stopOnce.Do(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.cancel != nil {
			f.cancel()
		}
		if f.listener != nil {
			stopErr = f.listener.Close()
			f.listener = nil
		}
		if err := os.Remove(f.socketPath); err != nil && !os.IsNotExist(err) && stopErr == nil {
			stopErr = err
		}
		metrics.DeleteEncoderMetrics(f.streamID)
	})
	return stopErr
}

func (f *FFmpegCollector) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || f.ctx.Err() != nil {
				return
			}
			f.logger.Warn("Error accepting connection", "error", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		go f.handleConnection(conn)
	}
}

func (f *FFmpegCollector) handleConnection(conn net.Conn) {
	defer conn.Close()

	go func() {
		<-f.ctx.Done()
		conn.Close()
	}()

	err := ReadProgress(conn, func(p metrics.EncoderProgress) {
		metrics.SetEncoderProgress(f.streamID, p)
	})
	if err != nil && f.ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
		f.logger.Debug("Progress connection ended", "error", err)
	}
}

// ReadProgress parses key=value blocks as written by ffmpeg -progress and
// calls fn at the end of each block (the progress= line).
func ReadProgress(r io.Reader, fn func(metrics.EncoderProgress)) error {
	scanner := bufio.NewScanner(r)
	block := make(map[string]string)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		block[key] = strings.TrimSpace(value)

		if key == "progress" {
			fn(parseProgress(block))
			block = make(map[string]string)
		}
	}
	return scanner.Err()
}

func parseProgress(data map[string]string) metrics.EncoderProgress {
	var p metrics.EncoderProgress
	p.FPS, _ = strconv.ParseFloat(data["fps"], 64)
	p.Frames, _ = strconv.ParseFloat(data["frame"], 64)
	p.DroppedFrames, _ = strconv.ParseFloat(data["drop_frames"], 64)
	p.DuplicateFrames, _ = strconv.ParseFloat(data["dup_frames"], 64)
	p.Speed, _ = strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(data["speed"], "x")), 64)
	return p
}
