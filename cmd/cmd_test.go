package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smazurov/recsign/internal/events"
	"github.com/smazurov/recsign/internal/overlay"
	"github.com/smazurov/recsign/internal/version"
	"github.com/smazurov/recsign/internal/y4m"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRuntime() *Runtime {
	return &Runtime{Settings: overlay.DefaultSettings(), Bus: events.New()}
}

func execute(t *testing.T, c interface {
	SetArgs([]string)
	SetOut(io.Writer)
	Execute() error
}, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetArgs(args)
	require.NoError(t, c.Execute())
	return out.String()
}

func TestColorCommand(t *testing.T) {
	out := execute(t, CreateColorCmd(newTestRuntime()))
	assert.Equal(t, "bt601  studio  Y=81 U=90 V=240\n", out)
}

func TestColorCommandFlags(t *testing.T) {
	out := execute(t, CreateColorCmd(newTestRuntime()), "--standard", "bt709", "--json")

	var rows []colorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, colorOutput{Standard: "bt709", Range: "studio", Y: 63, U: 102, V: 240}, rows[0])
}

func TestColorCommandAll(t *testing.T) {
	out := execute(t, CreateColorCmd(newTestRuntime()), "--all", "--json")

	var rows []colorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 6)
}

func TestColorCommandRejectsUnknownStandard(t *testing.T) {
	c := CreateColorCmd(newTestRuntime())
	c.SetOut(io.Discard)
	c.SetErr(io.Discard)
	c.SetArgs([]string{"--standard", "bt2020"})
	assert.Error(t, c.Execute())
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, CreateVersionCmd())
	assert.Contains(t, out, "recsign "+version.Get().Version)

	out = execute(t, CreateVersionCmd(), "--json")
	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Get(), info)
}

// writeInput writes a 64x64 stream at 4 fps with n black frames.
func writeInput(t *testing.T, n int) (string, []byte) {
	t.Helper()
	h := y4m.Header{Width: 64, Height: 64, FrameRate: overlay.Fraction{Num: 4, Den: 1}, Colorspace: "420jpeg"}
	var buf bytes.Buffer
	w := y4m.NewWriter(&buf)
	require.NoError(t, w.WriteHeader(h))
	for i := 0; i < n; i++ {
		require.NoError(t, w.WriteFrame("", make([]byte, h.FrameSize())))
	}
	require.NoError(t, w.Flush())

	path := filepath.Join(t.TempDir(), "in.y4m")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path, buf.Bytes()
}

func readFrames(t *testing.T, data []byte) [][]byte {
	t.Helper()
	r := y4m.NewReader(bytes.NewReader(data))
	var frames [][]byte
	for {
		chunk, err := r.Next()
		if err == io.EOF {
			return frames
		}
		require.NoError(t, err)
		if chunk.Kind == y4m.KindFrame {
			frames = append(frames, bytes.Clone(chunk.Data))
		}
	}
}

func TestTranscodeJob(t *testing.T) {
	in, _ := writeInput(t, 4)
	out := filepath.Join(t.TempDir(), "out.y4m")

	host := newTestRuntime().NewHost()
	job := &transcodeJob{
		host:   host,
		decode: []string{"cat", in},
		encode: []string{"sh", "-c", "cat > " + out},
		logger: newTestLogger(),
	}
	require.NoError(t, job.run(context.Background()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	frames := readFrames(t, data)
	require.Len(t, frames, 4)

	black := make([]byte, len(frames[0]))
	assert.NotEqual(t, black, frames[0], "frame 1 carries the disc")
	assert.Equal(t, black, frames[1])
	assert.Equal(t, black, frames[2])
	assert.NotEqual(t, black, frames[3], "frame 4 carries the disc")

	stats := host.Compositor().Stats()
	assert.Equal(t, uint64(4), stats.Frames)
	assert.Equal(t, uint64(2), stats.Drawn)
}

func TestTranscodeJobDecoderFails(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.y4m")
	job := &transcodeJob{
		host:   newTestRuntime().NewHost(),
		decode: []string{"sh", "-c", "exit 3"},
		encode: []string{"sh", "-c", "cat > " + out},
		logger: newTestLogger(),
	}

	err := job.run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoder exited with code 3")
}

func TestTranscodeJobRefusedFormat(t *testing.T) {
	h := y4m.Header{Width: 16, Height: 16, FrameRate: overlay.Fraction{Num: 25, Den: 1}}
	var buf bytes.Buffer
	w := y4m.NewWriter(&buf)
	require.NoError(t, w.WriteHeader(h))
	require.NoError(t, w.WriteFrame("", make([]byte, h.FrameSize())))
	require.NoError(t, w.Flush())
	in := filepath.Join(t.TempDir(), "in.y4m")
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0o644))

	job := &transcodeJob{
		host:   newTestRuntime().NewHost(),
		decode: []string{"cat", in},
		encode: []string{"sh", "-c", "cat > /dev/null"},
		logger: newTestLogger(),
	}

	err := job.run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, overlay.ErrInvalidFormat)
}

func TestRuntimeWatchAppliesSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recsign.toml")
	require.NoError(t, os.WriteFile(path, []byte("[overlay]\nshow = true\n"), 0o644))

	rt := newTestRuntime()
	rt.ConfigPath = path
	rt.WatchConfig = true

	changed := make(chan any, 4)
	unsub := events.SubscribeToChannel[events.OverlaySettingsChangedEvent](rt.Bus, changed)
	defer unsub()

	host := rt.NewHost()
	stop := rt.watch(host.Compositor())
	defer stop()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("[overlay]\nshow = false\nstandard = \"bt709\"\n"), 0o644))

	require.Eventually(t, func() bool {
		return !host.Compositor().Settings().Show
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, overlay.BT709, host.Compositor().Settings().Standard)

	select {
	case ev := <-changed:
		e := ev.(events.OverlaySettingsChangedEvent)
		assert.False(t, e.Show)
		assert.Equal(t, "bt709", e.Standard)
	case <-time.After(2 * time.Second):
		t.Fatal("expected OverlaySettingsChangedEvent")
	}
}

func TestRuntimeWatchDisabled(t *testing.T) {
	rt := newTestRuntime()
	rt.ConfigPath = filepath.Join(t.TempDir(), "missing.toml")
	rt.WatchConfig = true

	stop := rt.watch(rt.NewHost().Compositor())
	stop()
}
