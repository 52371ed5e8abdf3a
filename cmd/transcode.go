package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/smazurov/recsign/internal/ffmpeg"
	"github.com/smazurov/recsign/internal/logging"
	"github.com/smazurov/recsign/internal/metrics/collectors"
	"github.com/smazurov/recsign/internal/pipeline"
	"github.com/smazurov/recsign/internal/process"
	"github.com/spf13/cobra"
)

// CreateTranscodeCmd creates the transcode command.
func CreateTranscodeCmd(rt *Runtime) *cobra.Command {
	var decode ffmpeg.DecodeParams
	var encode ffmpeg.EncodeParams
	var optionKeys []string
	var extraArgs string
	var progress bool

	defaultKeys := make([]string, 0)
	for _, key := range ffmpeg.GetDefaultOptions() {
		defaultKeys = append(defaultKeys, string(key))
	}

	cmd := &cobra.Command{
		Use:   "transcode -i INPUT -o OUTPUT",
		Short: "Burn the recording indicator into a file or stream with ffmpeg",
		Long: `Decodes INPUT with ffmpeg into a YUV4MPEG2 pipe, draws the recording ` +
			`indicator into every frame and encodes the result to OUTPUT with a second ffmpeg process.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			logger := logging.GetLogger("main")

			options, err := ffmpeg.ParseOptions(optionKeys)
			if err == nil {
				err = ffmpeg.ValidateOptions(options)
			}
			if err != nil {
				logger.Error("Invalid ffmpeg options", "error", err)
				os.Exit(1)
			}
			decode.Options = options

			if extraArgs != "" {
				encode.ExtraArgs, err = process.SplitArgs(extraArgs)
				if err != nil {
					logger.Error("Invalid extra arguments", "error", err)
					os.Exit(1)
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			host := rt.NewHost()
			shutdown := rt.Start(ctx, host, logger)

			if progress {
				collector := collectors.NewFFmpegCollector(
					filepath.Join(os.TempDir(), "recsign-"+host.ID()+".sock"), host.ID())
				if startErr := collector.Start(ctx); startErr != nil {
					logger.Warn("Failed to start progress collector", "error", startErr)
				} else {
					defer func() { _ = collector.Stop() }()
					encode.ProgressURL = collector.ProgressURL()
				}
			}

			job := &transcodeJob{
				host:   host,
				decode: ffmpeg.BuildDecodeCommand(&decode),
				encode: ffmpeg.BuildEncodeCommand(&encode),
				logger: logger,
			}
			logger.Info("Starting transcode",
				"stream_id", host.ID(), "input", decode.Input, "output", encode.Output)

			err = job.run(ctx)
			shutdown()
			if err != nil {
				logger.Error("Transcode failed", "stream_id", host.ID(), "error", err)
				os.Exit(1)
			}
			stats := host.Compositor().Stats()
			logger.Info("Transcode finished", "stream_id", host.ID(), "frames", stats.Frames, "drawn", stats.Drawn)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&decode.Input, "input", "i", "", "Input file or URL")
	flags.StringVar(&decode.InputFormat, "input-format", "", "Force the input demuxer")
	flags.StringSliceVar(&optionKeys, "options", defaultKeys, "Input options ("+optionKeyList()+")")
	flags.StringVarP(&encode.Output, "output", "o", "", "Output file or URL")
	flags.StringVarP(&encode.OutputFormat, "format", "f", "", "Force the output muxer")
	flags.StringVar(&encode.Encoder, "encoder", "libx264", "Video encoder")
	flags.StringVar(&encode.Preset, "preset", "", "Encoder preset")
	flags.StringVar(&encode.Bitrate, "bitrate", "", "Target bitrate, e.g. 5M")
	flags.IntVar(&encode.CRF, "crf", 0, "Constant rate factor (0 leaves the encoder default)")
	flags.IntVar(&encode.GOP, "gop", 0, "Keyframe interval in frames")
	flags.StringVar(&encode.VideoFilters, "vf", "", "Filters applied after the indicator is drawn")
	flags.StringVar(&extraArgs, "extra", "", "Extra encoder arguments placed before the output")
	flags.BoolVarP(&encode.Overwrite, "overwrite", "y", false, "Overwrite the output file")
	flags.BoolVar(&progress, "progress", true, "Export encoder progress as metrics")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func optionKeyList() string {
	keys := make([]string, 0, len(ffmpeg.AllOptions))
	for _, option := range ffmpeg.AllOptions {
		keys = append(keys, string(option.Key))
	}
	return strings.Join(keys, ", ")
}

// transcodeJob runs decoder | filter | encoder.
type transcodeJob struct {
	host   *pipeline.Host
	decode []string
	encode []string
	logger logging.Logger
}

// run blocks until all three stages are done. Cancelling ctx stops the
// decoder, so the encoder still sees a clean end of stream.
func (j *transcodeJob) run(ctx context.Context) error {
	ffmpegLogger := logging.GetLogger("ffmpeg")
	decR, decW := io.Pipe()
	encR, encW := io.Pipe()

	decoder := process.NewProcess(j.host.ID()+"-decode", j.decode, j.logger)
	decoder.SetLogParser(ffmpegLogger, ffmpeg.ParseLogLevel)
	decoder.SetStdout(decW)

	encoder := process.NewProcess(j.host.ID()+"-encode", j.encode, j.logger)
	encoder.SetLogParser(ffmpegLogger, ffmpeg.ParseLogLevel)
	encoder.SetStdin(encR)

	stop := context.AfterFunc(ctx, decoder.Shutdown)
	defer stop()

	var wg sync.WaitGroup
	var decodeErr, encodeErr, filterErr error
	wg.Add(3)

	go func() {
		defer wg.Done()
		decodeErr = process.ExitError("decoder", decoder.Run())
		decW.CloseWithError(decodeErr)
	}()

	go func() {
		defer wg.Done()
		encodeErr = process.ExitError("encoder", encoder.Run())
		if encodeErr != nil {
			encR.CloseWithError(encodeErr)
		} else {
			encR.CloseWithError(errEncoderDone)
		}
	}()

	go func() {
		defer wg.Done()
		filterErr = pipeline.NewFilter(j.host, logging.GetLogger("pipeline")).Run(context.Background(), decR, encW)
		encW.CloseWithError(filterErr)
		if filterErr != nil {
			decR.CloseWithError(filterErr)
			decoder.Shutdown()
		}
	}()

	wg.Wait()
	// A stage failing because its neighbour went away is reported once.
	for _, cause := range []error{errEncoderDone, encodeErr, decodeErr} {
		if cause != nil && errors.Is(filterErr, cause) {
			filterErr = nil
		}
	}
	return errors.Join(decodeErr, filterErr, encodeErr)
}

var errEncoderDone = errors.New("encoder closed its input")
