package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/recsign/cmd"
	"github.com/smazurov/recsign/internal/config"
	"github.com/smazurov/recsign/internal/events"
	"github.com/smazurov/recsign/internal/logging"
	"github.com/smazurov/recsign/internal/overlay"
	"github.com/smazurov/recsign/internal/pipeline"
	"github.com/smazurov/recsign/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"recsign.toml"`

	// Overlay settings
	Show     bool   `help:"Draw the indicator (gated by the blink phase)" default:"true" toml:"overlay.show" env:"OVERLAY_SHOW"`
	Silent   bool   `help:"Log format negotiation at debug level only" default:"true" toml:"overlay.silent" env:"OVERLAY_SILENT"`
	Standard string `help:"Color standard (bt601, bt709, fcc)" default:"bt601" toml:"overlay.standard" env:"OVERLAY_STANDARD"`
	Range    string `help:"Quantization range (studio, full)" default:"studio" toml:"overlay.range" env:"OVERLAY_RANGE"`

	// Runtime settings
	WatchConfig bool   `help:"Reload overlay and logging settings when the config file changes" default:"true" toml:"config.watch" env:"CONFIG_WATCH"`
	MetricsAddr string `help:"Serve Prometheus metrics on this address (empty disables)" default:"" toml:"metrics.addr" env:"METRICS_ADDR"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingOverlay  string `help:"Overlay logging level" default:"info" toml:"logging.overlay" env:"LOGGING_OVERLAY"`
	LoggingPipeline string `help:"Pipeline logging level" default:"info" toml:"logging.pipeline" env:"LOGGING_PIPELINE"`
	LoggingFFmpeg   string `help:"FFmpeg output logging level" default:"info" toml:"logging.ffmpeg" env:"LOGGING_FFMPEG"`
	LoggingGst      string `help:"GStreamer logging level" default:"info" toml:"logging.gst" env:"LOGGING_GST"`
	LoggingMetrics  string `help:"Metrics logging level" default:"info" toml:"logging.metrics" env:"LOGGING_METRICS"`
	LoggingConfig   string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingMain     string `help:"Main logging level" default:"info" toml:"logging.main" env:"LOGGING_MAIN"`
}

func main() {
	rt := &cmd.Runtime{Bus: events.New()}

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system. Stdout carries video, logs go to stderr.
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"overlay":  opts.LoggingOverlay,
				"pipeline": opts.LoggingPipeline,
				"ffmpeg":   opts.LoggingFFmpeg,
				"gst":      opts.LoggingGst,
				"metrics":  opts.LoggingMetrics,
				"config":   opts.LoggingConfig,
				"main":     opts.LoggingMain,
			},
		})

		logger := logging.GetLogger("main")

		settings, err := resolveSettings(opts)
		if err != nil {
			logger.Error("Invalid overlay settings", "error", err)
			os.Exit(1)
		}

		rt.ConfigPath = opts.Config
		rt.WatchConfig = opts.WatchConfig
		rt.MetricsAddr = opts.MetricsAddr
		rt.Settings = settings

		// Default command filters a YUV4MPEG2 stream from stdin to stdout
		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			host := rt.NewHost()
			shutdown := rt.Start(ctx, host, logger)

			logger.Info("Filtering stdin to stdout", "version", version.String(), "stream_id", host.ID())
			runErr := pipeline.NewFilter(host, logging.GetLogger("pipeline")).Run(ctx, os.Stdin, os.Stdout)
			shutdown()
			if runErr != nil && ctx.Err() == nil {
				logger.Error("Filter failed", "stream_id", host.ID(), "error", runErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
		})
	})

	cli.Root().Use = "recsign"
	cli.Root().Short = "Burn a blinking recording indicator into raw video"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateTranscodeCmd(rt))
	cli.Root().AddCommand(cmd.CreateGstCmd(rt))
	cli.Root().AddCommand(cmd.CreateColorCmd(rt))
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}

func resolveSettings(opts *Options) (overlay.Settings, error) {
	std, err := overlay.ParseStandard(opts.Standard)
	if err != nil {
		return overlay.Settings{}, err
	}
	rng, err := overlay.ParseRange(opts.Range)
	if err != nil {
		return overlay.Settings{}, err
	}
	return overlay.Settings{
		Show:     opts.Show,
		Silent:   opts.Silent,
		Standard: std,
		Range:    rng,
	}, nil
}
