// Package cmd holds the recsign subcommands and the wiring they share with
// the root filter command.
package cmd

import (
	"context"
	"os"
	"time"

	"github.com/smazurov/recsign/internal/config"
	"github.com/smazurov/recsign/internal/events"
	"github.com/smazurov/recsign/internal/logging"
	"github.com/smazurov/recsign/internal/metrics"
	"github.com/smazurov/recsign/internal/metrics/exporters"
	"github.com/smazurov/recsign/internal/overlay"
	"github.com/smazurov/recsign/internal/pipeline"
	"github.com/smazurov/recsign/internal/systemd"
)

// Runtime is the state resolved from flags, environment and config file.
// main fills it before any command runs.
type Runtime struct {
	ConfigPath  string
	WatchConfig bool
	MetricsAddr string
	Settings    overlay.Settings
	Bus         *events.Bus
}

// NewHost creates a compositor from the resolved settings and wraps it in a
// pipeline host.
func (rt *Runtime) NewHost() *pipeline.Host {
	compositor := overlay.NewCompositor(rt.Settings, logging.GetLogger("overlay"))
	return pipeline.NewHost(compositor, rt.bus(), logging.GetLogger("pipeline"))
}

// Start brings up everything that runs alongside a pipeline: metrics,
// config hot reload and systemd notification. The returned function tears
// it down again.
func (rt *Runtime) Start(ctx context.Context, host *pipeline.Host, logger logging.Logger) func() {
	ctx, cancel := context.WithCancel(ctx)
	unbind := metrics.Bind(rt.bus())

	if rt.MetricsAddr != "" {
		go func() {
			if err := exporters.Serve(ctx, rt.MetricsAddr, logging.GetLogger("metrics")); err != nil {
				logger.Error("Metrics server failed", "addr", rt.MetricsAddr, "error", err)
			}
		}()
	}

	stopWatcher := rt.watch(host.Compositor())

	notifier := systemd.NewNotifier(logging.GetLogger("main"))
	go notifier.Watchdog(ctx)
	notifier.Ready()
	notifier.Status("stream %s", host.ID())

	return func() {
		notifier.Stopping()
		stopWatcher()
		cancel()
		unbind()
	}
}

// watch reloads the [overlay] and [logging] tables of the config file into
// the running compositor.
func (rt *Runtime) watch(c *overlay.Compositor) func() {
	if !rt.WatchConfig || rt.ConfigPath == "" {
		return func() {}
	}
	if _, err := os.Stat(rt.ConfigPath); err != nil {
		return func() {}
	}

	logger := logging.GetLogger("config")
	defaults := rt.Settings
	watcher := config.NewConfigWatcher(
		rt.ConfigPath,
		func(path string) (config.FileSettings, error) {
			return config.LoadFileSettings(path, defaults)
		},
		logger,
		config.WithDebounce[config.FileSettings](500*time.Millisecond),
	)

	watcher.OnReload(func(fs config.FileSettings) {
		applyLogging(fs.Logging, logger)
		c.ApplySettings(fs.Overlay)
		logger.Info("Overlay settings reloaded",
			"show", fs.Overlay.Show,
			"standard", fs.Overlay.Standard.String(),
			"range", fs.Overlay.Range.String())
		rt.bus().Publish(events.OverlaySettingsChangedEvent{
			Show:      fs.Overlay.Show,
			Silent:    fs.Overlay.Silent,
			Standard:  fs.Overlay.Standard.String(),
			Range:     fs.Overlay.Range.String(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
	})

	if err := watcher.Start(); err != nil {
		logger.Warn("Failed to start config watcher, hot-reload disabled", "error", err)
		return func() {}
	}
	return func() { _ = watcher.Stop() }
}

func applyLogging(cfg logging.Config, logger logging.Logger) {
	if err := logging.SetModuleLevel("", cfg.Level); err != nil {
		logger.Warn("Ignoring logging level", "error", err)
	}
	for module, level := range cfg.Modules {
		if err := logging.SetModuleLevel(module, level); err != nil {
			logger.Warn("Ignoring module logging level", "module", module, "error", err)
		}
	}
}

func (rt *Runtime) bus() *events.Bus {
	if rt.Bus == nil {
		rt.Bus = events.New()
	}
	return rt.Bus
}
