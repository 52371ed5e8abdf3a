package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/smazurov/recsign/internal/gsthost"
	"github.com/smazurov/recsign/internal/logging"
	"github.com/spf13/cobra"
)

// CreateGstCmd creates the gst command.
func CreateGstCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "gst [launch description]",
		Short: "Run a GStreamer pipeline with the recording indicator",
		Long: `Runs a gst-launch style pipeline and draws the recording indicator into ` +
			`buffers passing the element named "` + gsthost.ElementName + `". ` +
			`Without arguments a test pattern is shown:

  ` + gsthost.DefaultLaunch,
		Run: func(_ *cobra.Command, args []string) {
			logger := logging.GetLogger("gst")

			launch := gsthost.DefaultLaunch
			if len(args) > 0 {
				launch = strings.Join(args, " ")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			host := rt.NewHost()
			shutdown := rt.Start(ctx, host, logger)
			err := gsthost.Run(ctx, launch, host, logger)
			shutdown()

			switch {
			case errors.Is(err, gsthost.ErrUnsupported):
				logger.Error("GStreamer support not compiled in, rebuild with -tags gst")
				os.Exit(1)
			case err != nil && !errors.Is(err, context.Canceled):
				logger.Error("Pipeline failed", "stream_id", host.ID(), "error", err)
				os.Exit(1)
			}
		},
	}
}
