//go:build gst

package gsthost

import (
	"context"
	"fmt"
	"time"

	"github.com/smazurov/recsign/internal/logging"
	"github.com/smazurov/recsign/internal/overlay"
	"github.com/smazurov/recsign/internal/pipeline"
	"github.com/tinyzimmer/go-gst/gst"
)

// Available reports whether GStreamer support is compiled in.
func Available() bool { return true }

// Run builds the pipeline described by launch, attaches host to the element
// named ElementName and plays until end of stream, error or cancellation.
func Run(ctx context.Context, launch string, host *pipeline.Host, logger logging.Logger) error {
	gst.Init(nil)

	pl, err := gst.NewPipelineFromString(launch)
	if err != nil {
		return fmt.Errorf("failed to parse pipeline: %w", err)
	}
	defer pl.SetState(gst.StateNull)

	element, err := pl.GetElementByName(ElementName)
	if err != nil || element == nil {
		return fmt.Errorf("pipeline has no element named %q", ElementName)
	}
	srcPad := element.GetStaticPad("src")
	if srcPad == nil {
		return fmt.Errorf("element %q has no src pad", ElementName)
	}

	refused := make(chan error, 1)
	srcPad.AddProbe(gst.PadProbeTypeEventDownstream, func(_ *gst.Pad, info *gst.PadProbeInfo) gst.PadProbeReturn {
		event := info.GetEvent()
		if event == nil {
			return gst.PadProbeOK
		}

		switch event.Type() {
		case gst.EventTypeCaps:
			caps := event.ParseCaps()
			if caps == nil {
				return gst.PadProbeOK
			}
			format, err := ParseCaps(caps.String())
			if err == nil {
				err = host.OnCaps(format)
			}
			if err != nil {
				logger.Error("Caps refused", "caps", caps.String(), "error", err)
				select {
				case refused <- err:
				default:
				}
				return gst.PadProbeDrop
			}
		case gst.EventTypeEOS:
			host.OnEOS()
		}
		return gst.PadProbeOK
	})

	srcPad.AddProbe(gst.PadProbeTypeBuffer, func(_ *gst.Pad, info *gst.PadProbeInfo) gst.PadProbeReturn {
		buffer := info.GetBuffer()
		if buffer == nil {
			return gst.PadProbeOK
		}
		if !buffer.IsWritable() {
			// Mapped for reading only so the compositor sees the real size.
			readInfo := buffer.Map(gst.MapRead)
			if readInfo == nil {
				host.OnFrame(overlay.ReadOnly(nil))
				return gst.PadProbeOK
			}
			host.OnFrame(overlay.ReadOnly(readInfo.AsUint8Slice()))
			buffer.Unmap()
			return gst.PadProbeOK
		}

		mapInfo := buffer.Map(gst.MapWrite)
		if mapInfo == nil {
			host.OnFrame(overlay.ReadOnly(nil))
			return gst.PadProbeOK
		}
		host.OnFrame(overlay.Buffer(mapInfo.AsUint8Slice()))
		buffer.Unmap()
		return gst.PadProbeOK
	})

	if err := pl.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}
	logger.Info("Pipeline playing", "stream_id", host.ID(), "launch", launch)

	bus := pl.GetPipelineBus()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Context cancelled, stopping pipeline")
			return ctx.Err()
		case err := <-refused:
			return err
		default:
		}

		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			logger.Info("Pipeline reached end of stream", "stream_id", host.ID())
			return nil
		case gst.MessageError:
			gerr := msg.ParseError()
			logger.Error("Pipeline error", "error", gerr.Error(), "debug", gerr.DebugString())
			return fmt.Errorf("pipeline error: %s", gerr.Error())
		case gst.MessageWarning:
			gerr := msg.ParseWarning()
			logger.Warn("Pipeline warning", "warning", gerr.Error())
		}
	}
}
