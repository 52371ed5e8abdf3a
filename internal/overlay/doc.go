// Package overlay burns a blinking "recording" disc into planar YUV 4:2:0 frames.
//
// A host drives a Compositor with three events:
//
//	c := overlay.NewCompositor(overlay.DefaultSettings(), logger)
//	if err := c.Negotiate(overlay.FrameFormat{Width: 640, Height: 480, FrameRate: overlay.Fraction{Num: 30, Den: 1}}); err != nil {
//		// refuse to start the stream
//	}
//	for frame := range frames {
//		c.Process(overlay.Buffer(frame)) // then forward frame downstream
//	}
//	c.EndOfStream()
//
// The disc diameter is width/32 and is anchored one diameter down and right of
// the frame origin. It is drawn during the first half of every fps-long window
// of frames, giving a 0.5 Hz blink at the nominal frame rate.
package overlay
