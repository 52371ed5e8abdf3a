package ffmpeg

import (
	"strconv"
	"strings"
)

// Binary is the ffmpeg executable.
var Binary = "ffmpeg"

// Base returns the ffmpeg invocation with standard flags. level+info prefixes
// every stderr line with its level so ParseLogLevel can route it.
func Base() []string {
	return []string{Binary, "-hide_banner", "-nostdin", "-loglevel", "level+info"}
}

// BuildDecodeCommand builds a decoder writing yuv420p YUV4MPEG2 to stdout.
func BuildDecodeCommand(p *DecodeParams) []string {
	args := Base()
	args = append(args, p.GlobalArgs...)
	args = append(args, inputArgs(p.Options)...)

	if p.InputFormat != "" {
		args = append(args, "-f", p.InputFormat)
	}
	args = append(args, "-i", p.Input)

	return append(args,
		"-map", "0:v:0",
		"-an",
		"-pix_fmt", "yuv420p",
		"-f", "yuv4mpegpipe",
		"pipe:1",
	)
}

// BuildEncodeCommand builds an encoder reading YUV4MPEG2 from stdin.
func BuildEncodeCommand(p *EncodeParams) []string {
	base := Base()
	// stdin carries video
	args := make([]string, 0, len(base)+32)
	for _, arg := range base {
		if arg != "-nostdin" {
			args = append(args, arg)
		}
	}
	args = append(args, p.GlobalArgs...)
	if p.Overwrite {
		args = append(args, "-y")
	}

	args = append(args, "-f", "yuv4mpegpipe", "-i", "pipe:0")

	if p.VideoFilters != "" {
		args = append(args, "-vf", p.VideoFilters)
	}

	encoder := p.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args = append(args, "-c:v", encoder)

	if p.Preset != "" {
		args = append(args, "-preset", p.Preset)
	}
	if p.Bitrate != "" {
		args = append(args, "-b:v", p.Bitrate)
	}
	if p.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(p.CRF))
	}
	if p.GOP > 0 {
		args = append(args, "-g", strconv.Itoa(p.GOP))
	}

	if isHardwareEncoder(encoder) && p.VideoFilters == "" {
		args = append(args, "-pix_fmt", "nv12")
	}

	args = append(args, p.ExtraArgs...)

	if p.ProgressURL != "" {
		args = append(args, "-progress", p.ProgressURL, "-stats_period", "1")
	}

	if p.OutputFormat != "" {
		args = append(args, "-f", p.OutputFormat)
	} else if strings.HasPrefix(p.Output, "rtsp://") {
		args = append(args, "-rtsp_transport", "tcp", "-f", "rtsp")
	} else if strings.HasPrefix(p.Output, "srt://") || strings.HasPrefix(p.Output, "udp://") {
		args = append(args, "-muxdelay", "0", "-muxpreload", "0", "-flush_packets", "1", "-f", "mpegts")
	}

	return append(args, p.Output)
}

func isHardwareEncoder(codec string) bool {
	for _, suffix := range []string{"_vaapi", "_qsv", "_nvenc", "_v4l2m2m", "_rkmpp"} {
		if strings.HasSuffix(codec, suffix) {
			return true
		}
	}
	return false
}
