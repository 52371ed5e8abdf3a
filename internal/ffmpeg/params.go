package ffmpeg

// DecodeParams describes the ffmpeg process that turns an input into a
// YUV4MPEG2 stream on its stdout.
type DecodeParams struct {
	Input       string // file path or URL
	InputFormat string // forced demuxer, e.g. "v4l2" (optional)
	Options     []OptionType
	GlobalArgs  []string
}

// EncodeParams describes the ffmpeg process that reads a YUV4MPEG2 stream on
// its stdin and writes the output.
type EncodeParams struct {
	Output       string // file path or URL
	OutputFormat string // forced muxer, e.g. "mpegts" (optional)

	Encoder string // libx264, h264_vaapi, ...
	Preset  string // fast, medium, slow
	Bitrate string // 5M
	CRF     int    // 0 = not set
	GOP     int    // 0 = not set

	GlobalArgs   []string
	VideoFilters string
	ExtraArgs    []string // appended before the output

	ProgressURL string // unix:///tmp/recsign-progress.sock (optional)
	Overwrite   bool
}
