// Package process runs the ffmpeg helpers of a transcode.
//
// Process wraps os/exec for a single subprocess:
//   - stdin and stdout can be attached to in-process readers and writers
//   - stderr is logged line by line through a pluggable LogParser
//   - graceful shutdown with SIGINT and configurable timeout
//   - force kill with SIGKILL if graceful shutdown times out
//
// Example:
//
//	dec := process.NewProcess("decoder", ffmpeg.BuildDecodeCommand(params), logger)
//	dec.SetLogParser(logging.GetLogger("ffmpeg"), ffmpeg.ParseLogLevel)
//	dec.SetStdout(pipeWriter)
//	code := dec.Run()
package process
