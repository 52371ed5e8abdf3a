package ffmpeg

import "strings"

// ParseLogLevel splits an ffmpeg stderr line written with -loglevel level+info.
//
//	[info] message                      -> "info", "message"
//	[h264 @ 0x5581] [warning] message   -> "warning", "[h264 @ 0x5581] message"
//
// The component prefix is kept, only the level tag is removed. Periodic
// frame= statistics are demoted to "verbose" so they stay out of info logs.
// Lines without a level tag are "info".
func ParseLogLevel(line string) (level, msg string) {
	level, msg = "info", line

	rest, component := line, ""
	if tag, after, ok := cutTag(rest); ok && !isLogLevel(tag) {
		component = "[" + tag + "] "
		rest = after
	}
	if tag, after, ok := cutTag(rest); ok && isLogLevel(tag) {
		level, msg = tag, component+after
	}

	if level == "info" && isStatsLine(msg) {
		level = "verbose"
	}
	return level, msg
}

// cutTag splits "[tag] rest".
func cutTag(s string) (tag, rest string, ok bool) {
	if !strings.HasPrefix(s, "[") {
		return "", s, false
	}
	tag, rest, ok = strings.Cut(s[1:], "] ")
	if !ok || tag == "" {
		return "", s, false
	}
	return tag, rest, true
}

func isStatsLine(msg string) bool {
	return strings.HasPrefix(msg, "frame=") && strings.Contains(msg, "fps=")
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}
