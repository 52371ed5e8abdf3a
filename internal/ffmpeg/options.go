package ffmpeg

import (
	"fmt"
	"strings"
)

// OptionType is a decoder input flag.
type OptionType string

// Decoder input options.
const (
	OptionGeneratePTS     OptionType = "genpts"
	OptionIgnoreDTS       OptionType = "igndts"
	OptionIgnoreErrors    OptionType = "ignore_err"
	OptionRealtime        OptionType = "realtime"
	OptionThreadQueue1024 OptionType = "thread_queue_1024"
	OptionThreadQueue4096 OptionType = "thread_queue_4096"
	OptionLowLatency      OptionType = "low_latency"
)

// OptionCategory groups options for display.
type OptionCategory string

// Option categories.
const (
	CategoryTiming      OptionCategory = "Timing"
	CategoryErrorHandle OptionCategory = "Error Handling"
	CategoryPerformance OptionCategory = "Performance"
)

// ExclusiveGroup names options of which at most one may be selected.
type ExclusiveGroup string

// Exclusive groups.
const (
	GroupThreadQueue ExclusiveGroup = "thread_queue"
)

// Option describes a decoder flag.
type Option struct {
	Key            OptionType
	Name           string
	Description    string
	Category       OptionCategory
	AppDefault     bool
	ExclusiveGroup ExclusiveGroup
	ConflictsWith  []OptionType
}

// AllOptions lists every decoder flag.
var AllOptions = []Option{
	{
		Key:         OptionGeneratePTS,
		Name:        "Generate PTS",
		Description: "Generate missing presentation timestamps",
		Category:    CategoryTiming,
	},
	{
		Key:           OptionIgnoreDTS,
		Name:          "Ignore DTS",
		Description:   "Ignore decode timestamps of corrupted inputs",
		Category:      CategoryErrorHandle,
		ConflictsWith: []OptionType{OptionRealtime},
	},
	{
		Key:         OptionIgnoreErrors,
		Name:        "Ignore Errors",
		Description: "Keep decoding across bitstream errors",
		Category:    CategoryErrorHandle,
	},
	{
		Key:         OptionRealtime,
		Name:        "Realtime",
		Description: "Read the input at its native frame rate",
		Category:    CategoryTiming,
	},
	{
		Key:            OptionThreadQueue1024,
		Name:           "Large Thread Queue",
		Description:    "Use a 1024 packet input queue",
		Category:       CategoryPerformance,
		AppDefault:     true,
		ExclusiveGroup: GroupThreadQueue,
	},
	{
		Key:            OptionThreadQueue4096,
		Name:           "Extra Large Thread Queue",
		Description:    "Use a 4096 packet input queue",
		Category:       CategoryPerformance,
		ExclusiveGroup: GroupThreadQueue,
	},
	{
		Key:         OptionLowLatency,
		Name:        "Low Latency Mode",
		Description: "Flush packets and decode with low delay",
		Category:    CategoryPerformance,
	},
}

// GetOptionByKey returns an option by its key
func GetOptionByKey(key OptionType) *Option {
	for i := range AllOptions {
		if AllOptions[i].Key == key {
			return &AllOptions[i]
		}
	}
	return nil
}

// ParseOptions converts option keys to OptionTypes, rejecting unknown keys.
func ParseOptions(keys []string) ([]OptionType, error) {
	options := make([]OptionType, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if GetOptionByKey(OptionType(key)) == nil {
			return nil, fmt.Errorf("unknown ffmpeg option %q", key)
		}
		options = append(options, OptionType(key))
	}
	return options, nil
}

// ValidateOptions checks for conflicts and exclusive group violations
func ValidateOptions(selected []OptionType) error {
	groups := make(map[ExclusiveGroup][]string)
	selectedSet := make(map[OptionType]bool)

	for _, key := range selected {
		option := GetOptionByKey(key)
		if option == nil {
			return fmt.Errorf("unknown ffmpeg option %q", key)
		}
		selectedSet[key] = true
		if option.ExclusiveGroup != "" {
			groups[option.ExclusiveGroup] = append(groups[option.ExclusiveGroup], option.Name)
		}
	}

	for group, names := range groups {
		if len(names) > 1 {
			return fmt.Errorf("multiple options from exclusive group '%s' selected: %s", group, strings.Join(names, ", "))
		}
	}

	for _, key := range selected {
		option := GetOptionByKey(key)
		for _, conflict := range option.ConflictsWith {
			if selectedSet[conflict] {
				return fmt.Errorf("option '%s' conflicts with '%s'", option.Name, GetOptionByKey(conflict).Name)
			}
		}
	}

	return nil
}

// GetDefaultOptions returns the options enabled by default.
func GetDefaultOptions() []OptionType {
	var defaults []OptionType
	for _, option := range AllOptions {
		if option.AppDefault {
			defaults = append(defaults, option.Key)
		}
	}
	return defaults
}

// inputArgs returns the arguments options contribute before -i.
func inputArgs(options []OptionType) []string {
	var args []string
	var fflags []string

	for _, option := range options {
		switch option {
		case OptionGeneratePTS:
			fflags = append(fflags, "+genpts")
		case OptionIgnoreDTS:
			fflags = append(fflags, "+igndts")
		case OptionIgnoreErrors:
			args = append(args, "-err_detect", "ignore_err")
		case OptionRealtime:
			args = append(args, "-re")
		case OptionThreadQueue1024:
			args = append(args, "-thread_queue_size", "1024")
		case OptionThreadQueue4096:
			args = append(args, "-thread_queue_size", "4096")
		case OptionLowLatency:
			fflags = append(fflags, "+flush_packets")
			args = append(args, "-flags", "+low_delay")
		}
	}

	if len(fflags) > 0 {
		args = append(args, "-fflags", strings.Join(fflags, ""))
	}
	return args
}
