package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/recsign/internal/logging"
	"github.com/smazurov/recsign/internal/overlay"
)

// OverlaySection is the [overlay] table of the config file.
type OverlaySection struct {
	Show     *bool  `toml:"show"`
	Silent   *bool  `toml:"silent"`
	Standard string `toml:"standard"`
	Range    string `toml:"range"`
}

// FileSettings is the part of the config file that can change while running.
type FileSettings struct {
	Overlay overlay.Settings
	Logging logging.Config
}

// LoadFileSettings reads the [overlay] and [logging] tables of path on top of
// defaults. Keys absent from the file keep their default value.
func LoadFileSettings(path string, defaults overlay.Settings) (FileSettings, error) {
	settings := FileSettings{
		Overlay: defaults,
		Logging: logging.Config{
			Level:   "info",
			Format:  "text",
			Modules: make(map[string]string),
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var raw struct {
		Overlay OverlaySection    `toml:"overlay"`
		Logging map[string]string `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return settings, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	if err := raw.Overlay.apply(&settings.Overlay); err != nil {
		return settings, err
	}

	// level and format are global, every other key names a module
	for key, value := range raw.Logging {
		switch key {
		case "level":
			settings.Logging.Level = value
		case "format":
			settings.Logging.Format = value
		default:
			settings.Logging.Modules[key] = value
		}
	}

	return settings, nil
}

func (s OverlaySection) apply(dst *overlay.Settings) error {
	if s.Show != nil {
		dst.Show = *s.Show
	}
	if s.Silent != nil {
		dst.Silent = *s.Silent
	}
	if s.Standard != "" {
		std, err := overlay.ParseStandard(s.Standard)
		if err != nil {
			return err
		}
		dst.Standard = std
	}
	if s.Range != "" {
		rng, err := overlay.ParseRange(s.Range)
		if err != nil {
			return err
		}
		dst.Range = rng
	}
	return nil
}
