package config

import "time"

// RawConfig is the file layer: nil fields were not set and keep their
// defaults.
type RawConfig struct {
	Display        *string        `yaml:"display"`
	Automatic      *bool          `yaml:"automatic"`
	ApplyOnChange  *bool          `yaml:"apply_on_change"`
	LogLevel       *string        `yaml:"log_level"`
	LogFile        *string        `yaml:"log_file"`
	ResyncInterval *time.Duration `yaml:"resync_interval"`
	Refit          *string        `yaml:"refit"`
	Gap            *int           `yaml:"gap"`
	Outputs        []OutputConfig `yaml:"outputs"`
}
