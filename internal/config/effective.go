package config

import "fmt"

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig layers the raw file values over the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.Automatic != nil {
		cfg.Automatic = *raw.Automatic
	}
	if raw.ApplyOnChange != nil {
		cfg.ApplyOnChange = *raw.ApplyOnChange
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.LogFile != nil {
		cfg.LogFile = *raw.LogFile
	}
	if raw.ResyncInterval != nil {
		cfg.ResyncInterval = *raw.ResyncInterval
	}
	if raw.Refit != nil {
		cfg.Refit = *raw.Refit
	}
	if raw.Gap != nil {
		cfg.Gap = *raw.Gap
	}
	if raw.Outputs != nil {
		cfg.Outputs = raw.Outputs
	}
	return cfg
}
