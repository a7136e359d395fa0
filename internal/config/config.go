// Package config loads the rrtile YAML configuration: global policy plus
// per-output overrides handed to the resolver.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/ident"
)

const appName = "rrtile"

// Refit modes accepted by the refit key.
const (
	RefitRotate = "rotate"
	RefitScale  = "scale"
	RefitGrid   = "grid"
)

// Config is the effective configuration.
type Config struct {
	Display        string         `yaml:"display,omitempty"`
	Automatic      bool           `yaml:"automatic"`
	ApplyOnChange  bool           `yaml:"apply_on_change"`
	LogLevel       string         `yaml:"log_level"`
	LogFile        string         `yaml:"log_file,omitempty"`
	ResyncInterval time.Duration  `yaml:"resync_interval"`
	Refit          string         `yaml:"refit"`
	Gap            int            `yaml:"gap"`
	Outputs        []OutputConfig `yaml:"outputs,omitempty"`
}

// OutputConfig holds the overrides for one output. Unset fields are left
// for the resolver to infer.
type OutputConfig struct {
	Output     string    `yaml:"output"`
	Crtc       string    `yaml:"crtc,omitempty"`
	Mode       string    `yaml:"mode,omitempty"`
	Pos        []int     `yaml:"pos,omitempty,flow"`
	Rotate     *int      `yaml:"rotate,omitempty"`
	Reflect    *string   `yaml:"reflect,omitempty"`
	Gamma      []float64 `yaml:"gamma,omitempty,flow"`
	Brightness *float64  `yaml:"brightness,omitempty"`
	Transform  []float64 `yaml:"transform,omitempty,flow"`
	Filter     *string   `yaml:"filter,omitempty"`
	Panning    []int     `yaml:"panning,omitempty,flow"`
	Primary    *bool     `yaml:"primary,omitempty"`
	Off        bool      `yaml:"off,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Automatic:     true,
		ApplyOnChange: true,
		LogLevel:      "info",
		Refit:         RefitRotate,
	}
}

// ConfigDir returns the rrtile configuration directory, honouring
// XDG_CONFIG_HOME.
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// DefaultConfigPath returns the path of config.yaml in ConfigDir.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Validate checks every key and returns the first problem as a
// ValidationError.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	switch c.Refit {
	case RefitRotate, RefitScale, RefitGrid:
	default:
		return &ValidationError{Path: "refit", Err: fmt.Errorf("refit must be one of: rotate, scale, grid")}
	}
	if c.Gap < 0 {
		return &ValidationError{Path: "gap", Err: fmt.Errorf("gap must be >= 0")}
	}
	if c.ResyncInterval < 0 {
		return &ValidationError{Path: "resync_interval", Err: fmt.Errorf("resync_interval must be >= 0")}
	}

	seen := make(map[string]int)
	primaries := 0
	for i := range c.Outputs {
		o := &c.Outputs[i]
		if err := o.validate(fmt.Sprintf("outputs.%d", i)); err != nil {
			return err
		}
		key := strings.TrimSpace(o.Output)
		if prev, ok := seen[key]; ok {
			return &ValidationError{Path: fmt.Sprintf("outputs.%d.output", i), Err: fmt.Errorf("output %q already configured in outputs.%d", key, prev)}
		}
		seen[key] = i
		if o.Primary != nil && *o.Primary {
			primaries++
		}
	}
	if primaries > 1 {
		return &ValidationError{Path: "outputs", Err: fmt.Errorf("%d outputs are marked primary", primaries)}
	}
	return nil
}

func (o *OutputConfig) validate(path string) error {
	fail := func(field string, format string, args ...any) error {
		return &ValidationError{Path: path + "." + field, Err: fmt.Errorf(format, args...)}
	}

	id, err := ident.Parse(o.Output)
	if err != nil {
		return fail("output", "%v", err)
	}
	if id.IsPreferred() {
		return fail("output", "\"preferred\" names a mode, not an output")
	}
	if o.Crtc != "" {
		id, err := ident.Parse(o.Crtc)
		if err != nil {
			return fail("crtc", "%v", err)
		}
		if id.IsPreferred() {
			return fail("crtc", "\"preferred\" names a mode, not a crtc")
		}
	}
	if o.Mode != "" {
		if _, err := ident.Parse(o.Mode); err != nil {
			return fail("mode", "%v", err)
		}
	}
	if o.Off && (o.Crtc != "" || o.Mode != "") {
		return fail("off", "off cannot be combined with crtc or mode")
	}
	if o.Pos != nil && len(o.Pos) != 2 {
		return fail("pos", "pos must be [x, y]")
	}
	if o.Rotate != nil {
		if _, err := hardware.FromDegrees(*o.Rotate); err != nil {
			return fail("rotate", "%v", err)
		}
	}
	if o.Reflect != nil {
		if _, err := hardware.ParseReflection(*o.Reflect); err != nil {
			return fail("reflect", "%v", err)
		}
	}
	if o.Gamma != nil {
		if len(o.Gamma) != 3 {
			return fail("gamma", "gamma must be [red, green, blue]")
		}
		for _, g := range o.Gamma {
			if g <= 0 {
				return fail("gamma", "gamma exponents must be > 0")
			}
		}
	}
	if o.Brightness != nil && (*o.Brightness < 0 || *o.Brightness > 1) {
		return fail("brightness", "brightness must be within [0, 1]")
	}
	if o.Transform != nil && len(o.Transform) != 9 {
		return fail("transform", "transform must have 9 entries (row major 3x3)")
	}
	switch len(o.Panning) {
	case 0, 4, 8, 12:
	default:
		return fail("panning", "panning must have 4, 8 or 12 entries")
	}
	return nil
}
