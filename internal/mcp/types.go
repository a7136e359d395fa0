package mcp

import "github.com/1broseidon/rrtile/internal/daemon"

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct {
	Connected bool `json:"connected,omitempty" jsonschema:"When true, only list connected outputs"`
}

// ModeInfo describes one mode an output supports.
type ModeInfo struct {
	ID        uint32  `json:"id"`
	Name      string  `json:"name"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Refresh   float64 `json:"refresh"`
	Preferred bool    `json:"preferred,omitempty"`
	Current   bool    `json:"current,omitempty"`
}

// OutputInfo describes one connector as the server reports it.
type OutputInfo struct {
	ID         uint32     `json:"id"`
	Name       string     `json:"name"`
	Connection string     `json:"connection"`
	Crtc       uint32     `json:"crtc,omitempty"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	Width      int        `json:"width,omitempty"`
	Height     int        `json:"height,omitempty"`
	Rotation   string     `json:"rotation,omitempty"`
	Primary    bool       `json:"primary,omitempty"`
	MmWidth    int        `json:"mm_width,omitempty"`
	MmHeight   int        `json:"mm_height,omitempty"`
	Modes      []ModeInfo `json:"modes,omitempty"`
}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	ScreenWidth  int          `json:"screen_width"`
	ScreenHeight int          `json:"screen_height"`
	Outputs      []OutputInfo `json:"outputs"`
}

// ResolveInput is the input for the resolve_configuration tool.
type ResolveInput struct {
	ConfigPath string `json:"config_path,omitempty" jsonschema:"Configuration file to resolve (default: the rrtile config.yaml)"`
}

// TargetInfo is one resolved output.
type TargetInfo struct {
	Output   string `json:"output"`
	Enabled  bool   `json:"enabled"`
	Crtc     uint32 `json:"crtc,omitempty"`
	Mode     uint32 `json:"mode,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Rotation string `json:"rotation"`
	Primary  bool   `json:"primary,omitempty"`
	Gamma    string `json:"gamma,omitempty"`
}

// ResolveOutput is the output for the resolve_configuration tool.
type ResolveOutput struct {
	ScreenWidth  int          `json:"screen_width"`
	ScreenHeight int          `json:"screen_height"`
	Targets      []TargetInfo `json:"targets"`
	Drift        []string     `json:"drift"`
	Warnings     []string     `json:"warnings,omitempty"`
}

// StatusInput is the input for the status tool.
type StatusInput struct{}

// StatusOutput is the output for the status tool.
type StatusOutput struct {
	Running       bool                  `json:"running"`
	UptimeSeconds int64                 `json:"uptime_seconds,omitempty"`
	Scans         int                   `json:"scans,omitempty"`
	Events        int                   `json:"events,omitempty"`
	LastError     string                `json:"last_error,omitempty"`
	Outputs       []daemon.OutputStatus `json:"outputs,omitempty"`
	Rotations     []RotationInfo        `json:"rotations,omitempty"`
}

// RotationInfo is the last rotation tracked for a logical screen.
type RotationInfo struct {
	Screen   int    `json:"screen"`
	Rotation string `json:"rotation"`
}
