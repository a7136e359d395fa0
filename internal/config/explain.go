package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	display
//	automatic
//	apply_on_change
//	log_level
//	log_file
//	resync_interval
//	refit
//	gap
//	outputs
//	outputs.<n>
//	outputs.<n>.<field>
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if parts[0] != "outputs" && len(parts) != 1 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	switch parts[0] {
	case "display":
		return cfg.Display, nil
	case "automatic":
		return cfg.Automatic, nil
	case "apply_on_change":
		return cfg.ApplyOnChange, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "log_file":
		return cfg.LogFile, nil
	case "resync_interval":
		return cfg.ResyncInterval, nil
	case "refit":
		return cfg.Refit, nil
	case "gap":
		return cfg.Gap, nil
	case "outputs":
		return lookupOutput(cfg, path, parts[1:])
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}

func lookupOutput(cfg *Config, path string, parts []string) (any, error) {
	if len(parts) == 0 {
		return cfg.Outputs, nil
	}
	i, err := strconv.Atoi(parts[0])
	if err != nil || i < 0 || i >= len(cfg.Outputs) {
		return nil, fmt.Errorf("unknown outputs entry %q", parts[0])
	}
	o := cfg.Outputs[i]
	if len(parts) == 1 {
		return o, nil
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	switch parts[1] {
	case "output":
		return o.Output, nil
	case "crtc":
		return o.Crtc, nil
	case "mode":
		return o.Mode, nil
	case "pos":
		return o.Pos, nil
	case "rotate":
		return derefOrNil(o.Rotate), nil
	case "reflect":
		return derefOrNil(o.Reflect), nil
	case "gamma":
		return o.Gamma, nil
	case "brightness":
		return derefOrNil(o.Brightness), nil
	case "transform":
		return o.Transform, nil
	case "filter":
		return derefOrNil(o.Filter), nil
	case "panning":
		return o.Panning, nil
	case "primary":
		return derefOrNil(o.Primary), nil
	case "off":
		return o.Off, nil
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}

func derefOrNil[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
