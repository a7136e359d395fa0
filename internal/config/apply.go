package config

import (
	"fmt"

	"github.com/1broseidon/rrtile/internal/gamma"
	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/ident"
	"github.com/1broseidon/rrtile/internal/resolver"
)

// ApplyTo replaces the resolver's explicit requests with the configured
// overrides. The configuration must have passed Validate.
func (c *Config) ApplyTo(r *resolver.Resolver) error {
	r.SetAutomatic(c.Automatic)
	r.ResetRequests()

	for i := range c.Outputs {
		if err := c.Outputs[i].applyTo(r); err != nil {
			return &ValidationError{Path: fmt.Sprintf("outputs.%d", i), Err: err}
		}
	}
	return nil
}

func (o *OutputConfig) applyTo(r *resolver.Resolver) error {
	id, err := ident.Parse(o.Output)
	if err != nil {
		return err
	}
	out := r.Output(id)

	if o.Off {
		out.Disable()
	}
	if o.Crtc != "" {
		crtc, err := ident.Parse(o.Crtc)
		if err != nil {
			return err
		}
		out.SetCrtc(crtc)
	}
	if o.Mode != "" {
		mode, err := ident.Parse(o.Mode)
		if err != nil {
			return err
		}
		out.SetMode(mode)
	}
	if len(o.Pos) == 2 {
		out.SetPosition(o.Pos[0], o.Pos[1])
	}
	if o.Rotate != nil {
		rot, err := hardware.FromDegrees(*o.Rotate)
		if err != nil {
			return err
		}
		out.SetRotation(rot)
	}
	if o.Reflect != nil {
		refl, err := hardware.ParseReflection(*o.Reflect)
		if err != nil {
			return err
		}
		out.SetReflection(refl)
	}

	if o.Gamma != nil || o.Brightness != nil {
		curve := gamma.Identity()
		if len(o.Gamma) == 3 {
			curve.Red, curve.Green, curve.Blue = o.Gamma[0], o.Gamma[1], o.Gamma[2]
		}
		if o.Brightness != nil {
			curve.Brightness = *o.Brightness
		}
		out.SetGamma(curve)
	}
	if o.Transform != nil || o.Filter != nil {
		t := hardware.IdentityTransform()
		if len(o.Transform) == 9 {
			copy(t.Matrix[:], o.Transform)
		}
		if o.Filter != nil {
			t.Filter = *o.Filter
		}
		out.SetTransform(t)
	}
	if o.Panning != nil {
		out.SetPanning(panningFrom(o.Panning))
	}
	if o.Primary != nil {
		out.SetPrimary(*o.Primary)
	}
	return nil
}

// panningFrom builds a panning area from 4, 8 or 12 integers: area, then
// tracking area, then borders. An empty list or an all-zero area disables
// panning.
func panningFrom(v []int) *hardware.Panning {
	if len(v) < 4 {
		return nil
	}
	p := &hardware.Panning{
		Left: uint16(v[0]), Top: uint16(v[1]), Width: uint16(v[2]), Height: uint16(v[3]),
	}
	if len(v) >= 8 {
		p.TrackLeft, p.TrackTop = uint16(v[4]), uint16(v[5])
		p.TrackWidth, p.TrackHeight = uint16(v[6]), uint16(v[7])
	}
	if len(v) >= 12 {
		p.BorderLeft, p.BorderTop = int16(v[8]), int16(v[9])
		p.BorderRight, p.BorderBottom = int16(v[10]), int16(v[11])
	}
	if p.IsZero() {
		return nil
	}
	return p
}
