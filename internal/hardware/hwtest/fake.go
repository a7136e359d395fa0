// Package hwtest provides an in-memory hardware.Querier for tests.
package hwtest

import (
	"errors"
	"fmt"
	"slices"

	"github.com/1broseidon/rrtile/internal/gamma"
	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/ident"
)

// Fake serves a fixed set of entities and records applied configurations.
type Fake struct {
	Bounds  hardware.ScreenBounds
	Crtcs   []hardware.CRTC
	Outputs []hardware.OutputInfo
	Modes   []hardware.Mode
	Primary uint32

	// Gamma curves keyed by CRTC id; ramps are generated on demand.
	Gamma map[uint32]gamma.Curve

	// Errors injected per call.
	EnumerateErr error
	GammaErr     error
	TransformErr error
	ApplyErr     error

	Applied []hardware.Configuration
}

// ErrInjected is a convenient error for failure injection.
var ErrInjected = errors.New("injected failure")

func (f *Fake) QueryScreenBounds() (hardware.ScreenBounds, error) {
	return f.Bounds, nil
}

func (f *Fake) EnumerateCrtcs() ([]hardware.CRTC, error) {
	if f.EnumerateErr != nil {
		return nil, f.EnumerateErr
	}
	return slices.Clone(f.Crtcs), nil
}

func (f *Fake) EnumerateOutputs() ([]hardware.OutputInfo, error) {
	if f.EnumerateErr != nil {
		return nil, f.EnumerateErr
	}
	return slices.Clone(f.Outputs), nil
}

func (f *Fake) EnumerateModes() ([]hardware.Mode, error) {
	return slices.Clone(f.Modes), nil
}

func (f *Fake) GetGamma(crtc uint32, size int) (hardware.GammaRamp, error) {
	if f.GammaErr != nil {
		return hardware.GammaRamp{}, f.GammaErr
	}
	c, ok := f.Gamma[crtc]
	if !ok {
		c = gamma.Identity()
	}
	r, g, b := gamma.Ramp(size, c)
	return hardware.GammaRamp{Red: r, Green: g, Blue: b}, nil
}

func (f *Fake) GetTransform(crtc uint32) (*hardware.Transform, error) {
	if f.TransformErr != nil {
		return nil, f.TransformErr
	}
	for _, c := range f.Crtcs {
		if c.XID() == crtc {
			t := c.Current
			return &t, nil
		}
	}
	return nil, nil
}

func (f *Fake) IsPrimary(output uint32) (bool, error) {
	return f.Primary != 0 && f.Primary == output, nil
}

func (f *Fake) ApplyConfiguration(cfg hardware.Configuration) error {
	if f.ApplyErr != nil {
		return f.ApplyErr
	}
	f.Applied = append(f.Applied, cfg)
	return nil
}

// Named returns an identifier with both an XID and a name.
func Named(id uint32, name string) ident.Identifier {
	i := ident.ByID(id)
	i.SetName(name)
	return i
}

// Mode returns a 60Hz-ish mode with the given id and size.
func Mode(id uint32, w, h uint16) hardware.Mode {
	return hardware.Mode{
		ID:       Named(id, fmt.Sprintf("%dx%d", w, h)),
		Width:    w,
		Height:   h,
		DotClock: uint32(w) * uint32(h) * 60,
		HTotal:   w,
		VTotal:   h,
	}
}

// Crtc returns a CRTC with an identity transform and all rotations.
func Crtc(id uint32) hardware.CRTC {
	return hardware.CRTC{
		ID:        ident.ByID(id),
		Rotation:  hardware.Rotate0,
		Rotations: hardware.DirectionMask | hardware.ReflectionMask,
		Current:   hardware.IdentityTransform(),
		Pending:   hardware.IdentityTransform(),
		GammaSize: 256,
	}
}

// Laptop is a two-output setup: eDP-1 (0x40) driven by CRTC 0x10 at
// 1920x1080, HDMI-1 (0x41) disconnected, CRTC 0x11 idle.
func Laptop() *Fake {
	edp := Crtc(0x10)
	edp.Mode = 0x100
	edp.Width, edp.Height = 1920, 1080
	edp.Outputs = []uint32{0x40}
	edp.Possible = []uint32{0x40, 0x41}

	idle := Crtc(0x11)
	idle.Possible = []uint32{0x40, 0x41}

	return &Fake{
		Bounds: hardware.ScreenBounds{
			MinWidth: 320, MinHeight: 200,
			MaxWidth: 8192, MaxHeight: 8192,
			Width: 1920, Height: 1080,
			MmWidth: 508, MmHeight: 286,
		},
		Crtcs: []hardware.CRTC{edp, idle},
		Outputs: []hardware.OutputInfo{
			{
				ID:           Named(0x40, "eDP-1"),
				Connection:   hardware.Connected,
				Crtc:         0x10,
				MmWidth:      344,
				MmHeight:     194,
				Crtcs:        []uint32{0x10, 0x11},
				Modes:        []uint32{0x100, 0x101, 0x102},
				NumPreferred: 1,
			},
			{
				ID:         Named(0x41, "HDMI-1"),
				Connection: hardware.Disconnected,
				Crtcs:      []uint32{0x10, 0x11},
			},
		},
		Modes: []hardware.Mode{
			Mode(0x100, 1920, 1080),
			Mode(0x101, 1280, 720),
			Mode(0x102, 1024, 768),
			Mode(0x103, 2560, 1440),
		},
		Primary: 0x40,
		Gamma:   map[uint32]gamma.Curve{0x10: gamma.Identity()},
	}
}
