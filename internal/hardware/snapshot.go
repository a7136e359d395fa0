package hardware

import (
	"fmt"

	"github.com/1broseidon/rrtile/internal/gamma"
	"github.com/1broseidon/rrtile/internal/ident"
)

// Querier is the hardware query interface a resolution pass reads from and
// applies to. Enumeration failures are fatal for the pass; GetGamma and
// GetTransform failures degrade to identity defaults.
type Querier interface {
	QueryScreenBounds() (ScreenBounds, error)
	EnumerateCrtcs() ([]CRTC, error)
	EnumerateOutputs() ([]OutputInfo, error)
	EnumerateModes() ([]Mode, error)
	GetGamma(crtc uint32, size int) (GammaRamp, error)
	// GetTransform returns nil when the CRTC has no transform support.
	GetTransform(crtc uint32) (*Transform, error)
	IsPrimary(output uint32) (bool, error)
	ApplyConfiguration(cfg Configuration) error
}

// Snapshot is everything read from the server for one pass.
type Snapshot struct {
	Bounds  ScreenBounds
	Crtcs   []CRTC
	Outputs []OutputInfo
	Modes   []Mode
}

// Fetch builds a snapshot. Every entity gets its enumeration position as an
// index kind on its identifier.
func Fetch(q Querier) (*Snapshot, error) {
	bounds, err := q.QueryScreenBounds()
	if err != nil {
		return nil, fmt.Errorf("screen bounds: %w", err)
	}
	crtcs, err := q.EnumerateCrtcs()
	if err != nil {
		return nil, fmt.Errorf("enumerate crtcs: %w", err)
	}
	outputs, err := q.EnumerateOutputs()
	if err != nil {
		return nil, fmt.Errorf("enumerate outputs: %w", err)
	}
	modes, err := q.EnumerateModes()
	if err != nil {
		return nil, fmt.Errorf("enumerate modes: %w", err)
	}

	for i := range crtcs {
		crtcs[i].ID.SetIndex(i)
	}
	for i := range outputs {
		outputs[i].ID.SetIndex(i)
	}
	for i := range modes {
		modes[i].ID.SetIndex(i)
	}

	return &Snapshot{
		Bounds:  bounds,
		Crtcs:   crtcs,
		Outputs: outputs,
		Modes:   modes,
	}, nil
}

// Crtc returns the CRTC with the given X id.
func (s *Snapshot) Crtc(xid uint32) (*CRTC, bool) {
	if xid == 0 {
		return nil, false
	}
	_, n, ok := ident.Find(s.Crtcs, ident.ByID(xid))
	if !ok {
		return nil, false
	}
	return &s.Crtcs[n], true
}

// Mode returns the mode with the given X id.
func (s *Snapshot) Mode(xid uint32) (*Mode, bool) {
	if xid == 0 {
		return nil, false
	}
	_, n, ok := ident.Find(s.Modes, ident.ByID(xid))
	if !ok {
		return nil, false
	}
	return &s.Modes[n], true
}

// Output returns the output with the given X id.
func (s *Snapshot) Output(xid uint32) (*OutputInfo, bool) {
	if xid == 0 {
		return nil, false
	}
	_, n, ok := ident.Find(s.Outputs, ident.ByID(xid))
	if !ok {
		return nil, false
	}
	return &s.Outputs[n], true
}

// ModesOf returns the candidate modes of an output in the order the server
// lists them. The first NumPreferred entries are the preferred ones.
func (s *Snapshot) ModesOf(o *OutputInfo) []Mode {
	out := make([]Mode, 0, len(o.Modes))
	for _, id := range o.Modes {
		if m, ok := s.Mode(id); ok {
			out = append(out, *m)
		}
	}
	return out
}

// CrtcsOf returns the candidate CRTCs of an output.
func (s *Snapshot) CrtcsOf(o *OutputInfo) []CRTC {
	out := make([]CRTC, 0, len(o.Crtcs))
	for _, id := range o.Crtcs {
		if c, ok := s.Crtc(id); ok {
			out = append(out, *c)
		}
	}
	return out
}

// Target is the fully determined state of one output.
type Target struct {
	Output    uint32
	Name      string
	Crtc      uint32
	Mode      uint32
	Width     uint16
	Height    uint16
	X, Y      int
	Rotation  Rotation
	Transform Transform
	Panning   *Panning
	Gamma     gamma.Curve
	Primary   bool
}

// Enabled reports whether the target drives a CRTC with a mode.
func (t Target) Enabled() bool { return t.Crtc != 0 && t.Mode != 0 }

// Bounds returns the screen-space rectangle the output covers, with width
// and height swapped for sideways rotations.
func (t Target) Bounds() (x, y, w, h int) {
	w, h = int(t.Width), int(t.Height)
	if t.Rotation.Sideways() {
		w, h = h, w
	}
	return t.X, t.Y, w, h
}

// Configuration is a complete set of targets to apply at once, together
// with the screen size that encloses every enabled target.
type Configuration struct {
	Targets      []Target
	ScreenWidth  int
	ScreenHeight int
}
