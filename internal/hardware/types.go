// Package hardware describes the XRandR objects a resolution pass works
// with and the query interface that produces them.
package hardware

import (
	"fmt"
	"strings"

	"github.com/1broseidon/rrtile/internal/ident"
)

// Rotation is the RandR rotation bitmask: one direction bit plus optional
// reflection bits.
type Rotation uint16

const (
	Rotate0   Rotation = 1
	Rotate90  Rotation = 2
	Rotate180 Rotation = 4
	Rotate270 Rotation = 8
	ReflectX  Rotation = 16
	ReflectY  Rotation = 32

	DirectionMask  Rotation = Rotate0 | Rotate90 | Rotate180 | Rotate270
	ReflectionMask Rotation = ReflectX | ReflectY
)

var directions = [4]Rotation{Rotate0, Rotate90, Rotate180, Rotate270}

// Direction returns only the direction bits.
func (r Rotation) Direction() Rotation { return r & DirectionMask }

// Reflection returns only the reflection bits.
func (r Rotation) Reflection() Rotation { return r & ReflectionMask }

// Quarter returns the direction as a count of quarter turns (0..3), or -1
// when no single direction bit is set.
func (r Rotation) Quarter() int {
	for q, d := range directions {
		if r.Direction() == d {
			return q
		}
	}
	return -1
}

// Degrees returns the direction in degrees, or -1 when invalid.
func (r Rotation) Degrees() int {
	q := r.Quarter()
	if q < 0 {
		return -1
	}
	return q * 90
}

// Sideways reports whether the direction is 90 or 270 degrees.
func (r Rotation) Sideways() bool {
	d := r.Direction()
	return d == Rotate90 || d == Rotate270
}

// FromQuarter maps a quarter-turn count (taken mod 4) to a direction bit.
func FromQuarter(q int) Rotation {
	q %= 4
	if q < 0 {
		q += 4
	}
	return directions[q]
}

// FromDegrees maps 0, 90, 180 or 270 to a direction bit.
func FromDegrees(deg int) (Rotation, error) {
	if deg%90 != 0 || deg < 0 || deg > 270 {
		return 0, fmt.Errorf("invalid rotation %d (want 0, 90, 180 or 270)", deg)
	}
	return directions[deg/90], nil
}

// ParseReflection accepts none, x, y or xy.
func ParseReflection(s string) (Rotation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "normal":
		return 0, nil
	case "x":
		return ReflectX, nil
	case "y":
		return ReflectY, nil
	case "xy", "yx":
		return ReflectX | ReflectY, nil
	default:
		return 0, fmt.Errorf("invalid reflection %q (want none, x, y or xy)", s)
	}
}

func (r Rotation) String() string {
	var b strings.Builder
	if deg := r.Degrees(); deg >= 0 {
		fmt.Fprintf(&b, "%d", deg)
	} else {
		b.WriteString("?")
	}
	switch r.Reflection() {
	case ReflectX:
		b.WriteString("+x")
	case ReflectY:
		b.WriteString("+y")
	case ReflectX | ReflectY:
		b.WriteString("+xy")
	}
	return b.String()
}

// Connection is the state of an output's connector.
type Connection uint8

const (
	Connected Connection = iota
	Disconnected
	ConnectionUnknown
)

func (c Connection) String() string {
	switch c {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Mode flag bits relevant to refresh rate computation.
const (
	ModeFlagInterlace  uint32 = 16
	ModeFlagDoubleScan uint32 = 32
)

// Mode is a hardware-reported timing. It is never mutated.
type Mode struct {
	ID         ident.Identifier
	Width      uint16
	Height     uint16
	DotClock   uint32
	HSyncStart uint16
	HSyncEnd   uint16
	HTotal     uint16
	HSkew      uint16
	VSyncStart uint16
	VSyncEnd   uint16
	VTotal     uint16
	Flags      uint32
}

func (m Mode) Ident() ident.Identifier { return m.ID }

// XID returns the mode's X id, 0 when unknown.
func (m Mode) XID() uint32 {
	id, _ := m.ID.ID()
	return id
}

// RefreshRate returns the vertical refresh in Hz.
func (m Mode) RefreshRate() float64 {
	vTotal := float64(m.VTotal)
	if m.Flags&ModeFlagDoubleScan != 0 {
		vTotal *= 2
	}
	if m.Flags&ModeFlagInterlace != 0 {
		vTotal /= 2
	}
	if m.HTotal == 0 || vTotal == 0 {
		return 0
	}
	return float64(m.DotClock) / (float64(m.HTotal) * vTotal)
}

func (m Mode) String() string {
	name, _ := m.ID.Name()
	return fmt.Sprintf("%s %dx%d@%.2f", name, m.Width, m.Height, m.RefreshRate())
}

// Transform is a CRTC's projective transform plus scaling filter.
type Transform struct {
	Matrix [9]float64
	Filter string
	Params []float64
}

// IdentityTransform returns the unit matrix with no filter.
func IdentityTransform() Transform {
	return Transform{Matrix: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// IsIdentity reports whether the matrix is the unit matrix.
func (t Transform) IsIdentity() bool {
	return t.Matrix == IdentityTransform().Matrix
}

// Panning is a CRTC panning area with its tracking area and borders.
type Panning struct {
	Left, Top, Width, Height                         uint16
	TrackLeft, TrackTop, TrackWidth, TrackHeight     uint16
	BorderLeft, BorderTop, BorderRight, BorderBottom int16
}

// IsZero reports whether no panning is configured.
func (p Panning) IsZero() bool { return p == Panning{} }

// CRTC is a scan-out engine as reported by the server.
type CRTC struct {
	ID        ident.Identifier
	Mode      uint32
	X, Y      int16
	Width     uint16
	Height    uint16
	Rotation  Rotation
	Rotations Rotation
	Outputs   []uint32
	Possible  []uint32
	Panning   *Panning
	Current   Transform
	Pending   Transform
	GammaSize int
}

func (c CRTC) Ident() ident.Identifier { return c.ID }

// XID returns the CRTC's X id.
func (c CRTC) XID() uint32 {
	id, _ := c.ID.ID()
	return id
}

// OutputInfo is the server's view of one output.
type OutputInfo struct {
	ID           ident.Identifier
	Connection   Connection
	Crtc         uint32
	MmWidth      uint32
	MmHeight     uint32
	Crtcs        []uint32
	Modes        []uint32
	NumPreferred int
	Clones       []uint32
}

func (o OutputInfo) Ident() ident.Identifier { return o.ID }

// XID returns the output's X id.
func (o OutputInfo) XID() uint32 {
	id, _ := o.ID.ID()
	return id
}

// Name returns the connector name.
func (o OutputInfo) Name() string {
	name, _ := o.ID.Name()
	return name
}

// ScreenBounds holds the screen size limits and its current size.
type ScreenBounds struct {
	MinWidth, MinHeight uint16
	MaxWidth, MaxHeight uint16
	Width, Height       uint16
	MmWidth, MmHeight   uint32
}

// GammaRamp is a sampled per-channel gamma table.
type GammaRamp struct {
	Red, Green, Blue []uint16
}

// Size returns the number of samples per channel.
func (g GammaRamp) Size() int { return len(g.Red) }

// ChangeEvent is a screen change notification for one root window.
type ChangeEvent struct {
	Root     uint32
	Rotation Rotation
	Width    uint16
	Height   uint16
}
