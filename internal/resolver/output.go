package resolver

import (
	"strings"

	"github.com/1broseidon/rrtile/internal/gamma"
	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/ident"
)

// Field names one overridable property of an output. A set of fields
// records which properties the caller specified explicitly.
type Field uint16

const (
	FieldCrtc Field = 1 << iota
	FieldMode
	FieldPosition
	FieldRotation
	FieldReflection
	FieldTransform
	FieldPanning
	FieldGamma
	FieldPrimary
	FieldAutomatic
)

var fieldNames = []struct {
	f    Field
	name string
}{
	{FieldCrtc, "crtc"},
	{FieldMode, "mode"},
	{FieldPosition, "position"},
	{FieldRotation, "rotation"},
	{FieldReflection, "reflection"},
	{FieldTransform, "transform"},
	{FieldPanning, "panning"},
	{FieldGamma, "gamma"},
	{FieldPrimary, "primary"},
	{FieldAutomatic, "automatic"},
}

// Has reports whether every field in f is present.
func (s Field) Has(f Field) bool { return s&f == f }

func (s Field) String() string {
	var parts []string
	for _, fn := range fieldNames {
		if s&fn.f != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Request is the explicitly requested state of an output. Only fields whose
// bit is set in Changes are meaningful.
type Request struct {
	Changes    Field
	Crtc       ident.Identifier
	Mode       ident.Identifier
	X, Y       int
	Rotation   hardware.Rotation
	Reflection hardware.Rotation
	Transform  hardware.Transform
	Panning    *hardware.Panning
	Gamma      gamma.Curve
	Primary    bool
}

// Output is the planning unit for one connector. It persists across passes
// once its identifier has been seen.
type Output struct {
	ID ident.Identifier

	// Info is the latest hardware view; nil until the output is found.
	Info *hardware.OutputInfo

	request   Request
	automatic bool
	found     bool
	seen      bool

	// Target is the result of the latest successful pass.
	Target hardware.Target
}

func (o *Output) Ident() ident.Identifier { return o.ID }

// Request returns a copy of the explicit request.
func (o *Output) Request() Request { return o.request }

// Found reports whether the output was present in the latest pass.
func (o *Output) Found() bool { return o.found }

// Automatic reports whether the output follows its connection state. Only
// outputs discovered out of step with their connector do.
func (o *Output) Automatic() bool { return o.automatic }

// Label returns the most readable identity available.
func (o *Output) Label() string {
	if name, ok := o.ID.Name(); ok {
		return name
	}
	return o.ID.String()
}

// SetCrtc requests a specific CRTC.
func (o *Output) SetCrtc(id ident.Identifier) {
	o.request.Crtc = id
	o.request.Changes |= FieldCrtc
}

// SetMode requests a mode; use ident.Preferred() for the preferred one.
func (o *Output) SetMode(id ident.Identifier) {
	o.request.Mode = id
	o.request.Changes |= FieldMode
}

// SetPosition requests a screen position.
func (o *Output) SetPosition(x, y int) {
	o.request.X, o.request.Y = x, y
	o.request.Changes |= FieldPosition
}

// SetRotation requests a direction. Reflection bits are ignored.
func (o *Output) SetRotation(r hardware.Rotation) {
	o.request.Rotation = r.Direction()
	o.request.Changes |= FieldRotation
}

// SetReflection requests reflection bits. Direction bits are ignored.
func (o *Output) SetReflection(r hardware.Rotation) {
	o.request.Reflection = r.Reflection()
	o.request.Changes |= FieldReflection
}

// SetTransform requests a transform.
func (o *Output) SetTransform(t hardware.Transform) {
	o.request.Transform = t
	o.request.Changes |= FieldTransform
}

// SetPanning requests a panning area; nil disables panning.
func (o *Output) SetPanning(p *hardware.Panning) {
	o.request.Panning = p
	o.request.Changes |= FieldPanning
}

// SetGamma requests a gamma curve.
func (o *Output) SetGamma(c gamma.Curve) {
	o.request.Gamma = c
	o.request.Changes |= FieldGamma
}

// SetPrimary requests the primary flag.
func (o *Output) SetPrimary(primary bool) {
	o.request.Primary = primary
	o.request.Changes |= FieldPrimary
}

// Disable turns the output off: no CRTC and no mode.
func (o *Output) Disable() {
	o.request.Crtc = ident.Identifier{}
	o.request.Mode = ident.Identifier{}
	o.request.Changes |= FieldCrtc | FieldMode
}

// effective applies the automatic policy for this pass to a copy of the
// explicit request. Any explicit override opts the output out.
func (o *Output) effective() Request {
	req := o.request
	if !o.automatic || o.Info == nil || req.Changes != 0 {
		return req
	}
	switch o.Info.Connection {
	case hardware.Connected, hardware.ConnectionUnknown:
		req.Mode = ident.Preferred()
		req.Changes |= FieldMode | FieldAutomatic
	case hardware.Disconnected:
		req.Mode = ident.Identifier{}
		req.Crtc = ident.Identifier{}
		req.Changes |= FieldMode | FieldCrtc | FieldAutomatic
	}
	return req
}
