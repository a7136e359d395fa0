package resolver

import (
	"fmt"

	"github.com/1broseidon/rrtile/internal/hardware"
)

// Drift lists how the plan differs from the hardware state it was resolved
// against: screen size, CRTC binding, mode, position, rotation, transform and
// panning. Gamma and the primary flag are not compared. An empty result
// means applying the plan would not change the layout.
func (p *Plan) Drift() []string {
	var out []string
	b := p.Snapshot.Bounds
	if p.ScreenWidth != int(b.Width) || p.ScreenHeight != int(b.Height) {
		out = append(out, fmt.Sprintf("screen %dx%d -> %dx%d", b.Width, b.Height, p.ScreenWidth, p.ScreenHeight))
	}

	for _, t := range p.Targets {
		info, ok := p.Snapshot.Output(t.Output)
		if !ok {
			continue
		}
		var current *hardware.CRTC
		if c, ok := p.Snapshot.Crtc(info.Crtc); ok && c.Mode != 0 {
			current = c
		}

		switch {
		case current == nil && !t.Enabled():
		case current == nil:
			out = append(out, fmt.Sprintf("%s: enable on crtc 0x%x", t.Name, t.Crtc))
		case !t.Enabled():
			out = append(out, fmt.Sprintf("%s: disable", t.Name))
		default:
			if d := crtcDrift(t, current); d != "" {
				out = append(out, t.Name+": "+d)
			}
		}
	}
	return out
}

func crtcDrift(t hardware.Target, c *hardware.CRTC) string {
	switch {
	case c.XID() != t.Crtc:
		return fmt.Sprintf("crtc 0x%x -> 0x%x", c.XID(), t.Crtc)
	case c.Mode != t.Mode:
		return fmt.Sprintf("mode 0x%x -> 0x%x", c.Mode, t.Mode)
	case int(c.X) != t.X || int(c.Y) != t.Y:
		return fmt.Sprintf("position %d,%d -> %d,%d", c.X, c.Y, t.X, t.Y)
	case c.Rotation != t.Rotation:
		return fmt.Sprintf("rotation %s -> %s", c.Rotation, t.Rotation)
	case c.Current.Matrix != t.Transform.Matrix || c.Current.Filter != t.Transform.Filter:
		return "transform"
	case !samePanning(c.Panning, t.Panning):
		return "panning"
	}
	return ""
}

func samePanning(a, b *hardware.Panning) bool {
	if a == nil || b == nil {
		return (a == nil || a.IsZero()) && (b == nil || b.IsZero())
	}
	return *a == *b
}
