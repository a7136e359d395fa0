package resolver

import (
	"strings"

	"github.com/1broseidon/rrtile/internal/hardware"
)

// preferredMode picks the mode closest to the screen's pixel density. Modes
// the output flags as preferred have distance 0; the first minimum wins.
func preferredMode(b hardware.ScreenBounds, info *hardware.OutputInfo, candidates []hardware.Mode) (*hardware.Mode, bool) {
	best := -1
	bestDist := 0
	for i, m := range candidates {
		var dist int
		switch {
		case i < info.NumPreferred:
			dist = 0
		case info.MmHeight != 0 && b.MmHeight != 0:
			dist = 1000*int(b.Height)/int(b.MmHeight) - 1000*int(m.Height)/int(info.MmHeight)
		default:
			dist = int(b.Height) - int(m.Height)
		}
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return nil, false
	}
	m := candidates[best]
	return &m, true
}

// outputRotations returns the rotations every candidate CRTC of the output
// supports. Offering only the common subset keeps a rotation valid no
// matter which CRTC ends up driving the output.
func outputRotations(snap *hardware.Snapshot, info *hardware.OutputInfo) hardware.Rotation {
	allowed := hardware.DirectionMask | hardware.ReflectionMask
	for _, c := range snap.CrtcsOf(info) {
		allowed &= c.Rotations
	}
	return allowed
}

func canUseRotation(allowed, r hardware.Rotation) bool {
	if allowed&r.Direction() == 0 {
		return false
	}
	return allowed&r.Reflection() == r.Reflection()
}

func describeRotations(allowed hardware.Rotation) string {
	var parts []string
	for _, d := range []hardware.Rotation{hardware.Rotate0, hardware.Rotate90, hardware.Rotate180, hardware.Rotate270} {
		if allowed&d != 0 {
			parts = append(parts, d.String())
		}
	}
	if allowed&hardware.ReflectX != 0 {
		parts = append(parts, "reflect-x")
	}
	if allowed&hardware.ReflectY != 0 {
		parts = append(parts, "reflect-y")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
