// Package rotation tracks the last observed rotation of every logical
// screen and turns rotation changes into relative quarter-turn steps.
package rotation

import (
	"sort"

	"github.com/1broseidon/rrtile/internal/hardware"
)

// OriginScreen is the screen whose rotation is seeded at startup.
const OriginScreen = 0

// Delta returns the forward number of quarter turns from one direction to
// another, in 1..3. Callers handle equal directions themselves; for those
// Delta returns 4.
func Delta(from, to hardware.Rotation) int {
	f, t := from.Quarter(), to.Quarter()
	if t > f {
		return t - f
	}
	return 4 + t - f
}

// Observation is the outcome of feeding a rotation to the tracker.
type Observation struct {
	// Seeded is set when the screen had no entry yet.
	Seeded bool
	// Changed is set when the rotation differs from the stored one.
	Changed bool
	// Steps is the forward quarter-turn delta when Changed.
	Steps    int
	Previous hardware.Rotation
}

// Tracker maps logical screen ids to their last observed rotation. It is
// owned by a single event handler and is not safe for concurrent use.
type Tracker struct {
	entries map[int]hardware.Rotation
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[int]hardware.Rotation)}
}

// Seed stores the rotation for a screen without computing a delta.
func (t *Tracker) Seed(screen int, r hardware.Rotation) {
	t.entries[screen] = r.Direction()
}

// Get returns the stored rotation for a screen.
func (t *Tracker) Get(screen int) (hardware.Rotation, bool) {
	r, ok := t.entries[screen]
	return r, ok
}

// Observe records a new rotation for a screen. An unseeded screen takes r
// as its baseline and reports no change.
func (t *Tracker) Observe(screen int, r hardware.Rotation) Observation {
	r = r.Direction()
	old, ok := t.entries[screen]
	if !ok {
		t.entries[screen] = r
		return Observation{Seeded: true}
	}
	if old == r {
		return Observation{Previous: old}
	}
	t.entries[screen] = r
	return Observation{Changed: true, Steps: Delta(old, r), Previous: old}
}

// Entry is one screen's stored rotation.
type Entry struct {
	Screen   int
	Rotation hardware.Rotation
}

// Entries returns the stored rotations ordered by screen id.
func (t *Tracker) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for s, r := range t.entries {
		out = append(out, Entry{Screen: s, Rotation: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Screen < out[j].Screen })
	return out
}
