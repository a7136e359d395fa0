package daemon

import (
	"slices"
	"time"

	"github.com/1broseidon/rrtile/internal/resolver"
	"github.com/1broseidon/rrtile/internal/rotation"
	"github.com/1broseidon/rrtile/internal/tiling"
)

// OutputStatus is the resolved state of one output as last seen.
type OutputStatus struct {
	Name      string `json:"name"`
	ID        uint32 `json:"id"`
	Found     bool   `json:"found"`
	Automatic bool   `json:"automatic"`
	Enabled   bool   `json:"enabled"`
	Crtc      uint32 `json:"crtc,omitempty"`
	Mode      uint32 `json:"mode,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Rotation  string `json:"rotation"`
	Primary   bool   `json:"primary"`
	Overrides string `json:"overrides"`
}

// Status is a point-in-time view of the daemon.
type Status struct {
	Started   time.Time        `json:"started"`
	LastScan  time.Time        `json:"last_scan"`
	Scans     int              `json:"scans"`
	Events    int              `json:"events"`
	LastError string           `json:"last_error,omitempty"`
	Screen    [2]int           `json:"screen"`
	Outputs   []OutputStatus   `json:"outputs"`
	Rotations []rotation.Entry `json:"rotations"`
	Regions   []tiling.Region  `json:"regions"`
}

func (s Status) clone() Status {
	s.Outputs = slices.Clone(s.Outputs)
	s.Rotations = slices.Clone(s.Rotations)
	s.Regions = slices.Clone(s.Regions)
	return s
}

func outputStatuses(outputs []*resolver.Output) []OutputStatus {
	out := make([]OutputStatus, 0, len(outputs))
	for _, o := range outputs {
		t := o.Target
		id, _ := o.ID.ID()
		x, y, w, h := t.Bounds()
		out = append(out, OutputStatus{
			Name:      o.Label(),
			ID:        id,
			Found:     o.Found(),
			Automatic: o.Automatic(),
			Enabled:   t.Enabled(),
			Crtc:      t.Crtc,
			Mode:      t.Mode,
			Width:     w,
			Height:    h,
			X:         x,
			Y:         y,
			Rotation:  t.Rotation.String(),
			Primary:   t.Primary,
			Overrides: o.Request().Changes.String(),
		})
	}
	return out
}
