package tiling

import (
	"fmt"
	"log"
	"sync"

	"github.com/1broseidon/rrtile/internal/platform"
)

// RefitMode selects how managed windows follow a region change.
type RefitMode string

const (
	// RefitRotate turns window placement with the screen, then scales it.
	RefitRotate RefitMode = "rotate"
	// RefitScale keeps relative placement and ignores rotation.
	RefitScale RefitMode = "scale"
	// RefitGrid re-tiles all windows of the region in a grid.
	RefitGrid RefitMode = "grid"
)

// Valid reports whether m is a known mode.
func (m RefitMode) Valid() bool {
	switch m {
	case RefitRotate, RefitScale, RefitGrid:
		return true
	}
	return false
}

// Handle identifies a region.
type Handle int

// Region is a logical screen: the window-manager side of one display.
type Region struct {
	Handle Handle
	Screen int
	Root   uint32
	Output string
	Rect   Rect
}

// Options tune refitting.
type Options struct {
	Mode RefitMode
	Gap  int
}

type regionState struct {
	Region
	// prev is the frame managed windows were laid out in before the last
	// resize; consumed by the next refit.
	prev *Rect
}

// Tiler manages logical screen regions and the windows inside them.
type Tiler struct {
	mu      sync.RWMutex
	backend platform.Backend
	opts    Options
	regions []*regionState
	next    Handle
}

// NewTiler creates a region manager that moves windows through backend.
func NewTiler(backend platform.Backend, opts Options) *Tiler {
	if opts.Mode == "" {
		opts.Mode = RefitRotate
	}
	return &Tiler{
		backend: backend,
		opts:    opts,
		next:    1,
	}
}

// SetOptions replaces the refit options.
func (t *Tiler) SetOptions(opts Options) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if opts.Mode == "" {
		opts.Mode = RefitRotate
	}
	t.opts = opts
}

// CreateRegion adds a region and returns its handle.
func (t *Tiler) CreateRegion(r Region) (Handle, error) {
	if r.Rect.Empty() {
		return 0, fmt.Errorf("region for screen %d has no area: %s", r.Screen, r.Rect)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	r.Handle = t.next
	t.next++
	t.regions = append(t.regions, &regionState{Region: r})
	log.Printf("Created region %d for screen %d (%s) at %s", r.Handle, r.Screen, r.Output, r.Rect)
	return r.Handle, nil
}

// ResizeRegion changes a region's rectangle. Windows are not moved until
// RefitManaged is called.
func (t *Tiler) ResizeRegion(h Handle, rect Rect) error {
	if rect.Empty() {
		return fmt.Errorf("region %d: empty rect %s", h, rect)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rs, err := t.findLocked(h)
	if err != nil {
		return err
	}
	if rs.Rect == rect {
		return nil
	}
	if rs.prev == nil {
		prev := rs.Rect
		rs.prev = &prev
	}
	rs.Rect = rect
	return nil
}

// RefitManaged moves the windows managed by a region into rect. When
// quarters is non-nil the layout is turned by that many counter-clockwise
// quarter turns first.
func (t *Tiler) RefitManaged(h Handle, rect Rect, quarters *int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rs, err := t.findLocked(h)
	if err != nil {
		return err
	}

	from := rs.Rect
	if rs.prev != nil {
		from = *rs.prev
		rs.prev = nil
	}
	rs.Rect = rect

	windows, err := t.backend.Windows()
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}

	// Windows belong to the region of the same root they overlap most,
	// measured against the frame they were laid out in.
	var frames []Rect
	self := -1
	for _, other := range t.regions {
		if other.Root != rs.Root {
			continue
		}
		if other == rs {
			self = len(frames)
			frames = append(frames, from)
			continue
		}
		frames = append(frames, other.Rect)
	}

	var owned []platform.Window
	for _, w := range windows {
		if LargestOverlap(rectFromPlatform(w.Bounds), frames) == self {
			owned = append(owned, w)
		}
	}
	if len(owned) == 0 {
		return nil
	}

	q := 0
	if quarters != nil {
		q = *quarters
	}
	log.Printf("Refitting %d window(s) of region %d from %s to %s (mode %s, quarters %d)",
		len(owned), h, from, rect, t.opts.Mode, q)

	targets := make([]Rect, len(owned))
	switch t.opts.Mode {
	case RefitGrid:
		positions, err := CalculatePositions(len(owned), rect, t.opts.Gap)
		if err != nil {
			return err
		}
		copy(targets, positions)
	case RefitScale:
		for i, w := range owned {
			targets[i] = Refit(rectFromPlatform(w.Bounds), from, rect, 0)
		}
	default:
		for i, w := range owned {
			targets[i] = Refit(rectFromPlatform(w.Bounds), from, rect, q)
		}
	}

	for i, w := range owned {
		pos := targets[i]
		if err := t.backend.MoveResize(w.ID, platformFromRect(pos)); err != nil {
			// Continue with other windows even if one fails
			log.Printf("Warning: Failed to refit window %d: %v", w.ID, err)
		}
	}
	return nil
}

// ManagedRegions returns the regions under a root window in creation order.
func (t *Tiler) ManagedRegions(root uint32) []Region {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Region
	for _, rs := range t.regions {
		if rs.Root == root {
			out = append(out, rs.Region)
		}
	}
	return out
}

// Regions returns every region in creation order.
func (t *Tiler) Regions() []Region {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Region, len(t.regions))
	for i, rs := range t.regions {
		out[i] = rs.Region
	}
	return out
}

func (t *Tiler) findLocked(h Handle) (*regionState, error) {
	for _, rs := range t.regions {
		if rs.Handle == h {
			return rs, nil
		}
	}
	return nil, fmt.Errorf("region %d not found", h)
}

func rectFromPlatform(r platform.Rect) Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func platformFromRect(r Rect) platform.Rect {
	return platform.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}
