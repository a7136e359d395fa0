// Package daemon keeps the window manager's screen regions in step with
// the XRandR configuration as it changes at runtime.
package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/resolver"
	"github.com/1broseidon/rrtile/internal/rotation"
	"github.com/1broseidon/rrtile/internal/tiling"
)

// RegionManager is the window-manager side the bridge drives.
type RegionManager interface {
	CreateRegion(r tiling.Region) (tiling.Handle, error)
	ResizeRegion(h tiling.Handle, rect tiling.Rect) error
	// RefitManaged moves managed content into rect, turning it by quarters
	// counter-clockwise quarter turns when quarters is non-nil.
	RefitManaged(h tiling.Handle, rect tiling.Rect, quarters *int) error
	ManagedRegions(root uint32) []tiling.Region
}

// BridgeConfig holds bridge settings.
type BridgeConfig struct {
	// Root is the X root window regions are created under.
	Root uint32
	// ApplyDrift applies a rescan's plan when it differs from the hardware.
	ApplyDrift bool
	Logger     *slog.Logger
}

// Bridge reacts to screen change notifications: it rescans the hardware,
// keeps one region per active output and refits the owning region with the
// rotation delta recorded by its tracker.
type Bridge struct {
	hw       hardware.Querier
	resolver *resolver.Resolver
	regions  RegionManager
	tracker  *rotation.Tracker

	root       uint32
	applyDrift bool
	logger     *slog.Logger

	mu     sync.RWMutex
	status Status
}

// NewBridge wires a bridge. The tracker is owned by the bridge from now on.
func NewBridge(cfg BridgeConfig, hw hardware.Querier, res *resolver.Resolver, regions RegionManager, tracker *rotation.Tracker) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if tracker == nil {
		tracker = rotation.NewTracker()
	}
	return &Bridge{
		hw:         hw,
		resolver:   res,
		regions:    regions,
		tracker:    tracker,
		root:       cfg.Root,
		applyDrift: cfg.ApplyDrift,
		logger:     logger,
		status:     Status{Started: time.Now()},
	}
}

// SeedOrigin records the origin screen's current rotation. Other screens
// take their first observed rotation as baseline.
func (b *Bridge) SeedOrigin(r hardware.Rotation) {
	b.tracker.Seed(rotation.OriginScreen, r)
	b.logger.Info("seeded origin rotation", "screen", rotation.OriginScreen, "rotation", r.Direction().String())
	b.publish(nil)
}

// SetApplyDrift changes whether drifted plans are applied. Call it from the
// goroutine that owns the bridge.
func (b *Bridge) SetApplyDrift(on bool) {
	b.applyDrift = on
}

// Rescan runs a resolver pass, applies it when it drifted from the
// hardware (or force is set) and creates regions for new outputs.
func (b *Bridge) Rescan(force bool) (*resolver.Plan, error) {
	plan, err := b.resolver.Resolve(b.hw)
	if err != nil {
		b.publish(func(s *Status) { s.LastError = err.Error() })
		return nil, err
	}

	drift := plan.Drift()
	if force || (b.applyDrift && len(drift) > 0) {
		b.logger.Info("applying configuration", "changes", len(drift), "forced", force)
		for _, d := range drift {
			b.logger.Debug("change", "detail", d)
		}
		if err := resolver.Apply(b.hw, plan); err != nil {
			b.publish(func(s *Status) { s.LastError = err.Error() })
			return nil, err
		}
	}

	if err := b.syncScreens(plan); err != nil {
		b.publish(func(s *Status) { s.LastError = err.Error() })
		return plan, err
	}

	b.publish(func(s *Status) {
		s.LastError = ""
		s.LastScan = time.Now()
		s.Scans++
		s.Outputs = outputStatuses(b.resolver.Outputs())
		s.Screen = [2]int{plan.ScreenWidth, plan.ScreenHeight}
	})
	return plan, nil
}

// syncScreens gives every enabled output beyond the current region count
// its own region. Existing regions are left alone.
func (b *Bridge) syncScreens(plan *resolver.Plan) error {
	existing := len(b.regions.ManagedRegions(b.root))
	enabled := plan.Enabled()
	b.logger.Debug("screen sync", "outputs", len(enabled), "regions", existing)

	var errs []error
	for screen := existing; screen < len(enabled); screen++ {
		t := enabled[screen]
		x, y, w, h := t.Bounds()
		rect := tiling.Rect{X: x, Y: y, Width: w, Height: h}
		handle, err := b.regions.CreateRegion(tiling.Region{
			Screen: screen,
			Root:   b.root,
			Output: t.Name,
			Rect:   rect,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("create region for %s: %w", t.Name, err))
			continue
		}
		b.logger.Info("created region", "screen", screen, "output", t.Name, "handle", handle, "rect", rect.String())
	}
	return errors.Join(errs...)
}

// HandleScreenChange processes one notification. A root with no region is
// ignored.
func (b *Bridge) HandleScreenChange(ev hardware.ChangeEvent) error {
	b.publish(func(s *Status) { s.Events++ })

	if _, err := b.Rescan(false); err != nil {
		// The notification still carries the new geometry.
		b.logger.Warn("rescan failed", "error", err)
	}

	regions := b.regions.ManagedRegions(ev.Root)
	if len(regions) == 0 {
		b.logger.Debug("no region for root", "root", ev.Root)
		return nil
	}
	owner := regions[0]

	rect := tiling.Rect{
		X:      owner.Rect.X,
		Y:      owner.Rect.Y,
		Width:  int(ev.Width),
		Height: int(ev.Height),
	}
	if ev.Rotation.Sideways() {
		rect.Width, rect.Height = rect.Height, rect.Width
	}

	var quarters *int
	obs := b.tracker.Observe(owner.Screen, ev.Rotation)
	switch {
	case obs.Seeded:
		b.logger.Info("rotation baseline", "screen", owner.Screen, "rotation", ev.Rotation.Direction().String())
	case obs.Changed:
		steps := obs.Steps
		quarters = &steps
		b.logger.Info("rotation changed",
			"screen", owner.Screen,
			"from", obs.Previous.String(),
			"to", ev.Rotation.Direction().String(),
			"steps", steps)
	}

	if err := b.regions.ResizeRegion(owner.Handle, rect); err != nil {
		return fmt.Errorf("resize region %d: %w", owner.Handle, err)
	}
	if err := b.regions.RefitManaged(owner.Handle, rect, quarters); err != nil {
		return fmt.Errorf("refit region %d: %w", owner.Handle, err)
	}

	b.publish(nil)
	return nil
}

// publish updates the status snapshot; fn may be nil to refresh only the
// tracker and region views.
func (b *Bridge) publish(fn func(*Status)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fn != nil {
		fn(&b.status)
	}
	b.status.Rotations = b.tracker.Entries()
	b.status.Regions = b.regions.ManagedRegions(b.root)
}

// Status returns a copy of the latest status snapshot.
func (b *Bridge) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status.clone()
}
