package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/rrtile/internal/hardware"
)

// LoopConfig holds configuration for the event loop.
type LoopConfig struct {
	// Interval enables a periodic rescan when positive.
	Interval time.Duration
	Logger   *slog.Logger
}

type request struct {
	fn   func() error
	done chan error
}

// Loop serializes everything that touches the bridge: change
// notifications, periodic resyncs and rescans requested over IPC.
type Loop struct {
	bridge   *Bridge
	events   <-chan hardware.ChangeEvent
	requests chan request
	interval time.Duration
	logger   *slog.Logger
}

// NewLoop creates a loop reading notifications from events.
func NewLoop(cfg LoopConfig, bridge *Bridge, events <-chan hardware.ChangeEvent) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		bridge:   bridge,
		events:   events,
		requests: make(chan request),
		interval: cfg.Interval,
		logger:   logger,
	}
}

// Run handles events until the context is cancelled or the event channel
// is closed.
func (l *Loop) Run(ctx context.Context) {
	var tick <-chan time.Time
	if l.interval > 0 {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	l.logger.Info("event loop started", "resync_interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("event loop stopped")
			return
		case ev, ok := <-l.events:
			if !ok {
				l.logger.Info("event source closed")
				return
			}
			l.handle(ev)
		case <-tick:
			l.rescan(false)
		case req := <-l.requests:
			req.done <- l.run(req.fn)
		}
	}
}

func (l *Loop) handle(ev hardware.ChangeEvent) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("event handler panic recovered", "error", err)
		}
	}()

	l.logger.Debug("screen change",
		"root", ev.Root,
		"rotation", ev.Rotation.String(),
		"width", ev.Width,
		"height", ev.Height)

	if err := l.bridge.HandleScreenChange(ev); err != nil {
		l.logger.Error("screen change failed", "error", err)
	}
}

func (l *Loop) rescan(force bool) error {
	return l.run(func() error {
		_, err := l.bridge.Rescan(force)
		return err
	})
}

func (l *Loop) run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("request panic recovered", "error", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := fn(); err != nil {
		l.logger.Error("request failed", "error", err)
		return err
	}
	return nil
}

// Rescan asks the loop for a rescan and waits for its result. With force
// the plan is applied even when it matches the hardware.
func (l *Loop) Rescan(ctx context.Context, force bool) error {
	return l.Do(ctx, func() error {
		_, err := l.bridge.Rescan(force)
		return err
	})
}

// Do runs fn on the loop goroutine and waits for it. Anything that touches
// the resolver or the tracker from outside the loop goes through here.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case l.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
