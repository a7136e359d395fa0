package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/rrtile/internal/daemon"
	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/hardware/hwtest"
	"github.com/1broseidon/rrtile/internal/ident"
	"github.com/1broseidon/rrtile/internal/ipc"
	"github.com/1broseidon/rrtile/internal/resolver"
	"github.com/1broseidon/rrtile/internal/rotation"
)

type fakeDaemon struct {
	status *ipc.StatusData
	err    error
}

func (f fakeDaemon) GetStatus() (*ipc.StatusData, error) { return f.status, f.err }

func TestListOutputs(t *testing.T) {
	s := NewServer(Options{Hardware: hwtest.Laptop()})

	_, out, err := s.handleListOutputs(context.Background(), nil, ListOutputsInput{})
	if err != nil {
		t.Fatalf("list_outputs error: %v", err)
	}
	if out.ScreenWidth != 1920 || len(out.Outputs) != 2 {
		t.Fatalf("unexpected result: %+v", out)
	}

	edp := out.Outputs[0]
	if edp.Name != "eDP-1" || edp.Crtc != 0x10 || edp.Width != 1920 {
		t.Fatalf("unexpected eDP-1: %+v", edp)
	}
	if len(edp.Modes) != 3 || !edp.Modes[0].Preferred || !edp.Modes[0].Current || edp.Modes[1].Preferred {
		t.Fatalf("unexpected modes: %+v", edp.Modes)
	}

	_, out, err = s.handleListOutputs(context.Background(), nil, ListOutputsInput{Connected: true})
	if err != nil {
		t.Fatalf("list_outputs error: %v", err)
	}
	if len(out.Outputs) != 1 {
		t.Fatalf("expected only the connected output, got %+v", out.Outputs)
	}
}

func TestListOutputs_QueryFailure(t *testing.T) {
	f := hwtest.Laptop()
	f.EnumerateErr = hwtest.ErrInjected
	s := NewServer(Options{Hardware: f})

	if _, _, err := s.handleListOutputs(context.Background(), nil, ListOutputsInput{}); !errors.Is(err, hwtest.ErrInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
}

func TestResolveConfiguration(t *testing.T) {
	f := hwtest.Laptop()
	planner := func(path string) (*resolver.Plan, error) {
		r := resolver.New(resolver.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
		r.Output(ident.ByName("eDP-1")).SetRotation(hardware.Rotate90)
		return r.Resolve(f)
	}
	s := NewServer(Options{Planner: planner})

	_, out, err := s.handleResolve(context.Background(), nil, ResolveInput{})
	if err != nil {
		t.Fatalf("resolve_configuration error: %v", err)
	}
	if out.ScreenWidth != 1080 || out.ScreenHeight != 1920 {
		t.Fatalf("expected rotated screen, got %dx%d", out.ScreenWidth, out.ScreenHeight)
	}
	if len(out.Targets) != 2 || out.Targets[0].Rotation != hardware.Rotate90.String() {
		t.Fatalf("unexpected targets: %+v", out.Targets)
	}
	if out.Targets[0].Width != 1080 || out.Targets[0].Height != 1920 {
		t.Fatalf("expected swapped bounds, got %+v", out.Targets[0])
	}
	if len(out.Drift) == 0 {
		t.Fatalf("expected drift for a rotation change")
	}
	if len(f.Applied) != 0 {
		t.Fatalf("resolve_configuration must not apply")
	}
}

func TestStatus(t *testing.T) {
	s := NewServer(Options{Daemon: fakeDaemon{status: &ipc.StatusData{
		Status: daemon.Status{
			Scans:     2,
			Rotations: []rotation.Entry{{Screen: 0, Rotation: hardware.Rotate270}},
		},
		DaemonRunning: true,
		UptimeSeconds: 42,
	}}})

	_, out, err := s.handleStatus(context.Background(), nil, StatusInput{})
	if err != nil {
		t.Fatalf("status error: %v", err)
	}
	if !out.Running || out.UptimeSeconds != 42 || out.Scans != 2 {
		t.Fatalf("unexpected status: %+v", out)
	}
	if len(out.Rotations) != 1 || out.Rotations[0].Rotation != hardware.Rotate270.String() {
		t.Fatalf("unexpected rotations: %+v", out.Rotations)
	}
}

func TestStatus_DaemonDown(t *testing.T) {
	s := NewServer(Options{Daemon: fakeDaemon{err: errors.New("connection refused")}})

	res, out, err := s.handleStatus(context.Background(), nil, StatusInput{})
	if err != nil {
		t.Fatalf("status error: %v", err)
	}
	if out.Running {
		t.Fatalf("expected not running")
	}
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("expected explanatory content, got %+v", res)
	}
}
