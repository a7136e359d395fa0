package ipc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/rrtile/internal/daemon"
)

type fakeDaemon struct {
	status    daemon.Status
	rescanErr error
	rescans   []bool
	reloads   int
}

func (f *fakeDaemon) Status() daemon.Status { return f.status }

func (f *fakeDaemon) Rescan(_ context.Context, force bool) error {
	f.rescans = append(f.rescans, force)
	return f.rescanErr
}

func (f *fakeDaemon) Reload(context.Context) error {
	f.reloads++
	return nil
}

func startServer(t *testing.T, d Daemon) *Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rrtile.sock")
	srv := NewServerAt(path, d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(srv.Stop)
	return NewClientAt(path)
}

func TestServer_StatusAndOutputs(t *testing.T) {
	d := &fakeDaemon{status: daemon.Status{
		Scans:  3,
		Screen: [2]int{1920, 1080},
		Outputs: []daemon.OutputStatus{
			{Name: "eDP-1", ID: 0x40, Enabled: true, Width: 1920, Height: 1080, Rotation: "normal"},
		},
	}}
	c := startServer(t, d)

	if err := c.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}

	st, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus() error: %v", err)
	}
	if !st.DaemonRunning || st.Scans != 3 {
		t.Fatalf("unexpected status: %+v", st)
	}

	outs, err := c.GetOutputs()
	if err != nil {
		t.Fatalf("GetOutputs() error: %v", err)
	}
	if outs.ScreenWidth != 1920 || len(outs.Outputs) != 1 || outs.Outputs[0].Name != "eDP-1" {
		t.Fatalf("unexpected outputs: %+v", outs)
	}
}

func TestServer_Rescan(t *testing.T) {
	d := &fakeDaemon{}
	c := startServer(t, d)

	if _, err := c.Rescan(true); err != nil {
		t.Fatalf("Rescan() error: %v", err)
	}
	if len(d.rescans) != 1 || !d.rescans[0] {
		t.Fatalf("expected one forced rescan, got %v", d.rescans)
	}

	d.rescanErr = errors.New("no crtc")
	_, err := c.Rescan(false)
	if err == nil || !strings.Contains(err.Error(), "no crtc") {
		t.Fatalf("expected rescan error, got %v", err)
	}
}

func TestServer_Reload(t *testing.T) {
	d := &fakeDaemon{}
	c := startServer(t, d)
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if d.reloads != 1 {
		t.Fatalf("expected one reload, got %d", d.reloads)
	}
}

func TestServer_UnknownCommand(t *testing.T) {
	c := startServer(t, &fakeDaemon{})
	_, err := c.sendRequest(&Request{Command: "SPIN"})
	if err == nil || !strings.Contains(err.Error(), "Unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}
