//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/1broseidon/rrtile/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// LinuxBackend refits EWMH client windows over an X connection.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend wraps an open connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// Windows returns the normal clients from _NET_CLIENT_LIST on all desktops.
// Fullscreen clients are skipped; the window manager resizes them with
// the screen.
func (b *LinuxBackend) Windows() ([]Window, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}

	clients, err := ewmh.ClientListGet(b.conn.XUtil)
	if err != nil {
		return nil, fmt.Errorf("read client list: %w", err)
	}

	out := make([]Window, 0, len(clients))
	for _, id := range clients {
		if !b.conn.IsNormalWindow(id) || b.fullscreen(id) {
			continue
		}
		bounds, ok := b.frame(id)
		if !ok {
			continue
		}
		out = append(out, Window{ID: WindowID(id), Bounds: bounds})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MoveResize places a client's frame at bounds.
func (b *LinuxBackend) MoveResize(id WindowID, bounds Rect) error {
	if b == nil || b.conn == nil {
		return fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn.MoveResizeWindow(xproto.Window(id), bounds.X, bounds.Y, bounds.Width, bounds.Height)
}

func (b *LinuxBackend) fullscreen(id xproto.Window) bool {
	states, err := ewmh.WmStateGet(b.conn.XUtil, id)
	if err != nil {
		return false
	}
	for _, s := range states {
		if s == "_NET_WM_STATE_FULLSCREEN" {
			return true
		}
	}
	return false
}

// frame returns the decorated geometry of a client in root coordinates.
func (b *LinuxBackend) frame(id xproto.Window) (Rect, bool) {
	geom, err := xwindow.New(b.conn.XUtil, id).DecorGeometry()
	if err != nil {
		return Rect{}, false
	}
	return Rect{X: geom.X(), Y: geom.Y(), Width: geom.Width(), Height: geom.Height()}, true
}
