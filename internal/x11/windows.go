package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"
)

var maximizedStates = []string{
	"_NET_WM_STATE_MAXIMIZED_HORZ",
	"_NET_WM_STATE_MAXIMIZED_VERT",
}

var skippedTypes = map[string]bool{
	"_NET_WM_WINDOW_TYPE_DESKTOP":      true,
	"_NET_WM_WINDOW_TYPE_DOCK":         true,
	"_NET_WM_WINDOW_TYPE_SPLASH":       true,
	"_NET_WM_WINDOW_TYPE_NOTIFICATION": true,
}

// MoveResizeWindow asks the window manager to move a client window, falling
// back to a direct configure request when it does not honour EWMH.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	// Maximized windows ignore geometry requests.
	c.dropMaximized(windowID)

	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height); err != nil {
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

func (c *Connection) dropMaximized(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}
	for _, state := range states {
		for _, m := range maximizedStates {
			if state == m {
				ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, m)
			}
		}
	}
}

// IsNormalWindow reports whether a client is an ordinary application
// window. Untyped windows count as normal.
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return true
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		if skippedTypes[t] {
			return false
		}
	}
	return len(types) == 0
}
