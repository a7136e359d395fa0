// Package platform is the window-system side of region refitting: listing
// the top-level windows of a root and moving them.
package platform

// WindowID identifies a top-level client window.
type WindowID uint32

// Rect is a rectangle in root window coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Window is a managed client and its frame geometry.
type Window struct {
	ID     WindowID
	Bounds Rect
}

// Backend lists and moves the windows a region refit operates on.
type Backend interface {
	// Windows returns the managed clients of every desktop, in window id order.
	Windows() ([]Window, error)
	MoveResize(id WindowID, bounds Rect) error
}
