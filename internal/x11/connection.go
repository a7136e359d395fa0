package x11

import (
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/pkg/errors"
)

// Minimum RandR version: 1.3 adds transforms, panning and the primary output.
const (
	randrMajor = 1
	randrMinor = 3
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// NewConnection connects to display (empty for $DISPLAY) and initializes the
// RandR extension.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to display %q", display)
	}

	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, errors.Wrap(err, "randr init failed")
	}

	version, err := randr.QueryVersion(xu.Conn(), randrMajor, randrMinor).Reply()
	if err != nil {
		xu.Conn().Close()
		return nil, errors.Wrap(err, "randr query version")
	}
	if version.MajorVersion < randrMajor ||
		(version.MajorVersion == randrMajor && version.MinorVersion < randrMinor) {
		xu.Conn().Close()
		return nil, errors.Errorf("randr %d.%d is too old (need %d.%d)",
			version.MajorVersion, version.MinorVersion, randrMajor, randrMinor)
	}

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
