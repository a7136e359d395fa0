package x11

import (
	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/pkg/errors"
)

// EventSource delivers RandR screen change notifications. Events for one
// root arrive in the order the server sent them.
type EventSource struct {
	conn   *Connection
	events chan hardware.ChangeEvent
}

// NewEventSource selects screen change notifications on the root window and
// hooks them into the xevent loop. Run must be called to start delivery.
func NewEventSource(conn *Connection, buffer int) (*EventSource, error) {
	err := randr.SelectInputChecked(conn.XUtil.Conn(), conn.Root, randr.NotifyMaskScreenChange).Check()
	if err != nil {
		return nil, errors.Wrap(err, "select randr input")
	}

	s := &EventSource{
		conn:   conn,
		events: make(chan hardware.ChangeEvent, buffer),
	}

	// xgbutil has no callback type for extension events, so they are
	// picked out of the raw event stream.
	xevent.HookFun(func(_ *xgbutil.XUtil, ev interface{}) bool {
		sc, ok := ev.(randr.ScreenChangeNotifyEvent)
		if !ok {
			return true
		}
		s.events <- hardware.ChangeEvent{
			Root:     uint32(sc.Root),
			Rotation: hardware.Rotation(sc.Rotation),
			Width:    sc.Width,
			Height:   sc.Height,
		}
		return false
	}).Connect(conn.XUtil)

	return s, nil
}

// Events returns the notification channel.
func (s *EventSource) Events() <-chan hardware.ChangeEvent {
	return s.events
}

// Run processes X events until Stop is called. It blocks.
func (s *EventSource) Run() {
	xevent.Main(s.conn.XUtil)
}

// Stop ends Run.
func (s *EventSource) Stop() {
	xevent.Quit(s.conn.XUtil)
}
