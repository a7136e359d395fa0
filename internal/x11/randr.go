package x11

import (
	"github.com/1broseidon/rrtile/internal/gamma"
	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/ident"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/pkg/errors"
)

// RandR reads and writes output configuration through the RandR extension.
// It implements hardware.Querier.
type RandR struct {
	conn *Connection
	res  *randr.GetScreenResourcesCurrentReply
}

var _ hardware.Querier = (*RandR)(nil)

// NewRandR wraps an initialized connection.
func NewRandR(conn *Connection) *RandR {
	return &RandR{conn: conn}
}

// resources returns the cached screen resources, fetching them on first
// use. QueryScreenBounds drops the cache, so every snapshot starts fresh.
func (r *RandR) resources() (*randr.GetScreenResourcesCurrentReply, error) {
	if r.res != nil {
		return r.res, nil
	}
	res, err := randr.GetScreenResourcesCurrent(r.conn.XUtil.Conn(), r.conn.Root).Reply()
	if err != nil {
		return nil, errors.Wrap(err, "get screen resources")
	}
	r.res = res
	return res, nil
}

// QueryScreenBounds returns the screen size range and the current size.
func (r *RandR) QueryScreenBounds() (hardware.ScreenBounds, error) {
	r.res = nil
	xc := r.conn.XUtil.Conn()

	rng, err := randr.GetScreenSizeRange(xc, r.conn.Root).Reply()
	if err != nil {
		return hardware.ScreenBounds{}, errors.Wrap(err, "get screen size range")
	}
	b := hardware.ScreenBounds{
		MinWidth:  rng.MinWidth,
		MinHeight: rng.MinHeight,
		MaxWidth:  rng.MaxWidth,
		MaxHeight: rng.MaxHeight,
	}

	info, err := randr.GetScreenInfo(xc, r.conn.Root).Reply()
	if err == nil && int(info.SizeID) < len(info.Sizes) {
		size := info.Sizes[info.SizeID]
		b.Width, b.Height = size.Width, size.Height
		b.MmWidth, b.MmHeight = uint32(size.Mwidth), uint32(size.Mheight)
		return b, nil
	}

	// Fall back to the root geometry and the connection-time physical size.
	geom, err := xproto.GetGeometry(xc, xproto.Drawable(r.conn.Root)).Reply()
	if err != nil {
		return hardware.ScreenBounds{}, errors.Wrap(err, "get root geometry")
	}
	b.Width, b.Height = geom.Width, geom.Height
	screen := xproto.Setup(xc).DefaultScreen(xc)
	b.MmWidth, b.MmHeight = uint32(screen.WidthInMillimeters), uint32(screen.HeightInMillimeters)
	return b, nil
}

// ScreenRotation returns the rotation of the root window's screen.
func (r *RandR) ScreenRotation() (hardware.Rotation, error) {
	info, err := randr.GetScreenInfo(r.conn.XUtil.Conn(), r.conn.Root).Reply()
	if err != nil {
		return 0, errors.Wrap(err, "get screen info")
	}
	return hardware.Rotation(info.Rotation), nil
}

// EnumerateCrtcs returns every CRTC with its transform, panning and gamma
// size.
func (r *RandR) EnumerateCrtcs() ([]hardware.CRTC, error) {
	res, err := r.resources()
	if err != nil {
		return nil, err
	}
	xc := r.conn.XUtil.Conn()

	crtcs := make([]hardware.CRTC, 0, len(res.Crtcs))
	for _, id := range res.Crtcs {
		info, err := randr.GetCrtcInfo(xc, id, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, errors.Wrapf(err, "get crtc info 0x%x", uint32(id))
		}
		c := hardware.CRTC{
			ID:        ident.ByID(uint32(id)),
			Mode:      uint32(info.Mode),
			X:         info.X,
			Y:         info.Y,
			Width:     info.Width,
			Height:    info.Height,
			Rotation:  hardware.Rotation(info.Rotation),
			Rotations: hardware.Rotation(info.Rotations),
			Outputs:   outputIDs(info.Outputs),
			Possible:  outputIDs(info.Possible),
			Current:   hardware.IdentityTransform(),
			Pending:   hardware.IdentityTransform(),
		}

		if tr, err := randr.GetCrtcTransform(xc, id).Reply(); err == nil && tr.HasTransforms {
			c.Current = fromRender(tr.CurrentTransform, tr.CurrentFilterName, tr.CurrentParams)
			c.Pending = fromRender(tr.PendingTransform, tr.PendingFilterName, tr.PendingParams)
		}
		if pan, err := randr.GetPanning(xc, id).Reply(); err == nil {
			p := hardware.Panning{
				Left: pan.Left, Top: pan.Top, Width: pan.Width, Height: pan.Height,
				TrackLeft: pan.TrackLeft, TrackTop: pan.TrackTop,
				TrackWidth: pan.TrackWidth, TrackHeight: pan.TrackHeight,
				BorderLeft: pan.BorderLeft, BorderTop: pan.BorderTop,
				BorderRight: pan.BorderRight, BorderBottom: pan.BorderBottom,
			}
			if !p.IsZero() {
				c.Panning = &p
			}
		}
		if gs, err := randr.GetCrtcGammaSize(xc, id).Reply(); err == nil {
			c.GammaSize = int(gs.Size)
		}

		crtcs = append(crtcs, c)
	}
	return crtcs, nil
}

// EnumerateOutputs returns every output the server knows about.
func (r *RandR) EnumerateOutputs() ([]hardware.OutputInfo, error) {
	res, err := r.resources()
	if err != nil {
		return nil, err
	}
	xc := r.conn.XUtil.Conn()

	outputs := make([]hardware.OutputInfo, 0, len(res.Outputs))
	for _, id := range res.Outputs {
		info, err := randr.GetOutputInfo(xc, id, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, errors.Wrapf(err, "get output info 0x%x", uint32(id))
		}
		oid := ident.ByID(uint32(id))
		oid.SetName(string(info.Name))

		o := hardware.OutputInfo{
			ID:           oid,
			Connection:   connection(info.Connection),
			Crtc:         uint32(info.Crtc),
			MmWidth:      info.MmWidth,
			MmHeight:     info.MmHeight,
			NumPreferred: int(info.NumPreferred),
			Clones:       outputIDs(info.Clones),
		}
		for _, c := range info.Crtcs {
			o.Crtcs = append(o.Crtcs, uint32(c))
		}
		for _, m := range info.Modes {
			o.Modes = append(o.Modes, uint32(m))
		}
		outputs = append(outputs, o)
	}
	return outputs, nil
}

// EnumerateModes returns every mode with its name sliced out of the
// resources name table.
func (r *RandR) EnumerateModes() ([]hardware.Mode, error) {
	res, err := r.resources()
	if err != nil {
		return nil, err
	}

	modes := make([]hardware.Mode, 0, len(res.Modes))
	offset := 0
	for _, m := range res.Modes {
		end := offset + int(m.NameLen)
		if end > len(res.Names) {
			return nil, errors.Errorf("mode 0x%x: name runs past the name table", m.Id)
		}
		id := ident.ByID(m.Id)
		id.SetName(string(res.Names[offset:end]))
		offset = end

		modes = append(modes, hardware.Mode{
			ID:         id,
			Width:      m.Width,
			Height:     m.Height,
			DotClock:   m.DotClock,
			HSyncStart: m.HsyncStart,
			HSyncEnd:   m.HsyncEnd,
			HTotal:     m.Htotal,
			HSkew:      m.Hskew,
			VSyncStart: m.VsyncStart,
			VSyncEnd:   m.VsyncEnd,
			VTotal:     m.Vtotal,
			Flags:      m.ModeFlags,
		})
	}
	return modes, nil
}

// GetGamma reads a CRTC's gamma ramp.
func (r *RandR) GetGamma(crtc uint32, size int) (hardware.GammaRamp, error) {
	reply, err := randr.GetCrtcGamma(r.conn.XUtil.Conn(), randr.Crtc(crtc)).Reply()
	if err != nil {
		return hardware.GammaRamp{}, errors.Wrapf(err, "get gamma of crtc 0x%x", crtc)
	}
	if int(reply.Size) != size {
		return hardware.GammaRamp{}, errors.Errorf("crtc 0x%x: gamma size %d, expected %d", crtc, reply.Size, size)
	}
	return hardware.GammaRamp{Red: reply.Red, Green: reply.Green, Blue: reply.Blue}, nil
}

// GetTransform reads a CRTC's current transform. It returns nil when the
// CRTC does not support transforms.
func (r *RandR) GetTransform(crtc uint32) (*hardware.Transform, error) {
	reply, err := randr.GetCrtcTransform(r.conn.XUtil.Conn(), randr.Crtc(crtc)).Reply()
	if err != nil {
		return nil, errors.Wrapf(err, "get transform of crtc 0x%x", crtc)
	}
	if !reply.HasTransforms {
		return nil, nil
	}
	t := fromRender(reply.CurrentTransform, reply.CurrentFilterName, reply.CurrentParams)
	return &t, nil
}

// IsPrimary reports whether output is the screen's primary output.
func (r *RandR) IsPrimary(output uint32) (bool, error) {
	reply, err := randr.GetOutputPrimary(r.conn.XUtil.Conn(), r.conn.Root).Reply()
	if err != nil {
		return false, errors.Wrap(err, "get primary output")
	}
	return uint32(reply.Output) == output, nil
}

// ApplyConfiguration switches the server to cfg. CRTCs that are no longer
// used, or that would not fit the new screen size, are disabled before the
// screen is resized.
func (r *RandR) ApplyConfiguration(cfg hardware.Configuration) error {
	xc := r.conn.XUtil.Conn()
	r.res = nil
	res, err := r.resources()
	if err != nil {
		return err
	}
	r.res = nil

	used := make(map[uint32]bool)
	for _, t := range cfg.Targets {
		if t.Enabled() {
			used[t.Crtc] = true
		}
	}

	for _, id := range res.Crtcs {
		info, err := randr.GetCrtcInfo(xc, id, res.ConfigTimestamp).Reply()
		if err != nil {
			return errors.Wrapf(err, "get crtc info 0x%x", uint32(id))
		}
		if info.Mode == 0 {
			continue
		}
		fits := int(info.X)+int(info.Width) <= cfg.ScreenWidth &&
			int(info.Y)+int(info.Height) <= cfg.ScreenHeight
		if used[uint32(id)] && fits {
			continue
		}
		if err := r.setCrtc(id, res.ConfigTimestamp, 0, 0, 0, uint16(hardware.Rotate0), nil); err != nil {
			return errors.Wrapf(err, "disable crtc 0x%x", uint32(id))
		}
	}

	if err := r.resizeScreen(cfg.ScreenWidth, cfg.ScreenHeight); err != nil {
		return err
	}

	var primary uint32
	for _, t := range cfg.Targets {
		if t.Primary && t.Enabled() {
			primary = t.Output
		}
		if !t.Enabled() {
			continue
		}
		if err := r.applyTarget(t, res.ConfigTimestamp); err != nil {
			return errors.Wrapf(err, "output %s", t.Name)
		}
	}

	err = randr.SetOutputPrimaryChecked(xc, r.conn.Root, randr.Output(primary)).Check()
	return errors.Wrap(err, "set primary output")
}

func (r *RandR) applyTarget(t hardware.Target, cfgTs xproto.Timestamp) error {
	xc := r.conn.XUtil.Conn()
	crtc := randr.Crtc(t.Crtc)

	tr, params := toRender(t.Transform)
	err := randr.SetCrtcTransformChecked(xc, crtc, tr, uint16(len(t.Transform.Filter)), t.Transform.Filter, params).Check()
	if err != nil && !t.Transform.IsIdentity() {
		return errors.Wrap(err, "set transform")
	}

	err = r.setCrtc(crtc, cfgTs, int16(t.X), int16(t.Y), randr.Mode(t.Mode), uint16(t.Rotation), []randr.Output{randr.Output(t.Output)})
	if err != nil {
		return err
	}

	if p := t.Panning; p != nil {
		reply, err := randr.SetPanning(xc, crtc, 0,
			p.Left, p.Top, p.Width, p.Height,
			p.TrackLeft, p.TrackTop, p.TrackWidth, p.TrackHeight,
			p.BorderLeft, p.BorderTop, p.BorderRight, p.BorderBottom).Reply()
		if err != nil {
			return errors.Wrap(err, "set panning")
		}
		if reply.Status != randr.SetConfigSuccess {
			return errors.Errorf("set panning: status %d", reply.Status)
		}
	}

	size, err := randr.GetCrtcGammaSize(xc, crtc).Reply()
	if err != nil || size.Size == 0 {
		return nil
	}
	red, green, blue := gamma.Ramp(int(size.Size), t.Gamma)
	err = randr.SetCrtcGammaChecked(xc, crtc, size.Size, red, green, blue).Check()
	return errors.Wrap(err, "set gamma")
}

func (r *RandR) setCrtc(crtc randr.Crtc, cfgTs xproto.Timestamp, x, y int16, mode randr.Mode, rotation uint16, outputs []randr.Output) error {
	reply, err := randr.SetCrtcConfig(r.conn.XUtil.Conn(), crtc, 0, cfgTs, x, y, mode, rotation, outputs).Reply()
	if err != nil {
		return errors.Wrap(err, "set crtc config")
	}
	if reply.Status != randr.SetConfigSuccess {
		return errors.Errorf("set crtc config: status %d", reply.Status)
	}
	return nil
}

// resizeScreen sets the screen size, keeping the current pixel density.
func (r *RandR) resizeScreen(width, height int) error {
	b, err := r.QueryScreenBounds()
	if err != nil {
		return err
	}
	if int(b.Width) == width && int(b.Height) == height {
		return nil
	}
	mmW, mmH := uint32(width), uint32(height)
	if b.Width > 0 && b.Height > 0 && b.MmWidth > 0 && b.MmHeight > 0 {
		mmW = uint32(float64(width) * float64(b.MmWidth) / float64(b.Width))
		mmH = uint32(float64(height) * float64(b.MmHeight) / float64(b.Height))
	}
	err = randr.SetScreenSizeChecked(r.conn.XUtil.Conn(), r.conn.Root, uint16(width), uint16(height), mmW, mmH).Check()
	return errors.Wrapf(err, "set screen size %dx%d", width, height)
}

func outputIDs(in []randr.Output) []uint32 {
	out := make([]uint32, len(in))
	for i, o := range in {
		out[i] = uint32(o)
	}
	return out
}

func connection(c byte) hardware.Connection {
	switch c {
	case randr.ConnectionConnected:
		return hardware.Connected
	case randr.ConnectionDisconnected:
		return hardware.Disconnected
	default:
		return hardware.ConnectionUnknown
	}
}

// render.Fixed is 16.16 fixed point.
const fixedOne = 1 << 16

func fromRender(t render.Transform, filter string, params []render.Fixed) hardware.Transform {
	out := hardware.Transform{
		Matrix: [9]float64{
			fixedToFloat(t.Matrix11), fixedToFloat(t.Matrix12), fixedToFloat(t.Matrix13),
			fixedToFloat(t.Matrix21), fixedToFloat(t.Matrix22), fixedToFloat(t.Matrix23),
			fixedToFloat(t.Matrix31), fixedToFloat(t.Matrix32), fixedToFloat(t.Matrix33),
		},
		Filter: filter,
	}
	for _, p := range params {
		out.Params = append(out.Params, fixedToFloat(p))
	}
	return out
}

func toRender(t hardware.Transform) (render.Transform, []render.Fixed) {
	m := t.Matrix
	tr := render.Transform{
		Matrix11: floatToFixed(m[0]), Matrix12: floatToFixed(m[1]), Matrix13: floatToFixed(m[2]),
		Matrix21: floatToFixed(m[3]), Matrix22: floatToFixed(m[4]), Matrix23: floatToFixed(m[5]),
		Matrix31: floatToFixed(m[6]), Matrix32: floatToFixed(m[7]), Matrix33: floatToFixed(m[8]),
	}
	params := make([]render.Fixed, len(t.Params))
	for i, p := range t.Params {
		params[i] = floatToFixed(p)
	}
	return tr, params
}

func fixedToFloat(f render.Fixed) float64 { return float64(f) / fixedOne }

func floatToFixed(v float64) render.Fixed { return render.Fixed(v * fixedOne) }
