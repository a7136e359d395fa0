// Package resolver turns partially specified output overrides into a fully
// determined display configuration, inferring everything the caller left
// out from the current hardware state.
package resolver

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/1broseidon/rrtile/internal/gamma"
	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/ident"
)

// Config holds resolver settings.
type Config struct {
	// Automatic marks newly discovered outputs that are connected without a
	// CRTC, or disconnected with one. From then on such an output takes its
	// preferred mode while connected and is turned off while disconnected.
	// Outputs already configured by the caller are never marked.
	Automatic bool
	Logger    *slog.Logger
}

// Resolver owns the persistent, insertion-ordered output list. It is not
// safe for concurrent use.
type Resolver struct {
	automatic bool
	logger    *slog.Logger
	outputs   []*Output
}

// New creates a resolver with an empty output list.
func New(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		automatic: cfg.Automatic,
		logger:    logger,
	}
}

// SetAutomatic changes the policy for outputs discovered from now on.
// Turning it off also releases the outputs that already follow it.
func (r *Resolver) SetAutomatic(on bool) {
	r.automatic = on
	if on {
		return
	}
	for _, o := range r.outputs {
		o.automatic = false
	}
}

// ResetRequests drops every explicit override. Entries the caller added
// for outputs the hardware never reported are removed; the rest keep their
// identities.
func (r *Resolver) ResetRequests() {
	kept := r.outputs[:0]
	for _, o := range r.outputs {
		if !o.seen {
			continue
		}
		o.request = Request{}
		kept = append(kept, o)
	}
	clear(r.outputs[len(kept):])
	r.outputs = kept
}

// Output returns the output matching id, adding a new caller-configured
// entry when none matches.
func (r *Resolver) Output(id ident.Identifier) *Output {
	if o, _, ok := ident.Find(r.outputs, id); ok {
		return o
	}
	o := &Output{ID: id}
	r.outputs = append(r.outputs, o)
	return o
}

// Outputs returns the output list in insertion order.
func (r *Resolver) Outputs() []*Output {
	return slices.Clone(r.outputs)
}

// Plan is the result of a successful pass.
type Plan struct {
	Snapshot     *hardware.Snapshot
	Targets      []hardware.Target
	ScreenWidth  int
	ScreenHeight int
	Warnings     []*Error
}

// Configuration returns the plan in the form the hardware applies.
func (p *Plan) Configuration() hardware.Configuration {
	return hardware.Configuration{
		Targets:      slices.Clone(p.Targets),
		ScreenWidth:  p.ScreenWidth,
		ScreenHeight: p.ScreenHeight,
	}
}

// Enabled returns the targets that drive a CRTC with a mode.
func (p *Plan) Enabled() []hardware.Target {
	var out []hardware.Target
	for _, t := range p.Targets {
		if t.Enabled() {
			out = append(out, t)
		}
	}
	return out
}

// Target returns the target for an output X id.
func (p *Plan) Target(output uint32) (hardware.Target, bool) {
	for _, t := range p.Targets {
		if t.Output == output {
			return t, true
		}
	}
	return hardware.Target{}, false
}

// work carries one output through a pass.
type work struct {
	out  *Output
	info *hardware.OutputInfo
	req  Request
	crtc *hardware.CRTC
	mode *hardware.Mode
}

func (w *work) fail(field Field, value string, kind error, format string, args ...any) *Error {
	var cause error
	if format != "" {
		cause = fmt.Errorf(format, args...)
	}
	return &Error{Output: w.out.Label(), Field: field, Value: value, Kind: kind, Err: cause}
}

// Resolve runs one pass: it snapshots the hardware, reconciles the output
// list and determines every output's target. When any fatal error occurs
// the returned error is an Errors value and no plan is returned.
func (r *Resolver) Resolve(q hardware.Querier) (*Plan, error) {
	snap, err := hardware.Fetch(q)
	if err != nil {
		return nil, Errors{{Kind: ErrHardwareQuery, Err: err}}
	}

	ordered, errs := r.discover(snap)

	works := make([]*work, len(ordered))
	for i, o := range ordered {
		w := &work{out: o, info: o.Info, req: o.effective()}
		works[i] = w
		if e := r.resolveCrtc(snap, w); e != nil {
			errs = append(errs, e)
			continue
		}
		if e := r.resolveMode(snap, w); e != nil {
			errs = append(errs, e)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	errs = append(errs, assignCrtcs(snap, works)...)
	if len(errs) > 0 {
		return nil, errs
	}

	plan := &Plan{Snapshot: snap}
	explicitPrimary := 0
	for _, w := range works {
		t, warns, e := r.resolveRest(q, snap, w)
		plan.Warnings = append(plan.Warnings, warns...)
		if len(e) > 0 {
			errs = append(errs, e...)
			continue
		}
		if w.req.Changes.Has(FieldPrimary) && w.req.Primary {
			explicitPrimary++
		}
		plan.Targets = append(plan.Targets, t)
	}
	if explicitPrimary > 1 {
		errs = append(errs, &Error{Field: FieldPrimary, Kind: ErrCapabilityMismatch,
			Err: fmt.Errorf("%d outputs requested as primary", explicitPrimary)})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if explicitPrimary == 1 {
		for i, w := range works {
			if !w.req.Changes.Has(FieldPrimary) {
				plan.Targets[i].Primary = false
			}
		}
	}

	if e := plan.fitScreen(snap.Bounds); e != nil {
		return nil, Errors{e}
	}

	for _, wn := range plan.Warnings {
		r.logger.Warn("using default", "output", wn.Output, "field", wn.Field.String(), "error", wn.Err)
	}
	for i, w := range works {
		w.out.Target = plan.Targets[i]
	}
	return plan, nil
}

// discover marks every stored output as not found, matches the hardware
// outputs against the list in enumeration order and appends the new ones.
func (r *Resolver) discover(snap *hardware.Snapshot) ([]*Output, Errors) {
	for _, o := range r.outputs {
		o.found = false
	}

	ordered := make([]*Output, 0, len(snap.Outputs))
	for i := range snap.Outputs {
		info := &snap.Outputs[i]

		// Enumeration order can shift between passes, so match on the
		// stable kinds only.
		key := ident.ByID(info.XID())
		key.SetName(info.Name())

		o, _, ok := ident.Find(r.outputs, key)
		if !ok {
			// Caller entries may name the output by index only.
			o, _, ok = ident.Find(r.outputs, info.ID)
		}
		if !ok {
			o = &Output{ID: key, automatic: r.automatic && needsAutomatic(info)}
			r.outputs = append(r.outputs, o)
			r.logger.Debug("discovered output", "output", info.Name(), "connection", info.Connection.String(), "automatic", o.automatic)
		}
		o.ID.SetAll(info.ID)
		o.Info = info
		o.found = true
		o.seen = true
		ordered = append(ordered, o)

		if info.Connection == hardware.Connected && len(info.Modes) == 0 {
			r.logger.Warn("output is connected but reports no modes", "output", info.Name())
		}
	}

	var errs Errors
	for _, o := range r.outputs {
		if o.found {
			continue
		}
		if !o.seen && o.request.Changes != 0 {
			errs = append(errs, &Error{Output: o.Label(), Kind: ErrUnknownIdentifier, Err: fmt.Errorf("no such output")})
			continue
		}
		r.logger.Warn("output not found; ignoring", "output", o.Label())
	}
	return ordered, errs
}

// needsAutomatic reports whether a newly discovered output is out of step
// with its connector: connected but off, or disconnected but driven.
func needsAutomatic(info *hardware.OutputInfo) bool {
	switch info.Connection {
	case hardware.Connected:
		return info.Crtc == 0
	case hardware.Disconnected:
		return info.Crtc != 0
	}
	return false
}

func (r *Resolver) resolveCrtc(snap *hardware.Snapshot, w *work) *Error {
	if !w.req.Changes.Has(FieldCrtc) {
		w.crtc, _ = snap.Crtc(w.info.Crtc)
		return nil
	}
	if w.req.Crtc.IsZero() {
		return nil
	}
	_, n, ok := ident.Find(snap.Crtcs, w.req.Crtc)
	if !ok {
		return w.fail(FieldCrtc, w.req.Crtc.String(), ErrUnknownIdentifier, "")
	}
	crtc := &snap.Crtcs[n]
	if !slices.Contains(w.info.Crtcs, crtc.XID()) {
		return w.fail(FieldCrtc, w.req.Crtc.String(), ErrCapabilityMismatch, "output cannot use crtc 0x%x", crtc.XID())
	}
	w.crtc = crtc
	return nil
}

func (r *Resolver) resolveMode(snap *hardware.Snapshot, w *work) *Error {
	if !w.req.Changes.Has(FieldMode) {
		if w.crtc == nil || w.crtc.Mode == 0 {
			return nil
		}
		m, ok := snap.Mode(w.crtc.Mode)
		if !ok {
			return w.fail(FieldMode, fmt.Sprintf("0x%x", w.crtc.Mode), ErrHardwareQuery, "server did not report mode")
		}
		w.mode = m
		return nil
	}

	if w.req.Mode.IsZero() {
		return nil
	}

	candidates := snap.ModesOf(w.info)
	if w.req.Mode.IsPreferred() {
		m, ok := preferredMode(snap.Bounds, w.info, candidates)
		if !ok {
			return w.fail(FieldMode, "preferred", ErrUnknownIdentifier, "output offers no modes")
		}
		w.mode = m
		return nil
	}

	if _, n, ok := ident.Find(candidates, w.req.Mode); ok {
		m := candidates[n]
		w.mode = &m
		return nil
	}
	if _, _, ok := ident.Find(snap.Modes, w.req.Mode); ok {
		return w.fail(FieldMode, w.req.Mode.String(), ErrCapabilityMismatch, "output cannot use mode")
	}
	return w.fail(FieldMode, w.req.Mode.String(), ErrUnknownIdentifier, "")
}

// assignCrtcs claims the CRTC of every enabled output and gives a free
// candidate CRTC to enabled outputs that have none. A CRTC drives at most
// one output.
func assignCrtcs(snap *hardware.Snapshot, works []*work) Errors {
	var errs Errors
	claimed := make(map[uint32]string)
	for _, w := range works {
		if w.mode == nil || w.crtc == nil {
			continue
		}
		if owner, ok := claimed[w.crtc.XID()]; ok {
			errs = append(errs, w.fail(FieldCrtc, fmt.Sprintf("0x%x", w.crtc.XID()), ErrCapabilityMismatch, "crtc already drives %s", owner))
			continue
		}
		claimed[w.crtc.XID()] = w.out.Label()
	}
	for _, w := range works {
		if w.mode == nil || w.crtc != nil {
			continue
		}
		crtc := freeCrtc(snap, w, claimed)
		if crtc == nil {
			errs = append(errs, w.fail(FieldCrtc, "", ErrCapabilityMismatch, "no free crtc for mode %s", w.mode))
			continue
		}
		w.crtc = crtc
		claimed[crtc.XID()] = w.out.Label()
	}
	return errs
}

func freeCrtc(snap *hardware.Snapshot, w *work, claimed map[uint32]string) *hardware.CRTC {
	for _, xid := range w.info.Crtcs {
		if _, taken := claimed[xid]; taken {
			continue
		}
		if c, ok := snap.Crtc(xid); ok {
			return c
		}
	}
	return nil
}

// resolveRest determines position, rotation, gamma, transform, panning
// and primary once CRTC and mode are settled.
func (r *Resolver) resolveRest(q hardware.Querier, snap *hardware.Snapshot, w *work) (hardware.Target, []*Error, Errors) {
	var warns []*Error
	var errs Errors
	req := w.req

	t := hardware.Target{
		Output: w.info.XID(),
		Name:   w.info.Name(),
		Gamma:  gamma.Identity(),
	}

	// Without a mode the CRTC is released and geometry is meaningless.
	crtc := w.crtc
	if w.mode == nil {
		crtc = nil
	}
	if crtc != nil {
		t.Crtc = crtc.XID()
		t.Mode = w.mode.XID()
		t.Width, t.Height = w.mode.Width, w.mode.Height
	}

	switch {
	case req.Changes.Has(FieldPosition):
		t.X, t.Y = req.X, req.Y
	case crtc != nil && crtc.Mode != 0:
		t.X, t.Y = int(crtc.X), int(crtc.Y)
	}

	rot := hardware.Rotate0
	if req.Changes.Has(FieldRotation) {
		rot = req.Rotation
	} else if crtc != nil && crtc.Mode != 0 {
		rot = crtc.Rotation.Direction()
	}
	var refl hardware.Rotation
	if req.Changes.Has(FieldReflection) {
		refl = req.Reflection
	} else if crtc != nil && crtc.Mode != 0 {
		refl = crtc.Rotation.Reflection()
	}
	t.Rotation = rot | refl

	explicitRot := req.Changes&(FieldRotation|FieldReflection) != 0
	if explicitRot || crtc != nil {
		allowed := outputRotations(snap, w.info)
		if !canUseRotation(allowed, t.Rotation) {
			if explicitRot {
				errs = append(errs, w.fail(FieldRotation, t.Rotation.String(), ErrCapabilityMismatch,
					"not supported by every crtc of the output (supported %s)", describeRotations(allowed)))
			} else {
				warns = append(warns, w.fail(FieldRotation, t.Rotation.String(), ErrDegradedDefault, "current rotation not supported by every crtc"))
				t.Rotation = hardware.Rotate0
			}
		}
	}

	switch {
	case req.Changes.Has(FieldGamma):
		t.Gamma = req.Gamma
	case crtc != nil:
		c, err := estimateGamma(q, crtc)
		if err != nil {
			warns = append(warns, w.fail(FieldGamma, "", ErrDegradedDefault, "%v", err))
		} else {
			t.Gamma = c
		}
	}

	switch {
	case req.Changes.Has(FieldTransform):
		t.Transform = req.Transform
	case crtc != nil:
		tr, err := q.GetTransform(crtc.XID())
		switch {
		case err != nil:
			warns = append(warns, w.fail(FieldTransform, "", ErrDegradedDefault, "%v", err))
			t.Transform = hardware.IdentityTransform()
		case tr == nil:
			t.Transform = hardware.IdentityTransform()
		default:
			t.Transform = *tr
		}
	default:
		t.Transform = hardware.IdentityTransform()
	}

	switch {
	case req.Changes.Has(FieldPanning):
		if req.Panning != nil {
			p := *req.Panning
			t.Panning = &p
		}
	case crtc != nil && crtc.Panning != nil:
		p := *crtc.Panning
		t.Panning = &p
	}

	if req.Changes.Has(FieldPrimary) {
		t.Primary = req.Primary
	} else {
		primary, err := q.IsPrimary(w.info.XID())
		if err != nil {
			errs = append(errs, w.fail(FieldPrimary, "", ErrHardwareQuery, "%v", err))
		}
		t.Primary = primary
	}

	return t, warns, errs
}

func estimateGamma(q hardware.Querier, crtc *hardware.CRTC) (gamma.Curve, error) {
	if crtc.GammaSize == 0 {
		return gamma.Identity(), fmt.Errorf("crtc 0x%x reports no gamma size", crtc.XID())
	}
	ramp, err := q.GetGamma(crtc.XID(), crtc.GammaSize)
	if err != nil {
		return gamma.Identity(), err
	}
	return gamma.Estimate(ramp.Red, ramp.Green, ramp.Blue), nil
}

// fitScreen computes the screen size enclosing every enabled target,
// clamped to the server's minimum.
func (p *Plan) fitScreen(b hardware.ScreenBounds) *Error {
	w, h := 0, 0
	for _, t := range p.Targets {
		if !t.Enabled() {
			continue
		}
		x, y, tw, th := t.Bounds()
		w = max(w, x+tw)
		h = max(h, y+th)
	}
	if w == 0 || h == 0 {
		p.ScreenWidth, p.ScreenHeight = int(b.Width), int(b.Height)
		return nil
	}
	w = max(w, int(b.MinWidth))
	h = max(h, int(b.MinHeight))
	if (b.MaxWidth != 0 && w > int(b.MaxWidth)) || (b.MaxHeight != 0 && h > int(b.MaxHeight)) {
		return &Error{Value: fmt.Sprintf("%dx%d", w, h), Kind: ErrCapabilityMismatch,
			Err: fmt.Errorf("screen larger than maximum %dx%d", b.MaxWidth, b.MaxHeight)}
	}
	p.ScreenWidth, p.ScreenHeight = w, h
	return nil
}

// Apply sends a plan to the hardware.
func Apply(q hardware.Querier, p *Plan) error {
	if err := q.ApplyConfiguration(p.Configuration()); err != nil {
		return &Error{Kind: ErrHardwareQuery, Err: err}
	}
	return nil
}
