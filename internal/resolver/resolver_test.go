package resolver

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/1broseidon/rrtile/internal/gamma"
	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/hardware/hwtest"
	"github.com/1broseidon/rrtile/internal/ident"
)

func newResolver(automatic bool) *Resolver {
	return New(Config{
		Automatic: automatic,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// plugHDMI makes HDMI-1 connected with three modes and no CRTC.
func plugHDMI(f *hwtest.Fake) {
	f.Outputs[1].Connection = hardware.Connected
	f.Outputs[1].MmWidth, f.Outputs[1].MmHeight = 600, 340
	f.Outputs[1].Modes = []uint32{0x101, 0x100, 0x103}
}

func TestResolve_InfersCurrentState(t *testing.T) {
	f := hwtest.Laptop()
	r := newResolver(false)

	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(plan.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(plan.Targets))
	}

	edp := plan.Targets[0]
	if edp.Name != "eDP-1" || edp.Crtc != 0x10 || edp.Mode != 0x100 {
		t.Fatalf("unexpected eDP target: %+v", edp)
	}
	if edp.Width != 1920 || edp.Height != 1080 {
		t.Fatalf("expected 1920x1080, got %dx%d", edp.Width, edp.Height)
	}
	if edp.Rotation != hardware.Rotate0 {
		t.Fatalf("expected rotation 0, got %v", edp.Rotation)
	}
	if !edp.Primary {
		t.Fatalf("expected eDP-1 to be primary")
	}
	if !edp.Transform.IsIdentity() {
		t.Fatalf("expected identity transform, got %+v", edp.Transform)
	}

	hdmi := plan.Targets[1]
	if hdmi.Enabled() {
		t.Fatalf("expected HDMI-1 to stay off, got %+v", hdmi)
	}
	if hdmi.Gamma != gamma.Identity() {
		t.Fatalf("expected identity gamma without a crtc, got %+v", hdmi.Gamma)
	}
	if plan.ScreenWidth != 1920 || plan.ScreenHeight != 1080 {
		t.Fatalf("expected screen 1920x1080, got %dx%d", plan.ScreenWidth, plan.ScreenHeight)
	}
}

func TestResolve_IdempotentWithoutOverrides(t *testing.T) {
	f := hwtest.Laptop()
	plugHDMI(f)
	r := newResolver(true)

	first, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("first Resolve() error: %v", err)
	}
	second, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("second Resolve() error: %v", err)
	}
	if !reflect.DeepEqual(first.Targets, second.Targets) {
		t.Fatalf("targets differ between passes:\nfirst:  %+v\nsecond: %+v", first.Targets, second.Targets)
	}
	if len(r.Outputs()) != 2 {
		t.Fatalf("expected output list to stay at 2 entries, got %d", len(r.Outputs()))
	}
}

func TestResolve_ExplicitUnsupportedRotationRejected(t *testing.T) {
	f := hwtest.Laptop()
	f.Crtcs[1].Rotations = hardware.Rotate0 | hardware.Rotate180

	r := newResolver(false)
	r.Output(ident.ByName("eDP-1")).SetRotation(hardware.Rotate90)

	plan, err := r.Resolve(f)
	if err == nil {
		t.Fatalf("expected error, got plan %+v", plan)
	}
	if !errors.Is(err, ErrCapabilityMismatch) {
		t.Fatalf("expected ErrCapabilityMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "eDP-1") || !strings.Contains(err.Error(), "rotation") {
		t.Fatalf("error should name output and field: %v", err)
	}
	if plan != nil {
		t.Fatalf("no plan may be returned on a fatal error")
	}
}

func TestResolve_ExplicitReflectionMustBeFullySupported(t *testing.T) {
	f := hwtest.Laptop()
	f.Crtcs[0].Rotations = hardware.DirectionMask | hardware.ReflectX
	f.Crtcs[1].Rotations = hardware.DirectionMask | hardware.ReflectX

	r := newResolver(false)
	r.Output(ident.ByName("eDP-1")).SetReflection(hardware.ReflectX | hardware.ReflectY)

	if _, err := r.Resolve(f); !errors.Is(err, ErrCapabilityMismatch) {
		t.Fatalf("expected ErrCapabilityMismatch for xy reflection, got %v", err)
	}
}

func TestResolve_InferredUnsupportedRotationFallsBack(t *testing.T) {
	f := hwtest.Laptop()
	f.Crtcs[0].Rotation = hardware.Rotate90
	f.Crtcs[1].Rotations = hardware.Rotate0

	r := newResolver(false)
	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if plan.Targets[0].Rotation != hardware.Rotate0 {
		t.Fatalf("expected fallback to rotation 0, got %v", plan.Targets[0].Rotation)
	}
	if len(plan.Warnings) == 0 || !errors.Is(plan.Warnings[0], ErrDegradedDefault) {
		t.Fatalf("expected a degraded-default warning, got %v", plan.Warnings)
	}
}

func TestResolve_PreferredOnDisconnectedOutputFails(t *testing.T) {
	f := hwtest.Laptop()
	r := newResolver(false)
	r.Output(ident.ByName("HDMI-1")).SetMode(ident.Preferred())

	_, err := r.Resolve(f)
	if !errors.Is(err, ErrUnknownIdentifier) {
		t.Fatalf("expected ErrUnknownIdentifier, got %v", err)
	}
}

func TestResolve_ExplicitModeLookup(t *testing.T) {
	cases := []struct {
		name string
		mode ident.Identifier
		want error
	}{
		{"unknown name", ident.ByName("800x600"), ErrUnknownIdentifier},
		{"not offered by output", ident.ByName("2560x1440"), ErrCapabilityMismatch},
		{"unknown id", ident.ByID(0x999), ErrUnknownIdentifier},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newResolver(false)
			r.Output(ident.ByName("eDP-1")).SetMode(tc.mode)
			if _, err := r.Resolve(hwtest.Laptop()); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	r := newResolver(false)
	r.Output(ident.ByName("eDP-1")).SetMode(ident.ByName("1280x720"))
	plan, err := r.Resolve(hwtest.Laptop())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if plan.Targets[0].Mode != 0x101 || plan.Targets[0].Crtc != 0x10 {
		t.Fatalf("expected mode 0x101 on crtc 0x10, got %+v", plan.Targets[0])
	}
}

func TestResolve_ExplicitCrtcLookup(t *testing.T) {
	f := hwtest.Laptop()
	f.Crtcs = append(f.Crtcs, hwtest.Crtc(0x12))

	r := newResolver(false)
	r.Output(ident.ByName("eDP-1")).SetCrtc(ident.ByID(0x12))
	if _, err := r.Resolve(f); !errors.Is(err, ErrCapabilityMismatch) {
		t.Fatalf("expected ErrCapabilityMismatch, got %v", err)
	}

	r = newResolver(false)
	r.Output(ident.ByName("eDP-1")).SetCrtc(ident.ByID(0x99))
	if _, err := r.Resolve(f); !errors.Is(err, ErrUnknownIdentifier) {
		t.Fatalf("expected ErrUnknownIdentifier, got %v", err)
	}

	r = newResolver(false)
	r.Output(ident.ByName("eDP-1")).SetCrtc(ident.ByIndex(1))
	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	// Moving to an idle crtc keeps no mode, so the output turns off.
	if plan.Targets[0].Enabled() {
		t.Fatalf("expected output off on idle crtc without a mode, got %+v", plan.Targets[0])
	}
}

func TestResolve_PreferredModePicksCrtcAndGrowsScreen(t *testing.T) {
	f := hwtest.Laptop()
	plugHDMI(f)

	r := newResolver(false)
	o := r.Output(ident.ByName("HDMI-1"))
	o.SetMode(ident.Preferred())
	o.SetPosition(1920, 0)

	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	hdmi, ok := plan.Target(0x41)
	if !ok {
		t.Fatalf("missing HDMI-1 target")
	}
	if hdmi.Crtc != 0x11 {
		t.Fatalf("expected free crtc 0x11, got 0x%x", hdmi.Crtc)
	}
	if hdmi.Mode != 0x103 {
		t.Fatalf("expected density match 0x103 (2560x1440), got 0x%x", hdmi.Mode)
	}
	if plan.ScreenWidth != 1920+2560 || plan.ScreenHeight != 1440 {
		t.Fatalf("expected screen %dx%d, got %dx%d", 1920+2560, 1440, plan.ScreenWidth, plan.ScreenHeight)
	}
}

func TestPreferredMode(t *testing.T) {
	bounds := hardware.ScreenBounds{Height: 1080, MmHeight: 286}
	modes := []hardware.Mode{
		hwtest.Mode(1, 1280, 720),
		hwtest.Mode(2, 1920, 1080),
		hwtest.Mode(3, 2560, 1440),
	}

	info := &hardware.OutputInfo{MmHeight: 340}
	m, ok := preferredMode(bounds, info, modes)
	if !ok || m.XID() != 3 {
		t.Fatalf("expected density match mode 3, got %+v", m)
	}

	info.NumPreferred = 1
	m, _ = preferredMode(bounds, info, modes)
	if m.XID() != 1 {
		t.Fatalf("expected hardware preferred mode 1, got %d", m.XID())
	}

	// Unknown physical size: closest height wins, first on ties.
	info = &hardware.OutputInfo{}
	m, _ = preferredMode(bounds, info, modes)
	if m.XID() != 2 {
		t.Fatalf("expected height match mode 2, got %d", m.XID())
	}

	if _, ok := preferredMode(bounds, info, nil); ok {
		t.Fatalf("expected no mode from an empty list")
	}
}

func TestResolve_AutomaticTurnsOnConnectedOutput(t *testing.T) {
	f := hwtest.Laptop()
	plugHDMI(f)

	plan, err := newResolver(true).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	hdmi, _ := plan.Target(0x41)
	if !hdmi.Enabled() || hdmi.Crtc != 0x11 {
		t.Fatalf("expected HDMI-1 enabled on crtc 0x11, got %+v", hdmi)
	}
	edp, _ := plan.Target(0x40)
	if edp.Crtc != 0x10 || edp.Mode != 0x100 {
		t.Fatalf("automatic must not touch a driven connected output, got %+v", edp)
	}
}

func TestResolve_AutomaticTurnsOffDisconnectedOutput(t *testing.T) {
	f := hwtest.Laptop()
	f.Crtcs[1].Mode = 0x101
	f.Crtcs[1].Width, f.Crtcs[1].Height = 1280, 720
	f.Crtcs[1].Outputs = []uint32{0x41}
	f.Outputs[1].Crtc = 0x11

	plan, err := newResolver(true).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	hdmi, _ := plan.Target(0x41)
	if hdmi.Enabled() {
		t.Fatalf("expected HDMI-1 off, got %+v", hdmi)
	}

	// Without the automatic policy the stale binding is kept.
	plan, err = newResolver(false).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	hdmi, _ = plan.Target(0x41)
	if !hdmi.Enabled() {
		t.Fatalf("expected HDMI-1 to keep its crtc, got %+v", hdmi)
	}
}

func TestResolve_CallerConfiguredOutputIsNotAutomatic(t *testing.T) {
	f := hwtest.Laptop()
	plugHDMI(f)

	r := newResolver(true)
	r.Output(ident.ByName("HDMI-1")).SetPrimary(false)

	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if hdmi, _ := plan.Target(0x41); hdmi.Enabled() {
		t.Fatalf("caller-configured output must not follow automatic policy, got %+v", hdmi)
	}
}

func TestResolve_GammaInferredFromRamp(t *testing.T) {
	f := hwtest.Laptop()
	want := gamma.Curve{Red: 2.2, Green: 2.2, Blue: 2.2, Brightness: 0.8}
	f.Gamma[0x10] = want

	plan, err := newResolver(false).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	got := plan.Targets[0].Gamma
	if math.Abs(got.Red-want.Red) > 0.02 || math.Abs(got.Brightness-want.Brightness) > 0.01 {
		t.Fatalf("gamma = %+v, want about %+v", got, want)
	}
}

func TestResolve_GammaAndTransformFailuresDegrade(t *testing.T) {
	f := hwtest.Laptop()
	f.GammaErr = hwtest.ErrInjected
	f.TransformErr = hwtest.ErrInjected

	plan, err := newResolver(false).Resolve(f)
	if err != nil {
		t.Fatalf("degraded defaults must not fail the pass: %v", err)
	}
	if plan.Targets[0].Gamma != gamma.Identity() {
		t.Fatalf("expected identity gamma, got %+v", plan.Targets[0].Gamma)
	}
	if !plan.Targets[0].Transform.IsIdentity() {
		t.Fatalf("expected identity transform")
	}
	if len(plan.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(plan.Warnings), plan.Warnings)
	}
	for _, w := range plan.Warnings {
		if !errors.Is(w, ErrDegradedDefault) || w.Fatal() {
			t.Fatalf("unexpected warning kind: %v", w)
		}
	}
}

func TestResolve_ExplicitOverridesWin(t *testing.T) {
	f := hwtest.Laptop()
	r := newResolver(false)
	o := r.Output(ident.ByName("eDP-1"))
	o.SetRotation(hardware.Rotate270)
	o.SetReflection(hardware.ReflectY)
	o.SetGamma(gamma.Curve{Red: 1.1, Green: 1.2, Blue: 1.3, Brightness: 0.5})
	tr := hardware.IdentityTransform()
	tr.Matrix[0] = 2
	o.SetTransform(tr)
	o.SetPanning(&hardware.Panning{Width: 3840, Height: 2160})
	o.SetPrimary(false)

	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	edp := plan.Targets[0]
	if edp.Rotation != hardware.Rotate270|hardware.ReflectY {
		t.Fatalf("rotation = %v", edp.Rotation)
	}
	if edp.Gamma.Brightness != 0.5 || edp.Transform.Matrix[0] != 2 {
		t.Fatalf("gamma/transform not taken from override: %+v", edp)
	}
	if edp.Panning == nil || edp.Panning.Width != 3840 {
		t.Fatalf("panning not taken from override: %+v", edp.Panning)
	}
	if edp.Primary {
		t.Fatalf("primary override ignored")
	}
	// Sideways rotation swaps the screen extent.
	if plan.ScreenWidth != 1080 || plan.ScreenHeight != 1920 {
		t.Fatalf("expected screen 1080x1920, got %dx%d", plan.ScreenWidth, plan.ScreenHeight)
	}
}

func TestResolve_DuplicateExplicitPrimary(t *testing.T) {
	f := hwtest.Laptop()
	plugHDMI(f)
	r := newResolver(false)
	r.Output(ident.ByName("eDP-1")).SetPrimary(true)
	hdmi := r.Output(ident.ByName("HDMI-1"))
	hdmi.SetPrimary(true)
	hdmi.SetMode(ident.Preferred())

	if _, err := r.Resolve(f); !errors.Is(err, ErrCapabilityMismatch) {
		t.Fatalf("expected ErrCapabilityMismatch, got %v", err)
	}
}

func TestResolve_ExplicitPrimaryClearsInferred(t *testing.T) {
	f := hwtest.Laptop()
	plugHDMI(f)
	r := newResolver(false)
	hdmi := r.Output(ident.ByName("HDMI-1"))
	hdmi.SetPrimary(true)
	hdmi.SetMode(ident.Preferred())

	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if edp, _ := plan.Target(0x40); edp.Primary {
		t.Fatalf("inferred primary must yield to an explicit one")
	}
}

func TestResolve_DisableReleasesCrtc(t *testing.T) {
	f := hwtest.Laptop()
	r := newResolver(false)
	r.Output(ident.ByName("eDP-1")).Disable()

	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if plan.Targets[0].Enabled() || plan.Targets[0].Crtc != 0 {
		t.Fatalf("expected eDP-1 off, got %+v", plan.Targets[0])
	}
	if plan.ScreenWidth != 1920 || plan.ScreenHeight != 1080 {
		t.Fatalf("expected current screen size kept, got %dx%d", plan.ScreenWidth, plan.ScreenHeight)
	}
}

func TestResolve_CrtcClaimedTwice(t *testing.T) {
	f := hwtest.Laptop()
	plugHDMI(f)
	r := newResolver(false)
	hdmi := r.Output(ident.ByName("HDMI-1"))
	hdmi.SetCrtc(ident.ByID(0x10))
	hdmi.SetMode(ident.ByName("1920x1080"))

	if _, err := r.Resolve(f); !errors.Is(err, ErrCapabilityMismatch) {
		t.Fatalf("expected ErrCapabilityMismatch, got %v", err)
	}
}

func TestResolve_ScreenTooLarge(t *testing.T) {
	f := hwtest.Laptop()
	r := newResolver(false)
	r.Output(ident.ByName("eDP-1")).SetPosition(8000, 0)

	if _, err := r.Resolve(f); !errors.Is(err, ErrCapabilityMismatch) {
		t.Fatalf("expected ErrCapabilityMismatch, got %v", err)
	}
}

func TestResolve_HardwareFailureAborts(t *testing.T) {
	f := hwtest.Laptop()
	f.EnumerateErr = hwtest.ErrInjected

	plan, err := newResolver(false).Resolve(f)
	if !errors.Is(err, ErrHardwareQuery) || !errors.Is(err, hwtest.ErrInjected) {
		t.Fatalf("expected hardware query failure wrapping the cause, got %v", err)
	}
	if plan != nil {
		t.Fatalf("expected no plan")
	}
}

func TestResolve_MissingConfiguredOutput(t *testing.T) {
	r := newResolver(false)
	r.Output(ident.ByName("DP-9")).SetMode(ident.Preferred())

	if _, err := r.Resolve(hwtest.Laptop()); !errors.Is(err, ErrUnknownIdentifier) {
		t.Fatalf("expected ErrUnknownIdentifier, got %v", err)
	}
}

func TestResolve_VanishedOutputIsKept(t *testing.T) {
	f := hwtest.Laptop()
	r := newResolver(false)
	if _, err := r.Resolve(f); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	f.Outputs = f.Outputs[:1]
	if _, err := r.Resolve(f); err != nil {
		t.Fatalf("a vanished output must only warn: %v", err)
	}
	outs := r.Outputs()
	if len(outs) != 2 {
		t.Fatalf("expected 2 outputs kept, got %d", len(outs))
	}
	if !outs[0].Found() || outs[1].Found() {
		t.Fatalf("unexpected found flags: %v %v", outs[0].Found(), outs[1].Found())
	}
}

func TestResolve_IndexOnlyOverride(t *testing.T) {
	r := newResolver(false)
	r.Output(ident.ByIndex(0)).SetPosition(100, 50)

	plan, err := r.Resolve(hwtest.Laptop())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if plan.Targets[0].X != 100 || plan.Targets[0].Y != 50 {
		t.Fatalf("expected position 100,50, got %d,%d", plan.Targets[0].X, plan.Targets[0].Y)
	}
	if name, ok := r.Outputs()[0].ID.Name(); !ok || name != "eDP-1" {
		t.Fatalf("expected identity promoted onto the configured entry, got %v", r.Outputs()[0].ID)
	}
}

func TestApply(t *testing.T) {
	f := hwtest.Laptop()
	plan, err := newResolver(false).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if err := Apply(f, plan); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(f.Applied) != 1 || f.Applied[0].ScreenWidth != 1920 {
		t.Fatalf("unexpected applied configurations: %+v", f.Applied)
	}

	f.ApplyErr = hwtest.ErrInjected
	if err := Apply(f, plan); !errors.Is(err, ErrHardwareQuery) {
		t.Fatalf("expected ErrHardwareQuery, got %v", err)
	}
}

// dockOutput adds DP-1 (0x42), an output the server did not report
// before, connected with one mode and no CRTC.
func dockOutput(f *hwtest.Fake) {
	for i := range f.Crtcs {
		f.Crtcs[i].Possible = append(f.Crtcs[i].Possible, 0x42)
	}
	f.Outputs = append(f.Outputs, hardware.OutputInfo{
		ID:           hwtest.Named(0x42, "DP-1"),
		Connection:   hardware.Connected,
		Crtcs:        []uint32{0x10, 0x11},
		Modes:        []uint32{0x101},
		NumPreferred: 1,
	})
}

func TestResolve_AutomaticOnlyForNewlyDiscovered(t *testing.T) {
	f := hwtest.Laptop()
	r := newResolver(true)
	if _, err := r.Resolve(f); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	// HDMI-1 was first seen disconnected and idle, which needs no action.
	plugHDMI(f)
	dockOutput(f)
	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() after hotplug error: %v", err)
	}
	if hdmi, _ := plan.Target(0x41); hdmi.Enabled() {
		t.Fatalf("expected known HDMI-1 left off, got %+v", hdmi)
	}
	dp, _ := plan.Target(0x42)
	if !dp.Enabled() || dp.Crtc != 0x11 || dp.Mode != 0x101 {
		t.Fatalf("expected new DP-1 on crtc 0x11 mode 0x101, got %+v", dp)
	}
	for _, o := range r.Outputs() {
		if want := o.Label() == "DP-1"; o.Automatic() != want {
			t.Fatalf("%s: automatic = %v, want %v", o.Label(), o.Automatic(), want)
		}
	}
}

func TestResolve_AutomaticLeavesDisabledOutputOff(t *testing.T) {
	f := hwtest.Laptop()
	r := newResolver(true)
	if _, err := r.Resolve(f); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	// Another client turns the panel off.
	f.Crtcs[0].Mode = 0
	f.Crtcs[0].Width, f.Crtcs[0].Height = 0, 0
	f.Crtcs[0].Outputs = nil
	f.Outputs[0].Crtc = 0

	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if edp, _ := plan.Target(0x40); edp.Enabled() {
		t.Fatalf("expected eDP-1 to stay off, got %+v", edp)
	}
	if drift := plan.Drift(); len(drift) != 0 {
		t.Fatalf("expected no drift, got %v", drift)
	}
}

func TestResolve_AutomaticOutputTracksConnection(t *testing.T) {
	f := hwtest.Laptop()
	dockOutput(f)
	r := newResolver(true)
	if _, err := r.Resolve(f); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	// Unplugged while still bound: turned off.
	dp := &f.Outputs[2]
	dp.Connection = hardware.Disconnected
	dp.Crtc = 0x11
	f.Crtcs[1].Mode = 0x101
	f.Crtcs[1].Width, f.Crtcs[1].Height = 1280, 720
	f.Crtcs[1].Outputs = []uint32{0x42}
	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if tgt, _ := plan.Target(0x42); tgt.Enabled() {
		t.Fatalf("expected unplugged DP-1 off, got %+v", tgt)
	}

	// Releasing the policy leaves the binding alone.
	r.SetAutomatic(false)
	plan, err = r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if tgt, _ := plan.Target(0x42); !tgt.Enabled() {
		t.Fatalf("expected DP-1 left on without the policy, got %+v", tgt)
	}
}

func TestResetRequests(t *testing.T) {
	f := hwtest.Laptop()
	r := newResolver(false)
	r.Output(ident.ByName("eDP-1")).SetRotation(hardware.Rotate90)
	r.ResetRequests()

	plan, err := r.Resolve(f)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if edp, _ := plan.Target(0x40); edp.Rotation != hardware.Rotate0 {
		t.Fatalf("expected override to be dropped, got %v", edp.Rotation)
	}
}

func TestResetRequests_DropsOutputsNeverReported(t *testing.T) {
	f := hwtest.Laptop()
	r := newResolver(false)
	r.Output(ident.ByName("DP-9")).SetPrimary(true)

	if _, err := r.Resolve(f); !errors.Is(err, ErrUnknownIdentifier) {
		t.Fatalf("expected ErrUnknownIdentifier, got %v", err)
	}

	r.ResetRequests()
	outputs := r.Outputs()
	if len(outputs) != 2 {
		t.Fatalf("expected the two reported outputs to remain, got %d", len(outputs))
	}
	for _, o := range outputs {
		if o.Label() == "DP-9" {
			t.Fatalf("expected DP-9 to be dropped")
		}
	}
	if _, err := r.Resolve(f); err != nil {
		t.Fatalf("Resolve() after reset error: %v", err)
	}
}
