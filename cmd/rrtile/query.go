package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/1broseidon/rrtile/internal/gamma"
	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/tui"
	"github.com/1broseidon/rrtile/internal/x11"
)

func runQuery(args []string) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	display := fs.String("display", "", "X display (default: config display, then $DISPLAY)")
	path := fs.String("config", "", "Config file path (default: ~/.config/rrtile/config.yaml)")
	dump := fs.Bool("dump", false, "Dump the raw snapshot instead of the report")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rrtile query [--display DISPLAY] [--dump]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the screen, outputs, CRTCs and modes as the X server reports them.")
	}
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}

	hw, closeConn, err := openDisplay(*display, *path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeConn()

	snap, err := hardware.Fetch(hw)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *dump {
		cs := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
		cs.Fdump(os.Stdout, snap)
		return 0
	}

	report := tui.Report{Snapshot: snap, Gamma: make(map[uint32]gamma.Curve)}
	if rot, err := hw.ScreenRotation(); err == nil {
		report.Rotation = rot
	}
	for _, o := range snap.Outputs {
		if primary, err := hw.IsPrimary(o.XID()); err == nil && primary {
			report.Primary = o.XID()
		}
	}
	for _, c := range snap.Crtcs {
		if c.Mode == 0 || c.GammaSize == 0 {
			continue
		}
		ramp, err := hw.GetGamma(c.XID(), c.GammaSize)
		if err != nil {
			continue
		}
		report.Gamma[c.XID()] = gamma.Estimate(ramp.Red, ramp.Green, ramp.Blue)
	}

	if err := tui.Render(os.Stdout, report, tui.DetectOptions(os.Stdout)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// openDisplay connects to display, falling back to the configured display.
func openDisplay(display, configPath string) (*x11.RandR, func(), error) {
	if display == "" {
		if res, err := loadConfig(configPath); err == nil {
			display = res.Config.Display
		}
	}
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to display: %w", err)
	}
	return x11.NewRandR(conn), conn.Close, nil
}
