package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/rrtile/internal/config"
	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/logging"
	"github.com/1broseidon/rrtile/internal/resolver"
	"github.com/1broseidon/rrtile/internal/tui"
)

func runApply(args []string) int {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/rrtile/config.yaml)")
	display := fs.String("display", "", "X display (default: config display, then $DISPLAY)")
	dryRun := fs.Bool("dry-run", false, "Print the resolved plan without applying it")
	noConfig := fs.Bool("no-config", false, "Ignore the outputs configured in the file")

	output := fs.String("output", "", "Output to override (name, 0xID or index)")
	crtc := fs.String("crtc", "", "CRTC for --output")
	mode := fs.String("mode", "", "Mode for --output (name, 0xID, index or 'preferred')")
	pos := fs.String("pos", "", "Position for --output as XxY")
	rotate := fs.Int("rotate", 0, "Rotation in degrees for --output (0, 90, 180, 270)")
	reflect := fs.String("reflect", "", "Reflection for --output (none, x, y, xy)")
	gammaFlag := fs.String("gamma", "", "Gamma for --output as R:G:B")
	brightness := fs.Float64("brightness", 1, "Brightness for --output (0..1)")
	primary := fs.Bool("primary", false, "Make --output primary")
	off := fs.Bool("off", false, "Turn --output off")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rrtile apply [--dry-run] [--output ID [--mode ID] [--pos XxY] [--rotate N] ...]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Resolve the configured output overrides, plus any given on the command")
		fmt.Fprintln(os.Stderr, "line for one output, against the current hardware and apply them.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config
	if *noConfig {
		cfg.Outputs = nil
	}

	if *output != "" {
		oc := outputEntry(cfg, *output)
		if set["crtc"] {
			oc.Crtc = *crtc
		}
		if set["mode"] {
			oc.Mode = *mode
		}
		if set["pos"] {
			p, err := parsePos(*pos)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 2
			}
			oc.Pos = p
		}
		if set["rotate"] {
			oc.Rotate = rotate
		}
		if set["reflect"] {
			oc.Reflect = reflect
		}
		if set["gamma"] {
			g, err := parseGamma(*gammaFlag)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 2
			}
			oc.Gamma = g
		}
		if set["brightness"] {
			oc.Brightness = brightness
		}
		if set["primary"] {
			oc.Primary = primary
			if *primary {
				clearOtherPrimaries(cfg, oc)
			}
		}
		if set["off"] {
			oc.Off = *off
			if *off {
				oc.Crtc, oc.Mode = "", ""
			}
		}
	} else if set["crtc"] || set["mode"] || set["pos"] || set["rotate"] || set["reflect"] ||
		set["gamma"] || set["brightness"] || set["primary"] || set["off"] {
		fmt.Fprintln(os.Stderr, "output overrides require --output")
		return 2
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	hw, closeConn, err := openDisplay(firstNonEmpty(*display, cfg.Display), "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeConn()

	logger, _, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	r := resolver.New(resolver.Config{Automatic: cfg.Automatic, Logger: logger})
	if err := cfg.ApplyTo(r); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	plan, err := r.Resolve(hw)
	if err != nil {
		printResolveError(os.Stderr, err)
		return 1
	}

	printPlan(os.Stdout, plan)
	if *dryRun {
		return 0
	}
	if len(plan.Drift()) == 0 && len(cfg.Outputs) == 0 {
		fmt.Println("nothing to apply")
		return 0
	}
	if err := resolver.Apply(hw, plan); err != nil {
		fmt.Fprintf(os.Stderr, "apply failed: %v\n", err)
		return 1
	}
	fmt.Println("applied")
	return 0
}

// outputEntry returns the config entry for name, appending one if needed.
func outputEntry(cfg *config.Config, name string) *config.OutputConfig {
	for i := range cfg.Outputs {
		if cfg.Outputs[i].Output == name {
			return &cfg.Outputs[i]
		}
	}
	cfg.Outputs = append(cfg.Outputs, config.OutputConfig{Output: name})
	return &cfg.Outputs[len(cfg.Outputs)-1]
}

func clearOtherPrimaries(cfg *config.Config, keep *config.OutputConfig) {
	for i := range cfg.Outputs {
		if &cfg.Outputs[i] != keep && cfg.Outputs[i].Primary != nil {
			cfg.Outputs[i].Primary = nil
		}
	}
}

// parsePos accepts XxY or X,Y.
func parsePos(s string) ([]int, error) {
	sep := "x"
	if strings.Contains(s, ",") {
		sep = ","
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid position %q (want XxY)", s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errX != nil || errY != nil {
		return nil, fmt.Errorf("invalid position %q (want XxY)", s)
	}
	return []int{x, y}, nil
}

// parseGamma accepts R:G:B or a single value for all channels.
func parseGamma(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) == 1 {
		parts = []string{parts[0], parts[0], parts[0]}
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid gamma %q (want R:G:B)", s)
	}
	out := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid gamma %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func printResolveError(w io.Writer, err error) {
	var errs resolver.Errors
	if errors.As(err, &errs) {
		fmt.Fprintln(w, "configuration cannot be resolved:")
		for _, e := range errs {
			fmt.Fprintf(w, "  %v\n", e)
		}
		return
	}
	fmt.Fprintln(w, err)
}

func printPlan(w *os.File, plan *resolver.Plan) {
	fmt.Fprintf(w, "screen %dx%d\n", plan.ScreenWidth, plan.ScreenHeight)
	for _, t := range plan.Targets {
		fmt.Fprintln(w, describeTarget(t))
	}
	for _, warn := range plan.Warnings {
		fmt.Fprintf(w, "warning: %v\n", warn)
	}
	drift := plan.Drift()
	if len(drift) == 0 {
		fmt.Fprintln(w, "no changes")
	} else {
		fmt.Fprintln(w, "changes:")
		for _, d := range drift {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}

	if opts := tui.DetectOptions(w); opts.MapHeight > 0 {
		for _, line := range tui.RenderLayoutMap(tui.PlanBoxes(plan.Targets), plan.ScreenWidth, plan.ScreenHeight, max(opts.Width-2, 20), opts.MapHeight) {
			fmt.Fprintln(w, line)
		}
	}
}

func describeTarget(t hardware.Target) string {
	if !t.Enabled() {
		return fmt.Sprintf("%-10s off", t.Name)
	}
	x, y, width, height := t.Bounds()
	line := fmt.Sprintf("%-10s %dx%d+%d+%d %s crtc 0x%x mode 0x%x", t.Name, width, height, x, y, t.Rotation, t.Crtc, t.Mode)
	if t.Primary {
		line += " primary"
	}
	g := t.Gamma
	if g.Red != 1 || g.Green != 1 || g.Blue != 1 || g.Brightness != 1 {
		line += fmt.Sprintf(" gamma %.2f:%.2f:%.2f@%.2f", g.Red, g.Green, g.Blue, g.Brightness)
	}
	return line
}
