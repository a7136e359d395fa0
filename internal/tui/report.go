// Package tui renders display state for the terminal: a styled report on a
// TTY and plain text otherwise.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/rrtile/internal/gamma"
	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/tiling"
)

// Report is what `rrtile query` shows.
type Report struct {
	Snapshot *hardware.Snapshot
	Rotation hardware.Rotation
	Primary  uint32
	// Gamma holds the estimated curve per CRTC id.
	Gamma map[uint32]gamma.Curve
}

// Options control rendering.
type Options struct {
	Styled bool
	Width  int
	// MapHeight is the layout map height in lines; 0 omits the map.
	MapHeight int
}

// DetectOptions styles output only when f is a terminal and sizes the map
// to its width.
func DetectOptions(f *os.File) Options {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return Options{Width: 80}
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		w = 80
	}
	return Options{Styled: true, Width: w, MapHeight: 12}
}

type styles struct {
	header, label, value, dim, good, bad lipgloss.Style
}

func newStyles(styled bool) styles {
	if !styled {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain}
	}
	return styles{
		header: lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		value:  lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		good:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		bad:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// Render writes the report.
func Render(w io.Writer, r Report, opts Options) error {
	snap := r.Snapshot
	if snap == nil {
		return fmt.Errorf("no snapshot")
	}
	st := newStyles(opts.Styled)
	b := snap.Bounds

	var lines []string
	lines = append(lines, st.header.Render("Screen")+" "+
		st.value.Render(fmt.Sprintf("%dx%d", b.Width, b.Height))+
		st.dim.Render(fmt.Sprintf("  (min %dx%d, max %dx%d, %dx%d mm, rotation %s)",
			b.MinWidth, b.MinHeight, b.MaxWidth, b.MaxHeight, b.MmWidth, b.MmHeight, r.Rotation)))

	for i := range snap.Outputs {
		lines = append(lines, "")
		lines = append(lines, renderOutput(st, r, &snap.Outputs[i])...)
	}

	lines = append(lines, "", st.header.Render("CRTCs"))
	for _, c := range snap.Crtcs {
		state := st.dim.Render("idle")
		if c.Mode != 0 {
			state = st.value.Render(fmt.Sprintf("%dx%d+%d+%d", c.Width, c.Height, c.X, c.Y)) +
				" " + c.Rotation.String()
		}
		extra := ""
		if !c.Current.IsIdentity() {
			extra += " transformed"
		}
		if c.Panning != nil && !c.Panning.IsZero() {
			extra += " panning"
		}
		lines = append(lines, fmt.Sprintf("  %s %s%s %s",
			st.label.Render(fmt.Sprintf("0x%x", c.XID())), state, extra,
			st.dim.Render(fmt.Sprintf("(gamma size %d)", c.GammaSize))))
	}

	if opts.MapHeight > 0 {
		lines = append(lines, "")
		lines = append(lines, RenderLayoutMap(currentBoxes(snap), int(b.Width), int(b.Height), max(opts.Width-2, 20), opts.MapHeight)...)
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func renderOutput(st styles, r Report, o *hardware.OutputInfo) []string {
	conn := st.dim.Render(o.Connection.String())
	if o.Connection == hardware.Connected {
		conn = st.good.Render(o.Connection.String())
	}
	head := st.header.Render(o.Name()) + " " + conn
	if r.Primary != 0 && r.Primary == o.XID() {
		head += " " + st.value.Render("primary")
	}
	lines := []string{head}

	row := func(label, value string) {
		lines = append(lines, "  "+st.label.Render(fmt.Sprintf("%-9s", label))+" "+value)
	}

	var current uint32
	if c, ok := r.Snapshot.Crtc(o.Crtc); ok && c.Mode != 0 {
		current = c.Mode
		row("crtc", st.value.Render(fmt.Sprintf("0x%x", c.XID()))+
			fmt.Sprintf(" %dx%d+%d+%d %s", c.Width, c.Height, c.X, c.Y, c.Rotation))
		if g, ok := r.Gamma[c.XID()]; ok {
			row("gamma", fmt.Sprintf("%.2f:%.2f:%.2f brightness %.2f", g.Red, g.Green, g.Blue, g.Brightness))
		}
	} else if o.Connection == hardware.Connected {
		row("crtc", st.bad.Render("none"))
	}
	if o.MmWidth != 0 || o.MmHeight != 0 {
		row("size", fmt.Sprintf("%dx%d mm", o.MmWidth, o.MmHeight))
	}

	for i, m := range r.Snapshot.ModesOf(o) {
		mark := " "
		if m.XID() == current {
			mark = "*"
		}
		pref := ""
		if i < o.NumPreferred {
			pref = st.dim.Render(" preferred")
		}
		text := fmt.Sprintf("%s %dx%d %.2fHz", mark, m.Width, m.Height, m.RefreshRate())
		if mark == "*" {
			text = st.value.Render(text)
		}
		label := ""
		if i == 0 {
			label = "modes"
		}
		row(label, text+st.dim.Render(fmt.Sprintf(" (0x%x)", m.XID()))+pref)
	}
	return lines
}

func currentBoxes(snap *hardware.Snapshot) []Box {
	var boxes []Box
	for i := range snap.Outputs {
		o := &snap.Outputs[i]
		c, ok := snap.Crtc(o.Crtc)
		if !ok || c.Mode == 0 {
			continue
		}
		boxes = append(boxes, Box{
			Label: o.Name(),
			Rect:  tiling.Rect{X: int(c.X), Y: int(c.Y), Width: int(c.Width), Height: int(c.Height)},
		})
	}
	return boxes
}

// PlanBoxes returns map boxes for the enabled targets of a plan.
func PlanBoxes(targets []hardware.Target) []Box {
	var boxes []Box
	for _, t := range targets {
		if !t.Enabled() {
			continue
		}
		x, y, w, h := t.Bounds()
		boxes = append(boxes, Box{Label: t.Name, Rect: tiling.Rect{X: x, Y: y, Width: w, Height: h}})
	}
	return boxes
}
