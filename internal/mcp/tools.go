package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/resolver"
)

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, args ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	if s.hw == nil {
		return nil, ListOutputsOutput{}, fmt.Errorf("no display connection")
	}

	s.hwMu.Lock()
	snap, err := hardware.Fetch(s.hw)
	s.hwMu.Unlock()
	if err != nil {
		return nil, ListOutputsOutput{}, fmt.Errorf("failed to query outputs: %w", err)
	}

	out := ListOutputsOutput{
		ScreenWidth:  int(snap.Bounds.Width),
		ScreenHeight: int(snap.Bounds.Height),
		Outputs:      []OutputInfo{},
	}
	for i := range snap.Outputs {
		o := &snap.Outputs[i]
		if args.Connected && o.Connection != hardware.Connected {
			continue
		}
		out.Outputs = append(out.Outputs, describeOutput(snap, o))
	}
	return nil, out, nil
}

func describeOutput(snap *hardware.Snapshot, o *hardware.OutputInfo) OutputInfo {
	info := OutputInfo{
		ID:         o.XID(),
		Name:       o.Name(),
		Connection: o.Connection.String(),
		MmWidth:    int(o.MmWidth),
		MmHeight:   int(o.MmHeight),
	}

	var current uint32
	if c, ok := snap.Crtc(o.Crtc); ok && c.Mode != 0 {
		current = c.Mode
		info.Crtc = c.XID()
		info.X, info.Y = int(c.X), int(c.Y)
		info.Width, info.Height = int(c.Width), int(c.Height)
		info.Rotation = c.Rotation.String()
	}

	for i, m := range snap.ModesOf(o) {
		info.Modes = append(info.Modes, ModeInfo{
			ID:        m.XID(),
			Name:      modeName(m),
			Width:     int(m.Width),
			Height:    int(m.Height),
			Refresh:   m.RefreshRate(),
			Preferred: i < o.NumPreferred,
			Current:   m.XID() == current,
		})
	}
	return info
}

func modeName(m hardware.Mode) string {
	if name, ok := m.ID.Name(); ok {
		return name
	}
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

func (s *Server) handleResolve(_ context.Context, _ *mcpsdk.CallToolRequest, args ResolveInput) (*mcpsdk.CallToolResult, ResolveOutput, error) {
	if s.planner == nil {
		return nil, ResolveOutput{}, fmt.Errorf("no display connection")
	}

	s.hwMu.Lock()
	plan, err := s.planner(args.ConfigPath)
	s.hwMu.Unlock()
	if err != nil {
		return nil, ResolveOutput{}, err
	}
	return nil, describePlan(plan), nil
}

func describePlan(plan *resolver.Plan) ResolveOutput {
	out := ResolveOutput{
		ScreenWidth:  plan.ScreenWidth,
		ScreenHeight: plan.ScreenHeight,
		Targets:      make([]TargetInfo, 0, len(plan.Targets)),
		Drift:        plan.Drift(),
	}
	if out.Drift == nil {
		out.Drift = []string{}
	}
	for _, t := range plan.Targets {
		ti := TargetInfo{
			Output:   t.Name,
			Enabled:  t.Enabled(),
			Rotation: t.Rotation.String(),
			Primary:  t.Primary,
		}
		if t.Enabled() {
			ti.Crtc, ti.Mode = t.Crtc, t.Mode
			ti.X, ti.Y, ti.Width, ti.Height = t.Bounds()
			g := t.Gamma
			ti.Gamma = fmt.Sprintf("%.2f:%.2f:%.2f @ %.2f", g.Red, g.Green, g.Blue, g.Brightness)
		}
		out.Targets = append(out.Targets, ti)
	}
	for _, w := range plan.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	return out
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	if s.daemon == nil {
		return nil, StatusOutput{}, nil
	}
	st, err := s.daemon.GetStatus()
	if err != nil {
		// Not running is a valid answer, not a tool failure.
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: fmt.Sprintf("daemon not reachable: %v", err)},
			},
		}, StatusOutput{}, nil
	}

	out := StatusOutput{
		Running:       st.DaemonRunning,
		UptimeSeconds: st.UptimeSeconds,
		Scans:         st.Scans,
		Events:        st.Events,
		LastError:     st.LastError,
		Outputs:       st.Outputs,
	}
	for _, e := range st.Rotations {
		out.Rotations = append(out.Rotations, RotationInfo{Screen: e.Screen, Rotation: e.Rotation.String()})
	}
	return nil, out, nil
}
