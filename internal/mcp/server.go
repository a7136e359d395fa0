// Package mcp serves read-only display tools over the Model Context
// Protocol.
package mcp

import (
	"context"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/rrtile/internal/hardware"
	"github.com/1broseidon/rrtile/internal/ipc"
	"github.com/1broseidon/rrtile/internal/resolver"
)

const (
	ServerName    = "rrtile"
	ServerVersion = "0.1.0"
)

// Planner resolves the configuration at path (empty for the default file)
// against the current hardware without applying it.
type Planner func(path string) (*resolver.Plan, error)

// DaemonClient is the part of the IPC client the status tool needs.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
}

// Options wire the server to the display and the daemon.
type Options struct {
	Hardware hardware.Querier
	Planner  Planner
	Daemon   DaemonClient
}

// Server is the MCP server for rrtile.
type Server struct {
	mcpServer *mcpsdk.Server

	// hwMu serializes X requests; tool calls may arrive concurrently.
	hwMu    sync.Mutex
	hw      hardware.Querier
	planner Planner
	daemon  DaemonClient
}

// NewServer creates the server and registers its tools.
func NewServer(opts Options) *Server {
	s := &Server{
		hw:      opts.Hardware,
		planner: opts.Planner,
		daemon:  opts.Daemon,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List the display outputs the X server reports: connection state, current CRTC geometry and rotation, and the supported modes (preferred and current modes are flagged).",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resolve_configuration",
		Description: "Resolve the rrtile configuration against the current hardware without applying it. Returns the fully determined target for every output, the resulting screen size, and the list of differences from the current state.",
	}, s.handleResolve)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "status",
		Description: "Report whether the rrtile daemon is running, with its resolved outputs, tracked screen rotations and last error.",
	}, s.handleStatus)
}
