package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/rrtile/internal/ipc"
	"github.com/1broseidon/rrtile/internal/logging"
	"github.com/1broseidon/rrtile/internal/mcp"
	"github.com/1broseidon/rrtile/internal/resolver"
	"github.com/1broseidon/rrtile/internal/x11"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rrtile mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'rrtile mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stdout, "Usage: rrtile mcp serve")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Start the MCP server on stdio. Tools: list_outputs,")
		fmt.Fprintln(os.Stdout, "resolve_configuration, status.")
		return 0
	}

	res, err := loadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	opts := mcp.Options{Daemon: ipc.NewClient()}

	// Without a display the hardware tools report an error; status still works.
	conn, err := x11.NewConnection(res.Config.Display)
	if err != nil {
		log.Printf("Warning: no display connection: %v", err)
	} else {
		defer conn.Close()
		hw := x11.NewRandR(conn)
		opts.Hardware = hw
		opts.Planner = func(path string) (*resolver.Plan, error) {
			res, err := loadConfig(path)
			if err != nil {
				return nil, err
			}
			r := resolver.New(resolver.Config{Automatic: res.Config.Automatic, Logger: logging.Discard()})
			if err := res.Config.ApplyTo(r); err != nil {
				return nil, err
			}
			return r.Resolve(hw)
		}
	}

	server := mcp.NewServer(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Printf("MCP server error: %v", err)
		return 1
	}
	return 0
}
