package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/rrtile/internal/config"
	"github.com/1broseidon/rrtile/internal/daemon"
	"github.com/1broseidon/rrtile/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "query":
		os.Exit(runQuery(os.Args[2:]))
	case "apply":
		os.Exit(runApply(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "rescan":
		os.Exit(runRescan(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rrtile <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the rrtile daemon (foreground)")
	fmt.Fprintln(w, "  query               Show outputs, CRTCs and modes")
	fmt.Fprintln(w, "  apply               Resolve and apply output configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  rescan              Ask the daemon to rescan outputs")
	fmt.Fprintln(w, "  reload              Ask the daemon to reload its configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'rrtile <command> --help' for command-specific options.")
}

// loadConfig reads path, or the default config file when path is empty.
func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

func parseFlags(fs *flag.FlagSet, args []string) (ok bool, code int) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return false, 0
		}
		return false, 2
	}
	return true, 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rrtile status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Printf("scans:          %d\n", status.Scans)
	fmt.Printf("events:         %d\n", status.Events)
	fmt.Printf("screen:         %dx%d\n", status.Screen[0], status.Screen[1])
	if status.LastError != "" {
		fmt.Printf("last_error:     %s\n", status.LastError)
	}
	for _, e := range status.Rotations {
		fmt.Printf("rotation[%d]:    %s\n", e.Screen, e.Rotation)
	}
	for _, r := range status.Regions {
		fmt.Printf("region %d:       screen %d %s %s\n", r.Handle, r.Screen, r.Output, r.Rect)
	}
	printOutputs(os.Stdout, status.Outputs)
	return 0
}

func runRescan(args []string) int {
	fs := flag.NewFlagSet("rescan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	force := fs.Bool("force", false, "Apply the resolved configuration even if nothing drifted")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rrtile rescan [--force]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to re-resolve outputs and print the result.")
	}
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}

	data, err := ipc.NewClient().Rescan(*force)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("screen: %dx%d\n", data.ScreenWidth, data.ScreenHeight)
	printOutputs(os.Stdout, data.Outputs)
	return 0
}

func runReload(args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "Usage: rrtile reload")
		return 2
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("reloaded")
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  rrtile config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  rrtile config print [--path PATH] [--defaults]")
		fmt.Fprintln(os.Stderr, "  rrtile config explain [--path PATH] <yaml.path>")
		return 2
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/rrtile/config.yaml)")
	printDefaults := fs.Bool("defaults", false, "Print built-in defaults (print only)")
	if ok, code := parseFlags(fs, args[1:]); !ok {
		return code
	}

	switch args[0] {
	case "validate":
		if _, err := loadConfig(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			if res.File != "" {
				fmt.Printf("# file: %s\n", res.File)
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceEnv:
		return "env:" + src.Name
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}

func printOutputs(w io.Writer, outputs []daemon.OutputStatus) {
	for _, o := range outputs {
		state := "off"
		if o.Enabled {
			state = fmt.Sprintf("%dx%d+%d+%d %s crtc 0x%x mode 0x%x", o.Width, o.Height, o.X, o.Y, o.Rotation, o.Crtc, o.Mode)
		}
		var flags []string
		if !o.Found {
			flags = append(flags, "missing")
		}
		if o.Primary {
			flags = append(flags, "primary")
		}
		if o.Automatic {
			flags = append(flags, "automatic")
		}
		if o.Overrides != "" && o.Overrides != "none" {
			flags = append(flags, "overrides="+o.Overrides)
		}
		line := fmt.Sprintf("%-10s %s", o.Name, state)
		if len(flags) > 0 {
			line += " [" + strings.Join(flags, " ") + "]"
		}
		fmt.Fprintln(w, line)
	}
}
