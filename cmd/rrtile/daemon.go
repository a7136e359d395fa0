package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/rrtile/internal/config"
	"github.com/1broseidon/rrtile/internal/daemon"
	"github.com/1broseidon/rrtile/internal/ipc"
	"github.com/1broseidon/rrtile/internal/logging"
	"github.com/1broseidon/rrtile/internal/platform"
	"github.com/1broseidon/rrtile/internal/resolver"
	"github.com/1broseidon/rrtile/internal/rotation"
	"github.com/1broseidon/rrtile/internal/tiling"
	"github.com/1broseidon/rrtile/internal/x11"
)

// eventBuffer is the number of screen change notifications queued ahead of
// the loop.
const eventBuffer = 16

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/rrtile/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rrtile daemon [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Track RandR screen changes, keep one region per output and refit")
		fmt.Fprintln(os.Stderr, "windows when an output rotates or resizes. SIGHUP reloads the config.")
	}
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config

	logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer.Close()
	slog.SetDefault(logger)

	if res.File != "" {
		logger.Info("configuration loaded", "file", res.File, "outputs", len(cfg.Outputs))
	} else {
		logger.Info("no configuration file, using defaults")
	}

	conn, err := x11.NewConnection(cfg.Display)
	if err != nil {
		logger.Error("failed to connect to display", "err", err)
		return 1
	}
	defer conn.Close()

	hw := x11.NewRandR(conn)
	events, err := x11.NewEventSource(conn, eventBuffer)
	if err != nil {
		logger.Error("failed to select screen change events", "err", err)
		return 1
	}

	tiler := tiling.NewTiler(platform.NewLinuxBackend(conn), tilingOptions(cfg))

	outputs := resolver.New(resolver.Config{Automatic: cfg.Automatic, Logger: logger})
	if err := cfg.ApplyTo(outputs); err != nil {
		logger.Error("invalid output configuration", "err", err)
		return 1
	}

	bridge := daemon.NewBridge(daemon.BridgeConfig{
		Root:       uint32(conn.Root),
		ApplyDrift: cfg.ApplyOnChange,
		Logger:     logger,
	}, hw, outputs, tiler, rotation.NewTracker())

	if rot, err := hw.ScreenRotation(); err != nil {
		logger.Warn("could not read screen rotation; origin takes its first notification as baseline", "err", err)
	} else {
		bridge.SeedOrigin(rot)
	}

	// The first pass applies configured overrides; without any it only
	// discovers outputs and creates their regions.
	if _, err := bridge.Rescan(len(cfg.Outputs) > 0); err != nil {
		logger.Error("initial scan failed", "err", err)
	}

	loop := daemon.NewLoop(daemon.LoopConfig{
		Interval: cfg.ResyncInterval,
		Logger:   logger,
	}, bridge, events.Events())

	ctrl := &controller{
		configPath: *path,
		loop:       loop,
		bridge:     bridge,
		resolver:   outputs,
		tiler:      tiler,
		logger:     logger,
	}

	ipcServer, err := ipc.NewServer(ctrl, logger)
	if err != nil {
		logger.Error("failed to create IPC server", "err", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		logger.Error("failed to start IPC server", "err", err)
		return 1
	}
	defer ipcServer.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				logger.Info("received SIGHUP, reloading config")
				if err := ctrl.Reload(ctx); err != nil {
					logger.Error("config reload failed", "err", err)
				}
			}
		}
	}()

	go events.Run()
	defer events.Stop()

	logger.Info("rrtile daemon started", "root", fmt.Sprintf("0x%x", uint32(conn.Root)))
	loop.Run(ctx)
	logger.Info("shutting down rrtile daemon")
	return 0
}

func tilingOptions(cfg *config.Config) tiling.Options {
	return tiling.Options{Mode: tiling.RefitMode(cfg.Refit), Gap: cfg.Gap}
}

// controller exposes the running daemon to the IPC server. Everything that
// touches the bridge or resolver runs on the loop goroutine.
type controller struct {
	configPath string
	loop       *daemon.Loop
	bridge     *daemon.Bridge
	resolver   *resolver.Resolver
	tiler      *tiling.Tiler
	logger     *slog.Logger
}

func (c *controller) Status() daemon.Status {
	return c.bridge.Status()
}

func (c *controller) Rescan(ctx context.Context, force bool) error {
	return c.loop.Rescan(ctx, force)
}

// Reload re-reads the configuration and rescans. log_level, log_file,
// display and resync_interval take effect on restart.
func (c *controller) Reload(ctx context.Context) error {
	res, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	cfg := res.Config

	return c.loop.Do(ctx, func() error {
		if err := cfg.ApplyTo(c.resolver); err != nil {
			return err
		}
		c.bridge.SetApplyDrift(cfg.ApplyOnChange)
		c.tiler.SetOptions(tilingOptions(cfg))
		_, err := c.bridge.Rescan(len(cfg.Outputs) > 0)
		if err == nil {
			c.logger.Info("config reloaded", "outputs", len(cfg.Outputs))
		}
		return err
	})
}
