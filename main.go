// statuspanel drives a small embedded device's OLED status panel: a
// rotary encoder and push button select and confirm an operating mode
// while host and network statistics are polled in the background, all
// rendered to a 128×64 SSD1306 over I2C.
//
// Usage:
//
//	statuspanel [flags]
//
// Flags:
//
//	-config string  Path to configuration file (default: XDG search paths)
//	-sim            Render to an in-memory sink instead of the OLED
//	-verbose        Enable verbose logging
//	-version        Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"gitlab.com/tinyland/lab/statuspanel/pkg/collectors"
	"gitlab.com/tinyland/lab/statuspanel/pkg/collectors/netmon"
	"gitlab.com/tinyland/lab/statuspanel/pkg/collectors/stats"
	"gitlab.com/tinyland/lab/statuspanel/pkg/config"
	"gitlab.com/tinyland/lab/statuspanel/pkg/display"
	"gitlab.com/tinyland/lab/statuspanel/pkg/input"
	"gitlab.com/tinyland/lab/statuspanel/pkg/mode"
	"gitlab.com/tinyland/lab/statuspanel/pkg/panel"
	"gitlab.com/tinyland/lab/statuspanel/pkg/render"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		simulate    = flag.Bool("sim", false, "Render to an in-memory sink instead of the OLED")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("statuspanel %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logLevel := parseLogLevel(cfg.General.LogLevel)
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	if err := run(ctx, cancel, cfg, logger, *simulate); err != nil {
		logger.Error("statuspanel failed", "error", err)
		os.Exit(1)
	}
	logger.Info("statuspanel stopped")
}

func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *slog.Logger, simulate bool) error {
	// Display sink. Only the render coordinator ever touches it.
	var sink display.Sink
	if simulate {
		logger.Info("using in-memory display sink")
		sink = display.NewMemory()
	} else {
		dev, err := display.Open(cfg.Display.I2CBus, cfg.Display.ResetPin)
		if err != nil {
			return fmt.Errorf("opening display: %w", err)
		}
		sink = dev
	}

	coord := render.NewCoordinator(sink,
		render.WithThrottle(cfg.Panel.RefreshThrottle.Duration),
		render.WithLogger(logger),
	)

	// Input devices. Failure to locate either one is fatal before any
	// loop starts; in -sim mode input is optional.
	events := make(chan input.Event, 16)
	readers, err := openReaders(cfg, logger)
	if err != nil {
		if !simulate {
			return err
		}
		logger.Warn("input devices unavailable, running display-only", "error", err)
	}

	machine := mode.NewMachine(coord, cfg.Panel.InactivityTimeout.Duration,
		mode.WithLogger(logger))

	registry := collectors.NewRegistry()
	if cfg.Collectors.Stats.Enabled {
		if err := registry.Register(stats.New(cfg.Collectors.Stats.Interval.Duration)); err != nil {
			return err
		}
	}
	if cfg.Collectors.Network.Enabled {
		if err := registry.Register(netmon.New(cfg.Collectors.Network.Interval.Duration)); err != nil {
			return err
		}
	}
	updates := make(chan collectors.Update, collectors.DefaultUpdateBufferSize)
	runner := collectors.NewRunner(registry, updates)
	bridge := panel.NewBridge(coord, logger)

	logger.Info("starting statuspanel",
		"collectors", registry.List(),
		"inactivity_timeout", cfg.Panel.InactivityTimeout.Duration,
	)

	// Producers: input readers, mode machine, collector runner, bridge.
	var wg sync.WaitGroup
	for _, r := range readers {
		wg.Add(1)
		go func(r *input.Reader) {
			defer wg.Done()
			if err := r.Run(ctx, events); err != nil {
				logger.Error("input reader failed", "error", err)
				cancel()
			}
		}(r)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		machine.Run(ctx, events)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		bridge.Run(ctx, updates)
	}()
	if err := runner.Start(ctx); err != nil {
		cancel()
		wg.Wait()
		coord.Close()
		return err
	}

	// Consumer: the coordinator owns the display until Close.
	errCh := make(chan error, 1)
	go func() {
		errCh <- coord.Run()
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		// Display write failure is fatal; stop the producers too.
		cancel()
	}

	runner.Stop()
	wg.Wait()

	// Producers have stopped; closing the queue triggers the goodbye
	// render and releases the display.
	coord.Close()
	if runErr == nil {
		runErr = <-errCh
	}
	return runErr
}

// openReaders locates and opens both input devices. Either device missing
// is an error.
func openReaders(cfg *config.Config, logger *slog.Logger) ([]*input.Reader, error) {
	loc := input.Locator{Dir: cfg.Input.DeviceDir}

	var readers []*input.Reader
	for _, d := range []struct {
		name    string
		pattern string
	}{
		{"rotary", cfg.Input.RotaryPattern},
		{"button", cfg.Input.ButtonPattern},
	} {
		path, err := loc.Locate(d.pattern)
		if err != nil {
			return nil, fmt.Errorf("locating %s device: %w", d.name, err)
		}
		r, err := input.NewReader(d.name, path, cfg.Input.ConfirmKey, logger)
		if err != nil {
			return nil, err
		}
		logger.Debug("opened input device", "device", d.name, "path", path)
		readers = append(readers, r)
	}
	return readers, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
