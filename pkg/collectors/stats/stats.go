// Package stats collects the host statistics shown on the panel: hostname,
// CPU load average, root filesystem usage and SoC temperature. Data comes
// from gopsutil, with `vcgencmd measure_temp` preferred for the
// temperature on Raspberry Pi firmware. Every field degrades independently
// to a documented fallback string; collection never fails the process and
// never blocks the render path.
package stats

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/sensors"
)

// Fallback values substituted when an individual field fails to collect.
const (
	FallbackHostname = "Unknown"
	FallbackValue    = "N/A"
)

// Snapshot is one complete reading. It is replaced wholesale each poll
// tick; there is no partial mutation.
type Snapshot struct {
	Hostname  string
	CPULoad   string
	Disk      string
	Temp      string
	Timestamp time.Time
}

// Equal reports whether the displayed fields match. The timestamp is
// deliberately excluded so unchanged snapshots do not force redraws.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Hostname == o.Hostname &&
		s.CPULoad == o.CPULoad &&
		s.Disk == o.Disk &&
		s.Temp == o.Temp
}

// Collector gathers host statistics. It satisfies the
// pkg/collectors.Collector interface (Name, Collect, Interval, Healthy).
type Collector struct {
	interval time.Duration
	rootPath string

	mu      sync.Mutex
	healthy bool

	// Injection points for tests.
	hostname  func() (string, error)
	loadAvg   func(ctx context.Context) (*load.AvgStat, error)
	diskUsage func(ctx context.Context, path string) (*disk.UsageStat, error)
	temps     func(ctx context.Context) ([]sensors.TemperatureStat, error)
	runCmd    func(ctx context.Context, name string, args ...string) (string, error)
}

// New creates a Collector polling on the given interval.
func New(interval time.Duration) *Collector {
	return &Collector{
		interval:  interval,
		rootPath:  "/",
		healthy:   true,
		hostname:  os.Hostname,
		loadAvg:   load.AvgWithContext,
		diskUsage: disk.UsageWithContext,
		temps:     sensors.TemperaturesWithContext,
		runCmd:    runCommand,
	}
}

// Name returns the collector's unique identifier.
func (c *Collector) Name() string {
	return "stats"
}

// Interval returns the polling cadence.
func (c *Collector) Interval() time.Duration {
	return c.interval
}

// Healthy reports whether the last collection produced any data.
func (c *Collector) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy
}

func (c *Collector) setHealthy(h bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthy = h
}

// Collect gathers one snapshot. Individual field failures substitute the
// documented fallback and are aggregated into the returned error; the
// snapshot itself is always usable.
func (c *Collector) Collect(ctx context.Context) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	snap := Snapshot{
		Hostname:  FallbackHostname,
		CPULoad:   FallbackValue,
		Disk:      FallbackValue,
		Temp:      FallbackValue,
		Timestamp: time.Now(),
	}

	var errs []string

	if name, err := c.hostname(); err == nil && name != "" {
		snap.Hostname = name
	} else if err != nil {
		errs = append(errs, fmt.Sprintf("hostname: %v", err))
	}

	if avg, err := c.loadAvg(ctx); err == nil {
		snap.CPULoad = fmt.Sprintf("%.2f", avg.Load1)
	} else {
		errs = append(errs, fmt.Sprintf("load: %v", err))
	}

	if usage, err := c.diskUsage(ctx, c.rootPath); err == nil {
		snap.Disk = fmt.Sprintf("%d/%dG", usage.Used>>30, usage.Total>>30)
	} else {
		errs = append(errs, fmt.Sprintf("disk: %v", err))
	}

	if temp, err := c.collectTemp(ctx); err == nil {
		snap.Temp = temp
	} else {
		errs = append(errs, fmt.Sprintf("temp: %v", err))
	}

	// Unhealthy only when nothing at all could be read.
	c.setHealthy(len(errs) < 4)

	if len(errs) > 0 {
		return snap, fmt.Errorf("stats: partial errors: %s", strings.Join(errs, "; "))
	}
	return snap, nil
}

// collectTemp prefers the Pi firmware reading, then falls back to the
// hottest CPU-ish sensor gopsutil can see.
func (c *Collector) collectTemp(ctx context.Context) (string, error) {
	if out, err := c.runCmd(ctx, "vcgencmd", "measure_temp"); err == nil {
		// Output looks like "temp=45.2'C".
		if _, val, ok := strings.Cut(strings.TrimSpace(out), "="); ok && val != "" {
			return val, nil
		}
	}

	readings, err := c.temps(ctx)
	if err != nil {
		return "", err
	}
	for _, r := range readings {
		key := strings.ToLower(r.SensorKey)
		if strings.Contains(key, "cpu") || strings.Contains(key, "coretemp") ||
			strings.Contains(key, "thermal") {
			return fmt.Sprintf("%.1f'C", r.Temperature), nil
		}
	}
	return "", fmt.Errorf("no cpu temperature sensor")
}

// runCommand executes an external probe and returns its trimmed stdout.
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
