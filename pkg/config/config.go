package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the status panel.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Input      InputConfig      `toml:"input"`
	Display    DisplayConfig    `toml:"display"`
	Panel      PanelConfig      `toml:"panel"`
	Collectors CollectorsConfig `toml:"collectors"`
}

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level"`
}

// InputConfig describes how the two raw input devices are located and read.
type InputConfig struct {
	// DeviceDir is the device-enumeration directory scanned for matches.
	DeviceDir string `toml:"device_dir"`

	// RotaryPattern and ButtonPattern are stable substrings matched against
	// entries in DeviceDir.
	RotaryPattern string `toml:"rotary_pattern"`
	ButtonPattern string `toml:"button_pattern"`

	// ConfirmKey is the key code whose rising edge confirms the selected
	// mode. Defaults to KEY_ENTER (28).
	ConfirmKey uint16 `toml:"confirm_key"`
}

// DisplayConfig describes the OLED framebuffer sink.
type DisplayConfig struct {
	// I2CBus names the bus to open ("" means the first available).
	I2CBus string `toml:"i2c_bus"`

	// ResetPin is the GPIO name of the display reset line.
	ResetPin string `toml:"reset_pin"`
}

// PanelConfig holds the timing contracts of the coordination engine.
type PanelConfig struct {
	// InactivityTimeout is how long after the last interaction the display
	// reverts from the selected-mode preview to the active mode.
	InactivityTimeout Duration `toml:"inactivity_timeout"`

	// RefreshThrottle caps poller-driven full redraws to one per window.
	RefreshThrottle Duration `toml:"refresh_throttle"`
}

// CollectorsConfig configures the periodic data producers.
type CollectorsConfig struct {
	Stats   StatsCollectorConfig   `toml:"stats"`
	Network NetworkCollectorConfig `toml:"network"`
}

// StatsCollectorConfig configures the host statistics poller.
type StatsCollectorConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
}

// NetworkCollectorConfig configures the network status monitor.
type NetworkCollectorConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
}

// DefaultConfig returns the default configuration. The values mirror the
// deployed hardware: encoder and button on platform devices, SSD1306 reset
// on GPIO4, 5s inactivity reversion, 1s redraw throttle.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Input: InputConfig{
			DeviceDir:     "/dev/input/by-path",
			RotaryPattern: "platform-rotary",
			ButtonPattern: "platform-button",
			ConfirmKey:    28, // KEY_ENTER
		},
		Display: DisplayConfig{
			I2CBus:   "",
			ResetPin: "GPIO4",
		},
		Panel: PanelConfig{
			InactivityTimeout: Duration{5 * time.Second},
			RefreshThrottle:   Duration{1 * time.Second},
		},
		Collectors: CollectorsConfig{
			Stats: StatsCollectorConfig{
				Enabled:  true,
				Interval: Duration{1 * time.Second},
			},
			Network: NetworkCollectorConfig{
				Enabled:  true,
				Interval: Duration{5 * time.Second},
			},
		},
	}
}

// Validate checks the configuration for values the panel cannot run with.
func (c *Config) Validate() error {
	switch c.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.General.LogLevel)
	}
	if c.Input.DeviceDir == "" {
		return fmt.Errorf("input.device_dir must not be empty")
	}
	if c.Input.RotaryPattern == "" || c.Input.ButtonPattern == "" {
		return fmt.Errorf("input device patterns must not be empty")
	}
	if c.Panel.InactivityTimeout.Duration <= 0 {
		return fmt.Errorf("panel.inactivity_timeout must be positive")
	}
	if c.Panel.RefreshThrottle.Duration <= 0 {
		return fmt.Errorf("panel.refresh_throttle must be positive")
	}
	if c.Collectors.Stats.Enabled && c.Collectors.Stats.Interval.Duration <= 0 {
		return fmt.Errorf("collectors.stats.interval must be positive")
	}
	if c.Collectors.Network.Enabled && c.Collectors.Network.Interval.Duration <= 0 {
		return fmt.Errorf("collectors.network.interval must be positive")
	}
	return nil
}
