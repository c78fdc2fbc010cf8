package display

import (
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// Device is the real SSD1306 OLED on the I2C bus. The controller sits at
// the fixed bus address 0x3C; its reset line must be pulsed low-then-high
// before first use.
type Device struct {
	dev *ssd1306.Dev
	bus i2c.BusCloser
	rst gpio.PinOut
}

// Open initializes the periph host, pulses the reset line, opens the I2C
// bus (busName "" selects the first available) and configures the SSD1306.
func Open(busName, resetPin string) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing periph host: %w", err)
	}

	rst := gpioreg.ByName(resetPin)
	if rst == nil {
		return nil, fmt.Errorf("reset pin %q not found", resetPin)
	}
	if err := pulseReset(rst); err != nil {
		return nil, fmt.Errorf("pulsing display reset: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("opening i2c bus %q: %w", busName, err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.Opts{W: Width, H: Height})
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("configuring ssd1306: %w", err)
	}

	return &Device{dev: dev, bus: bus, rst: rst}, nil
}

// pulseReset drives the reset line high, low, then high again with the
// settle delays the controller datasheet asks for.
func pulseReset(rst gpio.PinOut) error {
	for _, level := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := rst.Out(level); err != nil {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

// Bounds returns the drawable area.
func (d *Device) Bounds() image.Rectangle {
	return d.dev.Bounds()
}

// Draw pushes a region of the frame to the OLED.
func (d *Device) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	return d.dev.Draw(r, src, sp)
}

// Halt blanks the display, drives the reset line low and closes the bus.
func (d *Device) Halt() error {
	err := d.dev.Halt()
	if rstErr := d.rst.Out(gpio.Low); err == nil {
		err = rstErr
	}
	if closeErr := d.bus.Close(); err == nil {
		err = closeErr
	}
	return err
}
