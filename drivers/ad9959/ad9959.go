// Package ad9959 provides a driver for the Analog Devices AD9959 four-channel
// DDS over SPI.
//
// Register writes land in the chip's I/O buffers and only reach the DAC
// outputs after an I/O update pulse, so several channels can be staged and
// applied together:
//
//	d.SetFrequency(ad9959.Channel0, 10_000_000)
//	d.SetAmplitude(ad9959.Channel0|ad9959.Channel1, 512)
//	d.Update()
//
// The driver is synchronous and holds no locks. Use one Device per chip from
// a single goroutine, or serialise calls externally.
package ad9959

import (
	"errors"

	"tinygo.org/x/drivers"
)

// PinOutput drives a digital output. Nil pins are treated as not wired.
type PinOutput func(level bool)

// Defaults.
const (
	ReferenceDefault   = 25_000_000 // Hz, crystal on common eval boards
	MultiplierDefault  = 20
	CalibrationNominal = 10_000_000 // calibration constant meaning "exact reference"
)

var (
	ErrNoReference  = errors.New("ad9959: reference frequency must be non-zero")
	ErrPinUnset     = errors.New("ad9959: reset and update pins must be set")
	ErrReadChannel  = errors.New("ad9959: read requires exactly one selected channel")
	ErrNoCoreClock  = errors.New("ad9959: core clock not configured")
	ErrFrameTooLong = errors.New("ad9959: register frame exceeds buffer")
)

// Config describes the wiring and clocking of one chip. Integer-only.
type Config struct {
	// ReferenceHz is the REF_CLK input frequency.
	ReferenceHz uint32
	// Multiplier is the PLL multiplier. 0 or anything outside 4..20 disables
	// the PLL (core clock = reference).
	Multiplier uint8
	// CalibrationHz is the measured frequency of a nominal 10 MHz reference
	// tap; 0 means CalibrationNominal.
	CalibrationHz uint32
	// CFR is written to every channel by Reset; 0 selects CFRDefault.
	CFR uint32

	Reset       PinOutput // active high
	ChipSelect  PinOutput // active low; nil when the SPI port drives CS
	Update      PinOutput // IO_UPDATE, active high
	SerialClock PinOutput // optional SCLK kick used during Reset
}

// DefaultConfig provides clock defaults; caller must set the pins.
func DefaultConfig() Config {
	return Config{
		ReferenceHz:   ReferenceDefault,
		Multiplier:    MultiplierDefault,
		CalibrationHz: CalibrationNominal,
		CFR:           CFRDefault,
	}
}

// Validate checks the fields every operation depends on.
func (c Config) Validate() error {
	if c.ReferenceHz == 0 {
		return ErrNoReference
	}
	if c.Reset == nil || c.Update == nil {
		return ErrPinUnset
	}
	return nil
}

// Device represents one AD9959 on an SPI bus.
type Device struct {
	spi drivers.SPI
	cfg Config

	// Shadow of the CSR channel-enable nibble.
	channels Channels
	clock    Clock

	// Fixed frame buffers: instruction byte + up to 4 data bytes.
	w [5]byte
	r [5]byte
}

// New constructs a Device. It does not touch the bus or pins; call Reset to
// bring the chip into a known state.
func New(spi drivers.SPI, cfg Config) *Device {
	if cfg.ReferenceHz == 0 {
		cfg.ReferenceHz = ReferenceDefault
	}
	if cfg.CalibrationHz == 0 {
		cfg.CalibrationHz = CalibrationNominal
	}
	if cfg.CFR == 0 {
		cfg.CFR = CFRDefault
	}
	return &Device{
		spi:      spi,
		cfg:      cfg,
		channels: channelsUnknown,
	}
}

// Configure applies runtime clock changes and reprograms FR1. Pins are not
// changed here. Tuning words computed under the previous clock are stale.
func (d *Device) Configure(cfg Config) error {
	if cfg.ReferenceHz != 0 {
		d.cfg.ReferenceHz = cfg.ReferenceHz
	}
	if cfg.CFR != 0 {
		d.cfg.CFR = cfg.CFR
	}
	return d.ConfigureClock(cfg.Multiplier, cfg.CalibrationHz)
}

// Config returns the effective configuration.
func (d *Device) Config() Config { return d.cfg }

func set(p PinOutput, level bool) {
	if p != nil {
		p(level)
	}
}

// pulse drives p high then low. Timing is left to the pin primitive; reset
// needs at least 5 SYNC_CLK cycles, which any GPIO write pair satisfies.
func pulse(p PinOutput) {
	set(p, true)
	set(p, false)
}
