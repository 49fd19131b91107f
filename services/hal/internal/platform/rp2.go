//go:build rp2040 || rp2350

package platform

import (
	"machine"

	"ddscode-go/services/hal/internal/core"

	"tinygo.org/x/drivers"
)

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) Number() int { return r.n }

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }

func rp2Pins(n int) (core.GPIOHandle, bool) {
	// GP0..GP28; the SPI pins belong to the bus.
	if n < 0 || n > 28 || n == PinDDSSClk || n == PinDDSSDIO {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

// NewBoard configures SPI0 for the DDS (mode 0, MSB first) and returns the
// board registry. The SCLK kick is unavailable since SCLK is owned by SPI0.
func NewBoard(speedHz uint32) (*Registry, error) {
	bus := machine.SPI0
	if err := bus.Configure(machine.SPIConfig{
		Frequency: speedHz,
		SCK:       machine.Pin(PinDDSSClk),
		SDO:       machine.Pin(PinDDSSDIO),
		SDI:       machine.NoPin,
		LSBFirst:  false,
		Mode:      0,
	}); err != nil {
		return nil, err
	}
	return NewRegistry(map[core.ResourceID]drivers.SPI{BusDDS: bus}, rp2Pins), nil
}
