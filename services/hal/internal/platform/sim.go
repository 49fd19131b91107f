//go:build !rp2040 && !rp2350

package platform

import (
	"sync"

	"ddscode-go/drivers/ad9959/sim"
	"ddscode-go/services/hal/internal/core"

	"tinygo.org/x/drivers"
)

// FakePin is a host GPIO. Set forwards the level to an optional sink, which
// is how the simulated board wires pins to the chip.
type FakePin struct {
	mu     sync.RWMutex
	number int
	level  bool
	out    bool
	sink   func(bool)
}

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.out = true
	p.mu.Unlock()
	p.Set(initial)
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	sink := p.sink
	p.mu.Unlock()
	if sink != nil {
		sink(level)
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

// IsOutput reports whether the pin was configured as an output.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.out
}

// FakePins returns stable *FakePin instances per number.
type FakePins struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *FakePins) get(n int) *FakePin {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &FakePin{number: n}
		f.pins[n] = p
	}
	return p
}

// Pin exposes a pin for inspection.
func (f *FakePins) Pin(n int) *FakePin { return f.get(n) }

func (f *FakePins) source(n int) (core.GPIOHandle, bool) {
	if n < 0 || n > 28 {
		return nil, false
	}
	return f.get(n), true
}

// Sim is a simulated DDS board: one AD9959 on BusDDS with its control
// inputs on the default pins.
type Sim struct {
	*Registry
	Chip *sim.Chip
	Pins *FakePins
}

// NewSim builds the simulated board.
func NewSim() *Sim {
	chip := sim.New()
	pins := &FakePins{}
	pins.get(PinDDSReset).sink = chip.ResetPin
	pins.get(PinDDSUpdate).sink = chip.UpdatePin
	pins.get(PinDDSCS).sink = chip.ChipSelect
	pins.get(PinDDSSClk).sink = chip.SerialClock
	return &Sim{
		Registry: NewRegistry(map[core.ResourceID]drivers.SPI{BusDDS: chip}, pins.source),
		Chip:     chip,
		Pins:     pins,
	}
}
