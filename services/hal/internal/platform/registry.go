// Package platform provides core.ResourceRegistry implementations: a
// simulated board for hosts and tests, Linux SPI/GPIO via periph, and the
// RP2 family via TinyGo's machine package.
package platform

import (
	"sync"

	"ddscode-go/services/hal/internal/core"

	"tinygo.org/x/drivers"
)

// PinSource resolves a GPIO number to a handle.
type PinSource func(n int) (core.GPIOHandle, bool)

// Registry hands out exclusive ownership of named SPI buses and GPIOs.
type Registry struct {
	mu       sync.Mutex
	spi      map[core.ResourceID]drivers.SPI
	pins     PinSource
	spiOwner map[core.ResourceID]string
	pinOwner map[int]string
}

// NewRegistry builds a registry over the given buses and pin source.
func NewRegistry(buses map[core.ResourceID]drivers.SPI, pins PinSource) *Registry {
	return &Registry{
		spi:      buses,
		pins:     pins,
		spiOwner: map[core.ResourceID]string{},
		pinOwner: map[int]string{},
	}
}

func (r *Registry) ClaimSPI(devID string, id core.ResourceID) (drivers.SPI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.spi[id]
	if !ok {
		return nil, core.ErrUnknownBus
	}
	if owner, taken := r.spiOwner[id]; taken && owner != devID {
		return nil, core.ErrBusInUse
	}
	r.spiOwner[id] = devID
	return b, nil
}

func (r *Registry) ReleaseSPI(devID string, id core.ResourceID) {
	r.mu.Lock()
	if r.spiOwner[id] == devID {
		delete(r.spiOwner, id)
	}
	r.mu.Unlock()
}

func (r *Registry) ClaimPin(devID string, pin int) (core.GPIOHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, taken := r.pinOwner[pin]; taken && owner != devID {
		return nil, core.ErrPinInUse
	}
	if r.pins == nil {
		return nil, core.ErrUnknownPin
	}
	h, ok := r.pins(pin)
	if !ok {
		return nil, core.ErrUnknownPin
	}
	r.pinOwner[pin] = devID
	return h, nil
}

func (r *Registry) ReleasePin(devID string, pin int) {
	r.mu.Lock()
	if r.pinOwner[pin] == devID {
		delete(r.pinOwner, pin)
	}
	r.mu.Unlock()
}
