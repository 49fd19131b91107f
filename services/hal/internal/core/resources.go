package core

import (
	"tinygo.org/x/drivers"

	"ddscode-go/errcode"
)

type ResourceID string // e.g. "spi0", "spi0.0"

// ---- GPIO handles ----

type GPIOHandle interface {
	Number() int
	ConfigureOutput(initial bool) error
	Set(bool)
	Get() bool
}

// ---- Device → HAL telemetry (single shape) ----
// By default an Event is a value update published retained on .../value.
// IsEvent publishes on .../event instead (non-retained). A non-empty Err
// publishes only .../status=degraded (retained).

type Event struct {
	Addr     CapAddr
	Payload  any
	TSms     int64
	Err      string
	IsEvent  bool
	EventTag string // optional subtopic under .../event
}

// EventEmitter is implemented by the HAL. Emit must not block; false means
// the event was dropped.
type EventEmitter interface {
	Emit(ev Event) bool
}

// ---- HAL-injected resources ----

type Resources struct {
	Reg ResourceRegistry
	Pub EventEmitter
}

// ResourceRegistry hands out exclusive bus and pin ownership per device.
type ResourceRegistry interface {
	ClaimSPI(devID string, id ResourceID) (drivers.SPI, error)
	ReleaseSPI(devID string, id ResourceID)

	ClaimPin(devID string, pin int) (GPIOHandle, error)
	ReleasePin(devID string, pin int)
}

// Claim errors carry their bus-facing code.
var (
	ErrUnknownPin error = errcode.UnknownPin
	ErrPinInUse   error = errcode.PinInUse
	ErrUnknownBus error = errcode.UnknownBus
	ErrBusInUse   error = errcode.BusInUse
)
