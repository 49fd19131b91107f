// Package hal runs the hardware abstraction service: it builds devices from
// the retained config/hal message and serves them as bus capabilities under
// hal/cap/<domain>/<kind>/<name>/...
package hal

import (
	"context"

	"ddscode-go/bus"
	"ddscode-go/services/hal/internal/core"

	// Device builders register themselves.
	_ "ddscode-go/services/hal/devices/ad9959"
)

// Registry supplies buses and pins to devices.
type Registry = core.ResourceRegistry

// Run serves the HAL on conn until ctx is cancelled.
func Run(ctx context.Context, conn *bus.Connection, reg Registry) {
	core.NewHAL(conn, reg).Run(ctx)
}

// CtrlTopic is the control topic for verb on a capability.
func CtrlTopic(domain, kind, name, verb string) bus.Topic {
	return core.CapCtrl(domain, kind, name, verb)
}

// ValueTopic is the retained value topic of a capability.
func ValueTopic(domain, kind, name string) bus.Topic {
	return bus.T("hal", "cap", domain, kind, name, "value")
}

// StatusTopic is the retained types.CapabilityStatus topic of a capability.
func StatusTopic(domain, kind, name string) bus.Topic {
	return bus.T("hal", "cap", domain, kind, name, "status")
}

// StateTopic carries the retained types.HALState.
func StateTopic() bus.Topic { return bus.T("hal", "state") }
