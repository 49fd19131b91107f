package core

import (
	"context"

	"ddscode-go/errcode"
	"ddscode-go/types"
)

// ---- Capability & device model ----

// CapAddr is the public address of one capability.
type CapAddr struct {
	Domain string
	Kind   string
	Name   string
}

type CapabilitySpec struct {
	Domain string // empty => inferred from kind
	Kind   types.Kind
	Name   string // empty => device ID
	Info   types.Info
}

// EnqueueResult is the synchronous outcome of a control. Value, when set, is
// returned to the caller in place of the plain OK reply.
type EnqueueResult struct {
	OK    bool
	Error errcode.Code
	Value any
}

// Device is a HAL-managed device. Control must not block for longer than a
// handful of bus transactions; long work runs in the device's own goroutine
// and reports through Resources.Pub.
type Device interface {
	ID() string
	Capabilities() []CapabilitySpec
	Init(ctx context.Context) error
	Control(cap CapAddr, verb string, payload any) (EnqueueResult, error)
	Close() error // releases claimed resources
}

// BuilderInput is handed to a Builder for one configured device.
type BuilderInput struct {
	ID, Type string
	Params   any
	Res      Resources
}

type Builder interface {
	Build(ctx context.Context, in BuilderInput) (Device, error)
}
