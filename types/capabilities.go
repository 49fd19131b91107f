package types

// Kind names a capability class on the bus.
type Kind string

const (
	KindDDS Kind = "dds"
)

// CapabilityAddress identifies a public capability on the bus.
type CapabilityAddress struct {
	Domain string `json:"domain"` // e.g. "rf"
	Kind   Kind   `json:"kind"`
	Name   string `json:"name"`
}
