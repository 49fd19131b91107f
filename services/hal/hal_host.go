//go:build !rp2040 && !rp2350

package hal

import "ddscode-go/services/hal/internal/platform"

// SimBoard is a simulated DDS board; its Chip field exposes the modelled
// AD9959 for inspection.
type SimBoard = platform.Sim

// NewSimBoard returns a simulated board wired like the default hardware.
func NewSimBoard() *SimBoard { return platform.NewSim() }
