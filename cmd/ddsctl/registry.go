//go:build !rp2040 && !rp2350

package main

import hal "ddscode-go/services/hal"

// Simulated board pins, fixed by the board model.
const (
	simCSPin   = 17
	simSClkPin = 18
)

func simRegistry(o options) (hal.Registry, map[string]any, func() error, error) {
	o.resetPin, o.updatePin, o.csPin = 20, 21, simCSPin
	return hal.NewSimBoard(), deviceParams(o, simSClkPin), nil, nil
}

// deviceParams builds the JSON-like HAL params for the DDS.
func deviceParams(o options, sclk int) map[string]any {
	return map[string]any{
		"bus":          "spi0",
		"reset_pin":    o.resetPin,
		"update_pin":   o.updatePin,
		"cs_pin":       o.csPin,
		"sclk_pin":     sclk,
		"reference_hz": o.refHz,
		"multiplier":   o.multiplier,
		"auto_commit":  o.autoCommit,
		"domain":       "rf",
		"name":         "synth",
	}
}
