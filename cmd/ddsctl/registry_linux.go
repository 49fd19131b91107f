//go:build linux && !rp2040 && !rp2350

package main

import (
	"periph.io/x/conn/v3/physic"

	hal "ddscode-go/services/hal"
)

func openRegistry(o options) (hal.Registry, map[string]any, func() error, error) {
	if o.sim {
		return simRegistry(o)
	}
	reg, closeFn, err := hal.NewLinux(hal.LinuxSPI{
		ID:    "spi0",
		Port:  o.spiPort,
		Speed: physic.Frequency(o.speedHz) * physic.Hertz,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return reg, deviceParams(o, -1), closeFn, nil
}
