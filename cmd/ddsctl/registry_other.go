//go:build !linux && !rp2040 && !rp2350

package main

import (
	"errors"

	hal "ddscode-go/services/hal"
)

func openRegistry(o options) (hal.Registry, map[string]any, func() error, error) {
	if o.sim {
		return simRegistry(o)
	}
	return nil, nil, nil, errors.New("hardware SPI needs Linux; use -sim")
}
