//go:build linux && !rp2040 && !rp2350

package hal

import "ddscode-go/services/hal/internal/platform"

// LinuxSPI names one spidev port exposed as a HAL bus.
type LinuxSPI = platform.LinuxSPI

// NewLinux opens the given SPI ports through periph. The returned func
// closes them.
func NewLinux(buses ...LinuxSPI) (Registry, func() error, error) {
	reg, closeFn, err := platform.NewLinux(buses...)
	if err != nil {
		return nil, nil, err
	}
	return reg, closeFn, nil
}
