//go:build linux && !rp2040 && !rp2350

package platform

import (
	"errors"
	"strconv"

	"ddscode-go/services/hal/internal/core"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// LinuxSPI names one spidev port and its clock.
type LinuxSPI struct {
	ID    core.ResourceID // HAL bus name, e.g. "spi0"
	Port  string          // spireg name, e.g. "/dev/spidev0.0" or "" for the first
	Speed physic.Frequency
}

var errNoTransfer = errors.New("platform: single-byte transfer failed")

// periphSPI adapts a periph spi.Conn to drivers.SPI.
type periphSPI struct {
	conn spi.Conn
	port spi.PortCloser
}

func (s *periphSPI) Tx(w, r []byte) error {
	if r == nil {
		r = make([]byte, len(w))
	}
	return s.conn.Tx(w, r)
}

func (s *periphSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	if err := s.conn.Tx([]byte{b}, r[:]); err != nil {
		return 0, errNoTransfer
	}
	return r[0], nil
}

// periphPin adapts a periph gpio.PinIO to core.GPIOHandle.
type periphPin struct {
	n   int
	pin gpio.PinIO
}

func (p *periphPin) Number() int { return p.n }

func (p *periphPin) ConfigureOutput(initial bool) error {
	return p.pin.Out(gpio.Level(initial))
}

func (p *periphPin) Set(level bool) { _ = p.pin.Out(gpio.Level(level)) }
func (p *periphPin) Get() bool      { return bool(p.pin.Read()) }

func periphPins(n int) (core.GPIOHandle, bool) {
	pin := gpioreg.ByName("GPIO" + strconv.Itoa(n))
	if pin == nil {
		return nil, false
	}
	return &periphPin{n: n, pin: pin}, true
}

// NewLinux initialises periph host drivers and opens the given SPI ports in
// mode 0, 8 bits per word. GPIOs are resolved by BCM number ("GPIO<n>").
func NewLinux(buses ...LinuxSPI) (*Registry, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	m := make(map[core.ResourceID]drivers.SPI, len(buses))
	var opened []*periphSPI
	closeAll := func() error {
		var errs []error
		for _, s := range opened {
			errs = append(errs, s.port.Close())
		}
		return errors.Join(errs...)
	}
	for _, b := range buses {
		port, err := spireg.Open(b.Port)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		conn, err := port.Connect(b.Speed, spi.Mode0, 8)
		if err != nil {
			_ = port.Close()
			_ = closeAll()
			return nil, nil, err
		}
		s := &periphSPI{conn: conn, port: port}
		opened = append(opened, s)
		m[b.ID] = s
	}
	return NewRegistry(m, periphPins), closeAll, nil
}
