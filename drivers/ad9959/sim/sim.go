// Package sim models an AD9959 at the serial-register level for host tests
// and bench-less runs.
//
// Chip implements tinygo.org/x/drivers.SPI and exposes its reset, chip-select,
// IO_UPDATE and SCLK inputs as plain level setters that fit ad9959.PinOutput.
// Channel registers are written into per-channel I/O buffers gated by CSR and
// copied to the active set on a rising IO_UPDATE edge, as on the real part.
package sim

import (
	"errors"
	"sync"

	"ddscode-go/drivers/ad9959"
)

var (
	ErrFraming = errors.New("sim: frame length does not match register width")
	ErrNoCS    = errors.New("sim: transfer without chip select")
)

const numRegs = 0x19

// Power-on values.
const (
	csrDefault = 0xF0
	cfrDefault = 0x000302
)

// Frame is one logged transaction.
type Frame struct {
	Instr byte
	Data  []byte
}

// Reg returns the register addressed by the frame.
func (f Frame) Reg() ad9959.Register { return ad9959.Register(f.Instr & 0x7F) }

// Read reports whether the frame was a read.
func (f Frame) Read() bool { return f.Instr&0x80 != 0 }

// Value packs the frame's data bytes MSB first.
func (f Frame) Value() uint32 {
	var v uint32
	for _, b := range f.Data {
		v = v<<8 | uint32(b)
	}
	return v
}

// Chip is a simulated AD9959. The zero value is not usable; call New.
type Chip struct {
	mu sync.Mutex

	// RequireCS rejects transfers while chip select is high. Leave false
	// when the bus drives CS itself.
	RequireCS bool
	// TxErr, when set, is returned by every transfer.
	TxErr error

	csHigh  bool
	rstHigh bool
	updHigh bool

	buf    [ad9959.NumChannels][numRegs]uint32
	active [ad9959.NumChannels][numRegs]uint32

	frames  []Frame
	updates int
	resets  int
	kicks   int
}

// New returns a chip in its power-on state.
func New() *Chip {
	c := &Chip{csHigh: true}
	c.powerOn()
	return c
}

func (c *Chip) powerOn() {
	c.buf = [ad9959.NumChannels][numRegs]uint32{}
	for ch := range c.buf {
		c.buf[ch][ad9959.CSR] = csrDefault
		c.buf[ch][ad9959.CFR] = cfrDefault
	}
	c.active = c.buf
}

// Tx implements drivers.SPI. w carries one complete register frame.
func (c *Chip) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TxErr != nil {
		return c.TxErr
	}
	if c.RequireCS && c.csHigh {
		return ErrNoCS
	}
	if len(w) == 0 {
		return ErrFraming
	}
	instr := w[0]
	reg := ad9959.Register(instr & 0x7F)
	n := reg.Width()
	if len(w) != n+1 || (r != nil && len(r) != len(w)) {
		return ErrFraming
	}
	c.frames = append(c.frames, Frame{Instr: instr, Data: append([]byte(nil), w[1:]...)})
	if int(reg) >= numRegs {
		return nil
	}

	if instr&0x80 != 0 {
		v := c.readLocked(reg)
		for i := 0; i < n; i++ {
			if r != nil {
				r[1+i] = byte(v >> (8 * uint(n-1-i)))
			}
		}
		return nil
	}

	var v uint32
	for _, b := range w[1:] {
		v = v<<8 | uint32(b)
	}
	c.writeLocked(reg, v)
	return nil
}

// Transfer implements drivers.SPI. Single-byte transfers are not register
// frames; they are logged and answered with zero.
func (c *Chip) Transfer(b byte) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TxErr != nil {
		return 0, c.TxErr
	}
	c.frames = append(c.frames, Frame{Instr: b})
	return 0, nil
}

func (c *Chip) selected() ad9959.Channels {
	return ad9959.Channels(c.buf[0][ad9959.CSR]) & ad9959.ChannelAll
}

func (c *Chip) writeLocked(reg ad9959.Register, v uint32) {
	switch {
	case reg == ad9959.CSR:
		// Channel enables act immediately.
		for ch := range c.buf {
			c.buf[ch][reg] = v
			c.active[ch][reg] = v
		}
	case reg.Global():
		for ch := range c.buf {
			c.buf[ch][reg] = v
		}
	default:
		sel := c.selected()
		for ch := 0; ch < ad9959.NumChannels; ch++ {
			if m, _ := ad9959.ChannelN(ch); sel.Has(m) {
				c.buf[ch][reg] = v
			}
		}
	}
}

// readLocked returns the I/O buffer of the lowest selected channel. With no
// channel selected the real part returns undefined data; the model returns 0.
func (c *Chip) readLocked(reg ad9959.Register) uint32 {
	if reg.Global() {
		return c.buf[0][reg]
	}
	sel := c.selected()
	for ch := 0; ch < ad9959.NumChannels; ch++ {
		if m, _ := ad9959.ChannelN(ch); sel.Has(m) {
			return c.buf[ch][reg]
		}
	}
	return 0
}

// ---- Pin inputs ----

// ChipSelect sets the CS input level (active low).
func (c *Chip) ChipSelect(level bool) {
	c.mu.Lock()
	c.csHigh = level
	c.mu.Unlock()
}

// ResetPin sets the MASTER_RESET input; a rising edge restores power-on state.
func (c *Chip) ResetPin(level bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level && !c.rstHigh {
		c.resets++
		c.powerOn()
	}
	c.rstHigh = level
}

// UpdatePin sets IO_UPDATE; a rising edge latches buffers into the active set.
func (c *Chip) UpdatePin(level bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level && !c.updHigh {
		c.updates++
		c.active = c.buf
	}
	c.updHigh = level
}

// SerialClock records SCLK kicks driven as GPIO.
func (c *Chip) SerialClock(level bool) {
	c.mu.Lock()
	if level {
		c.kicks++
	}
	c.mu.Unlock()
}

// ---- Inspection ----

// Frames returns a copy of the transaction log.
func (c *Chip) Frames() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Frame(nil), c.frames...)
}

// Transactions returns the number of transfers seen.
func (c *Chip) Transactions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// ClearFrames empties the transaction log.
func (c *Chip) ClearFrames() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}

// Updates returns the number of IO_UPDATE rising edges.
func (c *Chip) Updates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updates
}

// Resets returns the number of MASTER_RESET rising edges.
func (c *Chip) Resets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resets
}

// Kicks returns the number of SCLK kicks.
func (c *Chip) Kicks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kicks
}

// Buffered returns the I/O buffer (written, not yet updated) value of reg on
// channel ch.
func (c *Chip) Buffered(ch int, reg ad9959.Register) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf[ch][reg]
}

// Active returns the value of reg on channel ch as the outputs see it.
func (c *Chip) Active(ch int, reg ad9959.Register) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active[ch][reg]
}

// Pins returns a driver config with the chip's inputs wired.
func (c *Chip) Pins(cfg ad9959.Config) ad9959.Config {
	cfg.Reset = c.ResetPin
	cfg.ChipSelect = c.ChipSelect
	cfg.Update = c.UpdatePin
	cfg.SerialClock = c.SerialClock
	return cfg
}
