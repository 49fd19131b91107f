package ad9959

// Serial I/O framing: instruction byte, then the register's data bytes
// MSB first, all under one chip-select assertion.

func (d *Device) transact(instr byte, data uint32) (uint32, error) {
	n := Register(instr).Width()
	if n+1 > len(d.w) {
		return 0, ErrFrameTooLong
	}
	w, r := d.w[:n+1], d.r[:n+1]
	w[0] = instr
	read := instr&readFlag != 0
	for i := 0; i < n; i++ {
		if read {
			w[1+i] = 0
		} else {
			w[1+i] = byte(data >> (8 * uint(n-1-i)))
		}
		r[1+i] = 0
	}

	set(d.cfg.ChipSelect, false)
	err := d.spi.Tx(w, r)
	set(d.cfg.ChipSelect, true)
	if err != nil {
		return 0, err
	}

	var v uint32
	for _, b := range r[1:] {
		v = v<<8 | uint32(b)
	}
	return v, nil
}

// write stores v into reg for the selected channels. Bits above the register
// width are dropped.
func (d *Device) write(reg Register, v uint32) error {
	_, err := d.transact(byte(reg)&^readFlag, v)
	return err
}

func (d *Device) read(reg Register) (uint32, error) {
	return d.transact(byte(reg)|readFlag, 0)
}

// WriteRegister writes a raw value to reg on the currently selected channels.
// Prefer the typed setters; this exists for registers they do not cover.
func (d *Device) WriteRegister(reg Register, v uint32) error {
	return d.write(reg, v)
}

// ReadRegister reads reg with exactly one channel selected. Reads with zero or
// several channels selected return device-undefined data, so they are
// rejected before touching the bus.
func (d *Device) ReadRegister(reg Register) (uint32, error) {
	if d.channels.Count() != 1 {
		return 0, ErrReadChannel
	}
	return d.read(reg)
}
