package ad9959

// Reset pulses the reset line, forces serial loading mode, disables all
// channels, configures the PLL from Config and writes the default channel
// function to every channel.
//
// The FR1 and CFR writes are staged; the PLL needs up to 1 ms to lock after
// the next Update. On return the channel cache is invalidated so the caller's
// first SelectChannels always reaches the bus, even for ChannelNone.
func (d *Device) Reset() error {
	set(d.cfg.ChipSelect, true)
	set(d.cfg.Update, false)

	pulse(d.cfg.Reset)
	// A clock edge and an update with CS idle put the serial port into a
	// known framing state.
	pulse(d.cfg.SerialClock)
	pulse(d.cfg.Update)

	d.invalidateChannels()
	// Disables all channels and selects 3-wire, MSB-first I/O.
	if err := d.SelectChannels(ChannelNone); err != nil {
		return err
	}
	d.Update()

	if err := d.ConfigureClock(d.cfg.Multiplier, d.cfg.CalibrationHz); err != nil {
		return err
	}
	if err := d.SelectChannels(ChannelAll); err != nil {
		return err
	}
	if err := d.write(CFR, d.cfg.CFR); err != nil {
		return err
	}
	d.invalidateChannels()
	return nil
}

// Update pulses IO_UPDATE, transferring every staged register write to the
// active registers on all channels. Nothing written since the last Update
// affects the outputs until this is called.
func (d *Device) Update() {
	pulse(d.cfg.Update)
}
