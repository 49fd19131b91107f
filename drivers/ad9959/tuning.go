package ad9959

import (
	"math"

	"ddscode-go/x/mathx"
)

// VCO gain must be high for system clocks above this rate.
const vcoGainThresholdHz = 200_000_000

// Clock is the derived system (core) clock and its fixed-point reciprocal.
//
// A tuning word is f * 2^32 / Hz. Instead of dividing per conversion, the
// reciprocal floor((2^64-1)/Hz) is taken once and each conversion is a single
// 64-bit multiply keeping bits 32..63:
//
//	word = (f * reciprocal) >> 32
//
// The reciprocal is short by less than 1 + 1/Hz, so for f < 2^32 the word is
// short of the exact quotient by less than one LSB. Truncation biases the
// generated frequency low by at most one resolution step.
type Clock struct {
	hz         uint32
	multiplier uint8
	reciprocal uint64
}

// NewClock derives the core clock from the reference, PLL multiplier and
// calibration constant:
//
//	Hz = reference * multiplier * 10_000_000 / calibration
//
// A multiplier outside 4..20 (including 0) is coerced to 1 (PLL bypassed).
// calibration 0 is nominal.
func NewClock(referenceHz uint32, multiplier uint8, calibrationHz uint32) Clock {
	if !mathx.Between(multiplier, 4, 20) {
		multiplier = 1
	}
	if calibrationHz == 0 {
		calibrationHz = CalibrationNominal
	}
	hz := mathx.Min(uint64(referenceHz)*uint64(multiplier)*CalibrationNominal/uint64(calibrationHz), math.MaxUint32)
	c := Clock{hz: uint32(hz), multiplier: multiplier}
	if c.hz != 0 {
		c.reciprocal = math.MaxUint64 / uint64(c.hz)
	}
	return c
}

// Hz returns the core clock frequency.
func (c Clock) Hz() uint32 { return c.hz }

// Multiplier returns the effective PLL multiplier (1 when bypassed).
func (c Clock) Multiplier() uint8 { return c.multiplier }

// Reciprocal returns floor((2^64-1)/Hz).
func (c Clock) Reciprocal() uint64 { return c.reciprocal }

// TuningWord converts an output frequency in Hz to a 32-bit tuning word.
// Frequencies at or above Hz alias; callers keep f below Hz/2.
func (c Clock) TuningWord(f uint32) uint32 {
	return uint32((uint64(f) * c.reciprocal) >> 32)
}

// Frequency returns the output frequency generated by word, truncated to Hz.
func (c Clock) Frequency(word uint32) uint32 {
	return uint32((uint64(word) * uint64(c.hz)) >> 32)
}

// Resolution returns the output frequency step of one tuning-word LSB in
// milli-hertz.
func (c Clock) Resolution() uint32 {
	return uint32(mathx.RoundDiv(uint64(c.hz)*1000, 1<<32))
}

// fr1 builds the FR1 value for this clock: VCO gain when fast, PLL divider,
// charge pump 3 for fast lock, SYNC_CLK output off. Profile pins, ramp
// up/down and modulation levels stay at their zero settings (config 0, off,
// 2-level).
func (c Clock) fr1() uint32 {
	v := uint32(fr1ChargePump3 | fr1PPCConf0 | fr1RampUpDownOff | fr1ModLevels2 | fr1SyncClkDisable)
	if c.hz > vcoGainThresholdHz {
		v |= fr1VCOGain
	}
	if c.multiplier >= 4 {
		v |= uint32(c.multiplier) << fr1PLLDividerShift & fr1PLLDividerMask
	}
	return v
}

// ConfigureClock sets the PLL multiplier and calibration, recomputes the
// core clock and writes FR1. The new FR1 takes effect on the next Update.
func (d *Device) ConfigureClock(multiplier uint8, calibrationHz uint32) error {
	if calibrationHz == 0 {
		calibrationHz = CalibrationNominal
	}
	c := NewClock(d.cfg.ReferenceHz, multiplier, calibrationHz)
	d.cfg.Multiplier = c.multiplier
	d.cfg.CalibrationHz = calibrationHz
	d.clock = c
	return d.write(FR1, c.fr1())
}

// Clock returns the configured core clock. It is zero before ConfigureClock
// or Reset.
func (d *Device) Clock() Clock { return d.clock }

// TuningWord converts f using the configured core clock.
func (d *Device) TuningWord(f uint32) uint32 { return d.clock.TuningWord(f) }

// SetDelta selects ch and writes a raw tuning word to CFTW0.
func (d *Device) SetDelta(ch Channels, word uint32) error {
	if err := d.SelectChannels(ch); err != nil {
		return err
	}
	return d.write(CFTW0, word)
}

// SetFrequency selects ch and programs an output frequency in Hz.
func (d *Device) SetFrequency(ch Channels, hz uint32) error {
	if d.clock.hz == 0 {
		return ErrNoCoreClock
	}
	return d.SetDelta(ch, d.clock.TuningWord(hz))
}
