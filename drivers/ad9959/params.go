package ad9959

import "ddscode-go/x/mathx"

// Modulation selects what a linear sweep ramps (CFR AFP select bits).
type Modulation uint32

const (
	ModulationNone      Modulation = cfrAFPNone
	ModulationAmplitude Modulation = cfrAFPAmplitude
	ModulationFrequency Modulation = cfrAFPFrequency
	ModulationPhase     Modulation = cfrAFPPhase
)

func (m Modulation) String() string {
	switch m {
	case ModulationAmplitude:
		return "amplitude"
	case ModulationFrequency:
		return "frequency"
	case ModulationPhase:
		return "phase"
	default:
		return "none"
	}
}

// Sweep destination words are MSB aligned in CW1.
const (
	amplitudeAlign = 32 - 10
	phaseAlign     = 32 - 14
)

// SetAmplitude selects ch and sets the 10-bit amplitude scale factor with
// the amplitude multiplier enabled. Values above AmplitudeMax wrap.
func (d *Device) SetAmplitude(ch Channels, v uint16) error {
	if err := d.SelectChannels(ch); err != nil {
		return err
	}
	return d.write(ACR, amplitudeWord(v))
}

// amplitudeWord packs ACR: ramp rate 0, multiplier enable, scale factor.
func amplitudeWord(v uint16) uint32 {
	return acrMultiplierEnable | uint32(v)&acrScaleFactorMask
}

// SetPhase selects ch and sets the 14-bit phase offset. Values above
// PhaseMax wrap.
func (d *Device) SetPhase(ch Channels, v uint16) error {
	if err := d.SelectChannels(ch); err != nil {
		return err
	}
	return d.write(CPOW0, uint32(v&PhaseMax))
}

// PhaseFromCentidegrees converts an angle in 1/100 degree to a phase offset
// word, rounding to the nearest step.
func PhaseFromCentidegrees(cdeg uint32) uint16 {
	cdeg %= 36000
	return uint16(mathx.RoundDiv(uint64(cdeg)*(PhaseMax+1), 36000)) & PhaseMax
}

// SweepFrequency configures a linear frequency sweep on ch towards hz.
// With follow false the output returns to the start value (no-dwell) when
// the sweep completes.
func (d *Device) SweepFrequency(ch Channels, hz uint32, follow bool) error {
	if d.clock.hz == 0 {
		return ErrNoCoreClock
	}
	return d.SweepDelta(ch, d.clock.TuningWord(hz), follow)
}

// SweepDelta is SweepFrequency with a raw tuning word destination.
func (d *Device) SweepDelta(ch Channels, word uint32, follow bool) error {
	return d.sweep(ch, ModulationFrequency, word, follow)
}

// SweepAmplitude configures a linear amplitude sweep on ch towards v (10-bit).
func (d *Device) SweepAmplitude(ch Channels, v uint16, follow bool) error {
	return d.sweep(ch, ModulationAmplitude, uint32(v&AmplitudeMax)<<amplitudeAlign, follow)
}

// SweepPhase configures a linear phase sweep on ch towards v (14-bit).
func (d *Device) SweepPhase(ch Channels, v uint16, follow bool) error {
	return d.sweep(ch, ModulationPhase, uint32(v&PhaseMax)<<phaseAlign, follow)
}

func (d *Device) sweep(ch Channels, m Modulation, dest uint32, follow bool) error {
	if err := d.SelectChannels(ch); err != nil {
		return err
	}
	cfr := uint32(m) | cfrSweepEnable | cfrDACFullScale | cfrMatchPipeDelay
	if !follow {
		cfr |= cfrSweepNoDwell
	}
	if err := d.write(CFR, cfr); err != nil {
		return err
	}
	return d.write(CW1, dest)
}

// SweepRates sets the rising and falling delta words and step rates for the
// linear sweep on ch. Rates count SYNC_CLK periods per step.
func (d *Device) SweepRates(ch Channels, riseDelta uint32, riseRate uint8, fallDelta uint32, fallRate uint8) error {
	if err := d.SelectChannels(ch); err != nil {
		return err
	}
	if err := d.write(RDW, riseDelta); err != nil {
		return err
	}
	if err := d.write(FDW, fallDelta); err != nil {
		return err
	}
	return d.write(LSRR, uint32(fallRate)<<8|uint32(riseRate))
}
