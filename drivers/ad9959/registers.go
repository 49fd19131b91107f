package ad9959

// Register is a serial register address (instruction byte, bits 4:0).
type Register uint8

const (
	CSR   Register = 0x00 // channel select
	FR1   Register = 0x01 // function register 1 (PLL, modulation levels)
	FR2   Register = 0x02 // function register 2 (sweep/phase accumulator clears, sync)
	CFR   Register = 0x03 // channel function
	CFTW0 Register = 0x04 // channel frequency tuning word
	CPOW0 Register = 0x05 // channel phase offset word
	ACR   Register = 0x06 // amplitude control
	LSRR  Register = 0x07 // linear sweep ramp rate
	RDW   Register = 0x08 // rising delta word
	FDW   Register = 0x09 // falling delta word
	CW1   Register = 0x0A // channel word 1 (sweep destination)
	CW15  Register = 0x18 // last channel word
)

// Instruction byte bit 7: 1 = read.
const readFlag = 0x80

// Data widths in bytes for CSR..LSRR. RDW, FDW and CW1..CW15 are 4 bytes.
var registerWidth = [8]uint8{1, 3, 2, 3, 4, 2, 3, 2}

// Width returns the data width of r in bytes. Addresses past the table,
// including unlisted ones, are 4 bytes wide.
func (r Register) Width() int {
	a := r & 0x7F
	if int(a) < len(registerWidth) {
		return int(registerWidth[a])
	}
	return 4
}

// Global reports whether r is shared by all channels (not gated by CSR).
func (r Register) Global() bool { return r&0x7F <= FR2 }

// --- CSR bits ---
const csrIOMode3Wire = 0x02 // MSB first

// --- FR1 bits (24-bit) ---
const (
	fr1VCOGain         = 0x800000
	fr1PLLDividerShift = 18
	fr1PLLDividerMask  = 0x7C0000
	fr1ChargePump3     = 0x030000 // 150 µA, fastest lock
	fr1PPCConf0        = 0x000000 // profile pin configuration 0
	fr1RampUpDownOff   = 0x000000
	fr1ModLevels2      = 0x000000
	fr1SyncClkDisable  = 0x000020
)

// --- CFR bits (24-bit) ---
const (
	cfrAFPNone        = 0x000000
	cfrAFPAmplitude   = 0x400000
	cfrAFPFrequency   = 0x800000
	cfrAFPPhase       = 0xC00000
	cfrSweepNoDwell   = 0x008000
	cfrSweepEnable    = 0x004000
	cfrDACFullScale   = 0x000300
	cfrMatchPipeDelay = 0x000020
	cfrSineWave       = 0x000001
)

// CFRDefault is written to every channel during Reset: full-scale DAC
// current, matched pipe delays, sine output.
const CFRDefault = cfrDACFullScale | cfrMatchPipeDelay | cfrSineWave

// --- ACR bits (24-bit) ---
const (
	acrMultiplierEnable = 0x001000
	acrScaleFactorMask  = 0x0003FF
)

// Value ranges.
const (
	AmplitudeMax = 0x3FF  // 10-bit amplitude scale factor
	PhaseMax     = 0x3FFF // 14-bit phase offset word
)
