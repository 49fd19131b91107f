package platform

// Default DDS board wiring (RP2 GP numbering). The simulated board uses the
// same numbers so one HAL config serves both.
const (
	PinDDSReset  = 20
	PinDDSUpdate = 21
	PinDDSCS     = 17
	PinDDSSClk   = 18
	PinDDSSDIO   = 19

	BusDDS = "spi0"
)
