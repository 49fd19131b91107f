package types

// ------------------------
// DDS control payloads
// ------------------------

// Channels fields list indices 0..3; empty means all channels.
type DDSFrequency struct {
	Channels []int  `json:"channels,omitempty"`
	Hz       uint32 `json:"hz"`
}

type DDSDelta struct {
	Channels []int  `json:"channels,omitempty"`
	Word     uint32 `json:"word"`
}

type DDSAmplitude struct {
	Channels []int  `json:"channels,omitempty"`
	Value    uint16 `json:"value"` // 0..1023
}

// DDSPhase carries either a raw 14-bit offset or an angle in 1/100 degree.
type DDSPhase struct {
	Channels     []int   `json:"channels,omitempty"`
	Value        *uint16 `json:"value,omitempty"`
	Centidegrees *uint32 `json:"centideg,omitempty"`
}

type DDSClock struct {
	ReferenceHz   uint32 `json:"reference_hz,omitempty"`
	Multiplier    uint8  `json:"multiplier"`
	CalibrationHz uint32 `json:"calibration_hz,omitempty"`
}

// DDSSweep configures a linear sweep. Mode is "frequency", "amplitude",
// "phase" or "delta". Target is Hz, amplitude, phase word or tuning word.
type DDSSweep struct {
	Channels []int  `json:"channels,omitempty"`
	Mode     string `json:"mode"`
	Target   uint32 `json:"target"`
	Follow   bool   `json:"follow"`
}

type DDSSweepRates struct {
	Channels  []int  `json:"channels,omitempty"`
	RiseDelta uint32 `json:"rise_delta"`
	RiseRate  uint8  `json:"rise_rate"`
	FallDelta uint32 `json:"fall_delta"`
	FallRate  uint8  `json:"fall_rate"`
}

type DDSRegisterRead struct {
	Channel  int   `json:"channel"`
	Register uint8 `json:"register"`
}

type DDSRegisterValue struct {
	Channel  int    `json:"channel"`
	Register uint8  `json:"register"`
	Value    uint32 `json:"value"`
}

// DDSRamp drives a software amplitude ramp, one commit per step.
type DDSRamp struct {
	Channels   []int  `json:"channels,omitempty"`
	To         uint16 `json:"to"`
	DurationMs uint32 `json:"duration_ms"`
	Steps      uint16 `json:"steps,omitempty"`
}

// DDSRead asks for a state snapshot. With Channel set, the channel's
// tuning word is read back and compared with the programmed one.
type DDSRead struct {
	Channel *int `json:"channel,omitempty"`
}

// DDSChannelState is what the HAL last programmed on one channel.
type DDSChannelState struct {
	Hz        uint32 `json:"hz"`
	Word      uint32 `json:"word"`
	Amplitude uint16 `json:"amplitude"`
	Phase     uint16 `json:"phase"`
	Sweep     string `json:"sweep,omitempty"`
}

// DDSValue is published on .../value after commits and reads.
type DDSValue struct {
	CoreHz       uint32            `json:"core_hz"`
	Multiplier   uint8             `json:"multiplier"`
	ResolutionMl uint32            `json:"resolution_mhz"`
	Pending      bool              `json:"pending"`
	Channels     []DDSChannelState `json:"channels"`
	Verified     *bool             `json:"verified,omitempty"`
	TSms         int64             `json:"ts_ms"`
}

// DDSInfo is the retained info detail.
type DDSInfo struct {
	Bus         string `json:"bus"`
	ReferenceHz uint32 `json:"reference_hz"`
	Channels    int    `json:"channels"`
	AutoCommit  bool   `json:"auto_commit"`
}
