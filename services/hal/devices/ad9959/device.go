// Package ad9959 exposes an AD9959 DDS as a HAL capability of kind "dds".
//
// Writes stage in the chip's I/O buffers. With auto_commit set every
// successful control is followed by an IO_UPDATE pulse; otherwise the caller
// sends "commit" to apply a batch at once.
package ad9959

import (
	"context"
	"sync"

	dds "ddscode-go/drivers/ad9959"
	"ddscode-go/errcode"
	"ddscode-go/services/hal/internal/core"
	"ddscode-go/types"
	"ddscode-go/x/timex"
)

const kindDDS = string(types.KindDDS)

type Device struct {
	id     string
	params Params
	reg    core.ResourceRegistry
	pub    core.EventEmitter
	addr   core.CapAddr

	// Claimed resources, released by Close.
	bus  core.ResourceID
	pins []int

	// mu serialises all driver access: controls, polls and the ramp goroutine.
	mu         sync.Mutex
	drv        *dds.Device
	autoCommit bool
	pending    bool
	state      [dds.NumChannels]types.DDSChannelState

	ramp *rampTask
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain: d.addr.Domain,
		Kind:   types.KindDDS,
		Name:   d.addr.Name,
		Info: types.Info{
			SchemaVersion: 1,
			Driver:        "ad9959",
			Detail: types.DDSInfo{
				Bus:         d.params.Bus,
				ReferenceHz: d.drvConfig().ReferenceHz,
				Channels:    dds.NumChannels,
				AutoCommit:  d.autoCommit,
			},
		},
	}}
}

func (d *Device) drvConfig() dds.Config {
	if d.drv == nil {
		return dds.DefaultConfig()
	}
	return d.drv.Config()
}

// Init claims the bus and pins, then resets and commits the chip.
func (d *Device) Init(ctx context.Context) error {
	spi, err := d.reg.ClaimSPI(d.id, core.ResourceID(d.params.Bus))
	if err != nil {
		return err
	}
	d.bus = core.ResourceID(d.params.Bus)

	cfg := dds.DefaultConfig()
	if d.params.ReferenceHz != 0 {
		cfg.ReferenceHz = d.params.ReferenceHz
	}
	if d.params.Multiplier != 0 {
		cfg.Multiplier = d.params.Multiplier
	}
	if d.params.CalibrationHz != 0 {
		cfg.CalibrationHz = d.params.CalibrationHz
	}
	if cfg.Reset, err = d.claimOutput(d.params.ResetPin, false); err != nil {
		return err
	}
	if cfg.Update, err = d.claimOutput(d.params.UpdatePin, false); err != nil {
		return err
	}
	if cfg.ChipSelect, err = d.claimOutput(d.params.CSPin, true); err != nil {
		return err
	}
	if cfg.SerialClock, err = d.claimOutput(d.params.SClkPin, false); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.drv = dds.New(spi, cfg)
	if err := d.resetLocked(); err != nil {
		return err
	}
	println("[dds]", d.id, "ready, core clock", d.drv.Clock().Hz(), "Hz")
	return nil
}

// claimOutput returns a nil setter for pin < 0.
func (d *Device) claimOutput(pin int, initial bool) (dds.PinOutput, error) {
	if pin < 0 {
		return nil, nil
	}
	h, err := d.reg.ClaimPin(d.id, pin)
	if err != nil {
		return nil, err
	}
	d.pins = append(d.pins, pin)
	if err := h.ConfigureOutput(initial); err != nil {
		return nil, err
	}
	return h.Set, nil
}

// Close stops any ramp and releases claimed resources.
func (d *Device) Close() error {
	d.stopRamp()
	for _, p := range d.pins {
		d.reg.ReleasePin(d.id, p)
	}
	d.pins = nil
	if d.bus != "" {
		d.reg.ReleaseSPI(d.id, d.bus)
		d.bus = ""
	}
	return nil
}

// resetLocked resets the chip and always commits so the clock and CFR
// defaults take effect.
func (d *Device) resetLocked() error {
	if err := d.drv.Reset(); err != nil {
		return err
	}
	d.drv.Update()
	d.pending = false
	d.state = [dds.NumChannels]types.DDSChannelState{}
	for i := range d.state {
		d.state[i].Amplitude = dds.AmplitudeMax
	}
	return nil
}

// Control runs one verb synchronously under the device lock.
func (d *Device) Control(_ core.CapAddr, verb string, payload any) (core.EnqueueResult, error) {
	if verb == "stop_ramp" {
		d.stopRamp()
		return core.EnqueueResult{OK: true}, nil
	}
	if verb == "ramp_amplitude" {
		return d.startRamp(payload)
	}
	if verb == "reset" {
		d.stopRamp()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drv == nil {
		return core.EnqueueResult{Error: errcode.NotReady}, nil
	}

	switch verb {
	case "reset":
		if err := d.resetLocked(); err != nil {
			return core.EnqueueResult{}, err
		}
		return d.committedLocked(), nil

	case "commit":
		d.drv.Update()
		d.pending = false
		return d.committedLocked(), nil

	case "read":
		p, code := core.As[types.DDSRead](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		v, err := d.snapshotLocked(p.Channel)
		if err != nil {
			return core.EnqueueResult{}, err
		}
		return core.EnqueueResult{OK: true, Value: v}, nil

	case "read_register":
		p, code := core.As[types.DDSRegisterRead](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		ch, ok := dds.ChannelN(p.Channel)
		if !ok {
			return core.EnqueueResult{Error: errcode.InvalidChannel}, nil
		}
		if err := d.drv.SelectChannels(ch); err != nil {
			return core.EnqueueResult{}, err
		}
		v, err := d.drv.ReadRegister(dds.Register(p.Register))
		if err != nil {
			return core.EnqueueResult{}, err
		}
		return core.EnqueueResult{OK: true, Value: types.DDSRegisterValue{Channel: p.Channel, Register: p.Register, Value: v}}, nil
	}

	// Each ramp step pulses IO_UPDATE for the whole chip.
	if !d.autoCommit && d.ramp != nil {
		return core.EnqueueResult{Error: errcode.Busy}, nil
	}
	code, err := d.applyLocked(verb, payload)
	if err != nil {
		return core.EnqueueResult{}, err
	}
	if code != "" {
		return core.EnqueueResult{Error: code}, nil
	}
	if !d.autoCommit {
		d.pending = true
		return core.EnqueueResult{OK: true}, nil
	}
	d.drv.Update()
	d.pending = false
	return d.committedLocked(), nil
}

// applyLocked stages one parameter write.
func (d *Device) applyLocked(verb string, payload any) (errcode.Code, error) {
	switch verb {
	case "configure_clock":
		p, code := core.As[types.DDSClock](payload)
		if code != "" {
			return code, nil
		}
		cfg := d.drv.Config()
		cfg.ReferenceHz = p.ReferenceHz
		cfg.Multiplier = p.Multiplier
		cfg.CalibrationHz = p.CalibrationHz
		if err := d.drv.Configure(cfg); err != nil {
			return "", err
		}
		// Words are relative to the core clock; keep the programmed
		// words and refresh the frequencies they now produce.
		c := d.drv.Clock()
		for i := range d.state {
			d.state[i].Hz = c.Frequency(d.state[i].Word)
		}
		return "", nil

	case "set_frequency":
		p, code := core.As[types.DDSFrequency](payload)
		if code != "" {
			return code, nil
		}
		mask, code := channelMask(p.Channels)
		if code != "" {
			return code, nil
		}
		if err := d.drv.SetFrequency(mask, p.Hz); err != nil {
			return "", err
		}
		word := d.drv.TuningWord(p.Hz)
		d.each(mask, func(s *types.DDSChannelState) { s.Hz, s.Word = p.Hz, word })
		return "", nil

	case "set_delta":
		p, code := core.As[types.DDSDelta](payload)
		if code != "" {
			return code, nil
		}
		mask, code := channelMask(p.Channels)
		if code != "" {
			return code, nil
		}
		if err := d.drv.SetDelta(mask, p.Word); err != nil {
			return "", err
		}
		hz := d.drv.Clock().Frequency(p.Word)
		d.each(mask, func(s *types.DDSChannelState) { s.Hz, s.Word = hz, p.Word })
		return "", nil

	case "set_amplitude":
		p, code := core.As[types.DDSAmplitude](payload)
		if code != "" {
			return code, nil
		}
		mask, code := channelMask(p.Channels)
		if code != "" {
			return code, nil
		}
		if p.Value > dds.AmplitudeMax {
			return errcode.InvalidParams, nil
		}
		if err := d.drv.SetAmplitude(mask, p.Value); err != nil {
			return "", err
		}
		d.each(mask, func(s *types.DDSChannelState) { s.Amplitude = p.Value })
		return "", nil

	case "set_phase":
		p, code := core.As[types.DDSPhase](payload)
		if code != "" {
			return code, nil
		}
		mask, code := channelMask(p.Channels)
		if code != "" {
			return code, nil
		}
		var v uint16
		switch {
		case p.Value != nil:
			v = *p.Value & dds.PhaseMax
		case p.Centidegrees != nil:
			v = dds.PhaseFromCentidegrees(*p.Centidegrees)
		default:
			return errcode.InvalidParams, nil
		}
		if err := d.drv.SetPhase(mask, v); err != nil {
			return "", err
		}
		d.each(mask, func(s *types.DDSChannelState) { s.Phase = v })
		return "", nil

	case "sweep":
		p, code := core.As[types.DDSSweep](payload)
		if code != "" {
			return code, nil
		}
		mask, code := channelMask(p.Channels)
		if code != "" {
			return code, nil
		}
		var err error
		switch p.Mode {
		case "frequency":
			err = d.drv.SweepFrequency(mask, p.Target, p.Follow)
		case "delta":
			err = d.drv.SweepDelta(mask, p.Target, p.Follow)
		case "amplitude":
			err = d.drv.SweepAmplitude(mask, uint16(p.Target), p.Follow)
		case "phase":
			err = d.drv.SweepPhase(mask, uint16(p.Target), p.Follow)
		default:
			return errcode.InvalidParams, nil
		}
		if err != nil {
			return "", err
		}
		d.each(mask, func(s *types.DDSChannelState) { s.Sweep = p.Mode })
		return "", nil

	case "sweep_rates":
		p, code := core.As[types.DDSSweepRates](payload)
		if code != "" {
			return code, nil
		}
		mask, code := channelMask(p.Channels)
		if code != "" {
			return code, nil
		}
		return "", d.drv.SweepRates(mask, p.RiseDelta, p.RiseRate, p.FallDelta, p.FallRate)
	}
	return errcode.Unsupported, nil
}

// channelMask converts indices to a CSR mask; empty selects all channels.
func channelMask(idx []int) (dds.Channels, errcode.Code) {
	if len(idx) == 0 {
		return dds.ChannelAll, ""
	}
	var m dds.Channels
	for _, i := range idx {
		c, ok := dds.ChannelN(i)
		if !ok {
			return dds.ChannelNone, errcode.InvalidChannel
		}
		m |= c
	}
	return m, ""
}

func (d *Device) each(mask dds.Channels, fn func(*types.DDSChannelState)) {
	for i := range d.state {
		if c, _ := dds.ChannelN(i); mask.Has(c) {
			fn(&d.state[i])
		}
	}
}

func (d *Device) snapshotLocked(verify *int) (types.DDSValue, error) {
	c := d.drv.Clock()
	v := types.DDSValue{
		CoreHz:       c.Hz(),
		Multiplier:   c.Multiplier(),
		ResolutionMl: c.Resolution(),
		Pending:      d.pending,
		Channels:     append([]types.DDSChannelState(nil), d.state[:]...),
		TSms:         timex.NowMs(),
	}
	if verify == nil {
		return v, nil
	}
	ch, ok := dds.ChannelN(*verify)
	if !ok {
		return v, dds.ErrReadChannel
	}
	if err := d.drv.SelectChannels(ch); err != nil {
		return v, err
	}
	word, err := d.drv.ReadRegister(dds.CFTW0)
	if err != nil {
		return v, err
	}
	match := word == d.state[*verify].Word
	v.Verified = &match
	return v, nil
}

// committedLocked publishes the new state and returns it as the reply.
func (d *Device) committedLocked() core.EnqueueResult {
	v, _ := d.snapshotLocked(nil)
	d.pub.Emit(core.Event{Addr: d.addr, Payload: v, TSms: v.TSms})
	return core.EnqueueResult{OK: true, Value: v}
}
