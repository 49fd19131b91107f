package ad9959

import (
	"context"
	"sync"
	"testing"
	"time"

	dds "ddscode-go/drivers/ad9959"
	"ddscode-go/errcode"
	"ddscode-go/services/hal/internal/core"
	"ddscode-go/services/hal/internal/platform"
	"ddscode-go/types"
)

type recorder struct {
	mu  sync.Mutex
	evs []core.Event
}

func (r *recorder) Emit(ev core.Event) bool {
	r.mu.Lock()
	r.evs = append(r.evs, ev)
	r.mu.Unlock()
	return true
}

func (r *recorder) last() (core.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.evs) == 0 {
		return core.Event{}, false
	}
	return r.evs[len(r.evs)-1], true
}

func simParams(autoCommit bool) Params {
	p := DefaultParams()
	p.ResetPin = platform.PinDDSReset
	p.UpdatePin = platform.PinDDSUpdate
	p.CSPin = platform.PinDDSCS
	p.SClkPin = platform.PinDDSSClk
	p.AutoCommit = autoCommit
	return p
}

func newSimDevice(t *testing.T, params any) (*Device, *platform.Sim, *recorder) {
	t.Helper()
	board := platform.NewSim()
	rec := &recorder{}
	d, err := builder{}.Build(context.Background(), core.BuilderInput{
		ID: "dds0", Type: "ad9959", Params: params,
		Res: core.Resources{Reg: board, Pub: rec},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d.(*Device), board, rec
}

func ctl(t *testing.T, d *Device, verb string, payload any) core.EnqueueResult {
	t.Helper()
	res, err := d.Control(d.addr, verb, payload)
	if err != nil {
		t.Fatalf("%s: %v", verb, err)
	}
	return res
}

func TestInitResetsAndCommits(t *testing.T) {
	_, board, _ := newSimDevice(t, simParams(true))
	if board.Chip.Resets() != 1 || board.Chip.Updates() != 3 || board.Chip.Kicks() != 1 {
		t.Fatalf("resets=%d updates=%d kicks=%d", board.Chip.Resets(), board.Chip.Updates(), board.Chip.Kicks())
	}
	if got := board.Chip.Active(0, dds.FR1); got != 0xD30020 {
		t.Fatalf("FR1 active 0x%06X", got)
	}
	if got := board.Chip.Active(3, dds.CFR); got != dds.CFRDefault {
		t.Fatalf("CFR active 0x%06X", got)
	}
	for _, n := range []int{platform.PinDDSReset, platform.PinDDSUpdate, platform.PinDDSCS, platform.PinDDSSClk} {
		if !board.Pins.Pin(n).IsOutput() {
			t.Fatalf("pin %d not configured as output", n)
		}
	}
	if !board.Pins.Pin(platform.PinDDSCS).Get() {
		t.Fatal("chip select left asserted")
	}
}

func TestBuildFromJSONParams(t *testing.T) {
	d, _, _ := newSimDevice(t, map[string]any{
		"bus": "spi0", "reset_pin": 20.0, "update_pin": 21.0, "cs_pin": 17.0,
		"reference_hz": 20_000_000.0, "multiplier": 10.0, "name": "lo",
	})
	if d.addr.Name != "lo" || d.addr.Domain != "rf" || d.params.SClkPin != -1 {
		t.Fatalf("params %+v addr %+v", d.params, d.addr)
	}
	if d.drv.Clock().Hz() != 200_000_000 {
		t.Fatalf("core clock %d", d.drv.Clock().Hz())
	}
}

func TestBuildRejectsMissingPins(t *testing.T) {
	_, err := builder{}.Build(context.Background(), core.BuilderInput{ID: "x", Params: DefaultParams()})
	if err != errcode.InvalidParams {
		t.Fatalf("want InvalidParams, got %v", err)
	}
}

func TestSetFrequencyAutoCommit(t *testing.T) {
	d, board, rec := newSimDevice(t, simParams(true))
	res := ctl(t, d, "set_frequency", types.DDSFrequency{Channels: []int{1, 2}, Hz: 125_000_000})
	if !res.OK {
		t.Fatalf("result %+v", res)
	}
	want := dds.NewClock(25_000_000, 20, 0).TuningWord(125_000_000)
	for ch, w := range []uint32{0, want, want, 0} {
		if got := board.Chip.Active(ch, dds.CFTW0); got != w {
			t.Fatalf("ch%d CFTW0 0x%08X want 0x%08X", ch, got, w)
		}
	}
	ev, ok := rec.last()
	if !ok {
		t.Fatal("no value emitted")
	}
	v := ev.Payload.(types.DDSValue)
	if v.Pending || v.Channels[1].Hz != 125_000_000 || v.Channels[1].Word != want {
		t.Fatalf("value %+v", v)
	}
}

func TestStagedUntilCommit(t *testing.T) {
	d, board, _ := newSimDevice(t, simParams(false))
	ctl(t, d, "set_amplitude", types.DDSAmplitude{Channels: []int{0}, Value: 512})
	if got := board.Chip.Buffered(0, dds.ACR); got != 0x1200 {
		t.Fatalf("buffered ACR 0x%06X", got)
	}
	if got := board.Chip.Active(0, dds.ACR); got != 0 {
		t.Fatalf("ACR applied before commit: 0x%06X", got)
	}
	v := ctl(t, d, "read", nil).Value.(types.DDSValue)
	if !v.Pending {
		t.Fatal("pending not reported")
	}
	res := ctl(t, d, "commit", nil)
	if res.Value.(types.DDSValue).Pending || board.Chip.Active(0, dds.ACR) != 0x1200 {
		t.Fatal("commit did not apply")
	}
}

func TestControlErrors(t *testing.T) {
	d, _, _ := newSimDevice(t, simParams(true))
	cases := []struct {
		verb    string
		payload any
		want    errcode.Code
	}{
		{"set_amplitude", types.DDSAmplitude{Value: 1024}, errcode.InvalidParams},
		{"set_frequency", types.DDSFrequency{Channels: []int{4}, Hz: 1}, errcode.InvalidChannel},
		{"set_phase", types.DDSPhase{}, errcode.InvalidParams},
		{"sweep", types.DDSSweep{Mode: "chirp"}, errcode.InvalidParams},
		{"set_frequency", "not json", errcode.InvalidPayload},
		{"warp", nil, errcode.Unsupported},
	}
	for _, c := range cases {
		res := ctl(t, d, c.verb, c.payload)
		if res.OK || res.Error != c.want {
			t.Fatalf("%s: %+v want %q", c.verb, res, c.want)
		}
	}
}

func TestPhaseAndSweep(t *testing.T) {
	d, board, _ := newSimDevice(t, simParams(true))
	cdeg := uint32(9000)
	ctl(t, d, "set_phase", types.DDSPhase{Channels: []int{3}, Centidegrees: &cdeg})
	if got := board.Chip.Active(3, dds.CPOW0); got != 0x1000 {
		t.Fatalf("CPOW0 0x%04X", got)
	}
	ctl(t, d, "sweep", types.DDSSweep{Channels: []int{0}, Mode: "amplitude", Target: 0x3FF, Follow: true})
	if got := board.Chip.Active(0, dds.CW1); got != 0x3FF<<22 {
		t.Fatalf("CW1 0x%08X", got)
	}
	ctl(t, d, "sweep_rates", types.DDSSweepRates{Channels: []int{0}, RiseDelta: 5, RiseRate: 1, FallDelta: 6, FallRate: 2})
	if got := board.Chip.Active(0, dds.LSRR); got != 0x0201 {
		t.Fatalf("LSRR 0x%04X", got)
	}
}

func TestReadRegisterAndVerify(t *testing.T) {
	d, _, _ := newSimDevice(t, simParams(true))
	ctl(t, d, "set_delta", types.DDSDelta{Channels: []int{2}, Word: 0x12345678})
	res := ctl(t, d, "read_register", types.DDSRegisterRead{Channel: 2, Register: uint8(dds.CFTW0)})
	if rv := res.Value.(types.DDSRegisterValue); rv.Value != 0x12345678 {
		t.Fatalf("read back 0x%08X", rv.Value)
	}
	ch := 2
	v := ctl(t, d, "read", types.DDSRead{Channel: &ch}).Value.(types.DDSValue)
	if v.Verified == nil || !*v.Verified {
		t.Fatalf("verify failed: %+v", v)
	}
	bad := 7
	if _, err := d.Control(d.addr, "read", types.DDSRead{Channel: &bad}); errcode.MapDriverErr(err) != errcode.InvalidChannel {
		t.Fatalf("want invalid_channel, got %v", err)
	}
}

func TestAmplitudeRamp(t *testing.T) {
	d, board, _ := newSimDevice(t, simParams(false))
	if res := ctl(t, d, "ramp_amplitude", types.DDSRamp{Channels: []int{0}, To: 100, DurationMs: 20, Steps: 4}); !res.OK {
		t.Fatalf("start: %+v", res)
	}
	deadline := time.Now().Add(2 * time.Second)
	for board.Chip.Active(0, dds.ACR)&dds.AmplitudeMax != 100 {
		if time.Now().After(deadline) {
			t.Fatalf("ramp did not finish: ACR 0x%06X", board.Chip.Active(0, dds.ACR))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRampBusyAndStop(t *testing.T) {
	d, _, _ := newSimDevice(t, simParams(true))
	long := types.DDSRamp{To: 0, DurationMs: 60_000, Steps: 10}
	if res := ctl(t, d, "ramp_amplitude", long); !res.OK {
		t.Fatalf("start: %+v", res)
	}
	if res := ctl(t, d, "ramp_amplitude", long); res.Error != errcode.Busy {
		t.Fatalf("second ramp: %+v", res)
	}
	ctl(t, d, "stop_ramp", nil)
	if res := ctl(t, d, "ramp_amplitude", types.DDSRamp{To: 5}); !res.OK {
		t.Fatalf("after stop: %+v", res)
	}
}

func TestBusClaimExclusive(t *testing.T) {
	_, board, _ := newSimDevice(t, simParams(true))
	p := simParams(true)
	p.ResetPin, p.UpdatePin, p.CSPin, p.SClkPin = 2, 3, -1, -1
	d2, err := builder{}.Build(context.Background(), core.BuilderInput{ID: "dds1", Params: p, Res: core.Resources{Reg: board, Pub: &recorder{}}})
	if err != nil {
		t.Fatal(err)
	}
	if err := d2.Init(context.Background()); err != core.ErrBusInUse {
		t.Fatalf("want ErrBusInUse, got %v", err)
	}
	_ = d2.Close()
}

func TestRampRefusedWhileStaged(t *testing.T) {
	d, board, _ := newSimDevice(t, simParams(false))
	ctl(t, d, "set_frequency", types.DDSFrequency{Channels: []int{1}, Hz: 7_000_000})
	if res := ctl(t, d, "ramp_amplitude", types.DDSRamp{Channels: []int{0}, To: 100, DurationMs: 20, Steps: 4}); res.Error != errcode.Busy {
		t.Fatalf("ramp with staged writes: %+v", res)
	}
	time.Sleep(30 * time.Millisecond)
	if got := board.Chip.Active(1, dds.CFTW0); got != 0 {
		t.Fatalf("staged frequency applied without commit: CFTW0 0x%08X", got)
	}
	if v := ctl(t, d, "read", nil).Value.(types.DDSValue); !v.Pending {
		t.Fatal("pending cleared")
	}
	ctl(t, d, "commit", nil)
	if res := ctl(t, d, "ramp_amplitude", types.DDSRamp{Channels: []int{0}, To: 100, DurationMs: 20, Steps: 4}); !res.OK {
		t.Fatalf("ramp after commit: %+v", res)
	}
}

func TestStagedWriteRefusedDuringRamp(t *testing.T) {
	d, board, _ := newSimDevice(t, simParams(false))
	if res := ctl(t, d, "ramp_amplitude", types.DDSRamp{Channels: []int{0}, To: 0, DurationMs: 60_000, Steps: 10}); !res.OK {
		t.Fatalf("start: %+v", res)
	}
	if res := ctl(t, d, "set_frequency", types.DDSFrequency{Channels: []int{1}, Hz: 7_000_000}); res.Error != errcode.Busy {
		t.Fatalf("staged write during ramp: %+v", res)
	}
	if got := board.Chip.Buffered(1, dds.CFTW0); got != 0 {
		t.Fatalf("write reached the chip: CFTW0 0x%08X", got)
	}
	ctl(t, d, "stop_ramp", nil)
	if res := ctl(t, d, "set_frequency", types.DDSFrequency{Channels: []int{1}, Hz: 7_000_000}); !res.OK {
		t.Fatalf("after stop: %+v", res)
	}
}

func TestResetStopsRamp(t *testing.T) {
	d, board, _ := newSimDevice(t, simParams(true))
	if res := ctl(t, d, "ramp_amplitude", types.DDSRamp{Channels: []int{0}, To: 0, DurationMs: 60_000, Steps: 10}); !res.OK {
		t.Fatalf("start: %+v", res)
	}
	if res := ctl(t, d, "reset", nil); !res.OK {
		t.Fatalf("reset: %+v", res)
	}
	d.mu.Lock()
	running := d.ramp != nil
	amp := d.state[0].Amplitude
	d.mu.Unlock()
	if running || amp != dds.AmplitudeMax {
		t.Fatalf("ramp running=%v amplitude=%d after reset", running, amp)
	}
	updates := board.Chip.Updates()
	time.Sleep(20 * time.Millisecond)
	if board.Chip.Updates() != updates {
		t.Fatal("ramp still committing after reset")
	}
}
