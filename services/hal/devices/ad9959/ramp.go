package ad9959

import (
	"sync"
	"time"

	dds "ddscode-go/drivers/ad9959"
	"ddscode-go/errcode"
	"ddscode-go/services/hal/internal/core"
	"ddscode-go/services/hal/internal/util"
	"ddscode-go/types"
	"ddscode-go/x/mathx"
	"ddscode-go/x/ramp"
)

const defaultRampSteps = 32

type rampTask struct {
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func (t *rampTask) cancel() { t.once.Do(func() { close(t.stop) }) }

// startRamp launches a software amplitude ramp. Each step writes ACR on the
// selected channels and commits, regardless of auto_commit. IO_UPDATE is
// chip-wide, so a ramp is refused while staged writes await a commit.
func (d *Device) startRamp(payload any) (core.EnqueueResult, error) {
	p, code := core.As[types.DDSRamp](payload)
	if code != "" {
		return core.EnqueueResult{Error: code}, nil
	}
	mask, code := channelMask(p.Channels)
	if code != "" {
		return core.EnqueueResult{Error: code}, nil
	}
	if p.To > dds.AmplitudeMax {
		return core.EnqueueResult{Error: errcode.InvalidParams}, nil
	}
	steps := p.Steps
	if steps == 0 {
		steps = defaultRampSteps
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drv == nil {
		return core.EnqueueResult{Error: errcode.NotReady}, nil
	}
	if d.ramp != nil || d.pending {
		return core.EnqueueResult{Error: errcode.Busy}, nil
	}
	// Ramp from the lowest selected channel's current level.
	var from uint16
	for i := range d.state {
		if c, _ := dds.ChannelN(i); mask.Has(c) {
			from = d.state[i].Amplitude
			break
		}
	}
	t := &rampTask{stop: make(chan struct{}), done: make(chan struct{})}
	d.ramp = t

	go func() {
		defer close(t.done)
		defer func() {
			d.mu.Lock()
			if d.ramp == t {
				d.ramp = nil
			}
			d.mu.Unlock()
		}()
		timer := time.NewTimer(time.Hour)
		defer timer.Stop()
		tick := func(dur time.Duration) bool {
			util.ResetTimer(timer, dur)
			select {
			case <-t.stop:
				return false
			case <-timer.C:
				return true
			}
		}
		ramp.StartLinear(from, p.To, dds.AmplitudeMax, p.DurationMs, steps, tick, func(level uint16) {
			d.rampStep(mask, mathx.Min(level, dds.AmplitudeMax))
		})
	}()
	return core.EnqueueResult{OK: true}, nil
}

func (d *Device) rampStep(mask dds.Channels, level uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.drv.SetAmplitude(mask, level); err != nil {
		d.pub.Emit(core.Event{Addr: d.addr, TSms: time.Now().UnixMilli(), Err: string(errcode.MapDriverErr(err))})
		return
	}
	d.each(mask, func(s *types.DDSChannelState) { s.Amplitude = level })
	d.drv.Update()
	d.pending = false
	d.committedLocked()
}

// stopRamp cancels a running ramp and waits for it to exit.
func (d *Device) stopRamp() {
	d.mu.Lock()
	t := d.ramp
	d.mu.Unlock()
	if t == nil {
		return
	}
	t.cancel()
	<-t.done
}
