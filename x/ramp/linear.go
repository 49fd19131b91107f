// Package ramp drives caller-timed integer ramps.
package ramp

import (
	"time"

	"ddscode-go/x/mathx"
)

// Step sets the new level in [0..top].
type Step func(level uint16)

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// StartLinear walks from cur to to in steps equal intervals over durationMs,
// calling set at each interval. Level i is the exact interpolation
// cur + (to-cur)*i/steps, so the last call always lands on to (clamped to
// top). Repeated levels are skipped. steps==0 or durationMs==0 snaps to the
// target. It runs synchronously; call it from a goroutine.
func StartLinear(cur, to, top uint16, durationMs uint32, steps uint16, tick Tick, set Step) {
	to = mathx.Min(to, top)
	if steps == 0 || durationMs == 0 {
		set(to)
		return
	}
	stepDur := time.Duration(mathx.Max(durationMs/uint32(steps), 1)) * time.Millisecond
	span := int32(to) - int32(cur)
	last := int32(cur)
	for i := int32(1); i <= int32(steps); i++ {
		if !tick(stepDur) {
			return
		}
		lvl := mathx.Clamp(int32(cur)+span*i/int32(steps), 0, int32(top))
		if lvl == last && i != int32(steps) {
			continue
		}
		last = lvl
		set(uint16(lvl))
	}
}
