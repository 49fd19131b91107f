//go:build !rp2040 && !rp2350

package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"ddscode-go/types"
)

// command is one parsed control request.
type command struct {
	verb    string
	payload any
}

var errUsage = errors.New("usage")

const help = `commands (channels are trailing indices 0..3, none = all):
  freq <hz> [ch...]                 set output frequency
  delta <word> [ch...]              set raw tuning word (0x.. accepted)
  amp <0..1023> [ch...]             set amplitude scale
  phase <degrees> [ch...]           set phase offset
  sweep <frequency|delta|amplitude|phase> <target> [follow] [ch...]
  rates <rise_delta> <rise_rate> <fall_delta> <fall_rate> [ch...]
  ramp <to> <ms> [steps] [ch...]    software amplitude ramp
  stop                              stop ramp
  clock <multiplier> [calibration_hz] [reference_hz]
  commit | reset
  read [ch]                         snapshot (with read-back check on ch)
  reg <ch> <register>               read one register
  poll <ms> | unpoll                periodic read
  quit`

// parseLine tokenises a command line shell-style and builds the request.
// An empty line yields a zero command and no error.
func parseLine(line string) (command, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return command{}, err
	}
	if len(args) == 0 {
		return command{}, nil
	}
	name, args := strings.ToLower(args[0]), args[1:]

	switch name {
	case "freq":
		if len(args) < 1 {
			return command{}, errUsage
		}
		hz, err := parseHz(args[0])
		if err != nil {
			return command{}, err
		}
		chs, err := channels(args[1:])
		return command{"set_frequency", types.DDSFrequency{Channels: chs, Hz: hz}}, err

	case "delta":
		if len(args) < 1 {
			return command{}, errUsage
		}
		w, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return command{}, err
		}
		chs, err := channels(args[1:])
		return command{"set_delta", types.DDSDelta{Channels: chs, Word: uint32(w)}}, err

	case "amp":
		if len(args) < 1 {
			return command{}, errUsage
		}
		v, err := strconv.ParseUint(args[0], 0, 16)
		if err != nil {
			return command{}, err
		}
		chs, err := channels(args[1:])
		return command{"set_amplitude", types.DDSAmplitude{Channels: chs, Value: uint16(v)}}, err

	case "phase":
		if len(args) < 1 {
			return command{}, errUsage
		}
		deg, err := strconv.ParseFloat(args[0], 64)
		if err != nil || deg < 0 {
			return command{}, errUsage
		}
		cdeg := uint32(math.Round(math.Mod(deg, 360) * 100))
		chs, err := channels(args[1:])
		return command{"set_phase", types.DDSPhase{Channels: chs, Centidegrees: &cdeg}}, err

	case "sweep":
		if len(args) < 2 {
			return command{}, errUsage
		}
		target, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return command{}, err
		}
		rest := args[2:]
		follow := len(rest) > 0 && rest[0] == "follow"
		if follow {
			rest = rest[1:]
		}
		chs, err := channels(rest)
		return command{"sweep", types.DDSSweep{Channels: chs, Mode: args[0], Target: uint32(target), Follow: follow}}, err

	case "rates":
		if len(args) < 4 {
			return command{}, errUsage
		}
		var n [4]uint64
		for i, bits := range []int{32, 8, 32, 8} {
			if n[i], err = strconv.ParseUint(args[i], 0, bits); err != nil {
				return command{}, err
			}
		}
		chs, err := channels(args[4:])
		return command{"sweep_rates", types.DDSSweepRates{
			Channels: chs, RiseDelta: uint32(n[0]), RiseRate: uint8(n[1]), FallDelta: uint32(n[2]), FallRate: uint8(n[3]),
		}}, err

	case "ramp":
		if len(args) < 2 {
			return command{}, errUsage
		}
		to, err := strconv.ParseUint(args[0], 0, 16)
		if err != nil {
			return command{}, err
		}
		ms, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return command{}, err
		}
		r := types.DDSRamp{To: uint16(to), DurationMs: uint32(ms)}
		rest := args[2:]
		if len(rest) > 0 {
			steps, err := strconv.ParseUint(rest[0], 10, 16)
			if err != nil {
				return command{}, err
			}
			r.Steps, rest = uint16(steps), rest[1:]
		}
		r.Channels, err = channels(rest)
		return command{"ramp_amplitude", r}, err

	case "stop":
		return command{"stop_ramp", nil}, nil

	case "clock":
		if len(args) < 1 {
			return command{}, errUsage
		}
		var n [3]uint64
		for i := range args {
			if i >= len(n) {
				return command{}, errUsage
			}
			if n[i], err = strconv.ParseUint(args[i], 10, 32); err != nil {
				return command{}, err
			}
		}
		if n[0] > math.MaxUint8 {
			return command{}, errUsage
		}
		return command{"configure_clock", types.DDSClock{
			Multiplier: uint8(n[0]), CalibrationHz: uint32(n[1]), ReferenceHz: uint32(n[2]),
		}}, nil

	case "commit", "reset":
		return command{name, nil}, nil

	case "read":
		if len(args) == 0 {
			return command{"read", types.DDSRead{}}, nil
		}
		ch, err := strconv.Atoi(args[0])
		if err != nil {
			return command{}, err
		}
		return command{"read", types.DDSRead{Channel: &ch}}, nil

	case "reg":
		if len(args) != 2 {
			return command{}, errUsage
		}
		ch, err := strconv.Atoi(args[0])
		if err != nil {
			return command{}, err
		}
		reg, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return command{}, err
		}
		return command{"read_register", types.DDSRegisterRead{Channel: ch, Register: uint8(reg)}}, nil

	case "poll":
		if len(args) != 1 {
			return command{}, errUsage
		}
		ms, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil || ms == 0 {
			return command{}, errUsage
		}
		return command{"poll_start", types.PollStart{Verb: "read", IntervalMs: uint32(ms)}}, nil

	case "unpoll":
		return command{"poll_stop", types.PollStop{Verb: "read"}}, nil
	}
	return command{}, fmt.Errorf("unknown command %q", name)
}

// parseHz accepts plain Hz or a k/M suffix ("10M", "2.5k").
func parseHz(s string) (uint32, error) {
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "M"):
		mult, s = 1e6, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "k"):
		mult, s = 1e3, strings.TrimSuffix(s, "k")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	hz := math.Round(f * mult)
	if hz < 0 || hz > math.MaxUint32 {
		return 0, errUsage
	}
	return uint32(hz), nil
}

func channels(args []string) ([]int, error) {
	var out []int
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
