package main

import (
	"testing"

	"ddscode-go/types"
)

func TestParseLine(t *testing.T) {
	cmd, err := parseLine(`freq 10M 0 2`)
	if err != nil {
		t.Fatal(err)
	}
	f, ok := cmd.payload.(types.DDSFrequency)
	if cmd.verb != "set_frequency" || !ok || f.Hz != 10_000_000 || len(f.Channels) != 2 || f.Channels[1] != 2 {
		t.Fatalf("freq: %+v", cmd)
	}

	cmd, err = parseLine(`phase 90 3`)
	if err != nil {
		t.Fatal(err)
	}
	if p := cmd.payload.(types.DDSPhase); *p.Centidegrees != 9000 || p.Channels[0] != 3 {
		t.Fatalf("phase: %+v", p)
	}

	cmd, err = parseLine(`sweep frequency 1000000 follow 1`)
	if err != nil {
		t.Fatal(err)
	}
	if s := cmd.payload.(types.DDSSweep); !s.Follow || s.Mode != "frequency" || s.Channels[0] != 1 {
		t.Fatalf("sweep: %+v", s)
	}

	cmd, err = parseLine(`delta 0x40000000`)
	if err != nil || cmd.payload.(types.DDSDelta).Word != 1<<30 || cmd.payload.(types.DDSDelta).Channels != nil {
		t.Fatalf("delta: %+v %v", cmd, err)
	}

	cmd, err = parseLine(`ramp 0 500 10 0 1`)
	if r := cmd.payload.(types.DDSRamp); err != nil || r.Steps != 10 || r.DurationMs != 500 || len(r.Channels) != 2 {
		t.Fatalf("ramp: %+v %v", cmd, err)
	}

	cmd, err = parseLine(`clock 10 10000020`)
	if c := cmd.payload.(types.DDSClock); err != nil || c.Multiplier != 10 || c.CalibrationHz != 10_000_020 || c.ReferenceHz != 0 {
		t.Fatalf("clock: %+v %v", cmd, err)
	}

	cmd, err = parseLine(`reg 1 0x04`)
	if r := cmd.payload.(types.DDSRegisterRead); err != nil || r.Channel != 1 || r.Register != 4 {
		t.Fatalf("reg: %+v %v", cmd, err)
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{
		`freq`, `freq abc`, `amp 2000000`, `bogus`, `reg 1`, `poll 0`, `clock 300`, `freq 1M "unterminated`,
	} {
		if _, err := parseLine(line); err == nil {
			t.Fatalf("%q: expected error", line)
		}
	}
	if cmd, err := parseLine("   "); err != nil || cmd.verb != "" {
		t.Fatalf("blank line: %+v %v", cmd, err)
	}
}

func TestParseHz(t *testing.T) {
	cases := map[string]uint32{"125M": 125_000_000, "2.5k": 2500, "42": 42}
	for in, want := range cases {
		if got, err := parseHz(in); err != nil || got != want {
			t.Fatalf("parseHz(%q)=%d,%v", in, got, err)
		}
	}
}
