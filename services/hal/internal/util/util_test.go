package util

import (
	"testing"
	"time"
)

func TestDecodeJSON(t *testing.T) {
	type P struct {
		Hz   uint32 `json:"hz"`
		Name string `json:"name"`
	}

	for name, in := range map[string]any{
		"bytes":  []byte(`{"hz":125000000,"name":"synth"}`),
		"string": `{"hz":125000000,"name":"synth"}`,
		"map":    map[string]any{"hz": 125e6, "name": "synth"},
		"struct": struct {
			Hz   uint32 `json:"hz"`
			Name string `json:"name"`
		}{125_000_000, "synth"},
	} {
		var p P
		if err := DecodeJSON(in, &p); err != nil {
			t.Fatalf("%s: decode failed: %v", name, err)
		}
		if p.Hz != 125_000_000 || p.Name != "synth" {
			t.Fatalf("%s: unexpected result: %+v", name, p)
		}
	}
	var p P
	if err := DecodeJSON(`{"hz":-1}`, &p); err == nil {
		t.Fatal("negative hz accepted")
	}
}

func TestResetAndDrainTimer(t *testing.T) {
	tm := time.NewTimer(time.Hour)
	if !tm.Stop() {
		DrainTimer(tm)
	}
	// Reset to near-zero and ensure it fires quickly.
	ResetTimer(tm, 1*time.Millisecond)
	select {
	case <-tm.C:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("timer did not fire after ResetTimer")
	}
	// Negative reset clamps to zero and should fire immediately.
	ResetTimer(tm, -1)
	select {
	case <-tm.C:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("timer did not fire after negative ResetTimer")
	}
}
