package config

import (
	"context"
	"testing"
	"time"

	"ddscode-go/bus"
	"ddscode-go/types"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "bench" {
			return nil, false
		}
		return []byte(`{
			"mode": "dev",
			"debug": true,
			"hal": {"devices": [{"id": "dds0", "type": "ad9959", "params": {"bus": "spi1"}}]}
		}`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	if err := NewConfigService().publishConfig(WithDevice(context.Background(), "bench"), conn); err != nil {
		t.Fatal(err)
	}

	// Retained messages arrive on subscribe.
	sub := conn.Subscribe(bus.T(configPrefix, "#"))
	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < 3 && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			key, ok := m.Topic.At(1).(string)
			if !ok {
				t.Fatalf("topic[1] type %T, want string", m.Topic.At(1))
			}
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if s, ok := got["mode"].(string); !ok || s != "dev" {
		t.Fatalf("mode payload = %#v", got["mode"])
	}
	if v, ok := got["debug"].(bool); !ok || !v {
		t.Fatalf("debug payload = %#v", got["debug"])
	}
	hc, ok := got["hal"].(types.HALConfig)
	if !ok {
		t.Fatalf("hal payload type %T, want types.HALConfig", got["hal"])
	}
	if len(hc.Devices) != 1 || hc.Devices[0].Type != "ad9959" {
		t.Fatalf("hal devices %+v", hc.Devices)
	}
}

func TestConfig_EmbeddedDefaultsDecode(t *testing.T) {
	for _, dev := range []string{"pico-dds", "sim"} {
		b := bus.NewBus(8)
		conn := b.NewConnection("t")
		if err := NewConfigService().publishConfig(WithDevice(context.Background(), dev), conn); err != nil {
			t.Fatalf("%s: %v", dev, err)
		}
	}
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	conn := bus.NewBus(4).NewConnection("test-missing-device")
	if err := NewConfigService().publishConfig(context.Background(), conn); err != errNoDevice {
		t.Fatalf("want errNoDevice, got %v", err)
	}
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(string) ([]byte, bool) { return nil, false }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	conn := bus.NewBus(4).NewConnection("test-no-config")
	ctx := WithDevice(context.Background(), "unknown-device")
	if err := NewConfigService().publishConfig(ctx, conn); err != errNoConfig {
		t.Fatalf("want errNoConfig, got %v", err)
	}
}
