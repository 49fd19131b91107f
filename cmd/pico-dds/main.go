//go:build rp2040 || rp2350

// Firmware for a Pico driving an AD9959 on SPI0: runs the bus, embedded
// config, HAL and heartbeat, then brings channel 0 up at 10 MHz.
package main

import (
	"context"
	"time"

	"ddscode-go/bus"
	"ddscode-go/services/config"
	"ddscode-go/services/hal"
	"ddscode-go/services/heartbeat"
	"ddscode-go/types"
	"ddscode-go/x/conv"
)

const (
	deviceID   = "pico-dds"
	spiSpeedHz = 10_000_000
)

func printTopic(prefix string, t bus.Topic) {
	print(prefix, " ")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			print("/")
		}
		switch v := t.At(i).(type) {
		case string:
			print(v)
		case int:
			print(v)
		default:
			print("?")
		}
	}
	println()
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	ctx := config.WithDevice(context.Background(), deviceID)

	println("[main] bootstrapping bus")
	b := bus.NewBus(8)
	ui := b.NewConnection("ui")

	mon := ui.Subscribe(bus.T("hal", "#"))
	go func() {
		var buf [16]byte
		for m := range mon.Channel() {
			printTopic("[monitor] <-", m.Topic)
			if v, ok := m.Payload.(types.DDSValue); ok {
				for i, c := range v.Channels {
					println("  ch", i, c.Hz, "Hz word", string(conv.AppendHex(buf[:0], c.Word, 8)))
				}
			}
		}
	}()

	reg, err := hal.NewBoard(spiSpeedHz)
	if err != nil {
		println("[main] spi configure failed:", err.Error())
		return
	}
	go hal.Run(ctx, b.NewConnection("hal"), reg)

	config.NewConfigService().Start(ctx, b.NewConnection("config"))
	hb := &heartbeat.Service{}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	// Wait for the HAL to pick up its config.
	st := ui.Subscribe(hal.StateTopic())
	for m := range st.Channel() {
		if s, ok := m.Payload.(types.HALState); ok && s.Level == "ready" {
			break
		}
	}
	ui.Unsubscribe(st)

	rctx, cancel := context.WithTimeout(ctx, time.Second)
	reply, err := ui.RequestWait(rctx, ui.NewMessage(
		hal.CtrlTopic("rf", "dds", "synth", "set_frequency"),
		types.DDSFrequency{Channels: []int{0}, Hz: 10_000_000},
		false,
	))
	cancel()
	if err != nil {
		println("[main] set_frequency:", err.Error())
	} else if er, ok := reply.Payload.(types.ErrorReply); ok {
		println("[main] set_frequency:", er.Error)
	} else {
		println("[main] channel 0 at 10 MHz")
	}

	select {}
}
