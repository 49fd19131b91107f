//go:build !rp2040 && !rp2350

// Command ddsctl runs the bus and HAL on a host and drives an AD9959 from
// shell-style command lines, on real SPI hardware or on the simulated chip.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"ddscode-go/bus"
	"ddscode-go/services/hal"
	"ddscode-go/types"
)

type options struct {
	sim        bool
	spiPort    string
	speedHz    uint
	resetPin   int
	updatePin  int
	csPin      int
	refHz      uint
	multiplier uint
	autoCommit bool
	timeout    time.Duration
}

func main() {
	var o options
	flag.BoolVar(&o.sim, "sim", false, "use the simulated chip")
	flag.StringVar(&o.spiPort, "spi", "", "spidev port (empty = first)")
	flag.UintVar(&o.speedHz, "speed", 10_000_000, "SPI clock in Hz")
	flag.IntVar(&o.resetPin, "reset", 20, "reset GPIO")
	flag.IntVar(&o.updatePin, "update", 21, "IO_UPDATE GPIO")
	flag.IntVar(&o.csPin, "cs", -1, "chip select GPIO (-1 = driven by spidev)")
	flag.UintVar(&o.refHz, "ref", 25_000_000, "reference clock in Hz")
	flag.UintVar(&o.multiplier, "mult", 20, "PLL multiplier (4..20, other = bypass)")
	flag.BoolVar(&o.autoCommit, "auto", true, "commit after every change")
	flag.DurationVar(&o.timeout, "timeout", 2*time.Second, "reply timeout")
	flag.Parse()

	if err := run(o, os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, "ddsctl:", err)
		os.Exit(1)
	}
}

func run(o options, in io.Reader) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg, params, closeFn, err := openRegistry(o)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	b := bus.NewBus(16)
	go hal.Run(ctx, b.NewConnection("hal"), reg)

	conn := b.NewConnection("ddsctl")
	conn.Publish(conn.NewMessage(bus.T("config", "hal"), types.HALConfig{
		Devices: []types.HALDevice{{ID: "dds0", Type: "ad9959", Params: params}},
	}, true))
	if err := waitReady(ctx, conn, o.timeout); err != nil {
		return err
	}

	fmt.Println(help)
	sc := bufio.NewScanner(in)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		cmd, err := parseLine(line)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		if cmd.verb == "" {
			continue
		}
		rctx, cancel := context.WithTimeout(ctx, o.timeout)
		reply, err := conn.RequestWait(rctx, conn.NewMessage(hal.CtrlTopic("rf", "dds", "synth", cmd.verb), cmd.payload, false))
		cancel()
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		printReply(reply.Payload)
	}
	return sc.Err()
}

var errNotReady = errors.New("hal did not become ready")

func waitReady(ctx context.Context, conn *bus.Connection, timeout time.Duration) error {
	sub := conn.Subscribe(hal.StateTopic())
	defer conn.Unsubscribe(sub)
	deadline := time.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return errNotReady
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.HALState); ok && st.Level == "ready" {
				return nil
			}
		}
	}
}

func printReply(p any) {
	switch v := p.(type) {
	case types.ErrorReply:
		fmt.Println("error:", v.Error)
	case types.OKReply:
		fmt.Println("ok")
	case types.DDSRegisterValue:
		fmt.Printf("ch%d reg 0x%02X = 0x%08X\n", v.Channel, v.Register, v.Value)
	case types.DDSValue:
		fmt.Printf("core %d Hz (x%d), step %d mHz, pending=%v\n", v.CoreHz, v.Multiplier, v.ResolutionMl, v.Pending)
		for i, c := range v.Channels {
			fmt.Printf("  ch%d %11d Hz word 0x%08X amp %4d phase %5d %s\n", i, c.Hz, c.Word, c.Amplitude, c.Phase, c.Sweep)
		}
		if v.Verified != nil {
			fmt.Println("  read-back match:", *v.Verified)
		}
	default:
		fmt.Printf("%+v\n", v)
	}
}
