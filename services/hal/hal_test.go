package hal

import (
	"context"
	"testing"
	"time"

	"ddscode-go/bus"
	dds "ddscode-go/drivers/ad9959"
	"ddscode-go/errcode"
	"ddscode-go/types"
)

// simConfig mirrors what services/config publishes after JSON decoding.
func simConfig(autoCommit bool) types.HALConfig {
	return types.HALConfig{Devices: []types.HALDevice{{
		ID:   "dds0",
		Type: "ad9959",
		Params: map[string]any{
			"bus": "spi0", "reset_pin": 20.0, "update_pin": 21.0, "cs_pin": 17.0, "sclk_pin": 18.0,
			"auto_commit": autoCommit, "domain": "rf", "name": "synth",
		},
	}}}
}

func waitState(t *testing.T, conn *bus.Connection, level string) {
	t.Helper()
	sub := conn.Subscribe(StateTopic())
	defer conn.Unsubscribe(sub)
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.HALState); ok && st.Level == level {
				return
			}
		case <-deadline:
			t.Fatalf("HAL never reached %q", level)
		}
	}
}

func request(t *testing.T, conn *bus.Connection, verb string, payload any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := conn.RequestWait(ctx, conn.NewMessage(CtrlTopic("rf", "dds", "synth", verb), payload, false))
	if err != nil {
		t.Fatalf("%s: %v", verb, err)
	}
	return reply.Payload
}

func startHAL(t *testing.T) (*bus.Connection, *SimBoard) {
	t.Helper()
	b := bus.NewBus(16)
	board := NewSimBoard()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go Run(ctx, b.NewConnection("hal"), board)
	return b.NewConnection("test"), board
}

func TestControlBeforeConfigIsRejected(t *testing.T) {
	conn, _ := startHAL(t)
	waitState(t, conn, "idle")
	got := request(t, conn, "commit", nil)
	if er, ok := got.(types.ErrorReply); !ok || er.Error != string(errcode.HALNotReady) {
		t.Fatalf("reply %#v", got)
	}
}

func TestStagedFrequencyThenCommit(t *testing.T) {
	conn, board := startHAL(t)
	conn.Publish(conn.NewMessage(bus.T("config", "hal"), simConfig(false), true))
	waitState(t, conn, "ready")

	got := request(t, conn, "set_frequency", types.DDSFrequency{Channels: []int{0}, Hz: 10_000_000})
	if ok, _ := got.(types.OKReply); !ok.OK {
		t.Fatalf("set_frequency reply %#v", got)
	}
	if board.Chip.Active(0, dds.CFTW0) != 0 {
		t.Fatal("applied before commit")
	}

	got = request(t, conn, "commit", nil)
	v, ok := got.(types.DDSValue)
	if !ok || v.Pending || v.Channels[0].Hz != 10_000_000 {
		t.Fatalf("commit reply %#v", got)
	}
	want := dds.NewClock(25_000_000, 20, 0).TuningWord(10_000_000)
	if board.Chip.Active(0, dds.CFTW0) != want {
		t.Fatalf("CFTW0 0x%08X want 0x%08X", board.Chip.Active(0, dds.CFTW0), want)
	}
}

func TestUnknownCapability(t *testing.T) {
	conn, _ := startHAL(t)
	conn.Publish(conn.NewMessage(bus.T("config", "hal"), simConfig(true), true))
	waitState(t, conn, "ready")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := conn.RequestWait(ctx, conn.NewMessage(CtrlTopic("rf", "dds", "nope", "commit"), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if er, ok := reply.Payload.(types.ErrorReply); !ok || er.Error != string(errcode.UnknownCapability) {
		t.Fatalf("reply %#v", reply.Payload)
	}
}

func TestPollStartPublishesValues(t *testing.T) {
	conn, _ := startHAL(t)
	conn.Publish(conn.NewMessage(bus.T("config", "hal"), simConfig(true), true))
	waitState(t, conn, "ready")

	sub := conn.Subscribe(ValueTopic("rf", "dds", "synth"))
	defer conn.Unsubscribe(sub)
	// The retained value from init may arrive first; clear it.
	time.Sleep(20 * time.Millisecond)
	for len(sub.Channel()) > 0 {
		<-sub.Channel()
	}

	if ok, _ := request(t, conn, "poll_start", types.PollStart{Verb: "read", IntervalMs: 10}).(types.OKReply); !ok.OK {
		t.Fatal("poll_start rejected")
	}
	select {
	case m := <-sub.Channel():
		if _, ok := m.Payload.(types.DDSValue); !ok {
			t.Fatalf("value payload %T", m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no polled value")
	}
	if ok, _ := request(t, conn, "poll_stop", types.PollStop{}).(types.OKReply); !ok.OK {
		t.Fatal("poll_stop rejected")
	}
}

func TestInitFailurePublishesDownStatus(t *testing.T) {
	conn, _ := startHAL(t)
	cfg := simConfig(true)
	cfg.Devices[0].Params.(map[string]any)["bus"] = "spi9"
	conn.Publish(conn.NewMessage(bus.T("config", "hal"), cfg, true))
	waitState(t, conn, "ready")

	sub := conn.Subscribe(StatusTopic("rf", "dds", "synth"))
	defer conn.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		st, ok := m.Payload.(types.CapabilityStatus)
		if !ok || st.Link != types.LinkDown || st.Error != string(errcode.UnknownBus) {
			t.Fatalf("status %+v", m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no status published")
	}
	if got, _ := request(t, conn, "commit", nil).(types.ErrorReply); got.Error != string(errcode.UnknownCapability) {
		t.Fatalf("control on failed device: %+v", got)
	}
}
