package core

import (
	"context"
	"time"

	"ddscode-go/bus"
	"ddscode-go/errcode"
	"ddscode-go/services/hal/internal/util"
	"ddscode-go/types"
	"ddscode-go/x/strx"
	"ddscode-go/x/timex"
)

const (
	eventQueueLen = 16
	pollQueueLen  = 8

	verbPollStart = "poll_start"
	verbPollStop  = "poll_stop"
)

type HAL struct {
	conn *bus.Connection
	res  Resources

	dev      map[string]Device  // devID -> device
	capIndex map[CapAddr]string // capability -> devID

	cfgSub  *bus.Subscription
	ctrlSub *bus.Subscription

	// Device telemetry is published from the Run goroutine only.
	evCh   chan Event
	pollCh chan PollReq
	poller *Poller
}

func NewHAL(conn *bus.Connection, reg ResourceRegistry) *HAL {
	h := &HAL{
		conn:     conn,
		dev:      map[string]Device{},
		capIndex: map[CapAddr]string{},
		evCh:     make(chan Event, eventQueueLen),
		pollCh:   make(chan PollReq, pollQueueLen),
	}
	h.res = Resources{Reg: reg, Pub: h}
	h.poller = NewPoller(h.pollCh)
	return h
}

func (h *HAL) Run(ctx context.Context) {
	h.cfgSub = h.conn.Subscribe(topicConfigHAL())
	h.ctrlSub = h.conn.Subscribe(ctrlWildcard())
	defer h.conn.Unsubscribe(h.cfgSub)
	defer h.conn.Unsubscribe(h.ctrlSub)
	defer h.closeDevices()

	go h.poller.Run(ctx)

	h.pubHALState("idle", "awaiting_config")
	ready := false
	for {
		select {
		case <-ctx.Done():
			h.pubHALState("stopped", "context_cancelled")
			return
		case msg := <-h.cfgSub.Channel():
			cfg, ok := decodeConfig(msg.Payload)
			if !ok {
				println("[hal] ignoring malformed config")
				continue
			}
			// Additive: devices already built are kept.
			h.applyConfig(ctx, cfg)
			if !ready {
				ready = true
				h.pubHALState("ready", "")
			}
		case m := <-h.ctrlSub.Channel():
			if !ready {
				h.replyErr(m, errcode.HALNotReady)
				continue
			}
			h.handleControl(m)
		case req := <-h.pollCh:
			h.handlePoll(req)
		case ev := <-h.evCh:
			h.handleEvent(ev)
		}
	}
}

func decodeConfig(p any) (types.HALConfig, bool) {
	switch v := p.(type) {
	case types.HALConfig:
		return v, true
	case *types.HALConfig:
		if v == nil {
			return types.HALConfig{}, false
		}
		return *v, true
	}
	var cfg types.HALConfig
	if err := util.DecodeJSON(p, &cfg); err != nil {
		return cfg, false
	}
	return cfg, true
}

func (h *HAL) applyConfig(ctx context.Context, cfg types.HALConfig) {
	for i := range cfg.Devices {
		dc := cfg.Devices[i]
		if _, exists := h.dev[dc.ID]; exists {
			continue
		}
		b, ok := lookupBuilder(dc.Type)
		if !ok {
			println("[hal] no builder for type:", dc.Type, "id:", dc.ID)
			continue
		}
		dev, err := b.Build(ctx, BuilderInput{ID: dc.ID, Type: dc.Type, Params: dc.Params, Res: h.res})
		if err != nil {
			println("[hal] build failed for:", dc.ID, "err:", err.Error())
			continue
		}
		if err := dev.Init(ctx); err != nil {
			e := errcode.Wrap("init "+dc.ID, err)
			println("[hal] init failed:", e.Error())
			for _, cs := range dev.Capabilities() {
				a := capAddrOf(cs, dev.ID())
				h.conn.Publish(h.conn.NewMessage(
					capStatus(a.Domain, a.Kind, a.Name),
					types.CapabilityStatus{Link: types.LinkDown, TSms: timex.NowMs(), Error: string(errcode.Of(e))},
					true,
				))
			}
			_ = dev.Close()
			continue
		}
		h.dev[dev.ID()] = dev

		for _, cs := range dev.Capabilities() {
			a := capAddrOf(cs, dev.ID())
			h.capIndex[a] = dev.ID()

			h.conn.Publish(h.conn.NewMessage(capInfo(a.Domain, a.Kind, a.Name), cs.Info, true))
			// Init succeeded, so the link is up until the device reports otherwise.
			h.conn.Publish(h.conn.NewMessage(
				capStatus(a.Domain, a.Kind, a.Name),
				types.CapabilityStatus{Link: types.LinkUp, TSms: timex.NowMs()},
				true,
			))
		}
	}
	for _, ps := range cfg.Pollers {
		a := CapAddr{Domain: strx.Coalesce(ps.Domain, defaultDomainFor(string(ps.Kind))), Kind: string(ps.Kind), Name: ps.Name}
		h.poller.Upsert(a, strx.Coalesce(ps.Verb, "read"),
			time.Duration(ps.IntervalMs)*time.Millisecond, time.Duration(ps.JitterMs)*time.Millisecond)
	}
}

func capAddrOf(cs CapabilitySpec, devID string) CapAddr {
	k := string(cs.Kind)
	return CapAddr{Domain: strx.Coalesce(cs.Domain, defaultDomainFor(k)), Kind: k, Name: strx.Coalesce(cs.Name, devID)}
}

func (h *HAL) handleControl(msg *bus.Message) {
	// hal/cap/<domain>/<kind>/<name>/control/<verb>
	if msg.Topic.Len() < 7 {
		h.replyErr(msg, errcode.InvalidTopic)
		return
	}
	domain, _ := msg.Topic.At(2).(string)
	kind, _ := msg.Topic.At(3).(string)
	name, _ := msg.Topic.At(4).(string)
	verb, _ := msg.Topic.At(6).(string)
	addr := CapAddr{Domain: domain, Kind: kind, Name: name}

	dev := h.dev[h.capIndex[addr]]
	if dev == nil {
		h.replyErr(msg, errcode.UnknownCapability)
		return
	}

	switch verb {
	case verbPollStart:
		p, code := As[types.PollStart](msg.Payload)
		if code == "" && p.IntervalMs == 0 {
			code = errcode.InvalidParams
		}
		if code != "" {
			h.replyErr(msg, code)
			return
		}
		h.poller.Upsert(addr, strx.Coalesce(p.Verb, "read"),
			time.Duration(p.IntervalMs)*time.Millisecond, time.Duration(p.JitterMs)*time.Millisecond)
		h.replyOK(msg)
		return
	case verbPollStop:
		p, code := As[types.PollStop](msg.Payload)
		if code != "" {
			h.replyErr(msg, code)
			return
		}
		h.poller.Stop(addr, strx.Coalesce(p.Verb, "read"))
		h.replyOK(msg)
		return
	}

	res, err := dev.Control(addr, verb, msg.Payload)
	if err != nil {
		h.replyFromError(msg, err)
		return
	}
	if !msg.CanReply() {
		return
	}
	switch {
	case !res.OK:
		code := res.Error
		if code == "" {
			code = errcode.Busy
		}
		h.replyErr(msg, code)
	case res.Value != nil:
		h.conn.Reply(msg, res.Value, false)
	default:
		h.replyOK(msg)
	}
}

// handlePoll runs a scheduled verb and publishes any value it returns.
func (h *HAL) handlePoll(req PollReq) {
	dev := h.dev[h.capIndex[req.Addr]]
	if dev == nil {
		h.poller.Stop(req.Addr, req.Verb)
		return
	}
	res, err := dev.Control(req.Addr, req.Verb, nil)
	switch {
	case err != nil:
		h.handleEvent(Event{Addr: req.Addr, TSms: timex.NowMs(), Err: string(errcode.MapDriverErr(err))})
	case !res.OK:
		h.handleEvent(Event{Addr: req.Addr, TSms: timex.NowMs(), Err: string(res.Error)})
	case res.Value != nil:
		h.handleEvent(Event{Addr: req.Addr, TSms: timex.NowMs(), Payload: res.Value})
	}
}

func (h *HAL) handleEvent(ev Event) {
	d, k, n := ev.Addr.Domain, ev.Addr.Kind, ev.Addr.Name

	if ev.Err != "" {
		h.conn.Publish(h.conn.NewMessage(
			capStatus(d, k, n),
			types.CapabilityStatus{Link: types.LinkDegraded, TSms: ev.TSms, Error: ev.Err},
			true,
		))
		return
	}

	switch {
	case ev.IsEvent && ev.EventTag != "":
		h.conn.Publish(h.conn.NewMessage(capEventTagged(d, k, n, ev.EventTag), ev.Payload, false))
	case ev.IsEvent:
		h.conn.Publish(h.conn.NewMessage(capEvent(d, k, n), ev.Payload, false))
	default:
		h.conn.Publish(h.conn.NewMessage(capValue(d, k, n), ev.Payload, true))
	}
	h.conn.Publish(h.conn.NewMessage(
		capStatus(d, k, n),
		types.CapabilityStatus{Link: types.LinkUp, TSms: ev.TSms},
		true,
	))
}

func (h *HAL) pubHALState(level, status string) {
	h.conn.Publish(h.conn.NewMessage(
		topicHALState(),
		types.HALState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}

func (h *HAL) closeDevices() {
	for id, d := range h.dev {
		if err := d.Close(); err != nil {
			println("[hal] close failed for:", id, "err:", err.Error())
		}
	}
}

func defaultDomainFor(kind string) string {
	switch types.Kind(kind) {
	case types.KindDDS:
		return "rf"
	default:
		return "io"
	}
}

// Emit implements EventEmitter; it never blocks.
func (h *HAL) Emit(ev Event) bool {
	select {
	case h.evCh <- ev:
		return true
	default:
		return false
	}
}
