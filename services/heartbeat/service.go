// Package heartbeat logs liveness and HAL state transitions.
package heartbeat

import (
	"context"
	"encoding/json"
	"time"

	"ddscode-go/bus"
	"ddscode-go/types"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicHALState        = bus.T("hal", "state")
)

type settings struct {
	Interval float64 `json:"interval"` // seconds
}

type Service struct {
	level string // last HAL level seen
}

// interval extracts a positive period from a config payload.
func interval(p any) (time.Duration, bool) {
	b, err := json.Marshal(p)
	if err != nil {
		return 0, false
	}
	var s settings
	if err := json.Unmarshal(b, &s); err != nil || s.Interval <= 0 {
		return 0, false
	}
	return time.Duration(s.Interval * float64(time.Second)), true
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	stateSub := conn.Subscribe(topicHALState)
	defer conn.Unsubscribe(stateSub)

	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case t := <-tick.C:
			println("[heartbeat]", t.Format("15:04:05"), "hal:", s.level)
		case msg := <-cfgSub.Channel():
			if d, ok := interval(msg.Payload); ok {
				tick.Reset(d)
				println("[heartbeat] interval", d.String())
			}
		case msg := <-stateSub.Channel():
			if st, ok := msg.Payload.(types.HALState); ok && st.Level != s.level {
				s.level = st.Level
				println("[heartbeat] hal state:", st.Level, st.Status)
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
