// Package config publishes the embedded per-device configuration on the bus,
// one retained message per top-level key under config/<key>.
package config

import (
	"context"
	"encoding/json"
	"errors"

	"ddscode-go/bus"
	"ddscode-go/types"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	keyHAL       = "hal"
)

type ctxKey struct{}

// WithDevice returns ctx carrying the device ID whose config is published.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ctxKey{}, device)
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

var (
	errNoDevice = errors.New("config: missing device ID in context")
	errNoConfig = errors.New("config: no embedded config for device")
)

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig decodes the device's embedded JSON and publishes each key
// retained. The "hal" key is published as a typed types.HALConfig.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(ctxKey{}).(string)
	if device == "" {
		return errNoDevice
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errNoConfig
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return err
	}
	for k, v := range top {
		var payload any
		if k == keyHAL {
			var hc types.HALConfig
			if err := json.Unmarshal(v, &hc); err != nil {
				return err
			}
			payload = hc
		} else if err := json.Unmarshal(v, &payload); err != nil {
			return err
		}
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), payload, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}
