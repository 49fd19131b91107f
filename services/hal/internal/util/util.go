// Package util holds small helpers shared by the HAL core and devices.
package util

import (
	"encoding/json"
	"time"
)

// ResetTimer stops t, drains a pending fire and rearms it for d (negative
// d fires immediately).
func ResetTimer(t *time.Timer, d time.Duration) {
	if d < 0 {
		d = 0
	}
	if !t.Stop() {
		DrainTimer(t)
	}
	t.Reset(d)
}

func DrainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}

// DecodeJSON fills dst from raw JSON ([]byte or string) or from any
// JSON-marshallable value such as a map decoded elsewhere.
func DecodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
