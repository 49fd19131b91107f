package core

import (
	"ddscode-go/errcode"
	"ddscode-go/services/hal/internal/util"
)

// As[T] converts a control payload to T. A value of type T is used as is;
// JSON-like payloads (maps, raw bytes, strings) from remote callers are
// decoded. A nil payload is the zero value of T.
func As[T any](v any) (T, errcode.Code) {
	var zero T
	if v == nil {
		return zero, ""
	}
	if t, ok := v.(T); ok {
		return t, ""
	}
	if p, ok := v.(*T); ok && p != nil {
		return *p, ""
	}
	var out T
	if err := util.DecodeJSON(v, &out); err != nil {
		return zero, errcode.InvalidPayload
	}
	return out, ""
}
