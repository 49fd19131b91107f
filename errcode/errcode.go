package errcode

import (
	"context"
	"errors"

	"ddscode-go/drivers/ad9959"
)

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK                Code = "ok"
	Busy              Code = "busy"
	Unsupported       Code = "unsupported"
	InvalidParams     Code = "invalid_params"
	InvalidPayload    Code = "invalid_payload"
	InvalidChannel    Code = "invalid_channel"
	UnknownCapability Code = "unknown_capability"
	HALNotReady       Code = "hal_not_ready"
	NotReady          Code = "not_ready"
	InvalidTopic      Code = "invalid_topic"

	UnknownBus Code = "unknown_bus"
	BusInUse   Code = "bus_in_use"
	UnknownPin Code = "unknown_pin"
	PinInUse   Code = "pin_in_use"
	Timeout    Code = "timeout"

	Error Code = "error" // generic fallback
)

// E carries a code with operation context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap returns an *E for op with the code derived from err. nil stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	e := &E{C: MapDriverErr(err), Op: op, Err: err}
	if msg := err.Error(); msg != string(e.C) {
		e.Msg = msg
	}
	return e
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps low-level driver errors to a Code.
func MapDriverErr(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ad9959.ErrReadChannel):
		return InvalidChannel
	case errors.Is(err, ad9959.ErrNoCoreClock), errors.Is(err, ad9959.ErrNoReference):
		return NotReady
	case errors.Is(err, ad9959.ErrPinUnset):
		return InvalidParams
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	}
	return Of(err)
}
