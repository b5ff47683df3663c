package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection means the cluster transport is unavailable.
	ErrConnection = errors.New("connection error")
	// ErrTimeout means a single adapter call exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrPartialData marks a failed sub-component of a refresh.
	ErrPartialData = errors.New("partial data")
	// ErrConsistencyDrift marks metadata that disagreed between two calls.
	ErrConsistencyDrift = errors.New("consistency drift")
	// ErrDecode means an adapter response had an unexpected shape.
	ErrDecode = errors.New("decode error")

	// ErrNoSnapshot is returned by readers before the first successful refresh.
	ErrNoSnapshot = errors.New("no snapshot captured yet")
	// ErrDisconnected is returned by refresh triggers while the engine is disconnected.
	ErrDisconnected = errors.New("engine is disconnected")
)

// AdapterError is a classified failure of one adapter operation.
type AdapterError struct {
	Op   string
	Kind error
	Err  error
}

func (e *AdapterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *AdapterError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewAdapterError wraps err with an operation name and an error kind.
func NewAdapterError(op string, kind, err error) error {
	return &AdapterError{Op: op, Kind: kind, Err: err}
}

// IsTransient reports whether a refresh failing with err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrTimeout)
}

// KindOf returns the taxonomy name of err, or "error" when unclassified.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConsistencyDrift):
		return "consistency_drift"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrPartialData):
		return "partial_data"
	case errors.Is(err, ErrDisconnected):
		return "disconnected"
	default:
		return "error"
	}
}
