package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	"atlantic-photo/internal/model"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindTimeout
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// Error is a classified provider failure. It matches both
// model.ErrUpstreamProvider and the underlying cause with errors.Is.
type Error struct {
	Op     string
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s (%s, status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{model.ErrUpstreamProvider, e.Err}
}

// Retryable reports whether repeating the call may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindTimeout
}

// Classify wraps a transport-level error into an *Error. Errors that are
// already classified are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var perr *Error
	if errors.As(err, &perr) {
		return err
	}

	kind := KindUnknown
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.As(err, &netErr):
		kind = KindNetwork
	}

	return &Error{Op: op, Kind: kind, Err: err}
}

func providerError(op string, status int, err error) error {
	return &Error{Op: op, Kind: KindProvider, Status: status, Err: err}
}
