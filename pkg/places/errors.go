package places

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	// ErrMissingCredential is returned before any request is made when neither
	// the provisioned secret nor the user supplied an API key.
	ErrMissingCredential = errors.New("missing Google Maps API key")
	ErrEmptyQuery        = errors.New("query must not be empty")
	ErrEmptyPlaceID      = errors.New("place id must not be empty")
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindTransport
	KindConnection
	KindTimeout
	KindDecoding
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindDecoding:
		return "decoding"
	case KindStatus:
		return "status"
	default:
		return "unexpected"
	}
}

// Error is the only error type that leaves the client for failed calls to
// the Google endpoints.
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the person using the UI.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindTransport, KindStatus:
		return fmt.Sprintf("Request error: %v", e.Err)
	case KindConnection:
		return fmt.Sprintf("Connection error: %v", e.Err)
	case KindTimeout:
		return fmt.Sprintf("Timeout error: %v", e.Err)
	case KindDecoding:
		return fmt.Sprintf("JSON decoding error: %v", e.Err)
	default:
		return fmt.Sprintf("Unexpected error: %v", e.Err)
	}
}

// KindOf reports the kind of err, or KindUnexpected when err is not an *Error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}

	return KindUnexpected
}

// UserMessage renders any error returned by this package for display.
func UserMessage(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.UserMessage()
	}

	return fmt.Sprintf("Unexpected error: %v", err)
}

func classify(op string, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	var opErr *net.OpError
	var urlErr *url.Error

	switch {
	case isTimeout(err):
		return &Error{Op: op, Kind: KindTimeout, Err: err}
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return &Error{Op: op, Kind: KindConnection, Err: err}
	case errors.As(err, &urlErr):
		return &Error{Op: op, Kind: KindTransport, Err: err}
	default:
		return &Error{Op: op, Kind: KindUnexpected, Err: err}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func decodingError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindDecoding, Err: err}
}
