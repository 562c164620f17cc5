package tryon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Sentinel errors the UI layer branches on.
var (
	// ErrNoAvatar means the user never set an avatar. Raised before any
	// network traffic.
	ErrNoAvatar = errors.New("tryon: no avatar set")

	// ErrNoGarment means nothing was selected to try on. Raised before any
	// network traffic.
	ErrNoGarment = errors.New("tryon: no garment selected")

	// ErrBusy means a submission is already in flight.
	ErrBusy = errors.New("tryon: a try-on is already running")
)

// FailureKind buckets hard pipeline failures so each gets its own
// human-readable message.
type FailureKind string

const (
	FailureTimeout    FailureKind = "timeout"
	FailureConnection FailureKind = "connection"
	FailureBlocked    FailureKind = "blocked"
	FailureGeneric    FailureKind = "generic"
)

// Failure wraps a pipeline error with its classification.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailureTimeout:
		return "the try-on service took too long to respond, please try again"
	case FailureConnection:
		return "cannot reach the try-on service, is the backend running?"
	case FailureBlocked:
		return "the store blocked access to this image, try saving it to your wardrobe first"
	default:
		return fmt.Sprintf("try-on failed: %v", f.Err)
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// classifyErr turns a raw transport error into a Failure.
func classifyErr(err error) *Failure {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: FailureTimeout, Err: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &Failure{Kind: FailureTimeout, Err: err}
	}

	msg := err.Error()
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return &Failure{Kind: FailureConnection, Err: err}
	}
	if strings.Contains(msg, "status 403") || strings.Contains(msg, "access denied") {
		return &Failure{Kind: FailureBlocked, Err: err}
	}

	return &Failure{Kind: FailureGeneric, Err: err}
}
