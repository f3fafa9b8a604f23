package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/purelyd/internal/shared"
)

// Outcome is the recorded result of one strategy attempt.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeHTTPError  Outcome = "httpError"
	OutcomeParseError Outcome = "parseError"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeEmpty      Outcome = "empty"
)

// ErrorKind classifies why an attempt failed.
type ErrorKind string

const (
	KindTransport      ErrorKind = "TransportError"
	KindUpstreamStatus ErrorKind = "UpstreamStatusError"
	KindParse          ErrorKind = "ParseError"
	KindEmpty          ErrorKind = "EmptyResultError"
)

// AttemptError is returned by strategies for a failed attempt.
//
// Status is the upstream HTTP status when one was received.
type AttemptError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *AttemptError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *AttemptError) Unwrap() error { return e.Err }

// TransportError wraps a network failure (connection, TLS, read) or deadline expiry.
func TransportError(err error) *AttemptError {
	return &AttemptError{Kind: KindTransport, Err: err}
}

// UpstreamStatusError records a non-success HTTP status.
func UpstreamStatusError(status int) *AttemptError {
	return &AttemptError{Kind: KindUpstreamStatus, Status: status, Err: fmt.Errorf("HTTP %d", status)}
}

// ParseError records a schema mismatch or a missing expected field.
func ParseError(format string, args ...any) *AttemptError {
	return &AttemptError{Kind: KindParse, Err: fmt.Errorf(format, args...)}
}

// EmptyResultError records a well-formed response with zero usable candidates.
func EmptyResultError(detail string) *AttemptError {
	return &AttemptError{Kind: KindEmpty, Err: errors.New(detail)}
}

// Classify converts any attempt error into an [AttemptError].
//
// Errors that are not already classified are transport errors.
func Classify(err error) *AttemptError {
	var ae *AttemptError
	if errors.As(err, &ae) {
		return ae
	}
	return TransportError(err)
}

// Attempt is one entry in an [AttemptLog].
type Attempt struct {
	Strategy string        `json:"strategy"`
	Instance string        `json:"instance"`
	Outcome  Outcome       `json:"outcome"`
	Kind     ErrorKind     `json:"kind,omitempty"`
	Status   int           `json:"status,omitempty"`
	Detail   string        `json:"detail"`
	Elapsed  time.Duration `json:"-"`
}

// String renders the attempt in the worker's `name(instance): detail` form.
func (a Attempt) String() string {
	return fmt.Sprintf("%s(%s): %s", a.Strategy, a.Instance, a.Detail)
}

// NewAttempt builds the log entry for a finished attempt; err is nil on success.
func NewAttempt(strategy, instance string, err error, elapsed time.Duration) Attempt {
	a := Attempt{Strategy: strategy, Instance: instance, Elapsed: elapsed}
	if err == nil {
		a.Outcome = OutcomeSuccess
		a.Detail = "ok"
		return a
	}

	ae := Classify(err)
	a.Kind = ae.Kind
	a.Status = ae.Status
	a.Detail = ae.Error()

	switch ae.Kind {
	case KindUpstreamStatus:
		a.Outcome = OutcomeHTTPError
	case KindParse:
		a.Outcome = OutcomeParseError
	case KindEmpty:
		a.Outcome = OutcomeEmpty
	default:
		if errors.Is(err, context.DeadlineExceeded) {
			a.Outcome = OutcomeTimeout
			a.Detail = fmt.Sprintf("timed out after %s", elapsed.Round(time.Millisecond))
		} else {
			a.Outcome = OutcomeHTTPError
		}
	}
	return a
}

// AttemptLog is the ordered diagnostic trail of one resolution call.
type AttemptLog []Attempt

// Failures returns the attempts that did not succeed.
func (l AttemptLog) Failures() AttemptLog {
	out := make(AttemptLog, 0, len(l))
	for _, a := range l {
		if a.Outcome != OutcomeSuccess {
			out = append(out, a)
		}
	}
	return out
}

// Strings renders each attempt with [Attempt.String].
func (l AttemptLog) Strings() []string {
	out := make([]string, len(l))
	for i, a := range l {
		out[i] = a.String()
	}
	return out
}

// ExhaustedError is returned when every registered strategy failed.
type ExhaustedError struct {
	Identifier string
	Capability Capability
	Attempts   AttemptLog
	Cause      error // set when the walk stopped early or never started
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s %q", shared.ErrAllSourcesFailed, e.Capability, e.Identifier)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (%v)", e.Cause)
	}
	if len(e.Attempts) > 0 {
		fmt.Fprintf(&b, " after %d attempts", len(e.Attempts))
	}
	return b.String()
}

// Is reports a match against [shared.ErrAllSourcesFailed].
func (e *ExhaustedError) Is(target error) bool {
	return target == shared.ErrAllSourcesFailed
}

func (e *ExhaustedError) Unwrap() error { return e.Cause }
