package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Use errors.Is against these to classify a resolution error.
var (
	// ErrUnknownIdentifier: an explicit override names a CRTC, mode or
	// output that does not exist.
	ErrUnknownIdentifier = errors.New("unknown identifier")
	// ErrCapabilityMismatch: the output or CRTC cannot support the requested
	// CRTC, mode or rotation.
	ErrCapabilityMismatch = errors.New("capability mismatch")
	// ErrHardwareQuery: a required query failed.
	ErrHardwareQuery = errors.New("hardware query failed")
	// ErrDegradedDefault: a best-effort value could not be read and an
	// identity default was used instead. Never fatal.
	ErrDegradedDefault = errors.New("degraded to default")
)

// Error reports which output, field and value triggered a failure.
type Error struct {
	Output string
	Field  Field
	Value  string
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Output != "" {
		fmt.Fprintf(&b, "output %s: ", e.Output)
	}
	if e.Field != 0 {
		b.WriteString(e.Field.String())
		if e.Value != "" {
			fmt.Fprintf(&b, " %q", e.Value)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Fatal reports whether the error aborts a resolution pass.
func (e *Error) Fatal() bool {
	return !errors.Is(e.Kind, ErrDegradedDefault)
}

// Errors is the aggregate of every fatal error found in one pass.
type Errors []*Error

func (es Errors) Error() string {
	switch len(es) {
	case 0:
		return "no errors"
	case 1:
		return es[0].Error()
	}
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(es), strings.Join(parts, "; "))
}

func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}
