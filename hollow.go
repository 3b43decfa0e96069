// Package hollow defines the shared types of the hollow fixture engine:
// the error taxonomy surfaced to tests, simulated service faults and the
// ledger record kept for every call made against a fixture client.
package hollow

import (
	"fmt"
	"strings"
)

// ServiceCall records one method call made on a fixture client.
// Records are appended to the ledger and never mutated afterwards.
type ServiceCall struct {
	// ID uniquely identifies the call within the process.
	ID string
	// Service is the name of the service the client was created for.
	Service string
	// Method is the method name as it was called (e.g. "get_object").
	Method string
	// Request merges Args and Kwargs into a single keyword map keyed by the
	// input shape's member names.
	Request map[string]any
	// Args holds the positional arguments of the call.
	Args []any
	// Kwargs holds the keyword arguments of the call.
	Kwargs map[string]any
	// Response is the cast response returned (or faulted) by the call.
	Response any
}

// ConfigError reports a fatal configuration problem: a missing file, an
// unsupported format or a service specification that cannot be found.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "configuration error: " + e.Err.Error()
	}
	return fmt.Sprintf("configuration error in %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NoResponseFoundError is returned when a call has no configured response,
// or when every queued response has already been consumed.
type NoResponseFoundError struct {
	Service   string
	Method    string
	Exhausted bool
}

func (e *NoResponseFoundError) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("no more responses set for %q in the fixture data; all queued responses have been returned already", e.Service+"."+e.Method+"()")
	}
	return fmt.Sprintf("no response set for %q in the fixture data; check that the method call is included in the configuration", e.Service+"."+e.Method+"()")
}

// NoSuchMethodError is returned when a method is absent from the service
// specification, usually because the specification version drifted.
type NoSuchMethodError struct {
	Service     string
	Method      string
	Suggestions []string
}

func (e *NoSuchMethodError) Error() string {
	msg := fmt.Sprintf("no definition found for %q in the %s service specification", e.Method+"()", e.Service)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

// RequestValidationError is returned when call arguments do not match the
// method's input shape.
type RequestValidationError struct {
	Service string
	Method  string
	Missing []string
	Unknown []string
	// Excess counts positional arguments beyond the declared members.
	Excess int
}

func (e *RequestValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required arguments ["+strings.Join(e.Missing, ", ")+"]")
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown arguments ["+strings.Join(e.Unknown, ", ")+"]")
	}
	if e.Excess > 0 {
		parts = append(parts, fmt.Sprintf("%d positional arguments beyond the declared members", e.Excess))
	}
	target := e.Method
	if e.Service != "" {
		target = e.Service + "." + e.Method
	}
	return fmt.Sprintf("invalid request for %s: %s", target, strings.Join(parts, "; "))
}

// DataTypeError is returned when a configured response value cannot be cast
// into the type declared by the service specification.
type DataTypeError struct {
	Type  string
	Value any
	Err   error
}

func (e *DataTypeError) Error() string {
	return fmt.Sprintf("failed to cast response data of type %q for the value %#v: %v", e.Type, e.Value, e.Err)
}

func (e *DataTypeError) Unwrap() error { return e.Err }

// IndexError is returned when a ledger lookup is out of range.
type IndexError struct {
	Service string
	Method  string
	Index   int
	Len     int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("call index %d out of range for %s.%s (%d calls recorded)", e.Index, e.Service, e.Method, e.Len)
}
