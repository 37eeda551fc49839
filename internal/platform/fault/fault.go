// Package fault defines the closed set of failure kinds the claim pipeline
// produces. Business failures are values, not panics: services return a
// *Fault and handlers translate it into a {success:false, error} payload
// with a human-readable Portuguese message. Only authentication failures
// are rejected at the HTTP layer.
package fault

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// Validation: the input is malformed or incomplete (missing fields,
	// mixed insurers, oversized batches).
	Validation Kind = "validation"
	// State: the operation is not allowed for the record's current status.
	State Kind = "state"
	// Configuration: missing insurer webservice config or a missing or
	// unreadable signing certificate.
	Configuration Kind = "configuration"
	// Transport: network-level failure talking to the insurer, including
	// timeouts.
	Transport Kind = "transport"
	// Protocol: the insurer answered, but with a fault or an unrecognized
	// payload.
	Protocol Kind = "protocol"
)

// Fault is a recoverable business failure with a message meant for the
// end user (pt-BR).
type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string { return f.Message }

func (f *Fault) Unwrap() error { return f.Err }

func New(kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap keeps the underlying cause for logs while exposing only msg to callers.
func Wrap(kind Kind, err error, message string) *Fault {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// As unwraps err into a *Fault when one is present anywhere in the chain.
func As(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsKind reports whether err is a Fault of the given kind.
func IsKind(err error, kind Kind) bool {
	f, ok := As(err)
	return ok && f.Kind == kind
}

// Resultado is the wire shape handlers use for operations that report
// success or failure as data rather than as an HTTP error.
type Resultado struct {
	Success   bool   `json:"success"`
	Protocolo string `json:"protocolo,omitempty"`
	Error     string `json:"error,omitempty"`
}
