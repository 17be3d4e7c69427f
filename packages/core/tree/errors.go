package tree

import (
	"errors"
	"fmt"
)

// Protocol violations. A host that triggers one of these has called the
// lifecycle methods out of order.
var (
	ErrRunNotStarted  = errors.New("run not started")
	ErrRunInProgress  = errors.New("run already in progress")
	ErrNoOpenSpec     = errors.New("no spec is open")
	ErrSpecInProgress = errors.New("a spec is still open")
	ErrSpecMismatch   = errors.New("spec does not match the open spec")
	ErrSuiteMismatch  = errors.New("suite does not match the open suite")
	ErrUnbalanced     = errors.New("suites still open at end of run")
	ErrUnknownStatus  = errors.New("unknown spec status")
)

// ProtocolError describes a lifecycle call that violated the event protocol
type ProtocolError struct {
	Op     string
	ID     string
	Detail string
	Err    error
}

func (e *ProtocolError) Error() string {
	msg := e.Op
	if e.ID != "" {
		msg += fmt.Sprintf(" %q", e.ID)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func protocolError(op, id string, err error, detail string) error {
	return &ProtocolError{Op: op, ID: id, Err: err, Detail: detail}
}
