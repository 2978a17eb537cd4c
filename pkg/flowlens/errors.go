package flowlens

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrFlowNotFound indicates a flow id is not part of the workspace.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrInvalidWorkspace indicates a flows document could not be decoded.
	ErrInvalidWorkspace = errors.New("invalid flows document")
)

// DetectorError wraps a failure of a single rule on a single flow.
// The engine logs and skips it; it never aborts an analysis.
type DetectorError struct {
	// Detector is the name of the failing rule.
	Detector string
	// FlowID is the flow being analyzed.
	FlowID string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector %s on flow %s: %v", e.Detector, e.FlowID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DetectorError) Unwrap() error {
	return e.Err
}

// PanicError captures a recovered panic from a rule.
// It includes the stack trace for debugging.
type PanicError struct {
	// Detector is the rule that panicked.
	Detector string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("detector %s panicked: %v", e.Detector, e.Value)
}
