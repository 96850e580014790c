// Package plexilerr implements the four-level error taxonomy of §7: plan
// errors, runtime condition faults (represented as values, not errors, and
// so not modeled here), interface faults, and fatal contract violations.
package plexilerr

import "fmt"

// PlanError reports an invalid plan or library node.
// librarystore.Store.AddLibraryNode returns one for an empty name or
// definition and stores nothing. exec.Exec.AddPlan does not validate a
// plan and returns no error.
type PlanError struct {
	PlanID string
	Reason string
}

func (e *PlanError) Error() string {
	if e.PlanID != "" {
		return fmt.Sprintf("plan %s rejected: %s", e.PlanID, e.Reason)
	}
	return fmt.Sprintf("plan rejected: %s", e.Reason)
}

// NewPlanError constructs a PlanError.
func NewPlanError(planID, reason string) *PlanError {
	return &PlanError{PlanID: planID, Reason: reason}
}

// InterfaceFault wraps an error surfaced by the external interface (lookup
// unavailable, command denied, abort failed). The ExternalInterface
// methods return no error, and no adapter in this module constructs one.
type InterfaceFault struct {
	Op  string
	Err error
}

func (e *InterfaceFault) Error() string {
	return fmt.Sprintf("interface fault during %s: %v", e.Op, e.Err)
}

func (e *InterfaceFault) Unwrap() error { return e.Err }

// NewInterfaceFault wraps err as an InterfaceFault for operation op.
func NewInterfaceFault(op string, err error) *InterfaceFault {
	return &InterfaceFault{Op: op, Err: err}
}

// ContractViolation indicates a defect in the executive itself: an illegal
// state transition, a double listener registration, or any other violation
// of an internal invariant. Per §7, these abort the exec with a fatal
// error rather than being handled as data.
type ContractViolation struct {
	Invariant string
	Detail    string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("contract violation (%s): %s", e.Invariant, e.Detail)
}

// Fatal panics with a ContractViolation. The host application shell is the
// only place that may recover from this, and it must do so only to log and
// exit — never to keep the exec running in a known-bad state.
func Fatal(invariant, detail string) {
	panic(&ContractViolation{Invariant: invariant, Detail: detail})
}

// Fatalf is Fatal with formatted detail.
func Fatalf(invariant, format string, args ...interface{}) {
	Fatal(invariant, fmt.Sprintf(format, args...))
}
