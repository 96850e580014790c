package plan

import (
	"github.com/taless474/plexil1-sub000/pkg/plexilexpr"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// CommandHandleValue enumerates the values a command's handle variable
// may take (§3).
type CommandHandleValue int32

const (
	HandleSentToSystem CommandHandleValue = iota
	HandleAccepted
	HandleReceivedBySystem
	HandleSuccess
	HandleFailed
	HandleDenied
	HandleInterfaceError
	HandleInvalidCommandName
)

func (h CommandHandleValue) String() string {
	switch h {
	case HandleSentToSystem:
		return "COMMAND_SENT_TO_SYSTEM"
	case HandleAccepted:
		return "COMMAND_ACCEPTED"
	case HandleReceivedBySystem:
		return "COMMAND_RCVD_BY_SYSTEM"
	case HandleSuccess:
		return "COMMAND_SUCCESS"
	case HandleFailed:
		return "COMMAND_FAILED"
	case HandleDenied:
		return "COMMAND_DENIED"
	case HandleInterfaceError:
		return "COMMAND_INTERFACE_ERROR"
	case HandleInvalidCommandName:
		return "COMMAND_INVALID_COMMAND_NAME"
	default:
		return "UNKNOWN_COMMAND_HANDLE"
	}
}

// ResourceSpec is a command's declared resource request before fixing
// (§3): every field is an expression evaluated once when the command's
// name and arguments are fixed for the cycle.
type ResourceSpec struct {
	NameExpr            plexilexpr.Expression
	PriorityExpr        plexilexpr.Expression
	LowerBoundExpr      plexilexpr.Expression
	UpperBoundExpr      plexilexpr.Expression
	ReleaseAtTermExpr   plexilexpr.Expression
}

// ResourceValue is a ResourceSpec with every expression resolved to a
// concrete scalar, produced when the owning command is fixed for the
// cycle (§3).
type ResourceValue struct {
	Name              string
	Priority          int
	LowerBound        float64
	UpperBound        float64
	ReleaseAtTerm     bool
}

// Command is the body of a Command node (§3).
type Command struct {
	NameExpr     plexilexpr.Expression
	ArgExprs     []plexilexpr.Expression
	Destination  plexilexpr.Expression // *plexilexpr.Variable or *plexilexpr.MutableArrayReference, nil if none
	Resources    []ResourceSpec

	HandleVar        *plexilexpr.Variable
	AbortCompleteVar *plexilexpr.Variable

	// Fixed* hold the values captured when the command's name/args/
	// resources were evaluated and locked for this execution attempt.
	FixedName      string
	FixedArgValues []plexilval.Value
	FixedResources []ResourceValue

	Active bool // a fixed, dispatched command awaiting completion
	Fixed  bool // name/args/resources have been evaluated and locked

	// ID uniquely identifies this command instance for arbiter bookkeeping
	// and for routing acks/returns delivered through the input queue.
	ID string
}
