package plan

import "github.com/taless474/plexil1-sub000/pkg/plexilexpr"

// AssignableDestination is satisfied by both a plain Variable and a
// MutableArrayReference, since an Assignment's destination may be either
// (§3: "Destination may be a plain variable or a mutable array
// reference").
type AssignableDestination interface {
	plexilexpr.Expression
}

// Assignment is the body of an Assignment node (§3).
type Assignment struct {
	Destination     AssignableDestination
	DestinationVar   *plexilexpr.Variable // non-nil when Destination is a plain Variable
	DestinationArray *plexilexpr.MutableArrayReference // non-nil when Destination is an array element
	RHS              plexilexpr.Expression
	Priority         int
	AckVar           *plexilexpr.Variable
	AbortCompleteVar *plexilexpr.Variable

	// ConflictNode is the owning Node. The exec's conflict resolution does
	// not read it; it works from the node of each pending transition.
	ConflictNode *Node

	// next is not read or written in this module; the exec builds its
	// per-variable conflict sets afresh for each batch of transitions.
	next *Assignment
}

// NewVariableAssignment builds an Assignment writing directly to a
// Variable.
func NewVariableAssignment(dest *plexilexpr.Variable, rhs plexilexpr.Expression, priority int) *Assignment {
	return &Assignment{Destination: dest, DestinationVar: dest, RHS: rhs, Priority: priority}
}

// NewArrayElementAssignment builds an Assignment writing to one element of
// an array Variable.
func NewArrayElementAssignment(dest *plexilexpr.MutableArrayReference, rhs plexilexpr.Expression, priority int) *Assignment {
	return &Assignment{Destination: dest, DestinationArray: dest, RHS: rhs, Priority: priority}
}
