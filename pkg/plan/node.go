package plan

import (
	"github.com/taless474/plexil1-sub000/pkg/plexilexpr"
)

// TransitionHooks lets the exec attach side effects to a node's state
// transitions without plan depending on exec (§4.3 step 2 and step 5:
// exit/entry side effects such as deleting finished children, dispatching
// a command, or activating a child list).
type TransitionHooks interface {
	// OnExitState is called during step 2, before the state is updated.
	OnExitState(n *Node, from NodeState)
	// OnEnterState is called during step 5, after the state is updated and
	// new conditions are activated.
	OnEnterState(n *Node, to NodeState)
}

// Node is the unit of the plan tree (§3).
type Node struct {
	ID      string
	Parent  *Node
	Variant NodeVariant

	State   NodeState
	Outcome NodeOutcome
	Failure FailureType

	Conditions [numConditionKinds]plexilexpr.Expression

	Variables map[string]*plexilexpr.Variable
	Children  []*Node

	Assignment *Assignment
	Command    *Command
	Update     *Update

	QueueStatus QueueStatus

	NextState   NodeState
	NextOutcome NodeOutcome
	NextFailure FailureType

	StateTimestamps map[NodeState]float64

	Priority int

	// Next intrusively threads this node into whichever singly-linked
	// work queue currently owns it (§3 "Queues").
	Next *Node

	StateVar   *StateVariable
	OutcomeVar *OutcomeVariable
	FailureVar *FailureVariable

	allChildrenFinished          *childCountAggregate
	allChildrenWaitingOrFinished *childCountAggregate

	hooks TransitionHooks
}

// NewNode constructs a Node in its initial Inactive state and wires its
// node-internal variables.
func NewNode(id string, variant NodeVariant, parent *Node) *Node {
	n := &Node{
		ID:              id,
		Parent:          parent,
		Variant:         variant,
		State:           StateInactive,
		Variables:       make(map[string]*plexilexpr.Variable),
		StateTimestamps: make(map[NodeState]float64),
	}
	n.StateVar = newStateVariable(n)
	n.OutcomeVar = newOutcomeVariable(n)
	n.FailureVar = newFailureVariable(n)
	if parent != nil {
		parent.Children = append(parent.Children, n)
	}
	return n
}

// SetHooks attaches the exec's transition side-effect callbacks.
func (n *Node) SetHooks(h TransitionHooks) { n.hooks = h }

// SetChildren finalizes the child list of a List/LibraryCall node and
// builds its AllChildrenFinished/AllChildrenWaitingOrFinished aggregates.
// Must be called once, after every child has been constructed.
func (n *Node) SetChildren(children []*Node) {
	n.Children = children
	n.allChildrenFinished = newAllChildrenFinished(children)
	n.allChildrenWaitingOrFinished = newAllChildrenWaitingOrFinished(children)
}

// AllChildrenFinished returns the synthesized aggregate condition, or nil
// for a node with no children.
func (n *Node) AllChildrenFinished() plexilexpr.Expression {
	if n.allChildrenFinished == nil {
		return nil
	}
	return n.allChildrenFinished
}

// AllChildrenWaitingOrFinished returns the synthesized aggregate
// condition, or nil for a node with no children.
func (n *Node) AllChildrenWaitingOrFinished() plexilexpr.Expression {
	if n.allChildrenWaitingOrFinished == nil {
		return nil
	}
	return n.allChildrenWaitingOrFinished
}

// Timepoint returns (building it lazily is unnecessary since timestamps
// are map-keyed) the expression reporting the time the node most recently
// entered state.
func (n *Node) Timepoint(state NodeState) plexilexpr.Expression {
	return newTimepointVariable(n, state)
}

func defaultConditionValue(kind ConditionKind) bool {
	switch kind {
	case CondAncestorExit, CondAncestorEnd, CondSkip, CondExit, CondRepeat:
		return false
	default:
		return true
	}
}

func (n *Node) condKnown(kind ConditionKind) (known, value bool) {
	expr := n.Conditions[kind]
	if expr == nil {
		return true, defaultConditionValue(kind)
	}
	v := expr.ValueOf()
	if !v.IsKnown() {
		return false, false
	}
	return true, v.AsBool()
}

// trippedTrue reports whether a condition whose truth means "trip" is
// known and true. Unknown never trips (§4.3: "Exits and invariants treat
// Unknown as non-triggering").
func (n *Node) trippedTrue(kind ConditionKind) bool {
	known, v := n.condKnown(kind)
	return known && v
}

// trippedFalse reports whether a condition whose falsity means "trip" is
// known and false.
func (n *Node) trippedFalse(kind ConditionKind) bool {
	known, v := n.condKnown(kind)
	return known && !v
}

// ancestorOrOwnFailing reports whether an exit or invariant condition has
// tripped, and the outcome/failure pair it carries. Exit and AncestorExit
// trip to OutcomeInterrupted; Invariant and AncestorInvariant trip to
// OutcomeFailure. Order matches the original's exit-before-invariant,
// ancestor-before-own precedence.
func (n *Node) ancestorOrOwnFailing() (failing bool, outcome NodeOutcome, failure FailureType) {
	if n.trippedTrue(CondAncestorExit) {
		return true, OutcomeInterrupted, FailureParentExited
	}
	if n.trippedTrue(CondExit) {
		return true, OutcomeInterrupted, FailureExited
	}
	if n.trippedFalse(CondAncestorInvariant) {
		return true, OutcomeFailure, FailureParentFailed
	}
	if n.trippedFalse(CondInvariant) {
		return true, OutcomeFailure, FailureInvariantConditionFailed
	}
	return false, OutcomeNone, FailureNone
}

// ComputeDestination evaluates this node's conditions in the fixed order
// prescribed by §4.3 and returns the first applicable destination along
// with its pending outcome/failure. ok is false when nothing is yet
// determinable (Unknown defers).
func (n *Node) ComputeDestination() (dest NodeState, outcome NodeOutcome, failure FailureType, ok bool) {
	switch n.State {
	case StateInactive:
		if n.trippedTrue(CondAncestorExit) {
			return StateFinished, OutcomeSkipped, FailureParentExited, true
		}
		if n.trippedFalse(CondAncestorInvariant) {
			return StateFinished, OutcomeSkipped, FailureParentFailed, true
		}
		if n.trippedTrue(CondAncestorEnd) {
			return StateFinished, OutcomeSkipped, FailureNone, true
		}
		return StateWaiting, OutcomeNone, FailureNone, true

	case StateWaiting:
		if n.trippedTrue(CondAncestorExit) {
			return StateFinished, OutcomeSkipped, FailureParentExited, true
		}
		if n.trippedFalse(CondAncestorInvariant) {
			return StateFinished, OutcomeSkipped, FailureParentFailed, true
		}
		if n.trippedTrue(CondAncestorEnd) {
			return StateFinished, OutcomeSkipped, FailureNone, true
		}
		if n.trippedTrue(CondSkip) {
			return StateIterationEnded, OutcomeSkipped, FailureNone, true
		}
		preKnown, preVal := n.condKnown(CondPre)
		if preKnown && !preVal {
			return StateIterationEnded, OutcomeFailure, FailurePreConditionFailed, true
		}
		startKnown, startVal := n.condKnown(CondStart)
		if startKnown && startVal && preKnown && preVal {
			if !n.trippedTrue(CondExit) && !n.trippedFalse(CondInvariant) {
				return StateExecuting, OutcomeNone, FailureNone, true
			}
		}
		return dest, outcome, failure, false

	case StateExecuting:
		if failing, oc, ft := n.ancestorOrOwnFailing(); failing {
			return StateFailing, oc, ft, true
		}
		endKnown, endVal := n.condKnown(CondEnd)
		if endKnown && endVal {
			if (n.Variant == VariantNodeList || n.Variant == VariantLibraryCall) && n.allChildrenFinished != nil {
				if !n.allChildrenFinished.ValueOf().AsBool() {
					return StateFinishing, OutcomeNone, FailureNone, true
				}
			}
			postKnown, postVal := n.condKnown(CondPost)
			if postKnown {
				if postVal {
					return StateIterationEnded, OutcomeSuccess, FailureNone, true
				}
				return StateIterationEnded, OutcomeFailure, FailurePostConditionFailed, true
			}
		}
		return dest, outcome, failure, false

	case StateFinishing:
		if failing, oc, ft := n.ancestorOrOwnFailing(); failing {
			return StateFailing, oc, ft, true
		}
		if n.trippedTrue(CondActionComplete) {
			postKnown, postVal := n.condKnown(CondPost)
			if postKnown && !postVal {
				return StateIterationEnded, OutcomeFailure, FailurePostConditionFailed, true
			}
			return StateIterationEnded, OutcomeSuccess, FailureNone, true
		}
		return dest, outcome, failure, false

	case StateFailing:
		if n.trippedTrue(CondAbortComplete) {
			// Outcome was already fixed at the Executing/Finishing->Failing
			// transition by ancestorOrOwnFailing (Interrupted for an exit,
			// Failure for an invariant); only the landing state differs by
			// ancestor-vs-own origin.
			if n.Failure == FailureParentFailed || n.Failure == FailureParentExited {
				return StateFinished, n.Outcome, n.Failure, true
			}
			return StateIterationEnded, n.Outcome, n.Failure, true
		}
		return dest, outcome, failure, false

	case StateIterationEnded:
		if n.trippedTrue(CondAncestorExit) {
			return StateFinished, n.Outcome, FailureParentExited, true
		}
		if n.trippedFalse(CondAncestorInvariant) {
			return StateFinished, n.Outcome, FailureParentFailed, true
		}
		repeatKnown, repeatVal := n.condKnown(CondRepeat)
		if repeatKnown {
			if repeatVal {
				if !n.trippedTrue(CondAncestorExit) && !n.trippedFalse(CondAncestorInvariant) {
					return StateWaiting, OutcomeNone, FailureNone, true
				}
			} else {
				return StateFinished, n.Outcome, n.Failure, true
			}
		}
		return dest, outcome, failure, false

	default: // StateFinished: terminal, awaits destruction
		return dest, outcome, failure, false
	}
}

// conditionsActiveInState lists which condition kinds are activated while
// the node occupies state (§4.6).
func conditionsActiveInState(n *Node, state NodeState) []ConditionKind {
	switch state {
	case StateInactive:
		return []ConditionKind{CondAncestorExit, CondAncestorInvariant, CondAncestorEnd}
	case StateWaiting:
		return []ConditionKind{CondAncestorExit, CondAncestorInvariant, CondAncestorEnd, CondSkip, CondStart, CondPre}
	case StateExecuting:
		kinds := []ConditionKind{CondAncestorExit, CondAncestorInvariant, CondExit, CondInvariant, CondEnd, CondPost}
		return kinds
	case StateFinishing:
		return []ConditionKind{CondAncestorExit, CondAncestorInvariant, CondExit, CondInvariant, CondEnd, CondActionComplete, CondPost}
	case StateFailing:
		return []ConditionKind{CondAbortComplete}
	case StateIterationEnded:
		return []ConditionKind{CondAncestorExit, CondAncestorInvariant, CondRepeat}
	default:
		return nil
	}
}

func activateConditions(n *Node, kinds []ConditionKind) {
	for _, k := range kinds {
		if c := n.Conditions[k]; c != nil {
			c.Activate()
		}
	}
}

func deactivateConditions(n *Node, kinds []ConditionKind) {
	for _, k := range kinds {
		if c := n.Conditions[k]; c != nil {
			c.Deactivate()
		}
	}
}

// ApplyTransition commits a destination computed by ComputeDestination,
// executing the five-step sequence from §4.3: deactivate old conditions,
// run exit side effects, update state and timestamp, activate new
// conditions, run entry side effects. timestamp is the exec's current
// cycle time, used to stamp StateTimestamps for timepoint expressions.
func (n *Node) ApplyTransition(dest NodeState, outcome NodeOutcome, failure FailureType, timestamp float64) {
	from := n.State

	// 1. deactivate conditions no longer needed
	deactivateConditions(n, conditionsActiveInState(n, from))

	// 2. exit-state side effects
	if n.hooks != nil {
		n.hooks.OnExitState(n, from)
	}

	// 3. update state, record timestamp
	n.State = dest
	n.Outcome = outcome
	n.Failure = failure
	n.StateTimestamps[dest] = timestamp

	// 4. activate conditions needed in the new state
	activateConditions(n, conditionsActiveInState(n, dest))

	// 5. entry-state side effects; state-variable publication happens last
	// so observers see the node already in its new state.
	if n.hooks != nil {
		n.hooks.OnEnterState(n, dest)
	}
	n.StateVar.Publish()
	if outcome != OutcomeNone {
		n.OutcomeVar.Publish()
	}
	if failure != FailureNone {
		n.FailureVar.Publish()
	}
}
