// Package plan implements the node state machine and node body types that
// the exec drives: node identity and lifecycle (§3, §4.3), the fixed
// condition table and destination-state computation, and the
// Assignment/Command/Update/ResourceSpec body variants.
package plan

// NodeState is one of the seven states a Node may occupy (§3).
type NodeState int

const (
	StateInactive NodeState = iota
	StateWaiting
	StateExecuting
	StateIterationEnded
	StateFinished
	StateFailing
	StateFinishing
)

func (s NodeState) String() string {
	switch s {
	case StateInactive:
		return "INACTIVE"
	case StateWaiting:
		return "WAITING"
	case StateExecuting:
		return "EXECUTING"
	case StateIterationEnded:
		return "ITERATION_ENDED"
	case StateFinished:
		return "FINISHED"
	case StateFailing:
		return "FAILING"
	case StateFinishing:
		return "FINISHING"
	default:
		return "UNKNOWN_STATE"
	}
}

// NodeOutcome is the pending or final outcome of a node's iteration (§3).
type NodeOutcome int

const (
	OutcomeNone NodeOutcome = iota
	OutcomeSuccess
	OutcomeFailure
	OutcomeSkipped
	OutcomeInterrupted
)

func (o NodeOutcome) String() string {
	switch o {
	case OutcomeNone:
		return "NONE"
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeFailure:
		return "FAILURE"
	case OutcomeSkipped:
		return "SKIPPED"
	case OutcomeInterrupted:
		return "INTERRUPTED"
	default:
		return "UNKNOWN_OUTCOME"
	}
}

// FailureType further qualifies an OutcomeFailure (§3).
type FailureType int

const (
	FailureNone FailureType = iota
	FailurePreConditionFailed
	FailurePostConditionFailed
	FailureInvariantConditionFailed
	FailureParentFailed
	FailureParentExited
	FailureExited
)

func (f FailureType) String() string {
	switch f {
	case FailureNone:
		return "NONE"
	case FailurePreConditionFailed:
		return "PRE_CONDITION_FAILED"
	case FailurePostConditionFailed:
		return "POST_CONDITION_FAILED"
	case FailureInvariantConditionFailed:
		return "INVARIANT_CONDITION_FAILED"
	case FailureParentFailed:
		return "PARENT_FAILED"
	case FailureParentExited:
		return "PARENT_EXITED"
	case FailureExited:
		return "EXITED"
	default:
		return "UNKNOWN_FAILURE"
	}
}

// ConditionKind indexes a node's fixed condition table (§3, §4.6).
type ConditionKind int

const (
	CondAncestorExit ConditionKind = iota
	CondAncestorInvariant
	CondAncestorEnd
	CondSkip
	CondStart
	CondPre
	CondExit
	CondInvariant
	CondEnd
	CondPost
	CondRepeat
	CondActionComplete
	CondAbortComplete
	numConditionKinds
)

func (k ConditionKind) String() string {
	switch k {
	case CondAncestorExit:
		return "AncestorExit"
	case CondAncestorInvariant:
		return "AncestorInvariant"
	case CondAncestorEnd:
		return "AncestorEnd"
	case CondSkip:
		return "Skip"
	case CondStart:
		return "Start"
	case CondPre:
		return "Pre"
	case CondExit:
		return "Exit"
	case CondInvariant:
		return "Invariant"
	case CondEnd:
		return "End"
	case CondPost:
		return "Post"
	case CondRepeat:
		return "Repeat"
	case CondActionComplete:
		return "ActionComplete"
	case CondAbortComplete:
		return "AbortComplete"
	default:
		return "UnknownCondition"
	}
}

// QueueStatus records a node's membership in the exec's work queues (§3).
type QueueStatus int

const (
	QueueNone QueueStatus = iota
	QueueCheck
	QueueTransition
	QueueTransitionCheck
	QueueDelete
)

// NodeVariant tags a node's body kind (§3).
type NodeVariant int

const (
	VariantEmpty NodeVariant = iota
	VariantAssignment
	VariantCommand
	VariantUpdate
	VariantNodeList
	VariantLibraryCall
)

func (v NodeVariant) String() string {
	switch v {
	case VariantEmpty:
		return "Empty"
	case VariantAssignment:
		return "Assignment"
	case VariantCommand:
		return "Command"
	case VariantUpdate:
		return "Update"
	case VariantNodeList:
		return "NodeList"
	case VariantLibraryCall:
		return "LibraryCall"
	default:
		return "UnknownVariant"
	}
}
