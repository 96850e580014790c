package plan

import (
	"github.com/taless474/plexil1-sub000/pkg/plexilexpr"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// StateVariable is the node-internal expression exposing a node's current
// state (§3: "node-internal variables (state, outcome, failure,
// timepoint)"). It is a propagation source: the exec publishes it
// explicitly from the transition-execution sequence's final step.
type StateVariable struct {
	plexilexpr.Base
	node *Node
}

func newStateVariable(n *Node) *StateVariable {
	v := &StateVariable{node: n}
	v.Init(v, nil, true)
	return v
}

func (v *StateVariable) ValueOf() plexilval.Value {
	return plexilval.NodeStateValue(int32(v.node.State))
}
func (v *StateVariable) IsKnown() bool             { return true }
func (v *StateVariable) Type() plexilval.ValueType { return plexilval.TypeNodeState }

// Node returns the node this variable reports on.
func (v *StateVariable) Node() *Node { return v.node }

// OutcomeVariable exposes a node's pending/final outcome.
type OutcomeVariable struct {
	plexilexpr.Base
	node *Node
}

func newOutcomeVariable(n *Node) *OutcomeVariable {
	v := &OutcomeVariable{node: n}
	v.Init(v, nil, true)
	return v
}

func (v *OutcomeVariable) ValueOf() plexilval.Value {
	if v.node.Outcome == OutcomeNone {
		return plexilval.Unknown(plexilval.TypeNodeOutcome)
	}
	return plexilval.NodeOutcomeValue(int32(v.node.Outcome))
}
func (v *OutcomeVariable) IsKnown() bool             { return v.node.Outcome != OutcomeNone }
func (v *OutcomeVariable) Type() plexilval.ValueType { return plexilval.TypeNodeOutcome }

// FailureVariable exposes a node's failure-type qualifier.
type FailureVariable struct {
	plexilexpr.Base
	node *Node
}

func newFailureVariable(n *Node) *FailureVariable {
	v := &FailureVariable{node: n}
	v.Init(v, nil, true)
	return v
}

func (v *FailureVariable) ValueOf() plexilval.Value {
	if v.node.Failure == FailureNone {
		return plexilval.Unknown(plexilval.TypeFailureType)
	}
	return plexilval.FailureTypeValue(int32(v.node.Failure))
}
func (v *FailureVariable) IsKnown() bool             { return v.node.Failure != FailureNone }
func (v *FailureVariable) Type() plexilval.ValueType { return plexilval.TypeFailureType }

// TimepointVariable exposes the timestamp (if any) at which a node most
// recently entered state.
type TimepointVariable struct {
	plexilexpr.Base
	node  *Node
	state NodeState
}

func newTimepointVariable(n *Node, state NodeState) *TimepointVariable {
	v := &TimepointVariable{node: n, state: state}
	v.Init(v, nil, true)
	return v
}

func (v *TimepointVariable) ValueOf() plexilval.Value {
	ts, ok := v.node.StateTimestamps[v.state]
	if !ok {
		return plexilval.Unknown(plexilval.TypeReal)
	}
	return plexilval.Real(ts)
}
func (v *TimepointVariable) IsKnown() bool {
	_, ok := v.node.StateTimestamps[v.state]
	return ok
}
func (v *TimepointVariable) Type() plexilval.ValueType { return plexilval.TypeReal }
