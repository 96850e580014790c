package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taless474/plexil1-sub000/pkg/plexilexpr"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

func boolVar(v bool) *plexilexpr.Variable {
	x := plexilexpr.NewVariable(plexilval.TypeBool, nil, false)
	x.Activate()
	x.SetValue(plexilval.Bool(v))
	return x
}

func TestNode_InactiveToWaiting_DefaultsWhenNoAncestorTrip(t *testing.T) {
	n := NewNode("n1", VariantEmpty, nil)
	dest, _, _, ok := n.ComputeDestination()
	require.True(t, ok)
	assert.Equal(t, StateWaiting, dest)
}

func TestNode_InactiveToFinished_OnAncestorEnd(t *testing.T) {
	n := NewNode("n1", VariantEmpty, nil)
	n.Conditions[CondAncestorEnd] = boolVar(true)
	dest, outcome, _, ok := n.ComputeDestination()
	require.True(t, ok)
	assert.Equal(t, StateFinished, dest)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestNode_WaitingToExecuting_RequiresStartPreAndNoExit(t *testing.T) {
	n := NewNode("n1", VariantEmpty, nil)
	n.State = StateWaiting
	n.Conditions[CondStart] = boolVar(true)
	n.Conditions[CondPre] = boolVar(true)

	dest, _, _, ok := n.ComputeDestination()
	require.True(t, ok)
	assert.Equal(t, StateExecuting, dest)
}

func TestNode_WaitingToIterationEnded_OnSkip(t *testing.T) {
	n := NewNode("n1", VariantEmpty, nil)
	n.State = StateWaiting
	n.Conditions[CondSkip] = boolVar(true)

	dest, outcome, _, ok := n.ComputeDestination()
	require.True(t, ok)
	assert.Equal(t, StateIterationEnded, dest)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestNode_WaitingDefers_WhenStartUnknown(t *testing.T) {
	n := NewNode("n1", VariantEmpty, nil)
	n.State = StateWaiting
	n.Conditions[CondPre] = boolVar(true)
	// CondStart left nil -> default true actually, so force unknown explicitly
	unknownStart := plexilexpr.NewVariable(plexilval.TypeBool, nil, false)
	n.Conditions[CondStart] = unknownStart

	_, _, _, ok := n.ComputeDestination()
	assert.False(t, ok)
}

func TestNode_ExecutingToIterationEnded_PostTrueIsSuccess(t *testing.T) {
	n := NewNode("n1", VariantEmpty, nil)
	n.State = StateExecuting
	n.Conditions[CondEnd] = boolVar(true)
	n.Conditions[CondPost] = boolVar(true)

	dest, outcome, _, ok := n.ComputeDestination()
	require.True(t, ok)
	assert.Equal(t, StateIterationEnded, dest)
	assert.Equal(t, OutcomeSuccess, outcome)
}

func TestNode_ExecutingToIterationEnded_PostFalseIsFailure(t *testing.T) {
	n := NewNode("n1", VariantEmpty, nil)
	n.State = StateExecuting
	n.Conditions[CondEnd] = boolVar(true)
	n.Conditions[CondPost] = boolVar(false)

	dest, outcome, failure, ok := n.ComputeDestination()
	require.True(t, ok)
	assert.Equal(t, StateIterationEnded, dest)
	assert.Equal(t, OutcomeFailure, outcome)
	assert.Equal(t, FailurePostConditionFailed, failure)
}

func TestNode_ExecutingToFailing_OnExitTrue(t *testing.T) {
	n := NewNode("n1", VariantEmpty, nil)
	n.State = StateExecuting
	n.Conditions[CondExit] = boolVar(true)

	dest, outcome, failure, ok := n.ComputeDestination()
	require.True(t, ok)
	assert.Equal(t, StateFailing, dest)
	assert.Equal(t, OutcomeInterrupted, outcome)
	assert.Equal(t, FailureExited, failure)
}

func TestNode_FailingToIterationEnded_OnAbortComplete(t *testing.T) {
	n := NewNode("n1", VariantEmpty, nil)
	n.State = StateFailing
	n.Outcome = OutcomeInterrupted
	n.Failure = FailureExited
	n.Conditions[CondAbortComplete] = boolVar(true)

	dest, outcome, failure, ok := n.ComputeDestination()
	require.True(t, ok)
	assert.Equal(t, StateIterationEnded, dest)
	assert.Equal(t, OutcomeInterrupted, outcome)
	assert.Equal(t, FailureExited, failure)
}

func TestNode_ApplyTransition_PublishesStateVariableLast(t *testing.T) {
	n := NewNode("n1", VariantEmpty, nil)

	var observedState plexilval.Value
	n.StateVar.AddListener(plexilexpr.ListenerFunc(func(src plexilexpr.Expression) {
		observedState = src.ValueOf()
	}))

	n.ApplyTransition(StateWaiting, OutcomeNone, FailureNone, 1.0)
	require.True(t, observedState.IsKnown())
	assert.Equal(t, int32(StateWaiting), observedState.AsInt())
	assert.Equal(t, 1.0, n.StateTimestamps[StateWaiting])
}

func TestAllChildrenFinished_TracksIncrementally(t *testing.T) {
	parent := NewNode("p", VariantNodeList, nil)
	c1 := NewNode("c1", VariantEmpty, parent)
	c2 := NewNode("c2", VariantEmpty, parent)
	parent.SetChildren([]*Node{c1, c2})

	assert.False(t, parent.AllChildrenFinished().ValueOf().AsBool())

	c1.ApplyTransition(StateFinished, OutcomeSuccess, FailureNone, 0)
	assert.False(t, parent.AllChildrenFinished().ValueOf().AsBool())

	c2.ApplyTransition(StateFinished, OutcomeSuccess, FailureNone, 0)
	assert.True(t, parent.AllChildrenFinished().ValueOf().AsBool())
}

func TestAllChildrenWaitingOrFinished(t *testing.T) {
	parent := NewNode("p", VariantNodeList, nil)
	c1 := NewNode("c1", VariantEmpty, parent)
	c2 := NewNode("c2", VariantEmpty, parent)
	parent.SetChildren([]*Node{c1, c2})

	c1.ApplyTransition(StateWaiting, OutcomeNone, FailureNone, 0)
	assert.False(t, parent.AllChildrenWaitingOrFinished().ValueOf().AsBool())

	c2.ApplyTransition(StateFinished, OutcomeSuccess, FailureNone, 0)
	assert.True(t, parent.AllChildrenWaitingOrFinished().ValueOf().AsBool())
}
