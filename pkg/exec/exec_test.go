package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/plan"
	"github.com/taless474/plexil1-sub000/pkg/plexilexpr"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

func TestExec_EmptyNodeRunsToFinishedInOneStep(t *testing.T) {
	e := New(extiface.NewMockInterface(), 16)
	root := plan.NewNode("root", plan.VariantEmpty, nil)
	e.AddPlan(root)

	err := e.Step(context.Background(), 1.0)
	require.NoError(t, err)

	assert.Equal(t, plan.StateFinished, root.State)
	assert.Equal(t, plan.OutcomeSuccess, root.Outcome)
}

func TestExec_PreConditionFalseSkipsToFailure(t *testing.T) {
	e := New(extiface.NewMockInterface(), 16)
	root := plan.NewNode("root", plan.VariantEmpty, nil)
	pre := boolConst(false)
	root.Conditions[plan.CondPre] = pre
	e.AddPlan(root)

	require.NoError(t, e.Step(context.Background(), 1.0))

	assert.Equal(t, plan.StateFinished, root.State)
	assert.Equal(t, plan.OutcomeFailure, root.Outcome)
	assert.Equal(t, plan.FailurePreConditionFailed, root.Failure)
}

func TestExec_WaitingDefersUntilStartBecomesKnown(t *testing.T) {
	e := New(extiface.NewMockInterface(), 16)
	root := plan.NewNode("root", plan.VariantEmpty, nil)
	start := plexilexpr.NewVariable(plexilval.TypeBool, nil, false)
	start.Activate()
	root.Conditions[plan.CondStart] = start
	e.AddPlan(root)

	require.NoError(t, e.Step(context.Background(), 1.0))
	assert.Equal(t, plan.StateWaiting, root.State)

	start.SetValue(plexilval.Bool(true))
	require.NoError(t, e.Step(context.Background(), 2.0))
	assert.Equal(t, plan.StateFinished, root.State)
}

func TestExec_AssignmentConflictPicksHigherPriorityAcrossTwoAssignmentNodes(t *testing.T) {
	mock := extiface.NewMockInterface()
	e := New(mock, 16)

	shared := plexilexpr.NewVariable(plexilval.TypeInt, nil, false)
	shared.Activate()

	low := plan.NewNode("low", plan.VariantAssignment, nil)
	low.Assignment = plan.NewVariableAssignment(shared, plexilexpr.NewConstant(plexilval.Int(1)), 5)
	high := plan.NewNode("high", plan.VariantAssignment, nil)
	high.Assignment = plan.NewVariableAssignment(shared, plexilexpr.NewConstant(plexilval.Int(2)), 1)

	e.AddPlan(low)
	e.AddPlan(high)

	require.NoError(t, e.Step(context.Background(), 1.0))

	assert.True(t, plexilval.Int(2).Equal(shared.ValueOf()))
}

func TestExec_CommandDispatchAndReturnCompletesNode(t *testing.T) {
	mock := extiface.NewMockInterface()
	e := New(mock, 16)

	dest := plexilexpr.NewVariable(plexilval.TypeInt, nil, false)
	dest.Activate()

	cmdNode := plan.NewNode("cmd", plan.VariantCommand, nil)
	handleVar := plexilexpr.NewVariable(plexilval.TypeCommandHandle, nil, false)
	handleVar.Activate()
	cmdNode.Command = &plan.Command{
		NameExpr:    plexilexpr.NewConstant(plexilval.Str("read_sensor")),
		Destination: dest,
		HandleVar:   handleVar,
	}
	endKnown := plexilexpr.NewVariable(plexilval.TypeBool, nil, false)
	endKnown.Activate()
	cmdNode.Conditions[plan.CondEnd] = endKnown

	e.AddPlan(cmdNode)
	require.NoError(t, e.Step(context.Background(), 1.0))
	assert.Equal(t, plan.StateExecuting, cmdNode.State)
	assert.Len(t, mock.ExecutedCommands(), 1)

	handle := mock.ExecutedCommands()[0]
	e.Poster().PostCommandReturn(handle, plexilval.Int(42))
	endKnown.SetValue(plexilval.Bool(true))
	require.NoError(t, e.Step(context.Background(), 2.0))

	assert.True(t, plexilval.Int(42).Equal(dest.ValueOf()))
	assert.Equal(t, plan.StateFinished, cmdNode.State)
	assert.Equal(t, plan.OutcomeSuccess, cmdNode.Outcome)
}
