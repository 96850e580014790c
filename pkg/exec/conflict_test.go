package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taless474/plexil1-sub000/pkg/plan"
	"github.com/taless474/plexil1-sub000/pkg/plexilexpr"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

func newAssignmentPending(t *testing.T, dest *plexilexpr.Variable, priority, seq int) *pendingTransition {
	t.Helper()
	n := plan.NewNode(t.Name(), plan.VariantAssignment, nil)
	n.Assignment = plan.NewVariableAssignment(dest, plexilexpr.NewConstant(plexilval.Int(1)), priority)
	return &pendingTransition{node: n, dest: plan.StateExecuting, seq: seq}
}

func TestResolveAssignmentConflicts_LowestPriorityWins(t *testing.T) {
	e := New(nil, 0)
	dest := plexilexpr.NewVariable(plexilval.TypeInt, nil, false)

	low := newAssignmentPending(t, dest, 5, 1)
	high := newAssignmentPending(t, dest, 1, 2)
	batch := []*pendingTransition{low, high}

	e.resolveAssignmentConflicts(batch)

	assert.True(t, low.discarded)
	assert.False(t, high.discarded)
}

func TestResolveAssignmentConflicts_TieBrokenByInsertionOrder(t *testing.T) {
	e := New(nil, 0)
	dest := plexilexpr.NewVariable(plexilval.TypeInt, nil, false)

	first := newAssignmentPending(t, dest, 3, 1)
	second := newAssignmentPending(t, dest, 3, 2)
	batch := []*pendingTransition{first, second}

	e.resolveAssignmentConflicts(batch)

	assert.False(t, first.discarded)
	assert.True(t, second.discarded)
}

func TestResolveAssignmentConflicts_LoserDeferredToNextStep(t *testing.T) {
	e := New(nil, 0)
	dest := plexilexpr.NewVariable(plexilval.TypeInt, nil, false)

	low := newAssignmentPending(t, dest, 9, 1)
	high := newAssignmentPending(t, dest, 1, 2)
	low.node.QueueStatus = plan.QueueTransition
	high.node.QueueStatus = plan.QueueTransition

	e.resolveAssignmentConflicts([]*pendingTransition{low, high})

	assert.Equal(t, plan.QueueNone, low.node.QueueStatus)
	require.Len(t, e.deferredCandidates, 1)
	assert.Same(t, low.node, e.deferredCandidates[0])
	assert.True(t, e.candidates.empty())
}

func TestResolveAssignmentConflicts_DistinctDestinationsDoNotConflict(t *testing.T) {
	e := New(nil, 0)
	destA := plexilexpr.NewVariable(plexilval.TypeInt, nil, false)
	destB := plexilexpr.NewVariable(plexilval.TypeInt, nil, false)

	a := newAssignmentPending(t, destA, 1, 1)
	b := newAssignmentPending(t, destB, 1, 2)
	e.resolveAssignmentConflicts([]*pendingTransition{a, b})

	assert.False(t, a.discarded)
	assert.False(t, b.discarded)
}
