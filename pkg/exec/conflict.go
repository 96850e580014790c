package exec

import (
	"sort"

	"github.com/taless474/plexil1-sub000/pkg/plan"
	"github.com/taless474/plexil1-sub000/pkg/plexilexpr"
)

// pendingTransition is one candidate's computed destination, queued for
// commit in insertion order (§4.4 step 3a/3c).
type pendingTransition struct {
	node      *plan.Node
	dest      plan.NodeState
	outcome   plan.NodeOutcome
	failure   plan.FailureType
	seq       int
	discarded bool
}

// ConflictRecord is one assignment conflict resolved during a macro-step,
// kept around for debug-console inspection (§4.5).
type ConflictRecord struct {
	WinnerNodeID string
	LoserNodeID  string
	Priority     int
	Tie          bool
}

// resolveAssignmentConflicts implements §4.5: for every destination
// variable with more than one assignment node entering Executing this
// pass, keep only the highest-priority (lowest numeric) contender,
// breaking ties by insertion order with a diagnostic warning; every
// other contender is discarded from the transition batch and re-queued
// as a candidate.
func (e *Exec) resolveAssignmentConflicts(batch []*pendingTransition) {
	groups := make(map[plexilexpr.Expression][]*pendingTransition)
	for _, pt := range batch {
		if pt.node.Variant != plan.VariantAssignment || pt.dest != plan.StateExecuting {
			continue
		}
		dest := pt.node.Assignment.Destination
		groups[dest] = append(groups[dest], pt)
	}

	for _, contenders := range groups {
		if len(contenders) < 2 {
			continue
		}
		sort.SliceStable(contenders, func(i, j int) bool {
			return contenders[i].node.Assignment.Priority < contenders[j].node.Assignment.Priority
		})
		winner := contenders[0]
		tie := contenders[1].node.Assignment.Priority == winner.node.Assignment.Priority
		if tie {
			e.logConflictTie(winner, contenders[1])
		}
		for _, loser := range contenders[1:] {
			loser.discarded = true
			loser.node.QueueStatus = plan.QueueNone
			// Deferred rather than requeued immediately: once a contender
			// loses in this macro-step, it must not get another chance to
			// write the same variable until the next step, even if the
			// winner moves past Executing in a later micro-step pass of
			// this same step (§4.5).
			e.deferredCandidates = append(e.deferredCandidates, loser.node)
			e.lastConflicts = append(e.lastConflicts, ConflictRecord{
				WinnerNodeID: winner.node.ID,
				LoserNodeID:  loser.node.ID,
				Priority:     winner.node.Assignment.Priority,
				Tie:          tie,
			})
		}
	}
}

func (e *Exec) logConflictTie(winner, loser *pendingTransition) {
	if e.logger == nil {
		return
	}
	e.logger.Warn("assignment conflict tie broken by insertion order",
		"winner_node", winner.node.ID,
		"loser_node", loser.node.ID,
		"priority", winner.node.Assignment.Priority,
	)
}
