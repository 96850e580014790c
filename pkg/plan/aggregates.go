package plan

import (
	"github.com/taless474/plexil1-sub000/pkg/plexilexpr"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// childCountAggregate implements the "synthesize AllChildrenFinished and
// AllChildrenWaitingOrFinished aggregate conditions from child state
// variables" requirement of §4.3: it republishes only on the specific
// child-state edges relevant to the aggregate, maintaining a running
// count rather than rescanning every child on each notification.
type childCountAggregate struct {
	plexilexpr.Base
	total   int
	count   int
	counted map[*Node]bool
	match   func(NodeState) bool
}

func newChildCountAggregate(children []*Node, match func(NodeState) bool) *childCountAggregate {
	a := &childCountAggregate{
		total:   len(children),
		counted: make(map[*Node]bool, len(children)),
		match:   match,
	}
	subs := make([]plexilexpr.Expression, len(children))
	for i, c := range children {
		subs[i] = c.StateVar
	}
	a.Init(a, subs, false)

	for _, c := range children {
		if match(c.State) {
			a.counted[c] = true
			a.count++
		}
		child := c
		c.StateVar.AddListener(plexilexpr.ListenerFunc(func(plexilexpr.Expression) {
			a.onChildStateChanged(child)
		}))
	}
	return a
}

func (a *childCountAggregate) onChildStateChanged(child *Node) {
	matches := a.match(child.State)
	was := a.counted[child]
	if matches == was {
		return
	}
	a.counted[child] = matches
	if matches {
		a.count++
	} else {
		a.count--
	}
	a.Publish()
}

// ValueOf reports whether every child currently matches the aggregate's
// predicate.
func (a *childCountAggregate) ValueOf() plexilval.Value {
	return plexilval.Bool(a.total > 0 && a.count == a.total)
}
func (a *childCountAggregate) IsKnown() bool             { return true }
func (a *childCountAggregate) Type() plexilval.ValueType { return plexilval.TypeBool }

// newAllChildrenFinished builds the aggregate used by List/LibraryCall
// nodes' AncestorEnd-style completion gating.
func newAllChildrenFinished(children []*Node) *childCountAggregate {
	return newChildCountAggregate(children, func(s NodeState) bool { return s == StateFinished })
}

// newAllChildrenWaitingOrFinished builds the aggregate returned by
// Node.AllChildrenWaitingOrFinished; ComputeDestination does not consult
// it.
func newAllChildrenWaitingOrFinished(children []*Node) *childCountAggregate {
	return newChildCountAggregate(children, func(s NodeState) bool {
		return s == StateWaiting || s == StateFinished
	})
}
