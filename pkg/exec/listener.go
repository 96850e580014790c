package exec

import (
	"reflect"
	"sync"

	"github.com/taless474/plexil1-sub000/pkg/plan"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// TransitionRecord is one committed node transition, reported to plan
// listeners at stepComplete (§4.9).
type TransitionRecord struct {
	NodeID  string
	From    plan.NodeState
	To      plan.NodeState
	Outcome plan.NodeOutcome
	Failure plan.FailureType
}

// AssignmentRecord is one committed assignment, reported to plan
// listeners at stepComplete (§4.9).
type AssignmentRecord struct {
	NodeID       string
	VariableName string
	Value        plexilval.Value
}

// StepListener receives the accumulated transition and assignment
// records once per macro-step, after the cycle has quiesced.
type StepListener interface {
	OnStepComplete(transitions []TransitionRecord, assignments []AssignmentRecord)
}

// StepListenerFunc adapts a function to StepListener.
type StepListenerFunc func(transitions []TransitionRecord, assignments []AssignmentRecord)

// OnStepComplete implements StepListener.
func (f StepListenerFunc) OnStepComplete(t []TransitionRecord, a []AssignmentRecord) { f(t, a) }

// listenerHub fans out transition/assignment records at stepComplete and
// defers add/remove-listener requests made mid-cycle until the fan-out
// completes (§4.9).
type listenerHub struct {
	mu        sync.Mutex
	listeners []StepListener
	pending   []hubOp
}

type hubOp struct {
	add      bool
	listener StepListener
}

func newListenerHub() *listenerHub { return &listenerHub{} }

// AddListener registers l, deferred until the current fan-out (if any)
// completes.
func (h *listenerHub) AddListener(l StepListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, hubOp{add: true, listener: l})
}

// RemoveListener unregisters l, deferred the same way.
func (h *listenerHub) RemoveListener(l StepListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, hubOp{add: false, listener: l})
}

// fanOut delivers the cycle's records to every currently registered
// listener, then applies deferred add/remove requests.
func (h *listenerHub) fanOut(transitions []TransitionRecord, assignments []AssignmentRecord) {
	h.mu.Lock()
	snapshot := append([]StepListener(nil), h.listeners...)
	h.mu.Unlock()

	for _, l := range snapshot {
		l.OnStepComplete(transitions, assignments)
	}

	h.mu.Lock()
	for _, op := range h.pending {
		if op.add {
			h.listeners = append(h.listeners, op.listener)
		} else {
			h.listeners = removeListener(h.listeners, op.listener)
		}
	}
	h.pending = nil
	h.mu.Unlock()
}

// removeListener drops every entry matching target. A listener of a
// non-comparable func type such as StepListenerFunc is matched by its
// function's code pointer, so every StepListenerFunc built from the same
// function literal matches.
func removeListener(list []StepListener, target StepListener) []StepListener {
	out := list[:0]
	tv := reflect.ValueOf(target)
	for _, l := range list {
		lv := reflect.ValueOf(l)
		var same bool
		switch {
		case !lv.IsValid() || !tv.IsValid():
			same = !lv.IsValid() && !tv.IsValid()
		case lv.Type() != tv.Type():
		case lv.Type().Comparable():
			same = l == target
		case lv.Kind() == reflect.Func:
			same = lv.Pointer() == tv.Pointer()
		}
		if !same {
			out = append(out, l)
		}
	}
	return out
}
