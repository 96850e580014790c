package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListenerHub_FanOutDeliversToRegistered(t *testing.T) {
	h := newListenerHub()
	var got []TransitionRecord
	h.AddListener(StepListenerFunc(func(t []TransitionRecord, a []AssignmentRecord) {
		got = t
	}))
	// AddListener is deferred; it only takes effect after a fan-out completes.
	h.fanOut(nil, nil)

	want := []TransitionRecord{{NodeID: "n1"}}
	h.fanOut(want, nil)
	assert.Equal(t, want, got)
}

func TestListenerHub_RemoveListenerDeferredUntilFanOutCompletes(t *testing.T) {
	h := newListenerHub()
	calls := 0
	l := StepListenerFunc(func(t []TransitionRecord, a []AssignmentRecord) { calls++ })
	h.AddListener(l)
	h.fanOut(nil, nil) // applies the pending add; l is not yet notified this round
	assert.Equal(t, 0, calls)

	h.RemoveListener(l)
	h.fanOut(nil, nil) // l is still registered during this fan-out (remove is deferred)
	assert.Equal(t, 1, calls)

	h.fanOut(nil, nil) // removal applied after the previous fan-out
	assert.Equal(t, 1, calls)
}

func TestListenerHub_AddDuringFanOutDoesNotSeeCurrentRecords(t *testing.T) {
	h := newListenerHub()
	var secondCalled bool
	first := StepListenerFunc(func(t []TransitionRecord, a []AssignmentRecord) {
		h.AddListener(StepListenerFunc(func([]TransitionRecord, []AssignmentRecord) {
			secondCalled = true
		}))
	})
	h.AddListener(first)
	h.fanOut(nil, nil) // applies the pending add of first; first is not invoked yet

	h.fanOut(nil, nil) // first runs and registers second, deferred
	assert.False(t, secondCalled)

	h.fanOut(nil, nil) // second is now registered and runs
	assert.True(t, secondCalled)
}
