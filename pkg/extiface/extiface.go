// Package extiface defines the boundary contract between the quiescence
// core and its hosting environment (§6): the operations the core invokes
// on the environment, and the callbacks the environment uses to post
// events back onto the core's input queue.
package extiface

import (
	"context"

	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// State identifies a lookup by name and parameter vector, with a total
// order so it can key caches, subscriptions, and threshold registrations.
type State struct {
	Name   string
	Params []plexilval.Value
}

// Equal reports whether two states denote the same lookup.
func (s State) Equal(o State) bool {
	if s.Name != o.Name || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if !s.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

// Compare gives a total order over States, used by callers that need a
// deterministic iteration order over cache entries.
func (s State) Compare(o State) int {
	if s.Name != o.Name {
		if s.Name < o.Name {
			return -1
		}
		return 1
	}
	if len(s.Params) != len(o.Params) {
		if len(s.Params) < len(o.Params) {
			return -1
		}
		return 1
	}
	for i := range s.Params {
		if c := s.Params[i].Compare(o.Params[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Key renders a State as a map/cache key. Params are rendered via Value's
// String, which is adequate for the scalar types States carry in practice.
func (s State) Key() string {
	key := s.Name
	for _, p := range s.Params {
		key += "\x00" + p.String()
	}
	return key
}

// TimeState is the distinguished state representing the monotonic time
// source (§3, "The special state time() is the current time source").
var TimeState = State{Name: "time"}

// CommandHandle identifies an in-flight command for ack/return/abort
// routing between the environment and the core.
type CommandHandle struct {
	ID   string
	Name string
}

// UpdateHandle identifies an in-flight planner update for ack routing.
type UpdateHandle struct {
	ID string
}

// ExternalInterface is the contract the core holds against its host
// environment (§6). Implementations must not call back into the core
// synchronously from any of these methods; replies are delivered instead
// via the paired env->core posting methods on Poster.
type ExternalInterface interface {
	// LookupNow synchronously resolves state, possibly returning Unknown.
	LookupNow(ctx context.Context, state State) plexilval.Value
	// Subscribe begins change notifications for state.
	Subscribe(state State)
	// Unsubscribe stops change notifications for state.
	Unsubscribe(state State)
	// SetThresholds requests change notification only when the reported
	// value crosses hi or lo.
	SetThresholds(state State, hi, lo plexilval.Value)
	// ExecuteCommand initiates cmd; completion arrives via the input queue.
	ExecuteCommand(cmd CommandHandle, args []plexilval.Value)
	// InvokeAbort initiates abort of an in-flight command.
	InvokeAbort(cmd CommandHandle)
	// ExecuteUpdate delivers a planner update.
	ExecuteUpdate(upd UpdateHandle, pairs map[string]plexilval.Value)
	// CurrentTime returns monotonic seconds since an arbitrary epoch.
	CurrentTime() float64
}

// Poster is the env->core direction: callbacks the environment uses to
// post events onto the core's input queue. Implemented by the exec's
// input queue adapter; environments hold a Poster, never the queue
// itself, so posting is always safe to call from another goroutine.
type Poster interface {
	PostLookupReturn(state State, value plexilval.Value)
	PostCommandHandleReturn(cmd CommandHandle, handle plexilval.Value)
	PostCommandReturn(cmd CommandHandle, value plexilval.Value)
	PostCommandAbortAck(cmd CommandHandle, ok bool)
	PostUpdateAck(upd UpdateHandle, ok bool)
}
