// Package exec implements the quiescence loop described in §4.4: the
// macro-step/micro-step model that drains external events, computes node
// destination states, resolves assignment conflicts, commits transitions,
// and fans out completed-cycle records to plan listeners.
package exec

import (
	"sync"
	"sync/atomic"

	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/plan"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// nodeQueue is a singly linked FIFO threaded through plan.Node.Next
// (§3: "All executive work queues are singly linked, intrusively
// threaded through the queued object").
type nodeQueue struct {
	head, tail *plan.Node
}

func (q *nodeQueue) push(n *plan.Node) {
	n.Next = nil
	if q.tail != nil {
		q.tail.Next = n
	} else {
		q.head = n
	}
	q.tail = n
}

func (q *nodeQueue) pop() *plan.Node {
	n := q.head
	if n == nil {
		return nil
	}
	q.head = n.Next
	if q.head == nil {
		q.tail = nil
	}
	n.Next = nil
	return n
}

func (q *nodeQueue) empty() bool { return q.head == nil }

// InputEntry is one variant record of the input queue (§4.8).
type InputEntry struct {
	Kind InputKind

	LookupState extiface.State
	Value       plexilval.Value

	CommandID string
	Handle    plexilval.Value
	AckOK     bool

	UpdateID string

	PlanRoot *plan.Node

	MarkSeq uint64
}

// InputKind discriminates InputEntry variants.
type InputKind int

const (
	KindLookupReturn InputKind = iota
	KindCommandAck
	KindCommandReturn
	KindCommandAbort
	KindUpdateAck
	KindAddPlan
	KindMark
)

// InputQueue is the bounded, typed FIFO described in §4.8: producers
// (external interface callbacks, possibly on other goroutines) push
// entries; the exec drains non-blocking at the start of each step.
type InputQueue struct {
	mu       sync.Mutex
	entries  []InputEntry
	capacity int
	lastMark uint64
}

// NewInputQueue creates a queue bounded at capacity entries. A push past
// capacity is dropped (reported via the bool return) rather than
// blocking, since producers may run on a realtime interface thread that
// must never stall on the exec.
func NewInputQueue(capacity int) *InputQueue {
	return &InputQueue{capacity: capacity}
}

// Push appends e if the queue has room, returning false if it is full.
func (q *InputQueue) Push(e InputEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.capacity {
		return false
	}
	q.entries = append(q.entries, e)
	return true
}

// DrainAll atomically detaches and returns every entry currently queued.
func (q *InputQueue) DrainAll() []InputEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil
	}
	drained := q.entries
	q.entries = nil
	for _, e := range drained {
		if e.Kind == KindMark && e.MarkSeq > q.lastMark {
			q.lastMark = e.MarkSeq
		}
	}
	return drained
}

// GetLastMark reports the highest Mark sequence number drained so far.
func (q *InputQueue) GetLastMark() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastMark
}

// poster adapts an InputQueue to extiface.Poster, the handle the
// environment holds to post events back onto the core without ever
// touching exec internals directly.
type poster struct {
	queue    *InputQueue
	markSeq  uint64
	commands map[string]string // command ID -> command name, for diagnostics only
}

// NewPoster wraps queue as an extiface.Poster.
func NewPoster(queue *InputQueue) extiface.Poster {
	return &poster{queue: queue}
}

func (p *poster) PostLookupReturn(state extiface.State, value plexilval.Value) {
	p.queue.Push(InputEntry{Kind: KindLookupReturn, LookupState: state, Value: value})
}

func (p *poster) PostCommandHandleReturn(cmd extiface.CommandHandle, handle plexilval.Value) {
	p.queue.Push(InputEntry{Kind: KindCommandAck, CommandID: cmd.ID, Handle: handle})
}

func (p *poster) PostCommandReturn(cmd extiface.CommandHandle, value plexilval.Value) {
	p.queue.Push(InputEntry{Kind: KindCommandReturn, CommandID: cmd.ID, Value: value})
}

func (p *poster) PostCommandAbortAck(cmd extiface.CommandHandle, ok bool) {
	p.queue.Push(InputEntry{Kind: KindCommandAbort, CommandID: cmd.ID, AckOK: ok})
}

func (p *poster) PostUpdateAck(upd extiface.UpdateHandle, ok bool) {
	p.queue.Push(InputEntry{Kind: KindUpdateAck, UpdateID: upd.ID, AckOK: ok})
}

// NextMarkSeq returns a monotonically increasing sequence number for a
// new Mark entry.
func NextMarkSeq(counter *uint64) uint64 {
	return atomic.AddUint64(counter, 1)
}
