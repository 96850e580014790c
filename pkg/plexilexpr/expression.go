// Package plexilexpr implements the lazily-computed, refcount-activated
// expression graph described in §4.1: a directed change-notification
// network in which derived expressions forward "possibly changed" signals
// without eagerly recomputing, and activation recursively propagates to
// subexpressions only on the zero-to-one and one-to-zero transitions.
package plexilexpr

import (
	"sync"

	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// Expression is the capability set every node of the graph implements:
// value-of, is-known, activate/deactivate, propagation-source marking, and
// listener membership.
type Expression interface {
	ValueOf() plexilval.Value
	IsKnown() bool
	Type() plexilval.ValueType
	Activate()
	Deactivate()
	IsActive() bool
	IsPropagationSource() bool
	AddListener(l Listener)
	RemoveListener(l Listener)
	Subexpressions() []Expression
}

// Listener receives change notifications. A comparable Listener (such as
// a pointer) is keyed by identity, so the same value added twice is a
// no-op (set semantics). A ListenerFunc is not comparable: each
// AddListener of one registers a separate entry, and RemoveListener
// cannot remove it.
type Listener interface {
	NotifyChanged(source Expression)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(source Expression)

// NotifyChanged implements Listener.
func (f ListenerFunc) NotifyChanged(source Expression) { f(source) }

// Base implements the shared activation/listener/subexpression bookkeeping
// that every concrete Expression embeds. It holds a reference to the
// embedding expression ("self") so it can pass the correct source in
// notifications and recurse into subexpressions.
type Base struct {
	mu        sync.Mutex
	self      Expression
	refCount  int
	listeners map[Listener]struct{}
	subexprs  []Expression
	isSource  bool
}

// Init must be called once by the embedding type's constructor, supplying
// itself as self (so notifications carry the concrete expression, not the
// Base) and its subexpression list.
func (b *Base) Init(self Expression, subexprs []Expression, isPropagationSource bool) {
	b.self = self
	b.subexprs = subexprs
	b.isSource = isPropagationSource
	b.listeners = make(map[Listener]struct{})
}

// Activate increments the refcount; on the zero-to-one transition it
// recursively activates every subexpression.
func (b *Base) Activate() {
	b.mu.Lock()
	b.refCount++
	first := b.refCount == 1
	subs := b.subexprs
	b.mu.Unlock()

	if first {
		for _, se := range subs {
			se.Activate()
		}
	}
}

// Deactivate decrements the refcount; on the one-to-zero transition it
// recursively deactivates every subexpression.
func (b *Base) Deactivate() {
	b.mu.Lock()
	if b.refCount > 0 {
		b.refCount--
	}
	last := b.refCount == 0
	subs := b.subexprs
	b.mu.Unlock()

	if last {
		for _, se := range subs {
			se.Deactivate()
		}
	}
}

// IsActive reports whether the refcount is above zero.
func (b *Base) IsActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refCount > 0
}

// IsPropagationSource reports whether this expression's value may change
// without any subexpression changing.
func (b *Base) IsPropagationSource() bool { return b.isSource }

// AddListener registers l, suppressing duplicates by identity. A
// ListenerFunc is stored behind a fresh pointer, since a func value
// cannot be a map key.
func (b *Base) AddListener(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := l.(ListenerFunc); ok {
		l = &f
	}
	b.listeners[l] = struct{}{}
}

// RemoveListener unregisters l. It does nothing for a ListenerFunc.
func (b *Base) RemoveListener(l Listener) {
	if _, ok := l.(ListenerFunc); ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, l)
}

// Subexpressions returns the expression's owned subexpressions.
func (b *Base) Subexpressions() []Expression { return b.subexprs }

// Publish fans out a change notification to every listener, using self as
// the notified source. Listener invocation order is unspecified; per §4.1
// it must be finite and must not reenter the publishing expression, so
// Publish takes a snapshot of the listener set before calling out.
func (b *Base) Publish() {
	b.mu.Lock()
	self := b.self
	snapshot := make([]Listener, 0, len(b.listeners))
	for l := range b.listeners {
		snapshot = append(snapshot, l)
	}
	b.mu.Unlock()

	for _, l := range snapshot {
		l.NotifyChanged(self)
	}
}
