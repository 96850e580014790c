// Package statecache implements the state cache described in §4.2: the
// single source of truth the exec consults for external lookups, with
// at-most-once-per-cycle refresh semantics and subscription bookkeeping
// that drives the external interface's change-notification plumbing.
package statecache

import (
	"context"
	"sync"

	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// Subscriber is the capability a cache entry's subscriber set needs: a
// way to be told the cached value may have changed. LookupOnChange
// implements this by publishing itself; a plain Lookup does not subscribe.
type Subscriber interface {
	NotifyCacheChanged()
}

// entry holds the bookkeeping for one State (§3 StateCacheEntry).
type entry struct {
	mu              sync.Mutex
	lastValue       plexilval.Value
	lastUpdateCycle int64
	hasValue        bool
	subscribers     map[Subscriber]struct{}
	hasThresholds   bool
	hi, lo          plexilval.Value
}

// Cache is the exec's single state cache instance.
type Cache struct {
	mu      sync.RWMutex
	iface   extiface.ExternalInterface
	entries map[string]*entry
	cycle   int64
}

// New creates a Cache backed by iface.
func New(iface extiface.ExternalInterface) *Cache {
	return &Cache{iface: iface, entries: make(map[string]*entry)}
}

// BeginCycle records the current cycle index, used to decide whether a
// cached value is still fresh for this step.
func (c *Cache) BeginCycle(cycle int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycle = cycle
}

func (c *Cache) entryFor(state extiface.State) *entry {
	key := state.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{subscribers: make(map[Subscriber]struct{})}
		c.entries[key] = e
	}
	return e
}

// LookupNow returns the cached value if it was refreshed during the
// current cycle; otherwise it requests a fresh value from the external
// interface and caches it, stamped with the current cycle.
func (c *Cache) LookupNow(ctx context.Context, state extiface.State) plexilval.Value {
	e := c.entryFor(state)

	c.mu.RLock()
	cycle := c.cycle
	c.mu.RUnlock()

	e.mu.Lock()
	if e.hasValue && e.lastUpdateCycle == cycle {
		v := e.lastValue
		e.mu.Unlock()
		return v
	}
	e.mu.Unlock()

	v := c.iface.LookupNow(ctx, state)
	e.mu.Lock()
	e.lastValue = v
	e.lastUpdateCycle = cycle
	e.hasValue = true
	e.mu.Unlock()
	return v
}

// Subscribe adds sub to state's subscriber set. The first subscriber for
// a state asks the interface to begin reporting changes.
func (c *Cache) Subscribe(state extiface.State, sub Subscriber) {
	e := c.entryFor(state)
	e.mu.Lock()
	_, already := e.subscribers[sub]
	e.subscribers[sub] = struct{}{}
	first := !already && len(e.subscribers) == 1
	e.mu.Unlock()

	if first {
		c.iface.Subscribe(state)
	}
}

// Unsubscribe removes sub from state's subscriber set. Dropping the last
// subscriber asks the interface to stop reporting changes.
func (c *Cache) Unsubscribe(state extiface.State, sub Subscriber) {
	e := c.entryFor(state)
	e.mu.Lock()
	delete(e.subscribers, sub)
	last := len(e.subscribers) == 0
	e.mu.Unlock()

	if last {
		c.iface.Unsubscribe(state)
	}
}

// SetThresholds records hi and lo on state's entry and, if state has at
// least one subscriber, asks the environment to report changes only when
// the value crosses hi or lo. With no subscriber it only records them; a
// later Subscribe does not forward them. ReportValue does not consult the
// recorded thresholds: every reported value notifies every subscriber.
func (c *Cache) SetThresholds(state extiface.State, hi, lo plexilval.Value) {
	e := c.entryFor(state)
	e.mu.Lock()
	e.hi, e.lo = hi, lo
	e.hasThresholds = true
	hasSubscribers := len(e.subscribers) > 0
	e.mu.Unlock()
	if hasSubscribers {
		c.iface.SetThresholds(state, hi, lo)
	}
}

// ReportValue applies an externally-reported value to state's entry,
// stamping it with the current cycle and notifying every subscriber. This
// is the path driven by the input queue's LookupReturn entries (§4.8).
func (c *Cache) ReportValue(state extiface.State, value plexilval.Value) {
	e := c.entryFor(state)

	c.mu.RLock()
	cycle := c.cycle
	c.mu.RUnlock()

	e.mu.Lock()
	e.lastValue = value
	e.lastUpdateCycle = cycle
	e.hasValue = true
	subs := make([]Subscriber, 0, len(e.subscribers))
	for s := range e.subscribers {
		subs = append(subs, s)
	}
	e.mu.Unlock()

	for _, s := range subs {
		s.NotifyCacheChanged()
	}
}

// CachedValue returns the last reported value for state without touching
// the external interface, along with whether any value has ever been
// cached. Used by LookupOnChange, which relies entirely on subscription
// delivery rather than polling the environment.
func (c *Cache) CachedValue(state extiface.State) (plexilval.Value, bool) {
	e := c.entryFor(state)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastValue, e.hasValue
}
