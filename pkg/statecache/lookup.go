package statecache

import (
	"context"

	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/plexilexpr"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// Lookup is a plain LookupNow expression: every ValueOf call resolves
// through the cache (fresh at most once per cycle), with no standing
// environment subscription.
type Lookup struct {
	plexilexpr.Base
	cache *Cache
	state extiface.State
	typ   plexilval.ValueType
}

// NewLookup builds a Lookup over state, declared to yield values of typ.
func NewLookup(cache *Cache, state extiface.State, typ plexilval.ValueType) *Lookup {
	l := &Lookup{cache: cache, state: state, typ: typ}
	l.Init(l, nil, true)
	return l
}

// ValueOf resolves the lookup through the cache.
func (l *Lookup) ValueOf() plexilval.Value {
	return l.cache.LookupNow(context.Background(), l.state)
}

// IsKnown reports whether the resolved value is known.
func (l *Lookup) IsKnown() bool { return l.ValueOf().IsKnown() }

// Type returns the lookup's declared result type.
func (l *Lookup) Type() plexilval.ValueType { return l.typ }

// LookupOnChange is a subscribing lookup: it registers with the cache on
// activation and reads purely from the cache's last-reported value,
// relying on the environment to push changes rather than polling.
type LookupOnChange struct {
	plexilexpr.Base
	cache  *Cache
	state  extiface.State
	typ    plexilval.ValueType
	hi, lo *plexilval.Value
}

// NewLookupOnChange builds a LookupOnChange over state. hi/lo, if
// non-nil, are forwarded to SetThresholds on activation (§4.2).
func NewLookupOnChange(cache *Cache, state extiface.State, typ plexilval.ValueType, hi, lo *plexilval.Value) *LookupOnChange {
	l := &LookupOnChange{cache: cache, state: state, typ: typ, hi: hi, lo: lo}
	l.Init(l, nil, true)
	return l
}

// ValueOf returns the cache's last reported value, or Unknown if nothing
// has ever been reported.
func (l *LookupOnChange) ValueOf() plexilval.Value {
	v, ok := l.cache.CachedValue(l.state)
	if !ok {
		return plexilval.Unknown(l.typ)
	}
	return v
}

// IsKnown reports whether a value has been reported and is known.
func (l *LookupOnChange) IsKnown() bool { return l.ValueOf().IsKnown() }

// Type returns the lookup's declared result type.
func (l *LookupOnChange) Type() plexilval.ValueType { return l.typ }

// Activate subscribes with the cache on the zero-to-one transition, in
// addition to the base refcount bookkeeping.
func (l *LookupOnChange) Activate() {
	first := !l.Base.IsActive()
	l.Base.Activate()
	if first {
		l.cache.Subscribe(l.state, l)
		if l.hi != nil || l.lo != nil {
			hi, lo := plexilval.Unknown(l.typ), plexilval.Unknown(l.typ)
			if l.hi != nil {
				hi = *l.hi
			}
			if l.lo != nil {
				lo = *l.lo
			}
			l.cache.SetThresholds(l.state, hi, lo)
		}
	}
}

// Deactivate unsubscribes with the cache on the one-to-zero transition.
func (l *LookupOnChange) Deactivate() {
	l.Base.Deactivate()
	if !l.Base.IsActive() {
		l.cache.Unsubscribe(l.state, l)
	}
}

// NotifyCacheChanged implements Subscriber by republishing to this
// expression's own listeners.
func (l *LookupOnChange) NotifyCacheChanged() { l.Publish() }
