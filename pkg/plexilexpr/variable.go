package plexilexpr

import (
	"sync"

	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// Variable is a leaf, mutable, source expression holding a current value
// and a one-deep saved value for assignment rollback (§3). A Variable is
// itself a propagation source: its value can change (via SetValue) without
// any subexpression changing.
type Variable struct {
	Base

	mu          sync.Mutex
	typ         plexilval.ValueType
	value       plexilval.Value
	hasSaved    bool
	saved       plexilval.Value
	initializer Expression
	garbage     bool // whether the initializer should be destroyed with this variable
}

// NewVariable creates a Variable of the given type, initially Unknown
// unless an initializer expression is supplied. garbage records whether
// the initializer is owned (and so should be torn down) by this variable.
func NewVariable(typ plexilval.ValueType, initializer Expression, garbage bool) *Variable {
	v := &Variable{typ: typ, initializer: initializer, garbage: garbage}
	var subs []Expression
	if initializer != nil {
		subs = []Expression{initializer}
	}
	v.Init(v, subs, true)
	if initializer != nil && initializer.IsKnown() {
		v.value = initializer.ValueOf()
	} else {
		v.value = plexilval.Unknown(typ)
	}
	return v
}

// ValueOf returns the current value.
func (v *Variable) ValueOf() plexilval.Value {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// IsKnown reports whether the current value is known.
func (v *Variable) IsKnown() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value.IsKnown()
}

// Type returns the variable's declared type.
func (v *Variable) Type() plexilval.ValueType { return v.typ }

// SetValue assigns a new value and publishes a change notification if the
// variable is active (inactive expressions do not propagate, per §4.1).
func (v *Variable) SetValue(nv plexilval.Value) {
	v.mu.Lock()
	v.value = nv
	v.mu.Unlock()

	if v.IsActive() {
		v.Publish()
	}
}

// Reset restores the variable to Unknown (or its initializer's value, if
// any), used when a node is reset for a new iteration.
func (v *Variable) Reset() {
	if v.initializer != nil && v.initializer.IsKnown() {
		v.SetValue(v.initializer.ValueOf())
		return
	}
	v.SetValue(plexilval.Unknown(v.typ))
}

// SaveCurrentValue copies the current value into the one-deep saved slot,
// overwriting any previously saved value. An array value is deep-copied,
// so later SetElement writes do not reach the saved copy.
func (v *Variable) SaveCurrentValue() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.saved = v.value
	if arr := v.value.AsArray(); arr != nil {
		v.saved = plexilval.ArrayValue(arr.Clone())
	}
	v.hasSaved = true
}

// RestoreSavedValue restores the saved value (if any) as current, and
// publishes the change. This is a no-op if nothing was ever saved.
func (v *Variable) RestoreSavedValue() {
	v.mu.Lock()
	if !v.hasSaved {
		v.mu.Unlock()
		return
	}
	nv := v.saved
	v.mu.Unlock()
	v.SetValue(nv)
}

// IsGarbage reports whether the initializer expression is owned by this
// variable and should be destroyed alongside it.
func (v *Variable) IsGarbage() bool { return v.garbage }

// Initializer returns the initializer expression, or nil.
func (v *Variable) Initializer() Expression { return v.initializer }

// ArrayValue returns the backing *plexilval.Array for an array-typed
// variable, or nil if unknown or not array-typed.
func (v *Variable) ArrayValue() *plexilval.Array {
	cur := v.ValueOf()
	if !cur.Type().IsArray() {
		return nil
	}
	return cur.AsArray()
}

// SetElement writes nv into index of the backing array, allocating storage
// on first write if the array is currently Unknown, then republishes. It
// reports false (a plan error per §3) on an out-of-range index.
func (v *Variable) SetElement(index int, nv plexilval.Value, length int) bool {
	v.mu.Lock()
	arr := v.value.AsArray()
	if arr == nil {
		arr = plexilval.NewArray(v.typ.ElementType(), length)
	}
	ok := arr.Set(index, nv)
	if ok {
		v.value = plexilval.ArrayValue(arr)
	}
	v.mu.Unlock()

	if ok && v.IsActive() {
		v.Publish()
	}
	return ok
}
