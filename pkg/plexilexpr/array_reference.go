package plexilexpr

import "github.com/taless474/plexil1-sub000/pkg/plexilval"

// ArrayReference is a read-only composite of (array-expression,
// index-expression). It propagates changes from either operand and yields
// Unknown for an out-of-range or unknown index (§3).
type ArrayReference struct {
	Base
	arrayExpr Expression
	indexExpr Expression
}

// NewArrayReference builds an ArrayReference over arrayExpr[indexExpr].
func NewArrayReference(arrayExpr, indexExpr Expression) *ArrayReference {
	r := &ArrayReference{arrayExpr: arrayExpr, indexExpr: indexExpr}
	r.Init(r, []Expression{arrayExpr, indexExpr}, false)
	arrayExpr.AddListener(ListenerFunc(func(Expression) { r.Publish() }))
	indexExpr.AddListener(ListenerFunc(func(Expression) { r.Publish() }))
	return r
}

// ValueOf reads the current element, or Unknown if the array or index is
// unknown or the index is out of range.
func (r *ArrayReference) ValueOf() plexilval.Value {
	if !r.indexExpr.IsKnown() || !r.arrayExpr.IsKnown() {
		return plexilval.Unknown(r.Type())
	}
	idx := r.indexExpr.ValueOf()
	if idx.Type() != plexilval.TypeInt {
		return plexilval.Unknown(r.Type())
	}
	arr := r.arrayExpr.ValueOf().AsArray()
	return arr.Get(int(idx.AsInt()))
}

// IsKnown reports whether the referenced element is currently known.
func (r *ArrayReference) IsKnown() bool { return r.ValueOf().IsKnown() }

// Type returns the array's element type.
func (r *ArrayReference) Type() plexilval.ValueType { return r.arrayExpr.Type().ElementType() }

// MutableArrayReference is the writable counterpart: writes go through the
// underlying array Variable, mutating in place and republishing.
type MutableArrayReference struct {
	Base
	arrayVar  *Variable
	indexExpr Expression
}

// NewMutableArrayReference builds a writable reference into arrayVar at
// indexExpr.
func NewMutableArrayReference(arrayVar *Variable, indexExpr Expression) *MutableArrayReference {
	r := &MutableArrayReference{arrayVar: arrayVar, indexExpr: indexExpr}
	r.Init(r, []Expression{arrayVar, indexExpr}, false)
	arrayVar.AddListener(ListenerFunc(func(Expression) { r.Publish() }))
	indexExpr.AddListener(ListenerFunc(func(Expression) { r.Publish() }))
	return r
}

// ValueOf reads the current element.
func (r *MutableArrayReference) ValueOf() plexilval.Value {
	if !r.indexExpr.IsKnown() {
		return plexilval.Unknown(r.Type())
	}
	idx := r.indexExpr.ValueOf()
	if idx.Type() != plexilval.TypeInt {
		return plexilval.Unknown(r.Type())
	}
	arr := r.arrayVar.ArrayValue()
	return arr.Get(int(idx.AsInt()))
}

// IsKnown reports whether the referenced element is currently known.
func (r *MutableArrayReference) IsKnown() bool { return r.ValueOf().IsKnown() }

// Type returns the array's element type.
func (r *MutableArrayReference) Type() plexilval.ValueType {
	return r.arrayVar.Type().ElementType()
}

// SetValue writes nv into the referenced element. An unknown index is a
// write-time plan error per §3 and reports false.
func (r *MutableArrayReference) SetValue(nv plexilval.Value, declaredLength int) bool {
	if !r.indexExpr.IsKnown() {
		return false
	}
	idx := r.indexExpr.ValueOf()
	if idx.Type() != plexilval.TypeInt {
		return false
	}
	return r.arrayVar.SetElement(int(idx.AsInt()), nv, declaredLength)
}

// Index returns the index expression, used by callers needing the
// concrete index for diagnostics.
func (r *MutableArrayReference) Index() Expression { return r.indexExpr }

// ArrayVariable exposes the underlying array Variable.
func (r *MutableArrayReference) ArrayVariable() *Variable { return r.arrayVar }
