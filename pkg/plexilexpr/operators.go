package plexilexpr

import (
	"math"
	"strings"

	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// Op is a derived expression computing its value lazily from a fixed list
// of argument subexpressions. It never recomputes eagerly on notification;
// it only forwards the "possibly changed" signal (§4.1 propagation policy).
type Op struct {
	Base
	args []Expression
	typ  plexilval.ValueType
	fn   func(args []plexilval.Value) plexilval.Value
}

// NewOp builds an Op of the declared result type, applying fn to the
// current values of args whenever ValueOf is called.
func NewOp(typ plexilval.ValueType, fn func(args []plexilval.Value) plexilval.Value, args ...Expression) *Op {
	o := &Op{args: args, typ: typ, fn: fn}
	o.Init(o, args, false)
	for _, a := range args {
		a.AddListener(ListenerFunc(func(Expression) { o.Publish() }))
	}
	return o
}

// ValueOf recomputes the result from the current subexpression values.
func (o *Op) ValueOf() plexilval.Value {
	vals := make([]plexilval.Value, len(o.args))
	for i, a := range o.args {
		vals[i] = a.ValueOf()
	}
	return o.fn(vals)
}

// IsKnown reports whether the recomputed value is known.
func (o *Op) IsKnown() bool { return o.ValueOf().IsKnown() }

// Type returns the operator's declared result type.
func (o *Op) Type() plexilval.ValueType { return o.typ }

// --- Boolean operators -----------------------------------------------

// And implements n-ary logical AND with PLEXIL's Unknown-propagation rule:
// a known False operand makes the whole conjunction False even if other
// operands are Unknown; otherwise any Unknown operand makes the result
// Unknown.
func And(args ...Expression) *Op {
	return NewOp(plexilval.TypeBool, func(vals []plexilval.Value) plexilval.Value {
		sawUnknown := false
		for _, v := range vals {
			if !v.IsKnown() {
				sawUnknown = true
				continue
			}
			if v.Type() == plexilval.TypeBool && !v.AsBool() {
				return plexilval.Bool(false)
			}
		}
		if sawUnknown {
			return plexilval.Unknown(plexilval.TypeBool)
		}
		return plexilval.Bool(true)
	}, args...)
}

// Or implements n-ary logical OR with the dual rule: a known True operand
// makes the result True regardless of other operands.
func Or(args ...Expression) *Op {
	return NewOp(plexilval.TypeBool, func(vals []plexilval.Value) plexilval.Value {
		sawUnknown := false
		for _, v := range vals {
			if !v.IsKnown() {
				sawUnknown = true
				continue
			}
			if v.Type() == plexilval.TypeBool && v.AsBool() {
				return plexilval.Bool(true)
			}
		}
		if sawUnknown {
			return plexilval.Unknown(plexilval.TypeBool)
		}
		return plexilval.Bool(false)
	}, args...)
}

// Not implements logical negation.
func Not(arg Expression) *Op {
	return NewOp(plexilval.TypeBool, func(vals []plexilval.Value) plexilval.Value {
		if !vals[0].IsKnown() {
			return plexilval.Unknown(plexilval.TypeBool)
		}
		return plexilval.Bool(!vals[0].AsBool())
	}, arg)
}

// --- Comparison operators ----------------------------------------------

// Eq implements equality comparison.
func Eq(a, b Expression) *Op {
	return NewOp(plexilval.TypeBool, func(vals []plexilval.Value) plexilval.Value {
		if !vals[0].IsKnown() || !vals[1].IsKnown() {
			return plexilval.Unknown(plexilval.TypeBool)
		}
		return plexilval.Bool(vals[0].Equal(vals[1]))
	}, a, b)
}

// Ne implements inequality comparison.
func Ne(a, b Expression) *Op {
	return NewOp(plexilval.TypeBool, func(vals []plexilval.Value) plexilval.Value {
		if !vals[0].IsKnown() || !vals[1].IsKnown() {
			return plexilval.Unknown(plexilval.TypeBool)
		}
		return plexilval.Bool(!vals[0].Equal(vals[1]))
	}, a, b)
}

func compareOp(sym func(c int) bool) func(args []plexilval.Value) plexilval.Value {
	return func(vals []plexilval.Value) plexilval.Value {
		if !vals[0].IsKnown() || !vals[1].IsKnown() {
			return plexilval.Unknown(plexilval.TypeBool)
		}
		return plexilval.Bool(sym(vals[0].Compare(vals[1])))
	}
}

// Lt implements less-than.
func Lt(a, b Expression) *Op { return NewOp(plexilval.TypeBool, compareOp(func(c int) bool { return c < 0 }), a, b) }

// Le implements less-than-or-equal.
func Le(a, b Expression) *Op {
	return NewOp(plexilval.TypeBool, compareOp(func(c int) bool { return c <= 0 }), a, b)
}

// Gt implements greater-than.
func Gt(a, b Expression) *Op { return NewOp(plexilval.TypeBool, compareOp(func(c int) bool { return c > 0 }), a, b) }

// Ge implements greater-than-or-equal.
func Ge(a, b Expression) *Op {
	return NewOp(plexilval.TypeBool, compareOp(func(c int) bool { return c >= 0 }), a, b)
}

// --- Arithmetic operators -----------------------------------------------

func arithResultType(a, b plexilval.ValueType) plexilval.ValueType {
	if a == plexilval.TypeReal || b == plexilval.TypeReal {
		return plexilval.TypeReal
	}
	return plexilval.TypeInt
}

func arithOp(intFn func(x, y int32) int32, realFn func(x, y float64) float64) func(vals []plexilval.Value) plexilval.Value {
	return func(vals []plexilval.Value) plexilval.Value {
		a, b := vals[0], vals[1]
		if !a.IsKnown() || !b.IsKnown() {
			return plexilval.Unknown(arithResultType(a.Type(), b.Type()))
		}
		if a.Type() == plexilval.TypeReal || b.Type() == plexilval.TypeReal {
			return plexilval.Real(realFn(a.AsReal(), b.AsReal()))
		}
		return plexilval.Int(intFn(a.AsInt(), b.AsInt()))
	}
}

// Add implements addition with Int/Real promotion.
func Add(a, b Expression) *Op {
	typ := arithResultType(a.Type(), b.Type())
	return NewOp(typ, arithOp(func(x, y int32) int32 { return x + y }, func(x, y float64) float64 { return x + y }), a, b)
}

// Sub implements subtraction.
func Sub(a, b Expression) *Op {
	typ := arithResultType(a.Type(), b.Type())
	return NewOp(typ, arithOp(func(x, y int32) int32 { return x - y }, func(x, y float64) float64 { return x - y }), a, b)
}

// Mul implements multiplication.
func Mul(a, b Expression) *Op {
	typ := arithResultType(a.Type(), b.Type())
	return NewOp(typ, arithOp(func(x, y int32) int32 { return x * y }, func(x, y float64) float64 { return x * y }), a, b)
}

// Div implements division. Integer division by zero and real division by
// zero both yield Unknown rather than panicking — the expression graph
// never panics on plan data, only on contract violations (§7).
func Div(a, b Expression) *Op {
	typ := arithResultType(a.Type(), b.Type())
	return NewOp(typ, func(vals []plexilval.Value) plexilval.Value {
		x, y := vals[0], vals[1]
		if !x.IsKnown() || !y.IsKnown() {
			return plexilval.Unknown(typ)
		}
		if typ == plexilval.TypeReal {
			if y.AsReal() == 0 {
				return plexilval.Unknown(typ)
			}
			return plexilval.Real(x.AsReal() / y.AsReal())
		}
		if y.AsInt() == 0 {
			return plexilval.Unknown(typ)
		}
		return plexilval.Int(x.AsInt() / y.AsInt())
	}, a, b)
}

// Mod implements the modulo operator (integer only).
func Mod(a, b Expression) *Op {
	return NewOp(plexilval.TypeInt, func(vals []plexilval.Value) plexilval.Value {
		x, y := vals[0], vals[1]
		if !x.IsKnown() || !y.IsKnown() || y.AsInt() == 0 {
			return plexilval.Unknown(plexilval.TypeInt)
		}
		return plexilval.Int(x.AsInt() % y.AsInt())
	}, a, b)
}

// Abs implements absolute value.
func Abs(a Expression) *Op {
	typ := a.Type()
	return NewOp(typ, func(vals []plexilval.Value) plexilval.Value {
		if !vals[0].IsKnown() {
			return plexilval.Unknown(typ)
		}
		if typ == plexilval.TypeReal {
			return plexilval.Real(math.Abs(vals[0].AsReal()))
		}
		v := vals[0].AsInt()
		if v < 0 {
			v = -v
		}
		return plexilval.Int(v)
	}, a)
}

// Neg implements arithmetic negation.
func Neg(a Expression) *Op {
	typ := a.Type()
	return NewOp(typ, func(vals []plexilval.Value) plexilval.Value {
		if !vals[0].IsKnown() {
			return plexilval.Unknown(typ)
		}
		if typ == plexilval.TypeReal {
			return plexilval.Real(-vals[0].AsReal())
		}
		return plexilval.Int(-vals[0].AsInt())
	}, a)
}

// --- String operators -----------------------------------------------

// Concat implements n-ary string concatenation.
func Concat(args ...Expression) *Op {
	return NewOp(plexilval.TypeString, func(vals []plexilval.Value) plexilval.Value {
		var b strings.Builder
		for _, v := range vals {
			if !v.IsKnown() {
				return plexilval.Unknown(plexilval.TypeString)
			}
			b.WriteString(v.AsString())
		}
		return plexilval.Str(b.String())
	}, args...)
}

// StringLength returns the length of a string expression.
func StringLength(a Expression) *Op {
	return NewOp(plexilval.TypeInt, func(vals []plexilval.Value) plexilval.Value {
		if !vals[0].IsKnown() {
			return plexilval.Unknown(plexilval.TypeInt)
		}
		return plexilval.Int(int32(len(vals[0].AsString())))
	}, a)
}

// --- Array operators -----------------------------------------------

// ArraySize returns the declared length of an array expression. The size
// itself is always known once the array expression is known, even if
// individual elements are Unknown.
func ArraySize(a Expression) *Op {
	return NewOp(plexilval.TypeInt, func(vals []plexilval.Value) plexilval.Value {
		if !vals[0].IsKnown() {
			return plexilval.Unknown(plexilval.TypeInt)
		}
		arr := vals[0].AsArray()
		if arr == nil {
			return plexilval.Unknown(plexilval.TypeInt)
		}
		return plexilval.Int(int32(arr.Len()))
	}, a)
}

// IsKnownOf wraps any expression, returning a Bool expression that is
// always known and reports the wrapped expression's known status. Used by
// conditions that must branch on "is this value known yet", per §4.3's
// handling of Unknown as "defer".
func IsKnownOf(a Expression) *Op {
	return NewOp(plexilval.TypeBool, func(vals []plexilval.Value) plexilval.Value {
		return plexilval.Bool(vals[0].IsKnown())
	}, a)
}
