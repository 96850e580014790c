package plexilexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

func TestAnd_KnownFalseShortCircuitsUnknown(t *testing.T) {
	falseVar := NewVariable(plexilval.TypeBool, nil, false)
	falseVar.SetValue(plexilval.Bool(false))
	unknownVar := NewVariable(plexilval.TypeBool, nil, false)

	and := And(falseVar, unknownVar)
	assert.True(t, and.IsKnown())
	assert.False(t, and.ValueOf().AsBool())
}

func TestAnd_UnknownOperandYieldsUnknown(t *testing.T) {
	trueVar := NewVariable(plexilval.TypeBool, nil, false)
	trueVar.SetValue(plexilval.Bool(true))
	unknownVar := NewVariable(plexilval.TypeBool, nil, false)

	and := And(trueVar, unknownVar)
	assert.False(t, and.IsKnown())
}

func TestOr_KnownTrueShortCircuits(t *testing.T) {
	trueVar := NewVariable(plexilval.TypeBool, nil, false)
	trueVar.SetValue(plexilval.Bool(true))
	unknownVar := NewVariable(plexilval.TypeBool, nil, false)

	or := Or(trueVar, unknownVar)
	assert.True(t, or.IsKnown())
	assert.True(t, or.ValueOf().AsBool())
}

func TestArithmetic_IntRealPromotion(t *testing.T) {
	i := NewConstant(plexilval.Int(3))
	r := NewConstant(plexilval.Real(1.5))

	sum := Add(i, r)
	assert.Equal(t, plexilval.TypeReal, sum.Type())
	assert.Equal(t, 4.5, sum.ValueOf().AsReal())
}

func TestDiv_ByZeroYieldsUnknown(t *testing.T) {
	num := NewConstant(plexilval.Int(10))
	zero := NewConstant(plexilval.Int(0))
	div := Div(num, zero)
	assert.False(t, div.IsKnown())
}

func TestCompare_Ordering(t *testing.T) {
	a := NewConstant(plexilval.Int(1))
	b := NewConstant(plexilval.Int(2))
	assert.True(t, Lt(a, b).ValueOf().AsBool())
	assert.True(t, Le(a, b).ValueOf().AsBool())
	assert.True(t, Ge(b, a).ValueOf().AsBool())
	assert.False(t, Gt(a, b).ValueOf().AsBool())
}

func TestConcat(t *testing.T) {
	a := NewConstant(plexilval.Str("foo"))
	b := NewConstant(plexilval.Str("bar"))
	assert.Equal(t, "foobar", Concat(a, b).ValueOf().AsString())
}

func TestArraySize(t *testing.T) {
	arr := plexilval.NewArray(plexilval.TypeInt, 4)
	arrVar := NewVariable(plexilval.ArrayOf(plexilval.TypeInt), nil, false)
	arrVar.SetValue(plexilval.ArrayValue(arr))

	size := ArraySize(arrVar)
	assert.Equal(t, int32(4), size.ValueOf().AsInt())
}

func TestIsKnownOf(t *testing.T) {
	v := NewVariable(plexilval.TypeInt, nil, false)
	wrapped := IsKnownOf(v)
	assert.True(t, wrapped.IsKnown())
	assert.False(t, wrapped.ValueOf().AsBool())

	v.SetValue(plexilval.Int(1))
	assert.True(t, wrapped.ValueOf().AsBool())
}
