package plexilexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

func TestScriptExpression_EvaluatesAgainstBoundVariables(t *testing.T) {
	speed := NewVariable(plexilval.TypeReal, nil, false)
	speed.SetValue(plexilval.Real(12.5))

	cache := NewScriptCache(4)
	script := NewScriptExpression("speed > 10.0", plexilval.TypeBool, map[string]Expression{
		"speed": speed,
	}, cache)

	require.True(t, script.IsKnown())
	assert.True(t, script.ValueOf().AsBool())

	speed.SetValue(plexilval.Real(1.0))
	assert.False(t, script.ValueOf().AsBool())
}

func TestScriptExpression_UnknownVariableYieldsUnknown(t *testing.T) {
	x := NewVariable(plexilval.TypeInt, nil, false)
	script := NewScriptExpression("x > 0", plexilval.TypeBool, map[string]Expression{"x": x}, nil)
	assert.False(t, script.IsKnown())
}

func TestScriptExpression_CompileErrorYieldsUnknown(t *testing.T) {
	x := NewVariable(plexilval.TypeInt, nil, false)
	x.SetValue(plexilval.Int(1))
	script := NewScriptExpression("x +++ broken(", plexilval.TypeBool, map[string]Expression{"x": x}, nil)
	assert.False(t, script.IsKnown())
}

func TestScriptCache_ReusesCompiledProgram(t *testing.T) {
	cache := NewScriptCache(2)
	x := NewVariable(plexilval.TypeInt, nil, false)
	x.SetValue(plexilval.Int(5))

	NewScriptExpression("x > 1", plexilval.TypeBool, map[string]Expression{"x": x}, cache)
	assert.Equal(t, 1, cache.Len())

	NewScriptExpression("x > 1", plexilval.TypeBool, map[string]Expression{"x": x}, cache)
	assert.Equal(t, 1, cache.Len(), "same source text should not grow the cache")
}
