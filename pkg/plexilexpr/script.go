package plexilexpr

import (
	"sort"

	"github.com/expr-lang/expr"

	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// ScriptExpression is a condition or arithmetic expression written as
// expr-lang source text rather than assembled from Op nodes (§4.10). It
// resolves free variables by name against a fixed binding table captured at
// construction time, and forwards change notifications from every bound
// expression, same as any other derived node.
type ScriptExpression struct {
	Base
	source  string
	typ     plexilval.ValueType
	vars    map[string]Expression
	cache   *ScriptCache
	compile error
}

// NewScriptExpression compiles source against the names in vars and wires
// every bound expression as a subexpression. typ declares the expected
// result type; compilation errors are deferred to ValueOf so construction
// never fails outright (a malformed library script surfaces as a
// persistently Unknown condition rather than a panic).
func NewScriptExpression(source string, typ plexilval.ValueType, vars map[string]Expression, cache *ScriptCache) *ScriptExpression {
	if cache == nil {
		cache = defaultScriptCache
	}
	subs := make([]Expression, 0, len(vars))
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		subs = append(subs, vars[name])
	}

	s := &ScriptExpression{source: source, typ: typ, vars: vars, cache: cache}
	s.Init(s, subs, false)
	for _, sub := range subs {
		sub.AddListener(ListenerFunc(func(Expression) { s.Publish() }))
	}

	if _, found := cache.Get(source); !found {
		env := s.envSkeleton()
		if program, err := expr.Compile(source, expr.Env(env)); err != nil {
			s.compile = err
		} else {
			cache.Put(source, program)
		}
	}
	return s
}

// envSkeleton builds a zero-value environment map of the right shape for
// expr.Compile's static type checking.
func (s *ScriptExpression) envSkeleton() map[string]interface{} {
	env := make(map[string]interface{}, len(s.vars))
	for name, e := range s.vars {
		env[name] = zeroGoValue(e.Type())
	}
	return env
}

func zeroGoValue(t plexilval.ValueType) interface{} {
	switch t {
	case plexilval.TypeBool:
		return false
	case plexilval.TypeInt, plexilval.TypeNodeState, plexilval.TypeNodeOutcome, plexilval.TypeFailureType, plexilval.TypeCommandHandle:
		return int32(0)
	case plexilval.TypeReal:
		return float64(0)
	case plexilval.TypeString:
		return ""
	default:
		return nil
	}
}

// ValueOf evaluates the compiled program against the current variable
// bindings, returning Unknown if compilation failed or any bound variable
// is currently Unknown.
func (s *ScriptExpression) ValueOf() plexilval.Value {
	if s.compile != nil {
		return plexilval.Unknown(s.typ)
	}
	program, found := s.cache.Get(s.source)
	if !found {
		return plexilval.Unknown(s.typ)
	}

	env := make(map[string]interface{}, len(s.vars))
	for name, e := range s.vars {
		if !e.IsKnown() {
			return plexilval.Unknown(s.typ)
		}
		env[name] = toGoValue(e.ValueOf())
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return plexilval.Unknown(s.typ)
	}
	return fromGoValue(s.typ, result)
}

// IsKnown reports whether evaluation currently yields a known value.
func (s *ScriptExpression) IsKnown() bool { return s.ValueOf().IsKnown() }

// Type returns the expression's declared result type.
func (s *ScriptExpression) Type() plexilval.ValueType { return s.typ }

func toGoValue(v plexilval.Value) interface{} {
	switch v.Type() {
	case plexilval.TypeBool:
		return v.AsBool()
	case plexilval.TypeReal:
		return v.AsReal()
	case plexilval.TypeString:
		return v.AsString()
	case plexilval.TypeInt, plexilval.TypeNodeState, plexilval.TypeNodeOutcome, plexilval.TypeFailureType, plexilval.TypeCommandHandle:
		return v.AsInt()
	default:
		return nil
	}
}

func fromGoValue(typ plexilval.ValueType, result interface{}) plexilval.Value {
	switch typ {
	case plexilval.TypeBool:
		if b, ok := result.(bool); ok {
			return plexilval.Bool(b)
		}
	case plexilval.TypeReal:
		switch n := result.(type) {
		case float64:
			return plexilval.Real(n)
		case int:
			return plexilval.Real(float64(n))
		case int32:
			return plexilval.Real(float64(n))
		}
	case plexilval.TypeString:
		if str, ok := result.(string); ok {
			return plexilval.Str(str)
		}
	case plexilval.TypeInt:
		switch n := result.(type) {
		case int:
			return plexilval.Int(int32(n))
		case int32:
			return plexilval.Int(n)
		case float64:
			return plexilval.Int(int32(n))
		}
	}
	return plexilval.Unknown(typ)
}
