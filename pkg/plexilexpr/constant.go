package plexilexpr

import "github.com/taless474/plexil1-sub000/pkg/plexilval"

// Constant is an immutable propagation-source expression: its value never
// changes after construction, so it never needs to publish.
type Constant struct {
	Base
	value plexilval.Value
}

// NewConstant wraps v as a Constant expression.
func NewConstant(v plexilval.Value) *Constant {
	c := &Constant{value: v}
	c.Init(c, nil, true)
	return c
}

// ValueOf returns the constant value.
func (c *Constant) ValueOf() plexilval.Value { return c.value }

// IsKnown reports whether the constant carries a known payload.
func (c *Constant) IsKnown() bool { return c.value.IsKnown() }

// Type returns the constant's declared type.
func (c *Constant) Type() plexilval.ValueType { return c.value.Type() }
