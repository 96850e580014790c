package exec

import (
	"github.com/taless474/plexil1-sub000/pkg/plan"
	"github.com/taless474/plexil1-sub000/pkg/plexilexpr"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

func newTestQueueNode(id string) *plan.Node {
	return plan.NewNode(id, plan.VariantEmpty, nil)
}

// boolConst builds an activated boolean constant, used to wire a node's
// conditions directly to a fixed value in tests.
func boolConst(v bool) *plexilexpr.Constant {
	c := plexilexpr.NewConstant(plexilval.Bool(v))
	c.Activate()
	return c
}
