package plan

import "github.com/taless474/plexil1-sub000/pkg/plexilexpr"

// UpdatePair is one name/value entry of an Update's payload.
type UpdatePair struct {
	Name  string
	Value plexilexpr.Expression
}

// Update is the body of an Update node (§3).
type Update struct {
	Pairs  []UpdatePair
	AckVar *plexilexpr.Variable

	// ID identifies this update instance for ack routing through the
	// input queue.
	ID string
}
