package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

func TestInputQueue_PushDropsWhenFull(t *testing.T) {
	q := NewInputQueue(2)
	assert.True(t, q.Push(InputEntry{Kind: KindMark, MarkSeq: 1}))
	assert.True(t, q.Push(InputEntry{Kind: KindMark, MarkSeq: 2}))
	assert.False(t, q.Push(InputEntry{Kind: KindMark, MarkSeq: 3}))
}

func TestInputQueue_DrainAllDetachesAtomically(t *testing.T) {
	q := NewInputQueue(10)
	q.Push(InputEntry{Kind: KindMark, MarkSeq: 1})
	q.Push(InputEntry{Kind: KindMark, MarkSeq: 2})

	drained := q.DrainAll()
	require.Len(t, drained, 2)
	assert.Empty(t, q.DrainAll())
}

func TestInputQueue_GetLastMarkTracksHighest(t *testing.T) {
	q := NewInputQueue(10)
	q.Push(InputEntry{Kind: KindMark, MarkSeq: 3})
	q.Push(InputEntry{Kind: KindMark, MarkSeq: 1})
	q.DrainAll()
	assert.Equal(t, uint64(3), q.GetLastMark())
}

func TestPoster_PostLookupReturnReachesQueue(t *testing.T) {
	q := NewInputQueue(10)
	p := NewPoster(q)
	state := extiface.State{Name: "battery"}
	p.PostLookupReturn(state, plexilval.Real(0.5))

	drained := q.DrainAll()
	require.Len(t, drained, 1)
	assert.Equal(t, KindLookupReturn, drained[0].Kind)
	assert.True(t, state.Equal(drained[0].LookupState))
	assert.True(t, plexilval.Real(0.5).Equal(drained[0].Value))
}

func TestNodeQueue_FIFOOrder(t *testing.T) {
	var q nodeQueue
	assert.True(t, q.empty())

	a := newTestQueueNode("a")
	b := newTestQueueNode("b")
	q.push(a)
	q.push(b)

	assert.Same(t, a, q.pop())
	assert.Same(t, b, q.pop())
	assert.True(t, q.empty())
	assert.Nil(t, q.pop())
}
