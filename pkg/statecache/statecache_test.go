package statecache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

func TestLookupNow_CachedWithinSameCycle(t *testing.T) {
	mock := extiface.NewMockInterface()
	state := extiface.State{Name: "battery"}
	mock.OnLookup(state, plexilval.Real(50))

	cache := New(mock)
	cache.BeginCycle(1)

	v1 := cache.LookupNow(context.Background(), state)
	assert.Equal(t, 50.0, v1.AsReal())

	mock.OnLookup(state, plexilval.Real(99))
	v2 := cache.LookupNow(context.Background(), state)
	assert.Equal(t, 50.0, v2.AsReal(), "same-cycle lookup must not re-fetch")

	cache.BeginCycle(2)
	v3 := cache.LookupNow(context.Background(), state)
	assert.Equal(t, 99.0, v3.AsReal(), "new cycle must refresh")
}

func TestSubscribe_FirstAndLastTransitionsCallInterface(t *testing.T) {
	mock := extiface.NewMockInterface()
	state := extiface.State{Name: "battery"}
	cache := New(mock)

	sub1 := &fakeSubscriber{}
	sub2 := &fakeSubscriber{}

	cache.Subscribe(state, sub1)
	assert.True(t, mock.IsSubscribed(state))

	cache.Subscribe(state, sub2)
	cache.Unsubscribe(state, sub1)
	assert.True(t, mock.IsSubscribed(state), "still has one subscriber")

	cache.Unsubscribe(state, sub2)
	assert.False(t, mock.IsSubscribed(state))
}

func TestReportValue_NotifiesSubscribers(t *testing.T) {
	mock := extiface.NewMockInterface()
	state := extiface.State{Name: "battery"}
	cache := New(mock)

	sub := &fakeSubscriber{}
	cache.Subscribe(state, sub)

	cache.ReportValue(state, plexilval.Real(42))
	assert.Equal(t, 1, sub.notified)

	v, ok := cache.CachedValue(state)
	require.True(t, ok)
	assert.Equal(t, 42.0, v.AsReal())
}

func TestLookupOnChange_SubscribesOnActivateOnly(t *testing.T) {
	mock := extiface.NewMockInterface()
	state := extiface.State{Name: "battery"}
	cache := New(mock)

	lookup := NewLookupOnChange(cache, state, plexilval.TypeReal, nil, nil)
	assert.False(t, lookup.IsKnown())
	assert.False(t, mock.IsSubscribed(state))

	lookup.Activate()
	assert.True(t, mock.IsSubscribed(state))

	cache.ReportValue(state, plexilval.Real(7))
	assert.Equal(t, 7.0, lookup.ValueOf().AsReal())

	lookup.Deactivate()
	assert.False(t, mock.IsSubscribed(state))
}

type fakeSubscriber struct{ notified int }

func (f *fakeSubscriber) NotifyCacheChanged() { f.notified++ }
