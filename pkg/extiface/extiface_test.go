package extiface

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

func TestState_Equal(t *testing.T) {
	a := State{Name: "battery", Params: []plexilval.Value{plexilval.Int(1)}}
	b := State{Name: "battery", Params: []plexilval.Value{plexilval.Int(1)}}
	c := State{Name: "battery", Params: []plexilval.Value{plexilval.Int(2)}}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestState_Key_DistinguishesParams(t *testing.T) {
	a := State{Name: "x", Params: []plexilval.Value{plexilval.Int(1)}}
	b := State{Name: "x", Params: []plexilval.Value{plexilval.Int(2)}}
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestMockInterface_LookupNowReturnsRegisteredValue(t *testing.T) {
	m := NewMockInterface()
	state := State{Name: "battery"}
	m.OnLookup(state, plexilval.Real(85.0))

	got := m.LookupNow(context.Background(), state)
	assert.True(t, got.IsKnown())
	assert.Equal(t, 85.0, got.AsReal())
}

func TestMockInterface_LookupNowDefaultsToUnknown(t *testing.T) {
	m := NewMockInterface()
	got := m.LookupNow(context.Background(), State{Name: "unregistered"})
	assert.False(t, got.IsKnown())
}

func TestMockInterface_SubscribeUnsubscribe(t *testing.T) {
	m := NewMockInterface()
	state := State{Name: "battery"}
	m.Subscribe(state)
	assert.True(t, m.IsSubscribed(state))
	m.Unsubscribe(state)
	assert.False(t, m.IsSubscribed(state))
}

func TestMockInterface_RecordsExecutedCommands(t *testing.T) {
	m := NewMockInterface()
	cmd := CommandHandle{ID: "c1", Name: "TakePicture"}
	m.ExecuteCommand(cmd, []plexilval.Value{plexilval.Str("wide")})

	got := m.ExecutedCommands()
	assert.Equal(t, []CommandHandle{cmd}, got)
}
