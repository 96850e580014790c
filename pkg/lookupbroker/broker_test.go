package lookupbroker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// posterRecorder is a minimal extiface.Poster recording PostLookupReturn
// calls; the broker only ever calls that one method.
type posterRecorder struct {
	lookups []lookupCall
}

type lookupCall struct {
	state extiface.State
	value plexilval.Value
}

func (p *posterRecorder) PostLookupReturn(state extiface.State, value plexilval.Value) {
	p.lookups = append(p.lookups, lookupCall{state: state, value: value})
}
func (p *posterRecorder) PostCommandHandleReturn(extiface.CommandHandle, plexilval.Value) {}
func (p *posterRecorder) PostCommandReturn(extiface.CommandHandle, plexilval.Value)       {}
func (p *posterRecorder) PostCommandAbortAck(extiface.CommandHandle, bool)                {}
func (p *posterRecorder) PostUpdateAck(extiface.UpdateHandle, bool)                       {}

func TestBroker_LookupNowReturnsUnknownWhenKeyMissing(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	b := New(client, &posterRecorder{})

	v := b.LookupNow(context.Background(), extiface.State{Name: "battery"})
	assert.False(t, v.IsKnown())
}

func TestBroker_LookupNowDecodesStoredValue(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	b := New(client, &posterRecorder{})

	state := extiface.State{Name: "battery"}
	data, err := plexilval.Real(42.5).MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, s.Set(lookupKey(state), string(data)))

	v := b.LookupNow(context.Background(), state)
	assert.True(t, v.IsKnown())
	assert.True(t, plexilval.Real(42.5).Equal(v))
}

func TestBroker_SubscribePostsChangeNotificationToPoster(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	poster := &posterRecorder{}
	b := New(client, poster)

	state := extiface.State{Name: "battery"}
	b.Subscribe(state)
	defer b.Unsubscribe(state)

	data, err := plexilval.Int(7).MarshalJSON()
	require.NoError(t, err)

	// Give the subscription goroutine a moment to register before publishing.
	time.Sleep(20 * time.Millisecond)
	_, err = client.Publish(context.Background(), lookupChannel(state), data).Result()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(poster.lookups) > 0
	}, time.Second, 10*time.Millisecond)

	assert.True(t, plexilval.Int(7).Equal(poster.lookups[0].value))
}

func TestBroker_UnsubscribeStopsFurtherNotifications(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	poster := &posterRecorder{}
	b := New(client, poster)

	state := extiface.State{Name: "battery"}
	b.Subscribe(state)
	b.Unsubscribe(state)

	b.mu.Lock()
	_, stillSubscribed := b.subs[state.Key()]
	b.mu.Unlock()
	assert.False(t, stillSubscribed)
}

func TestBroker_CurrentTimeAdvancesMonotonically(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	b := New(client, &posterRecorder{})

	first := b.CurrentTime()
	time.Sleep(5 * time.Millisecond)
	second := b.CurrentTime()
	assert.Greater(t, second, first)
}
