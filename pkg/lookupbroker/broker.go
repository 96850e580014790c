// Package lookupbroker implements extiface.ExternalInterface over Redis:
// lookups are resolved from keys, change notification rides Redis pub/sub
// channels, and commands/updates are published as JSON envelopes for a
// separate executor process to pick up and eventually acknowledge back
// through the core's Poster.
package lookupbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taless474/plexil1-sub000/internal/logger"
	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

const (
	lookupKeyPrefix     = "plexil:lookup:"
	lookupChannelPrefix = "plexil:lookup-changed:"
	commandChannel      = "plexil:commands"
	abortChannel        = "plexil:aborts"
	updateChannel       = "plexil:updates"
)

// Broker is a Redis-backed extiface.ExternalInterface. The zero value is
// not usable; construct with New.
type Broker struct {
	client *redis.Client
	poster extiface.Poster
	logger *logger.Logger

	mu   sync.Mutex
	subs map[string]*subscription

	startedAt time.Time
}

type subscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

// Option configures a Broker at construction time.
type Option func(*Broker)

// WithLogger attaches a logger for subscription lifecycle and decode
// failures.
func WithLogger(l *logger.Logger) Option {
	return func(b *Broker) { b.logger = l }
}

// New wraps an existing Redis client as a Broker. poster is where
// lookup/command/update replies observed over pub/sub are delivered back
// into the core.
func New(client *redis.Client, poster extiface.Poster, opts ...Option) *Broker {
	b := &Broker{
		client:    client,
		poster:    poster,
		subs:      make(map[string]*subscription),
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ extiface.ExternalInterface = (*Broker)(nil)

// LookupNow resolves state synchronously from its Redis key. A missing
// key or a decode failure both resolve to Unknown rather than erroring,
// since a lookup miss is ordinary data to the core, not a fault.
func (b *Broker) LookupNow(ctx context.Context, state extiface.State) plexilval.Value {
	raw, err := b.client.Get(ctx, lookupKey(state)).Result()
	if err != nil {
		if b.logger != nil && err != redis.Nil {
			b.logger.Warn("lookup failed", "state", state.Key(), "error", err)
		}
		return plexilval.Unknown(plexilval.TypeUnknown)
	}
	v, err := decodeValue(raw)
	if err != nil {
		if b.logger != nil {
			b.logger.Warn("lookup decode failed", "state", state.Key(), "error", err)
		}
		return plexilval.Unknown(plexilval.TypeUnknown)
	}
	return v
}

// Subscribe begins change notification for state: every message
// published on its change channel is decoded and posted as a
// LookupReturn. Subscribing to an already-subscribed state is a no-op.
func (b *Broker) Subscribe(state extiface.State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := state.Key()
	if _, ok := b.subs[key]; ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, lookupChannel(state))
	b.subs[key] = &subscription{pubsub: pubsub, cancel: cancel}

	go b.listen(ctx, state, pubsub)
}

// Unsubscribe stops change notification for state.
func (b *Broker) Unsubscribe(state extiface.State) {
	b.mu.Lock()
	sub, ok := b.subs[state.Key()]
	if ok {
		delete(b.subs, state.Key())
	}
	b.mu.Unlock()

	if !ok {
		return
	}
	sub.cancel()
	_ = sub.pubsub.Close()
}

// SetThresholds is a best-effort hint only: Redis pub/sub has no
// server-side value filtering, so every change notification still
// arrives, and the state cache passes each one on without comparing it
// against the thresholds.
func (b *Broker) SetThresholds(state extiface.State, hi, lo plexilval.Value) {
	if b.logger != nil {
		b.logger.Debug("thresholds requested but not enforced by broker", "state", state.Key())
	}
}

// ExecuteCommand publishes cmd as a JSON envelope for an external
// executor to pick up; completion arrives later via the core's Poster.
func (b *Broker) ExecuteCommand(cmd extiface.CommandHandle, args []plexilval.Value) {
	b.publish(commandChannel, commandEnvelope{ID: cmd.ID, Name: cmd.Name, Args: args})
}

// InvokeAbort publishes an abort request for an in-flight command.
func (b *Broker) InvokeAbort(cmd extiface.CommandHandle) {
	b.publish(abortChannel, abortEnvelope{ID: cmd.ID, Name: cmd.Name})
}

// ExecuteUpdate publishes a planner update for an external consumer.
func (b *Broker) ExecuteUpdate(upd extiface.UpdateHandle, pairs map[string]plexilval.Value) {
	b.publish(updateChannel, updateEnvelope{ID: upd.ID, Pairs: pairs})
}

// CurrentTime returns seconds elapsed since the broker was constructed.
func (b *Broker) CurrentTime() float64 {
	return time.Since(b.startedAt).Seconds()
}

// Poster returned back to be handed to the executor process so it can
// post results into the same core this broker serves.
func (b *Broker) Poster() extiface.Poster { return b.poster }

func (b *Broker) listen(ctx context.Context, state extiface.State, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			v, err := decodeValue(msg.Payload)
			if err != nil {
				if b.logger != nil {
					b.logger.Warn("lookup change decode failed", "state", state.Key(), "error", err)
				}
				continue
			}
			b.poster.PostLookupReturn(state, v)
		}
	}
}

func (b *Broker) publish(channel string, envelope interface{}) {
	data, err := json.Marshal(envelope)
	if err != nil {
		if b.logger != nil {
			b.logger.Error("failed to marshal envelope", "channel", channel, "error", err)
		}
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil && b.logger != nil {
		b.logger.Error("failed to publish", "channel", channel, "error", err)
	}
}

type commandEnvelope struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Args []plexilval.Value `json:"args"`
}

type abortEnvelope struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type updateEnvelope struct {
	ID    string                      `json:"id"`
	Pairs map[string]plexilval.Value `json:"pairs"`
}

func lookupKey(state extiface.State) string {
	return lookupKeyPrefix + state.Key()
}

func lookupChannel(state extiface.State) string {
	return lookupChannelPrefix + state.Key()
}

func decodeValue(raw string) (plexilval.Value, error) {
	var v plexilval.Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return plexilval.Value{}, fmt.Errorf("lookupbroker: decode value: %w", err)
	}
	return v, nil
}
