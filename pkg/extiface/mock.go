package extiface

import (
	"context"
	"sync"

	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// MockInterface is a test double for ExternalInterface: callers register
// canned LookupNow results per state and record every other call for
// later assertion, mirroring the teacher's On<Method>/recorded-call mock
// style rather than a generated mock.
type MockInterface struct {
	mu sync.Mutex

	lookupResults map[string]plexilval.Value
	now           float64

	subscribed   map[string]bool
	thresholds   map[string][2]plexilval.Value
	executed     []executedCommand
	aborted      []CommandHandle
	updates      []executedUpdate
}

type executedCommand struct {
	Handle CommandHandle
	Args   []plexilval.Value
}

type executedUpdate struct {
	Handle UpdateHandle
	Pairs  map[string]plexilval.Value
}

// NewMockInterface creates an empty mock external interface.
func NewMockInterface() *MockInterface {
	return &MockInterface{
		lookupResults: make(map[string]plexilval.Value),
		subscribed:    make(map[string]bool),
		thresholds:    make(map[string][2]plexilval.Value),
	}
}

// OnLookup registers the value LookupNow should return for state.
func (m *MockInterface) OnLookup(state State, v plexilval.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupResults[state.Key()] = v
}

// SetNow sets the value CurrentTime reports.
func (m *MockInterface) SetNow(t float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// LookupNow implements ExternalInterface.
func (m *MockInterface) LookupNow(_ context.Context, state State) plexilval.Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.lookupResults[state.Key()]; ok {
		return v
	}
	return plexilval.Unknown(plexilval.TypeUnknown)
}

// Subscribe implements ExternalInterface.
func (m *MockInterface) Subscribe(state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed[state.Key()] = true
}

// Unsubscribe implements ExternalInterface.
func (m *MockInterface) Unsubscribe(state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribed, state.Key())
}

// IsSubscribed reports whether state currently has an active subscription.
func (m *MockInterface) IsSubscribed(state State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribed[state.Key()]
}

// SetThresholds implements ExternalInterface.
func (m *MockInterface) SetThresholds(state State, hi, lo plexilval.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds[state.Key()] = [2]plexilval.Value{hi, lo}
}

// ExecuteCommand implements ExternalInterface.
func (m *MockInterface) ExecuteCommand(cmd CommandHandle, args []plexilval.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executed = append(m.executed, executedCommand{Handle: cmd, Args: args})
}

// InvokeAbort implements ExternalInterface.
func (m *MockInterface) InvokeAbort(cmd CommandHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aborted = append(m.aborted, cmd)
}

// ExecuteUpdate implements ExternalInterface.
func (m *MockInterface) ExecuteUpdate(upd UpdateHandle, pairs map[string]plexilval.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, executedUpdate{Handle: upd, Pairs: pairs})
}

// CurrentTime implements ExternalInterface.
func (m *MockInterface) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// ExecutedCommands returns the commands passed to ExecuteCommand, in call
// order, for test assertions.
func (m *MockInterface) ExecutedCommands() []CommandHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CommandHandle, len(m.executed))
	for i, c := range m.executed {
		out[i] = c.Handle
	}
	return out
}

// AbortedCommands returns the commands passed to InvokeAbort, in call order.
func (m *MockInterface) AbortedCommands() []CommandHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CommandHandle(nil), m.aborted...)
}
