package exec

import (
	"context"

	"github.com/google/uuid"

	"github.com/taless474/plexil1-sub000/internal/logger"
	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/plan"
	"github.com/taless474/plexil1-sub000/pkg/plexilexpr"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
	"github.com/taless474/plexil1-sub000/pkg/resource"
	"github.com/taless474/plexil1-sub000/pkg/statecache"
)

// Exec is the quiescence engine (§4.4): it owns the node tree, the
// expression graph's activation state, the state cache, and the work
// queues for the duration of each step.
type Exec struct {
	id     string
	iface  extiface.ExternalInterface
	cache  *statecache.Cache
	arbiter *resource.Arbiter
	input  *InputQueue
	hub    *listenerHub
	logger *logger.Logger

	cycle int64
	time  float64

	candidates         nodeQueue
	seqCounter         int
	deferredCandidates []*plan.Node
	lastConflicts      []ConflictRecord

	roots          []*plan.Node
	finishedRoots  []*plan.Node
	outstandingCmd map[string]*plan.Node
	outstandingUpd map[string]*plan.Node

	outboundCommands []*plan.Node
	outboundUpdates  []*plan.Node

	stopped bool
}

// Option configures an Exec at construction.
type Option func(*Exec)

// WithLogger attaches a structured logger used for diagnostics such as
// assignment-conflict ties.
func WithLogger(l *logger.Logger) Option { return func(e *Exec) { e.logger = l } }

// WithArbiter attaches a command resource arbiter; without one, every
// command is unconditionally accepted.
func WithArbiter(a *resource.Arbiter) Option { return func(e *Exec) { e.arbiter = a } }

// WithInputQueue replaces the input queue New allocates by default. This
// lets a host build a Poster for its ExternalInterface before the Exec
// that interface will be bound to exists, breaking what would otherwise
// be a construction cycle between the two.
func WithInputQueue(q *InputQueue) Option { return func(e *Exec) { e.input = q } }

// New creates an Exec bound to iface for lookups/commands/updates and
// backed by the given input queue capacity.
func New(iface extiface.ExternalInterface, inputCapacity int, opts ...Option) *Exec {
	e := &Exec{
		id:             uuid.NewString(),
		iface:          iface,
		input:          NewInputQueue(inputCapacity),
		hub:            newListenerHub(),
		outstandingCmd: make(map[string]*plan.Node),
		outstandingUpd: make(map[string]*plan.Node),
	}
	e.cache = statecache.New(iface)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns a stable identifier for this exec instance, used to
// correlate logs and debug-console output across a host process that may
// run several.
func (e *Exec) ID() string { return e.id }

// Poster returns the env->core posting surface backed by this exec's
// input queue.
func (e *Exec) Poster() extiface.Poster { return NewPoster(e.input) }

// AddStepListener registers l on the listener hub (§4.9).
func (e *Exec) AddStepListener(l StepListener) { e.hub.AddListener(l) }

// RemoveStepListener unregisters l.
func (e *Exec) RemoveStepListener(l StepListener) { e.hub.RemoveListener(l) }

// AddPlan queues a root-level plan for ingestion on the next step's input
// drain (§4.4 step 2, §6 "add-plan"). Every condition expression reachable
// from root is wired so that a later change republishes the owning node
// as a candidate, since condition activation alone (§4.1) does not imply
// re-evaluation.
func (e *Exec) AddPlan(root *plan.Node) {
	e.wireConditions(root)
	e.input.Push(InputEntry{Kind: KindAddPlan, PlanRoot: root})
}

func (e *Exec) wireConditions(n *plan.Node) {
	n.SetHooks(e)
	for _, c := range n.Conditions {
		if c == nil {
			continue
		}
		c.AddListener(plexilexpr.ListenerFunc(func(plexilexpr.Expression) {
			e.AddCandidateNode(n)
		}))
	}
	for _, child := range n.Children {
		e.wireConditions(child)
	}
}

// RequestStop marks the exec to end its run loop between macro-steps
// (§5: "A pending stop request is set by the host").
func (e *Exec) RequestStop() { e.stopped = true }

// Stopped reports whether a stop has been requested.
func (e *Exec) Stopped() bool { return e.stopped }

// NeedsStep reports whether any candidate is present.
func (e *Exec) NeedsStep() bool { return !e.candidates.empty() }

// AddCandidateNode enqueues n if its queue status is None.
func (e *Exec) AddCandidateNode(n *plan.Node) {
	if n.QueueStatus != plan.QueueNone {
		return
	}
	n.QueueStatus = plan.QueueCheck
	e.candidates.push(n)
}

func (e *Exec) nextSeq() int {
	e.seqCounter++
	return e.seqCounter
}

// Step performs one macro-step (§4.4). It returns early, before touching
// any node, if ctx is already canceled.
func (e *Exec) Step(ctx context.Context, cycleTime float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.cycle++
	e.time = cycleTime
	e.cache.BeginCycle(e.cycle)
	e.lastConflicts = nil

	for _, n := range e.deferredCandidates {
		e.AddCandidateNode(n)
	}
	e.deferredCandidates = nil

	e.drainInput()

	var transitionRecords []TransitionRecord
	var assignmentRecords []AssignmentRecord

	for !e.candidates.empty() {
		var batch []*pendingTransition
		for !e.candidates.empty() {
			n := e.candidates.pop()
			n.QueueStatus = plan.QueueNone
			dest, outcome, failure, ok := n.ComputeDestination()
			if !ok {
				continue
			}
			n.QueueStatus = plan.QueueTransition
			batch = append(batch, &pendingTransition{node: n, dest: dest, outcome: outcome, failure: failure, seq: e.nextSeq()})
		}
		if len(batch) == 0 {
			break
		}

		e.resolveAssignmentConflicts(batch)

		for _, pt := range batch {
			if pt.discarded {
				continue
			}
			from := pt.node.State
			pt.node.ApplyTransition(pt.dest, pt.outcome, pt.failure, e.time)
			transitionRecords = append(transitionRecords, TransitionRecord{
				NodeID: pt.node.ID, From: from, To: pt.dest, Outcome: pt.outcome, Failure: pt.failure,
			})
			if pt.node.Variant == plan.VariantAssignment && pt.dest == plan.StateExecuting {
				assignmentRecords = append(assignmentRecords, e.commitAssignment(pt.node))
			}
			pt.node.QueueStatus = plan.QueueNone

			// A node that just transitioned may have another transition
			// immediately available (e.g. Waiting->Executing right after
			// Inactive->Waiting, when no external event gates it); re-add it
			// so the next micro-step pass reconsiders it.
			if pt.node.State != plan.StateFinished {
				e.AddCandidateNode(pt.node)
			}
		}
	}

	e.hub.fanOut(transitionRecords, assignmentRecords)
	e.flushOutbound()
	e.collectFinishedRoots()
	return nil
}

func (e *Exec) drainInput() {
	for _, entry := range e.input.DrainAll() {
		switch entry.Kind {
		case KindLookupReturn:
			e.cache.ReportValue(entry.LookupState, entry.Value)
		case KindCommandAck:
			if n, ok := e.outstandingCmd[entry.CommandID]; ok && n.Command.HandleVar != nil {
				n.Command.HandleVar.SetValue(entry.Handle)
			}
		case KindCommandReturn:
			if n, ok := e.outstandingCmd[entry.CommandID]; ok {
				e.assignCommandReturn(n, entry.Value)
			}
		case KindCommandAbort:
			if n, ok := e.outstandingCmd[entry.CommandID]; ok && n.Command.AbortCompleteVar != nil {
				n.Command.AbortCompleteVar.SetValue(plexilval.Bool(entry.AckOK))
			}
		case KindUpdateAck:
			if n, ok := e.outstandingUpd[entry.UpdateID]; ok && n.Update.AckVar != nil {
				n.Update.AckVar.SetValue(plexilval.Bool(entry.AckOK))
			}
		case KindAddPlan:
			e.roots = append(e.roots, entry.PlanRoot)
			e.AddCandidateNode(entry.PlanRoot)
		case KindMark:
			// DrainAll already recorded the sequence for GetLastMark.
		}
	}
}

// assignCommandReturn writes a command's return value into its declared
// destination, which may be a plain variable or a single array element.
func (e *Exec) assignCommandReturn(n *plan.Node, value plexilval.Value) {
	switch dest := n.Command.Destination.(type) {
	case *plexilexpr.Variable:
		dest.SetValue(value)
	case *plexilexpr.MutableArrayReference:
		dest.SetValue(value, arrayWriteLength(dest))
	}
}

// commitAssignment performs the actual value write for an Assignment
// node entering Executing (§4.5: "A successful commit records the
// previous value into the variable's saved slot before overwrite").
func (e *Exec) commitAssignment(n *plan.Node) AssignmentRecord {
	a := n.Assignment
	value := plexilval.Unknown(plexilval.TypeUnknown)
	if a.RHS != nil {
		value = a.RHS.ValueOf()
	}

	var varName string
	target := a.DestinationVar
	if a.DestinationArray != nil {
		target = a.DestinationArray.ArrayVariable()
	}
	for p := n; p != nil && varName == ""; p = p.Parent {
		for name, v := range p.Variables {
			if v == target {
				varName = name
				break
			}
		}
	}
	switch {
	case a.DestinationVar != nil:
		a.DestinationVar.SaveCurrentValue()
		a.DestinationVar.SetValue(value)
	case a.DestinationArray != nil:
		a.DestinationArray.ArrayVariable().SaveCurrentValue()
		a.DestinationArray.SetValue(value, arrayWriteLength(a.DestinationArray))
	}
	if a.AckVar != nil {
		a.AckVar.SetValue(plexilval.Bool(true))
	}

	return AssignmentRecord{NodeID: n.ID, VariableName: varName, Value: value}
}

func (e *Exec) flushOutbound() {
	for _, n := range e.outboundCommands {
		e.dispatchCommand(n)
	}
	e.outboundCommands = nil

	for _, n := range e.outboundUpdates {
		e.dispatchUpdate(n)
	}
	e.outboundUpdates = nil
}

func (e *Exec) dispatchCommand(n *plan.Node) {
	cmd := n.Command
	cmd.ID = uuid.NewString()
	cmd.FixedName = ""
	if cmd.NameExpr != nil && cmd.NameExpr.IsKnown() {
		cmd.FixedName = cmd.NameExpr.ValueOf().AsString()
	}
	args := make([]plexilval.Value, len(cmd.ArgExprs))
	for i, a := range cmd.ArgExprs {
		args[i] = a.ValueOf()
	}
	cmd.FixedArgValues = args
	cmd.Fixed = true
	cmd.Active = true
	e.outstandingCmd[cmd.ID] = n

	if e.arbiter != nil && len(cmd.Resources) > 0 {
		reqs := make([]resource.Request, 0, len(cmd.Resources))
		for _, rs := range cmd.Resources {
			req := resource.Request{Name: cmd.FixedName, Priority: 0}
			if rs.NameExpr != nil && rs.NameExpr.IsKnown() {
				req.Name = rs.NameExpr.ValueOf().AsString()
			}
			if rs.PriorityExpr != nil && rs.PriorityExpr.IsKnown() {
				req.Priority = int(rs.PriorityExpr.ValueOf().AsInt())
			}
			if rs.UpperBoundExpr != nil && rs.UpperBoundExpr.IsKnown() {
				req.UpperBound = rs.UpperBoundExpr.ValueOf().AsReal()
			}
			if rs.LowerBoundExpr != nil && rs.LowerBoundExpr.IsKnown() {
				req.LowerBound = rs.LowerBoundExpr.ValueOf().AsReal()
			}
			reqs = append(reqs, req)
		}
		accepted, rejected := e.arbiter.Arbitrate([]resource.Command{{ID: cmd.ID, Priority: reqs[0].Priority, Requests: reqs}})
		if len(rejected) > 0 && len(accepted) == 0 {
			if cmd.HandleVar != nil {
				cmd.HandleVar.SetValue(plexilval.CommandHandleValue(int32(plan.HandleDenied)))
			}
			delete(e.outstandingCmd, cmd.ID)
			e.AddCandidateNode(n)
			return
		}
	}

	e.iface.ExecuteCommand(extiface.CommandHandle{ID: cmd.ID, Name: cmd.FixedName}, args)
	if cmd.HandleVar != nil {
		cmd.HandleVar.SetValue(plexilval.CommandHandleValue(int32(plan.HandleSentToSystem)))
	}
}

func (e *Exec) dispatchUpdate(n *plan.Node) {
	upd := n.Update
	upd.ID = uuid.NewString()
	pairs := make(map[string]plexilval.Value, len(upd.Pairs))
	for _, p := range upd.Pairs {
		if p.Value != nil {
			pairs[p.Name] = p.Value.ValueOf()
		}
	}
	e.outstandingUpd[upd.ID] = n
	e.iface.ExecuteUpdate(extiface.UpdateHandle{ID: upd.ID}, pairs)
}

func (e *Exec) collectFinishedRoots() {
	e.finishedRoots = e.finishedRoots[:0]
	remaining := e.roots[:0]
	for _, r := range e.roots {
		if r.State == plan.StateFinished {
			e.finishedRoots = append(e.finishedRoots, r)
		} else {
			remaining = append(remaining, r)
		}
	}
	e.roots = remaining
}

// FinishedRoots returns root nodes collected as Finished at the end of
// the most recent step, available for the host to delete.
func (e *Exec) FinishedRoots() []*plan.Node { return e.finishedRoots }

// Roots returns the currently active (not yet finished) plan roots, for
// debug-console introspection.
func (e *Exec) Roots() []*plan.Node { return e.roots }

// Cycle returns the macro-step count completed so far.
func (e *Exec) Cycle() int64 { return e.cycle }

// LastConflicts returns the assignment conflicts resolved during the
// most recently completed step.
func (e *Exec) LastConflicts() []ConflictRecord { return e.lastConflicts }

// OnExitState implements plan.TransitionHooks.
func (e *Exec) OnExitState(n *plan.Node, from plan.NodeState) {
	_ = n
	_ = from
}

// OnEnterState implements plan.TransitionHooks: it performs the
// state-entry side effects named in §4.3 (dispatching a command,
// delivering an update, activating a child list, releasing a finished
// command's resources) and wires hooks onto freshly reachable
// descendants.
func (e *Exec) OnEnterState(n *plan.Node, to plan.NodeState) {
	switch to {
	case plan.StateExecuting:
		switch n.Variant {
		case plan.VariantCommand:
			n.SetHooks(e)
			e.outboundCommands = append(e.outboundCommands, n)
		case plan.VariantUpdate:
			n.SetHooks(e)
			e.outboundUpdates = append(e.outboundUpdates, n)
		case plan.VariantNodeList, plan.VariantLibraryCall:
			for _, c := range n.Children {
				c.SetHooks(e)
				e.AddCandidateNode(c)
			}
		}
	case plan.StateWaiting:
		if n.Variant == plan.VariantNodeList || n.Variant == plan.VariantLibraryCall {
			for _, c := range n.Children {
				c.SetHooks(e)
			}
		}
	case plan.StateIterationEnded, plan.StateFinished:
		if n.Variant == plan.VariantCommand && n.Command != nil && n.Command.ID != "" && e.arbiter != nil {
			e.arbiter.ReleaseResourcesForCommand(n.Command.ID)
		}
	}
}

var _ plan.TransitionHooks = (*Exec)(nil)

// arrayWriteLength derives the declared array length to pass through to
// Variable.SetElement for a write via ref: the current backing array's
// length if one has already been allocated, or index+1 when the array is
// still Unknown and this write is what allocates it.
func arrayWriteLength(ref *plexilexpr.MutableArrayReference) int {
	if cur := ref.ArrayVariable().ArrayValue(); cur != nil {
		return cur.Len()
	}
	if idx := ref.Index(); idx != nil && idx.IsKnown() {
		return int(idx.ValueOf().AsInt()) + 1
	}
	return 0
}
