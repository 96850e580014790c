// Package timertask drives the distinguished time() lookup state: a
// periodic tick keeps the cache's notion of current time fresh, and
// one-shot deadlines wake the exec exactly when a time-based threshold
// (an End/Exit condition gated on time() crossing a bound) is due,
// rather than relying on the periodic tick's granularity alone.
package timertask

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taless474/plexil1-sub000/internal/logger"
	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

// TimerTask posts time() lookup updates onto an extiface.Poster: one
// recurring tick plus any number of named one-shot deadlines.
type TimerTask struct {
	cron   *cron.Cron
	poster extiface.Poster
	logger *logger.Logger
	now    func() time.Time

	tickInterval time.Duration
	tickSchedule cron.Schedule

	mu       sync.Mutex
	deadline map[string]cron.EntryID
}

// Option configures a TimerTask at construction time.
type Option func(*TimerTask)

// WithLogger attaches a logger for schedule-parse and lifecycle messages.
func WithLogger(l *logger.Logger) Option {
	return func(t *TimerTask) { t.logger = l }
}

// WithTickInterval overrides the default 1-second periodic tick.
func WithTickInterval(d time.Duration) Option {
	return func(t *TimerTask) { t.tickInterval = d }
}

// WithTickSchedule parses spec with cron's standard parser, which
// accepts both full five-field cron expressions and the "@every"
// descriptor, and uses the result for the periodic tick instead of a
// plain interval. A spec that fails to parse leaves tickInterval in
// effect and is reported through the attached logger.
func WithTickSchedule(spec string) Option {
	return func(t *TimerTask) {
		schedule, err := cron.ParseStandard(spec)
		if err != nil {
			if t.logger != nil {
				t.logger.Warn("invalid tick schedule, falling back to default interval", "schedule", spec, "error", err)
			}
			return
		}
		t.tickSchedule = schedule
	}
}

// New constructs a TimerTask posting to poster. Start must be called
// before any deadline fires or the periodic tick runs.
func New(poster extiface.Poster, opts ...Option) *TimerTask {
	t := &TimerTask{
		cron:         cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		poster:       poster,
		now:          time.Now,
		tickInterval: time.Second,
		deadline:     make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins the periodic time() tick and starts the underlying cron
// scheduler so any deadline registered before or after Start will fire.
func (t *TimerTask) Start() {
	schedule := t.tickSchedule
	if schedule == nil {
		schedule = cron.ConstantDelaySchedule{Delay: t.tickInterval}
	}
	t.cron.Schedule(schedule, cron.FuncJob(t.postNow))
	t.cron.Start()
}

// Stop halts the scheduler, waiting for any in-flight job to finish.
func (t *TimerTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
}

// ScheduleDeadline arranges a single time() post at (or just after) at.
// A prior deadline registered under the same id is replaced. Deadlines
// in the past fire on the next cron tick (at most a second late).
func (t *TimerTask) ScheduleDeadline(id string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.deadline[id]; ok {
		t.cron.Remove(prev)
		delete(t.deadline, id)
	}

	entryID := t.cron.Schedule(&oneShotSchedule{at: at}, cron.FuncJob(func() {
		t.postNow()
		t.mu.Lock()
		delete(t.deadline, id)
		t.mu.Unlock()
	}))
	t.deadline[id] = entryID
}

// CancelDeadline removes a previously scheduled deadline, if it has not
// already fired.
func (t *TimerTask) CancelDeadline(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entryID, ok := t.deadline[id]; ok {
		t.cron.Remove(entryID)
		delete(t.deadline, id)
	}
}

func (t *TimerTask) postNow() {
	t.poster.PostLookupReturn(extiface.TimeState, plexilval.Real(float64(t.now().UnixNano())/float64(time.Second)))
}

// oneShotSchedule fires exactly once at the given instant, then never
// again, satisfying cron.Schedule without needing a dedicated cron
// expression for an arbitrary absolute deadline.
type oneShotSchedule struct {
	at   time.Time
	done bool
}

// farFuture stands in for "never again" once a oneShotSchedule has
// fired: cron computes its sleep duration from Next(now), so returning
// the zero Time (year 1) would read as already-due and busy-loop.
var farFuture = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

func (s *oneShotSchedule) Next(t time.Time) time.Time {
	if s.done {
		return farFuture
	}
	s.done = true
	return s.at
}
