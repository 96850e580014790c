package timertask

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
)

type postRecorder struct {
	mu    sync.Mutex
	posts []plexilval.Value
}

func (p *postRecorder) record(v plexilval.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, v)
}

func (p *postRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.posts)
}

func (p *postRecorder) PostLookupReturn(state extiface.State, value plexilval.Value) {
	if state.Name == extiface.TimeState.Name {
		p.record(value)
	}
}
func (p *postRecorder) PostCommandHandleReturn(extiface.CommandHandle, plexilval.Value) {}
func (p *postRecorder) PostCommandReturn(extiface.CommandHandle, plexilval.Value)       {}
func (p *postRecorder) PostCommandAbortAck(extiface.CommandHandle, bool)                {}
func (p *postRecorder) PostUpdateAck(extiface.UpdateHandle, bool)                       {}

func TestTimerTask_PeriodicTickPostsKnownTimeValue(t *testing.T) {
	rec := &postRecorder{}
	task := New(rec, WithTickInterval(20*time.Millisecond))
	task.Start()
	defer task.Stop()

	require.Eventually(t, func() bool {
		return rec.count() > 0
	}, time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	v := rec.posts[0]
	rec.mu.Unlock()
	assert.True(t, v.IsKnown())
	assert.Equal(t, plexilval.TypeReal, v.Type())
}

func TestTimerTask_ScheduleDeadlineFiresOnceNearTarget(t *testing.T) {
	rec := &postRecorder{}
	task := New(rec, WithTickInterval(time.Hour))
	task.Start()
	defer task.Stop()

	task.ScheduleDeadline("end-cond", time.Now().Add(30*time.Millisecond))

	require.Eventually(t, func() bool {
		return rec.count() > 0
	}, time.Second, 10*time.Millisecond)

	countAfterFire := rec.count()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, countAfterFire, rec.count())
}

func TestTimerTask_CancelDeadlinePreventsFire(t *testing.T) {
	rec := &postRecorder{}
	task := New(rec, WithTickInterval(time.Hour))
	task.Start()
	defer task.Stop()

	task.ScheduleDeadline("abort-wait", time.Now().Add(50*time.Millisecond))
	task.CancelDeadline("abort-wait")

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestTimerTask_ReschedulingSameIDReplacesPriorDeadline(t *testing.T) {
	rec := &postRecorder{}
	task := New(rec, WithTickInterval(time.Hour))
	task.Start()
	defer task.Stop()

	task.ScheduleDeadline("retry", time.Now().Add(time.Hour))
	task.ScheduleDeadline("retry", time.Now().Add(20*time.Millisecond))

	require.Eventually(t, func() bool {
		return rec.count() > 0
	}, time.Second, 10*time.Millisecond)
}
