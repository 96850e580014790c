package resource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArbitrate_DefaultCapacityOneAdmitsSingleExclusiveUser(t *testing.T) {
	a := New()
	cmds := []Command{
		{ID: "cmd1", Priority: 1, Requests: []Request{{Name: "camera", Priority: 1, UpperBound: 1}}},
		{ID: "cmd2", Priority: 2, Requests: []Request{{Name: "camera", Priority: 2, UpperBound: 1}}},
	}

	accepted, rejected := a.Arbitrate(cmds)
	assert.Equal(t, []string{"cmd1"}, accepted)
	assert.Equal(t, []string{"cmd2"}, rejected)
}

func TestArbitrate_PriorityOrderDeterminesWinner(t *testing.T) {
	a := New()
	cmds := []Command{
		{ID: "low-priority", Priority: 5, Requests: []Request{{Name: "camera", Priority: 5, UpperBound: 1}}},
		{ID: "high-priority", Priority: 1, Requests: []Request{{Name: "camera", Priority: 1, UpperBound: 1}}},
	}
	accepted, rejected := a.Arbitrate(cmds)
	assert.Equal(t, []string{"high-priority"}, accepted)
	assert.Equal(t, []string{"low-priority"}, rejected)
}

func TestArbitrate_ReleaseFreesCapacityForNextBatch(t *testing.T) {
	a := New()
	first := []Command{{ID: "cmd1", Priority: 1, Requests: []Request{{Name: "camera", Priority: 1, UpperBound: 1}}}}
	accepted, _ := a.Arbitrate(first)
	require.Equal(t, []string{"cmd1"}, accepted)

	a.ReleaseResourcesForCommand("cmd1")

	second := []Command{{ID: "cmd2", Priority: 1, Requests: []Request{{Name: "camera", Priority: 1, UpperBound: 1}}}}
	accepted, _ = a.Arbitrate(second)
	assert.Equal(t, []string{"cmd2"}, accepted)
}

func TestLoadHierarchy_ParentCapacityBoundsChildren(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resources.txt")
	content := "power 10 1.0 motorA 1.0 motorB\nmotorA 1\nmotorB 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	a := New()
	require.NoError(t, a.LoadHierarchy(path))

	cmds := []Command{
		{ID: "a", Priority: 1, Requests: []Request{{Name: "motorA", Priority: 1, UpperBound: 1}}},
		{ID: "b", Priority: 2, Requests: []Request{{Name: "motorB", Priority: 2, UpperBound: 1}}},
	}
	accepted, rejected := a.Arbitrate(cmds)
	assert.ElementsMatch(t, []string{"a", "b"}, accepted)
	assert.Empty(t, rejected)
}

func TestArbitrate_DuplicateResourceEntryIsNotFatal(t *testing.T) {
	a := New()
	cmds := []Command{
		{ID: "cmd1", Priority: 1, Requests: []Request{
			{Name: "camera", Priority: 1, UpperBound: 1},
			{Name: "camera", Priority: 1, UpperBound: 1},
		}},
	}
	assert.NotPanics(t, func() { a.Arbitrate(cmds) })
}
