package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusWords(t *testing.T) {
	assert.Equal(t, "Foreground", Foreground.String())
	assert.Equal(t, "Running", Background.String())
	assert.Equal(t, "Stopped", Stopped.String())
	assert.Equal(t, "Stopped (tty)", NeedsTerminal.String())
	assert.Equal(t, "Terminated", Terminated.String())
	assert.Equal(t, "Unknown", Status(99).String())
}

func TestJobProcessAccounting(t *testing.T) {
	pl := testPipeline(t, "cat a | grep b | wc -l")
	j := &Job{ID: 1, Pipeline: pl}

	p1 := j.AddProcess(100, pl.Commands[0])
	p2 := j.AddProcess(101, pl.Commands[1])
	p3 := j.AddProcess(102, pl.Commands[2])
	assert.Equal(t, 3, j.NumAlive())
	assert.Same(t, pl.Commands[1], p2.Command)

	// Removal preserves the order of the remaining processes.
	j.RemoveProcess(p2)
	assert.Equal(t, 2, j.NumAlive())
	require.Len(t, j.Procs, 2)
	assert.Same(t, p1, j.Procs[0])
	assert.Same(t, p3, j.Procs[1])

	assert.Same(t, p3, j.FindProcess(102))
	assert.Nil(t, j.FindProcess(101))
}

func TestJobAllStopped(t *testing.T) {
	pl := testPipeline(t, "cat a | wc")
	j := &Job{ID: 1, Pipeline: pl}
	p1 := j.AddProcess(100, pl.Commands[0])
	p2 := j.AddProcess(101, pl.Commands[1])

	assert.False(t, j.AllStopped())

	p1.State = ProcStopped
	assert.False(t, j.AllStopped())

	p2.State = ProcStopped
	assert.True(t, j.AllStopped())

	// A drained job is not "stopped": it has nothing left to stop.
	j.RemoveProcess(p1)
	j.RemoveProcess(p2)
	assert.False(t, j.AllStopped())
}
