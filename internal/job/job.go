// Package job holds the shell's job bookkeeping: the Process and Job
// records and the Table that registers them. All mutation happens under
// the engine's lock; nothing in this package synchronizes on its own.
package job

import (
	"golang.org/x/sys/unix"

	"gsh/internal/parser"
)

// Status is the lifecycle state of a Job.
type Status int

const (
	// Foreground means the job owns the terminal and the shell is
	// waiting for it. At most one job is ever in this state.
	Foreground Status = iota

	// Background means the job is running without the terminal.
	Background

	// Stopped means every process in the job is stopped.
	Stopped

	// NeedsTerminal means the job stopped because it attempted
	// terminal I/O without owning the terminal.
	NeedsTerminal

	// Terminated means every process has exited; the job only lingers
	// in this state while its foreground waiter still holds it.
	Terminated
)

// NOTE: Keep in sync with the Status values. These are the exact words
// the jobs listing prints.
var statusWords = []string{
	"Foreground",
	"Running",
	"Stopped",
	"Stopped (tty)",
	"Terminated",
}

func (s Status) String() string {
	if int(s) < 0 || int(s) >= len(statusWords) {
		return "Unknown"
	}
	return statusWords[s]
}

// ProcState is the run state of a single process.
type ProcState int

const (
	ProcRunning ProcState = iota
	ProcStopped
)

// Process is one OS process belonging to a Job. It exists only while
// the process is alive; the reaper removes it the moment the process is
// observed terminated.
type Process struct {
	Pid   int
	State ProcState

	// Command is the pipeline stage this process was spawned from,
	// kept for display.
	Command *parser.Command
}

// Job is one pipeline invocation. It owns its Pipeline from creation
// until the Table deletes it.
type Job struct {
	ID       int
	Pipeline *parser.Pipeline
	Status   Status

	// Pgid is the process group shared by every process in the job.
	Pgid int

	// TTY is the saved terminal discipline, valid only while the job
	// is not holding the terminal.
	TTY unix.Termios

	// Procs holds the still-alive processes, in pipeline order.
	Procs []*Process
}

// NumAlive reports how many of the job's processes are still alive.
func (j *Job) NumAlive() int {
	return len(j.Procs)
}

// AllStopped reports whether every alive process is stopped. A job with
// no alive processes is not considered stopped.
func (j *Job) AllStopped() bool {
	if len(j.Procs) == 0 {
		return false
	}
	for _, p := range j.Procs {
		if p.State == ProcRunning {
			return false
		}
	}
	return true
}

// AddProcess records a newly spawned process.
func (j *Job) AddProcess(pid int, cmd *parser.Command) *Process {
	p := &Process{Pid: pid, Command: cmd}
	j.Procs = append(j.Procs, p)
	return p
}

// FindProcess returns the alive process with the given pid, or nil.
func (j *Job) FindProcess(pid int) *Process {
	for _, p := range j.Procs {
		if p.Pid == pid {
			return p
		}
	}
	return nil
}

// RemoveProcess drops a terminated process from the job, preserving the
// order of the remaining processes.
func (j *Job) RemoveProcess(p *Process) {
	for i, q := range j.Procs {
		if q == p {
			copy(j.Procs[i:], j.Procs[i+1:])
			j.Procs[len(j.Procs)-1] = nil
			j.Procs = j.Procs[:len(j.Procs)-1]
			return
		}
	}
}
