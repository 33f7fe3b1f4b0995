package job

import (
	"fmt"

	"gsh/internal/parser"
)

// DefaultCapacity bounds the number of concurrently registered jobs.
const DefaultCapacity = 1 << 16

// Table is the job registry: an id index for lookup plus an
// insertion-ordered list for iteration. It is an owned object with an
// explicit lifecycle, not package state, so tests can run independent
// registries side by side.
type Table struct {
	capacity int
	byID     map[int]*Job
	order    []*Job
}

// NewTable returns an empty registry holding at most capacity jobs.
// A capacity of zero or less means DefaultCapacity.
func NewTable(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Table{
		capacity: capacity,
		byID:     make(map[int]*Job),
	}
}

// Add registers a new job for the given pipeline, allocating the
// smallest unused id >= 1. The pipeline's ownership transfers to the
// job. Exhausting the table means job ids can no longer be issued
// safely and is a fatal error.
func (t *Table) Add(p *parser.Pipeline) *Job {
	for id := 1; id <= t.capacity; id++ {
		if _, taken := t.byID[id]; taken {
			continue
		}
		j := &Job{ID: id, Pipeline: p}
		t.byID[id] = j
		t.order = append(t.order, j)
		return j
	}
	panic(fmt.Sprintf("job table exhausted: %d jobs", t.capacity))
}

// Get returns the job with the given id, or ErrNoSuchJob.
func (t *Table) Get(id int) (*Job, error) {
	j, ok := t.byID[id]
	if !ok {
		return nil, ErrNoSuchJob
	}
	return j, nil
}

// Delete removes a job from both index structures and releases its
// pipeline. The caller must guarantee the job has no alive processes
// and is not the foreground job; violating that means the bookkeeping
// is corrupt, which is fatal.
func (t *Table) Delete(j *Job) {
	if j.Status == Foreground {
		panic(fmt.Sprintf("delete of foreground job %d", j.ID))
	}
	if j.NumAlive() > 0 {
		panic(fmt.Sprintf("delete of job %d with %d live processes", j.ID, j.NumAlive()))
	}
	if t.byID[j.ID] != j {
		panic(fmt.Sprintf("delete of unregistered job %d", j.ID))
	}
	delete(t.byID, j.ID)
	for i, q := range t.order {
		if q == j {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	j.Pipeline = nil
}

// Jobs returns the registered jobs in insertion order. The slice is a
// copy; the jobs are not.
func (t *Table) Jobs() []*Job {
	return append([]*Job(nil), t.order...)
}

// Len reports the number of registered jobs.
func (t *Table) Len() int {
	return len(t.order)
}

// FindPid locates the job and process record owning pid. Linear over
// jobs and processes, which is fine at interactive scale.
func (t *Table) FindPid(pid int) (*Job, *Process) {
	for _, j := range t.order {
		if p := j.FindProcess(pid); p != nil {
			return j, p
		}
	}
	return nil, nil
}
