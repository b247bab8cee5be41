package server

import (
	"context"
	"sync"
	"time"

	"github.com/adamehabm/Numerical-Project/internal/problem"
	"github.com/adamehabm/Numerical-Project/internal/solver"
)

// Run status values.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusStopped = "stopped"
	StatusError   = "error"
)

// RunState is one solver run started through the API.
type RunState struct {
	ID        string
	Spec      problem.Spec
	Method    solver.Method
	CreatedAt time.Time

	mu         sync.Mutex
	trace      []solver.Record
	result     *solver.Result
	status     string
	err        string
	cancel     context.CancelFunc
	finishedAt time.Time
	done       chan struct{}
}

func newRunState(id string, spec problem.Spec, m solver.Method, created time.Time, cancel context.CancelFunc) *RunState {
	return &RunState{
		ID:        id,
		Spec:      spec,
		Method:    m,
		CreatedAt: created,
		status:    StatusRunning,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// RunSnapshot is the JSON view of a run.
type RunSnapshot struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	Function  string          `json:"func"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	Columns   []string        `json:"columns"`
	Trace     []solver.Record `json:"trace"`
	Root      *float64        `json:"root,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Err       string          `json:"err,omitempty"`
}

func (rs *RunState) appendRecord(rec solver.Record) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.trace = append(rs.trace, rec)
}

// finish records the outcome and closes Done. Only the first call counts.
func (rs *RunState) finish(status string, res *solver.Result, err error, at time.Time) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.status != StatusRunning {
		return
	}
	rs.status = status
	rs.result = res
	rs.finishedAt = at
	if err != nil {
		rs.err = err.Error()
	}
	close(rs.done)
}

// Done is closed once the run has finished.
func (rs *RunState) Done() <-chan struct{} { return rs.done }

// Trace copies the records recorded so far.
func (rs *RunState) Trace() []solver.Record {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]solver.Record(nil), rs.trace...)
}

// Stop cancels a running run.
func (rs *RunState) Stop() {
	rs.mu.Lock()
	cancel := rs.cancel
	rs.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Snapshot returns a consistent copy of the run.
func (rs *RunState) Snapshot() RunSnapshot {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	snap := RunSnapshot{
		ID:        rs.ID,
		Method:    rs.Method.Name(),
		Function:  rs.Spec.Function,
		Status:    rs.status,
		CreatedAt: rs.CreatedAt,
		Columns:   rs.Method.Columns(),
		Trace:     append([]solver.Record(nil), rs.trace...),
		Err:       rs.err,
	}
	if rs.result != nil {
		root := rs.result.Root
		snap.Root = &root
		snap.Reason = rs.result.Reason.String()
	}
	return snap
}

// Registry keeps runs by id. Finished runs stay until Prune drops them.
type Registry struct {
	mu   sync.Mutex
	runs map[string]*RunState
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runs: map[string]*RunState{}}
}

// Save stores rs under its id.
func (r *Registry) Save(rs *RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[rs.ID] = rs
}

// Get returns the run with id, or nil.
func (r *Registry) Get(id string) *RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[id]
}

// Prune drops runs that finished before cutoff and reports how many.
// Running runs are never dropped.
func (r *Registry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, rs := range r.runs {
		rs.mu.Lock()
		expired := rs.status != StatusRunning && rs.finishedAt.Before(cutoff)
		rs.mu.Unlock()
		if expired {
			delete(r.runs, id)
			n++
		}
	}
	return n
}

// Len counts stored runs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}
