package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adamehabm/Numerical-Project/internal/problem"
	"github.com/adamehabm/Numerical-Project/internal/report"
	"github.com/adamehabm/Numerical-Project/internal/solver"
)

// StartResponse is returned by StartRun: the run id and f sampled for a plot.
type StartResponse struct {
	ID string           `json:"id"`
	Xs []float64        `json:"xs"`
	Ys []solver.Measure `json:"ys"`
}

// Event is one message on a run's stream.
type Event struct {
	Type   string         `json:"type"`
	ID     string         `json:"id,omitempty"`
	Iter   *solver.Record `json:"iter,omitempty"`
	Root   *float64       `json:"root,omitempty"`
	Reason string         `json:"reason,omitempty"`
	Err    string         `json:"err,omitempty"`
	Run    *RunSnapshot   `json:"run,omitempty"`
}

// StartRun starts a new solver run from a problem.Spec body.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var spec problem.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		s.metrics.Rejected.WithLabelValues("json").Inc()
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := spec.Build()
	if err != nil {
		s.metrics.Rejected.WithLabelValues("problem").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lo, hi := plotRange(plan.Method)
	xs, raw := plan.Expr.Sample(lo, hi, s.cfg.PlotPoints)
	ys := make([]solver.Measure, len(raw))
	for i, y := range raw {
		if !math.IsNaN(y) {
			ys[i] = solver.Some(y)
		}
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	rs := newRunState(id, spec, plan.Method, s.now(), cancel)
	if s.cfg.RunRetention > 0 {
		if n := s.runs.Prune(s.now().Add(-s.cfg.RunRetention)); n > 0 {
			s.log.Debug("pruned finished runs", zap.Int("count", n))
		}
	}
	s.runs.Save(rs)

	s.metrics.RunsStarted.WithLabelValues(plan.Method.Name()).Inc()
	s.log.Info("run started",
		zap.String("id", id),
		zap.String("method", plan.Method.Name()),
		zap.String("func", spec.Function))

	go s.execute(ctx, rs, plan)

	writeJSON(w, http.StatusOK, StartResponse{ID: id, Xs: xs, Ys: ys})
}

// execute runs plan and publishes its events.
func (s *Server) execute(ctx context.Context, rs *RunState, plan problem.Plan) {
	defer rs.Stop()
	method := plan.Method.Name()

	s.metrics.RunsActive.Inc()
	defer s.metrics.RunsActive.Dec()

	s.publish(rs.ID, Event{Type: "start", ID: rs.ID})

	if s.cfg.IterationGuard > 0 {
		plan.Rule = solver.AnyOf(plan.Rule, solver.ByIterationCap{Max: s.cfg.IterationGuard})
	}

	onIter := func(rec solver.Record) error {
		select {
		case <-ctx.Done():
			return solver.ErrStopped
		default:
		}
		rs.appendRecord(rec)
		s.publish(rs.ID, Event{Type: "iter", Iter: &rec})
		return nil
	}

	res, err := plan.Run(solver.OnIteration(onIter))
	s.metrics.Iterations.WithLabelValues(method).Observe(float64(len(rs.Trace())))

	switch {
	case errors.Is(err, solver.ErrStopped):
		s.metrics.RunsFinished.WithLabelValues(method, StatusStopped).Inc()
		rs.finish(StatusStopped, nil, nil, s.now())
		s.log.Info("run stopped", zap.String("id", rs.ID))
		s.publish(rs.ID, finalEvent(rs.Snapshot()))
	case err != nil:
		s.metrics.RunsFinished.WithLabelValues(method, StatusError).Inc()
		rs.finish(StatusError, nil, err, s.now())
		s.log.Warn("run failed", zap.String("id", rs.ID), zap.Error(err))
		s.publish(rs.ID, finalEvent(rs.Snapshot()))
	default:
		s.metrics.RunsFinished.WithLabelValues(method, StatusDone).Inc()
		rs.finish(StatusDone, &res, nil, s.now())
		s.log.Info("run done",
			zap.String("id", rs.ID),
			zap.Float64("root", res.Root),
			zap.Int("iterations", res.Iterations()),
			zap.Stringer("reason", res.Reason))
		s.publish(rs.ID, finalEvent(rs.Snapshot()))
	}
}

func (s *Server) publish(id string, ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("encode event", zap.String("id", id), zap.Error(err))
		return
	}
	s.hub.Publish(id, string(msg))
}

// StopRun cancels a run.
func (s *Server) StopRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	rs, ok := s.lookup(w, r)
	if !ok {
		return
	}
	rs.Stop()
	w.WriteHeader(http.StatusNoContent)
}

// GetRun returns the current state of a run as JSON.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rs.Snapshot())
}

// ExportCSV writes the iterations of a run as CSV.
func (s *Server) ExportCSV(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.lookup(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=iterations_"+rs.ID+".csv")

	if err := report.WriteCSV(w, rs.Method, rs.Trace()); err != nil {
		s.log.Warn("export csv", zap.String("id", rs.ID), zap.Error(err))
	}
}

// Stream sends the run's events as server-sent events. The first event is a
// snapshot of the run so late subscribers see what they missed. The stream
// always ends with the run's final event, rebuilt from the run if the hub
// dropped it.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.lookup(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.hub.Subscribe(rs.ID)
	defer cancel()

	snap := rs.Snapshot()
	first, err := json.Marshal(Event{Type: "snapshot", ID: rs.ID, Run: &snap})
	if err != nil {
		s.log.Error("encode snapshot", zap.String("id", rs.ID), zap.Error(err))
		return
	}
	writeEvent(w, string(first))
	flusher.Flush()
	if snap.Status != StatusRunning {
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			writeEvent(w, msg)
			flusher.Flush()
			if isFinal(msg) {
				return
			}
		case <-rs.Done():
			s.drain(w, rs, ch)
			flusher.Flush()
			return
		}
	}
}

// drain writes what is still buffered for a finished run, then its final
// event if the buffer did not hold one.
func (s *Server) drain(w http.ResponseWriter, rs *RunState, ch <-chan string) {
	for {
		select {
		case msg := <-ch:
			writeEvent(w, msg)
			if isFinal(msg) {
				return
			}
		default:
			msg, err := json.Marshal(finalEvent(rs.Snapshot()))
			if err != nil {
				s.log.Error("encode event", zap.String("id", rs.ID), zap.Error(err))
				return
			}
			writeEvent(w, string(msg))
			return
		}
	}
}

// finalEvent is the last event of a finished run.
func finalEvent(snap RunSnapshot) Event {
	return Event{Type: snap.Status, Root: snap.Root, Reason: snap.Reason, Err: snap.Err}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*RunState, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return nil, false
	}
	rs := s.runs.Get(id)
	if rs == nil {
		http.Error(w, "unknown id", http.StatusNotFound)
		return nil, false
	}
	return rs, true
}

func writeEvent(w http.ResponseWriter, msg string) {
	fmt.Fprintf(w, "event: msg\n")
	fmt.Fprintf(w, "data: %s\n\n", msg)
}

func isFinal(msg string) bool {
	var ev struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(msg), &ev); err != nil {
		return false
	}
	switch ev.Type {
	case StatusDone, StatusStopped, StatusError:
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// plotRange picks the x window to sample f over: the bracket, or the
// guesses widened by one unit on each side.
func plotRange(m solver.Method) (float64, float64) {
	switch v := m.(type) {
	case solver.Bisection:
		return math.Min(v.A, v.B), math.Max(v.A, v.B)
	case solver.FalsePosition:
		return math.Min(v.A, v.B), math.Max(v.A, v.B)
	case solver.Secant:
		return math.Min(v.X0, v.X1) - 1, math.Max(v.X0, v.X1) + 1
	case solver.Newton:
		return v.X0 - 1, v.X0 + 1
	}
	return -1, 1
}
