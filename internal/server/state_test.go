package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamehabm/Numerical-Project/internal/problem"
	"github.com/adamehabm/Numerical-Project/internal/solver"
	"github.com/adamehabm/Numerical-Project/internal/sse"
)

func testRun(id string, created time.Time) *RunState {
	return newRunState(id, problem.Spec{Function: "x**2 - 2"}, solver.Bisection{A: 1, B: 2}, created, func() {})
}

func TestRunState_FinishOnce(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rs := testRun("r", at)

	select {
	case <-rs.Done():
		t.Fatal("done before finish")
	default:
	}

	rs.finish(StatusDone, &solver.Result{Root: 1.5, Reason: solver.Tolerance}, nil, at)
	rs.finish(StatusError, nil, assert.AnError, at.Add(time.Minute))

	<-rs.Done()
	snap := rs.Snapshot()
	assert.Equal(t, StatusDone, snap.Status)
	assert.Empty(t, snap.Err)
	require.NotNil(t, snap.Root)
	assert.Equal(t, 1.5, *snap.Root)
}

func TestRegistry_Prune(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry()

	running := testRun("running", base)
	old := testRun("old", base)
	old.finish(StatusDone, &solver.Result{}, nil, base.Add(time.Minute))
	recent := testRun("recent", base)
	recent.finish(StatusStopped, nil, nil, base.Add(time.Hour))

	for _, rs := range []*RunState{running, old, recent} {
		r.Save(rs)
	}

	assert.Equal(t, 1, r.Prune(base.Add(30*time.Minute)))
	assert.NotNil(t, r.Get("running"))
	assert.Nil(t, r.Get("old"))
	assert.NotNil(t, r.Get("recent"))

	assert.Equal(t, 1, r.Prune(base.Add(2*time.Hour)))
	assert.Equal(t, 1, r.Len())
}

func TestStartRun_PrunesFinishedRuns(t *testing.T) {
	s, h := newTestServer(t, nil)

	first := start(t, h, bisectionBody)
	waitStatus(t, s, first.ID, StatusDone)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	second := start(t, h, bisectionBody)

	assert.Nil(t, s.Runs().Get(first.ID))
	assert.NotNil(t, s.Runs().Get(second.ID))
}

func TestStream_EndsWhenFinalEventDropped(t *testing.T) {
	s, h := newTestServer(t, nil)
	rs := testRun("full", time.Now())
	s.runs.Save(rs)

	ts := httptest.NewServer(h)
	defer ts.Close()

	type reply struct {
		body string
		err  error
	}
	got := make(chan reply, 1)
	go func() {
		client := &http.Client{Timeout: 5 * time.Second}
		res, err := client.Get(ts.URL + "/stream?id=" + rs.ID)
		if err != nil {
			got <- reply{err: err}
			return
		}
		defer res.Body.Close()
		b, err := io.ReadAll(res.Body)
		got <- reply{body: string(b), err: err}
	}()

	require.Eventually(t, func() bool { return s.hub.Subscribers(rs.ID) == 1 }, 5*time.Second, time.Millisecond)

	// More than a subscriber buffer holds, and no final event at all.
	for i := 0; i < sse.Buffer+10; i++ {
		s.hub.Publish(rs.ID, `{"type":"iter"}`)
	}
	rs.finish(StatusDone, &solver.Result{Root: 1.5, Reason: solver.Tolerance}, nil, time.Now())

	r := <-got
	require.NoError(t, r.err)
	assert.True(t, strings.HasSuffix(r.body, "\n\n"))
	last := r.body[strings.LastIndex(strings.TrimSuffix(r.body, "\n\n"), "data: "):]
	assert.Contains(t, last, `"type":"done"`)
	assert.Contains(t, last, `"root":1.5`)
	assert.Contains(t, last, `"reason":"tolerance"`)
}
