package poller_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"reelforge/internal/poller"
	"reelforge/internal/services"
	"reelforge/internal/services/factory"
)

type step struct {
	status factory.PipelineStatus
	err    error
}

type fakeSource struct {
	mu       sync.Mutex
	steps    map[string][]step
	fallback map[string]factory.PipelineStatus
	fetches  map[string]int
	sessions map[string]factory.PipelineStatus
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		steps:    map[string][]step{},
		fallback: map[string]factory.PipelineStatus{},
		fetches:  map[string]int{},
	}
}

func (f *fakeSource) PipelineStatus(_ context.Context, id string) (factory.PipelineStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[id]++
	queue := f.steps[id]
	if len(queue) == 0 {
		if status, ok := f.fallback[id]; ok {
			return status, nil
		}
		return factory.PipelineStatus{}, errors.New("unexpected fetch")
	}
	next := queue[0]
	f.steps[id] = queue[1:]
	return next.status, next.err
}

func (f *fakeSource) ListPipelines(context.Context) (map[string]factory.PipelineStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, nil
}

func (f *fakeSource) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[id]
}

func transportErr() error {
	return services.Wrap(services.ErrTransport, "factory", "GET /pipeline/status", "request failed", errors.New("connection refused"))
}

func waitDone(t *testing.T, h *poller.Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poll loop did not finish")
	}
}

type recorder struct {
	mu      sync.Mutex
	updates []poller.Update
}

func (r *recorder) record(u poller.Update) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []poller.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]poller.Update(nil), r.updates...)
}

func TestPollerStopsAfterCompletedSnapshot(t *testing.T) {
	source := newFakeSource()
	phases := []string{"mining", "scripting", "tts", "assets", "rendering", "done"}
	for i, name := range phases {
		status := "running"
		if i == len(phases)-1 {
			status = "completed"
		}
		source.steps["s1"] = append(source.steps["s1"], step{status: factory.PipelineStatus{
			Status:   status,
			Phase:    name,
			Progress: i * 20,
		}})
	}

	rec := &recorder{}
	p := poller.New(source, poller.WithInterval(time.Millisecond))
	p.Subscribe(rec.record)
	h := p.Start(context.Background(), "s1")
	waitDone(t, h)

	if err := h.Err(); err != nil {
		t.Fatalf("expected clean completion, got %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if got := source.count("s1"); got != len(phases) {
		t.Fatalf("expected %d fetches, got %d", len(phases), got)
	}
	updates := rec.snapshot()
	if len(updates) != len(phases) {
		t.Fatalf("expected %d updates, got %d", len(phases), len(updates))
	}
	for i, u := range updates {
		if u.Status.Phase != phases[i] || u.Status.Progress != i*20 {
			t.Fatalf("update %d = %+v", i, u.Status)
		}
	}
	latest, ok := p.Latest()
	if !ok || latest.Status.Status != "completed" {
		t.Fatalf("latest = %+v %v", latest, ok)
	}
	if _, active := p.Active(); active {
		t.Fatal("finished loop must not stay active")
	}
}

func TestPollerStopsOnErrorStatus(t *testing.T) {
	source := newFakeSource()
	source.steps["s1"] = []step{
		{status: factory.PipelineStatus{Status: "running", Phase: "mining"}},
		{status: factory.PipelineStatus{Status: "error", Phase: "error", Message: "LLM offline"}},
	}
	p := poller.New(source, poller.WithInterval(time.Millisecond))
	h := p.Start(context.Background(), "s1")
	waitDone(t, h)
	time.Sleep(20 * time.Millisecond)
	if got := source.count("s1"); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
	if h.Err() != nil {
		t.Fatalf("error status is a terminal snapshot, not a loop failure: %v", h.Err())
	}
}

func TestSwitchToDropsUpdatesFromPreviousSession(t *testing.T) {
	source := newFakeSource()
	source.fallback["A"] = factory.PipelineStatus{Status: "running", Phase: "mining"}
	source.fallback["B"] = factory.PipelineStatus{Status: "running", Phase: "tts"}

	rec := &recorder{}
	p := poller.New(source, poller.WithInterval(time.Millisecond))
	p.Subscribe(rec.record)

	first := p.Start(context.Background(), "A")
	deadline := time.Now().Add(5 * time.Second)
	for len(rec.snapshot()) < 3 {
		if time.Now().After(deadline) {
			t.Fatal("no updates for A")
		}
		time.Sleep(time.Millisecond)
	}

	second := p.SwitchTo(context.Background(), "B")
	mark := len(rec.snapshot())

	select {
	case <-first.Done():
	default:
		t.Fatal("SwitchTo must tear down the previous loop before returning")
	}
	if !errors.Is(first.Err(), poller.ErrStopped) {
		t.Fatalf("expected ErrStopped for A, got %v", first.Err())
	}
	fetchesA := source.count("A")

	for len(rec.snapshot()) < mark+3 {
		if time.Now().After(deadline) {
			t.Fatal("no updates for B")
		}
		time.Sleep(time.Millisecond)
	}
	p.Stop()
	waitDone(t, second)

	for _, u := range rec.snapshot()[mark:] {
		if u.SessionID != "B" {
			t.Fatalf("update for %s applied after switch", u.SessionID)
		}
	}
	if got := source.count("A"); got != fetchesA {
		t.Fatalf("A fetched after switch: %d -> %d", fetchesA, got)
	}
	if id, ok := p.Active(); ok {
		t.Fatalf("expected no active loop after Stop, got %s", id)
	}
}

func TestTransportFailureIsTerminalByDefault(t *testing.T) {
	source := newFakeSource()
	source.steps["s1"] = []step{
		{status: factory.PipelineStatus{Status: "running"}},
		{err: transportErr()},
		{status: factory.PipelineStatus{Status: "completed"}},
	}
	p := poller.New(source, poller.WithInterval(time.Millisecond))
	h := p.Start(context.Background(), "s1")
	waitDone(t, h)
	if !services.IsTransport(h.Err()) {
		t.Fatalf("expected transport error, got %v", h.Err())
	}
	time.Sleep(20 * time.Millisecond)
	if got := source.count("s1"); got != 2 {
		t.Fatalf("expected no fetch after failure, got %d", got)
	}
}

func TestTransportRetriesTolerateBlips(t *testing.T) {
	source := newFakeSource()
	source.steps["s1"] = []step{
		{err: transportErr()},
		{err: transportErr()},
		{status: factory.PipelineStatus{Status: "running"}},
		{err: transportErr()},
		{status: factory.PipelineStatus{Status: "completed"}},
	}
	p := poller.New(source, poller.WithInterval(time.Millisecond), poller.WithTransportRetries(2))
	h := p.Start(context.Background(), "s1")
	waitDone(t, h)
	if err := h.Err(); err != nil {
		t.Fatalf("expected completion, got %v", err)
	}
	if got := h.Fetches(); got != 5 {
		t.Fatalf("expected 5 fetches, got %d", got)
	}
}

func TestTransportRetriesExhausted(t *testing.T) {
	source := newFakeSource()
	source.steps["s1"] = []step{{err: transportErr()}, {err: transportErr()}, {err: transportErr()}}
	p := poller.New(source, poller.WithInterval(time.Millisecond), poller.WithTransportRetries(2))
	h := p.Start(context.Background(), "s1")
	waitDone(t, h)
	if !services.IsTransport(h.Err()) || h.Fetches() != 3 {
		t.Fatalf("expected give-up after 3 failures, got %v after %d", h.Err(), h.Fetches())
	}
}

func TestApplicationErrorAlwaysTerminal(t *testing.T) {
	source := newFakeSource()
	appErr := &factory.EnvelopeError{Operation: "pipeline status", Status: "error", Message: "session not found"}
	source.steps["s1"] = []step{{err: appErr}, {status: factory.PipelineStatus{Status: "completed"}}}
	p := poller.New(source, poller.WithInterval(time.Millisecond), poller.WithTransportRetries(5))
	h := p.Start(context.Background(), "s1")
	waitDone(t, h)
	if !services.IsApplication(h.Err()) || h.Fetches() != 1 {
		t.Fatalf("expected immediate stop on application error, got %v after %d", h.Err(), h.Fetches())
	}
}

func TestParentContextCancellationStopsLoop(t *testing.T) {
	source := newFakeSource()
	source.fallback["s1"] = factory.PipelineStatus{Status: "running"}
	ctx, cancel := context.WithCancel(context.Background())
	p := poller.New(source, poller.WithInterval(time.Millisecond))
	h := p.Start(ctx, "s1")
	cancel()
	waitDone(t, h)
	if !errors.Is(h.Err(), poller.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", h.Err())
	}
}

func TestListKnownSessionsNewestFirst(t *testing.T) {
	source := newFakeSource()
	source.sessions = map[string]factory.PipelineStatus{}
	for i := range 3 {
		source.sessions[fmt.Sprintf("s%d", i)] = factory.PipelineStatus{
			Status:    "completed",
			StartedAt: fmt.Sprintf("2026-01-0%dT10:00:00", i+1),
		}
	}
	p := poller.New(source)
	sessions, err := p.ListKnownSessions(context.Background())
	if err != nil {
		t.Fatalf("ListKnownSessions: %v", err)
	}
	var ids []string
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	if fmt.Sprint(ids) != "[s2 s1 s0]" {
		t.Fatalf("unexpected order %v", ids)
	}
	if _, active := p.Active(); active {
		t.Fatal("listing must not arm a loop")
	}
}

func TestFirstFetchDoesNotWaitForInterval(t *testing.T) {
	source := newFakeSource()
	source.steps["s1"] = []step{{status: factory.PipelineStatus{Status: "completed", Phase: "done", Progress: 100}}}

	p := poller.New(source, poller.WithInterval(time.Hour))
	h := p.Start(context.Background(), "s1")
	waitDone(t, h)

	if err := h.Err(); err != nil {
		t.Fatalf("expected clean completion, got %v", err)
	}
	if got := source.count("s1"); got != 1 {
		t.Fatalf("expected one immediate fetch, got %d", got)
	}
}
