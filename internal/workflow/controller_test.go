package workflow_test

import (
	"sync"
	"testing"
	"time"

	"reelforge/internal/workflow"
)

type fakeTimer struct {
	s       *fakeScheduler
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) workflow.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &fakeTimer{s: s, fn: f}
	s.timers = append(s.timers, timer)
	s.delays = append(s.delays, d)
	return timer
}

// fireAll runs every timer, including stopped ones, to prove stale callbacks
// are ignored.
func (s *fakeScheduler) fireAll() {
	s.mu.Lock()
	timers := append([]*fakeTimer(nil), s.timers...)
	s.timers = nil
	s.mu.Unlock()
	for _, timer := range timers {
		timer.fn()
	}
}

func newController(t *testing.T, opts ...workflow.Option) (*workflow.Controller, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	opts = append([]workflow.Option{workflow.WithScheduler(sched)}, opts...)
	return workflow.NewController(opts...), sched
}

func TestControllerGoToRejectedIsNoop(t *testing.T) {
	c, _ := newController(t)
	var notified int
	c.Subscribe(func(workflow.Snapshot) { notified++ })

	for _, stage := range []workflow.Stage{2, 3, 4, 5, 0, 9} {
		if c.GoTo(stage) {
			t.Fatalf("GoTo(%d) accepted without artifacts", stage)
		}
	}
	if c.Stage() != workflow.StageMining {
		t.Fatalf("stage changed to %s", c.Stage())
	}
	if notified != 0 {
		t.Fatalf("rejected moves must not notify, got %d", notified)
	}
}

func TestControllerAutoAdvanceAfterDelay(t *testing.T) {
	c, sched := newController(t, workflow.WithAdvanceDelay(750*time.Millisecond))
	c.SetScript(sampleScript())

	if c.Stage() != workflow.StageMining {
		t.Fatalf("advance must wait for the delay, stage=%s", c.Stage())
	}
	if target, ok := c.Pending(); !ok || target != workflow.StageNarration {
		t.Fatalf("pending = %s %v", target, ok)
	}
	if len(sched.delays) != 1 || sched.delays[0] != 750*time.Millisecond {
		t.Fatalf("unexpected delays %v", sched.delays)
	}

	sched.fireAll()
	if c.Stage() != workflow.StageNarration {
		t.Fatalf("expected narration after delay, got %s", c.Stage())
	}
	if _, ok := c.Pending(); ok {
		t.Fatal("pending must clear after firing")
	}
}

func TestControllerExplicitNavigationCancelsPendingAdvance(t *testing.T) {
	c, sched := newController(t)
	c.SetScript(sampleScript())
	if !c.GoTo(workflow.StageAssets) {
		t.Fatal("GoTo assets rejected")
	}
	sched.fireAll()
	if c.Stage() != workflow.StageAssets {
		t.Fatalf("stale advance applied, stage=%s", c.Stage())
	}
}

func TestControllerPendingAdvanceRecheckedOnFire(t *testing.T) {
	c, sched := newController(t)
	c.SetScript(sampleScript())
	c.SetAudio(sampleAudio())
	c.SetAssets(sampleAssets())
	if target, ok := c.Pending(); !ok || target != workflow.StageRender {
		t.Fatalf("pending = %s %v", target, ok)
	}
	c.SetAssets(nil)
	if _, ok := c.Pending(); !ok {
		t.Fatal("clearing assets keeps the earlier pending record until it fires")
	}
	sched.fireAll()
	if c.Stage() == workflow.StageRender {
		t.Fatal("advance applied after gate closed")
	}
}

func TestControllerFlushAppliesPending(t *testing.T) {
	c, _ := newController(t)
	c.SetScript(sampleScript())
	c.SetAudio(sampleAudio())
	stage, ok := c.Flush()
	if !ok || stage != workflow.StageAssets {
		t.Fatalf("Flush = %s %v", stage, ok)
	}
	if _, ok := c.Flush(); ok {
		t.Fatal("second flush must be a no-op")
	}
}

func TestControllerAutoAdvanceDisabled(t *testing.T) {
	c, sched := newController(t, workflow.WithAutoAdvance(false))
	c.SetScript(sampleScript())
	if _, ok := c.Pending(); ok {
		t.Fatal("no advance expected when disabled")
	}
	if len(sched.timers) != 0 {
		t.Fatalf("unexpected timers: %d", len(sched.timers))
	}
}

func TestControllerSnapshotStatuses(t *testing.T) {
	c, _ := newController(t, workflow.WithAutoAdvance(false))
	c.SetScript(sampleScript())
	c.GoTo(workflow.StageNarration)

	snap := c.Snapshot()
	want := map[workflow.Stage]workflow.StageStatus{
		workflow.StageMining:    workflow.StageUpcoming,
		workflow.StageScripting: workflow.StageCompleted,
		workflow.StageNarration: workflow.StageCurrent,
		workflow.StageAssets:    workflow.StageUpcoming,
		workflow.StageRender:    workflow.StageUpcoming,
	}
	for _, view := range snap.Stages {
		if view.Status != want[view.Stage] {
			t.Fatalf("stage %s status = %s, want %s", view.Stage, view.Status, want[view.Stage])
		}
	}
	if snap.Stages[4].Reachable {
		t.Fatal("render must not be reachable")
	}
}

func TestControllerRestoreRechecksGate(t *testing.T) {
	c, _ := newController(t)
	c.Restore(workflow.State{Stage: workflow.StageRender})
	if c.Stage() != workflow.StageMining {
		t.Fatalf("restore bypassed gate, stage=%s", c.Stage())
	}

	c.Restore(workflow.State{Stage: workflow.StageAssets, Artifacts: workflow.Artifacts{Script: sampleScript()}})
	if c.Stage() != workflow.StageAssets {
		t.Fatalf("restore rejected reachable stage, got %s", c.Stage())
	}
}

func TestControllerSubscribersSeeChanges(t *testing.T) {
	c, _ := newController(t, workflow.WithAutoAdvance(false))
	var stages []workflow.Stage
	c.Subscribe(func(s workflow.Snapshot) { stages = append(stages, s.State.Stage) })

	c.SetScript(sampleScript())
	c.GoTo(workflow.StageNarration)
	c.Reset()

	want := []workflow.Stage{workflow.StageMining, workflow.StageNarration, workflow.StageMining}
	if len(stages) != len(want) {
		t.Fatalf("notifications = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("notifications = %v, want %v", stages, want)
		}
	}
}
