package workflow

import (
	"log/slog"
	"sync"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/services/factory"
)

const defaultAdvanceDelay = 500 * time.Millisecond

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// StageStatus is the display status of one stage.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageCurrent   StageStatus = "current"
	StageUpcoming  StageStatus = "upcoming"
)

// StageView describes one stage for rendering.
type StageView struct {
	Stage     Stage       `json:"stage" yaml:"stage"`
	Name      string      `json:"name" yaml:"name"`
	Status    StageStatus `json:"status" yaml:"status"`
	Reachable bool        `json:"reachable" yaml:"reachable"`
}

// Snapshot is a point-in-time copy of the controller.
type Snapshot struct {
	State          State       `json:"state" yaml:"state"`
	Stages         []StageView `json:"stages" yaml:"stages"`
	PendingAdvance Stage       `json:"pending_advance,omitempty" yaml:"pending_advance,omitempty"`
}

// Option customizes the controller.
type Option func(*Controller)

// WithAutoAdvance toggles the delayed move after an artifact lands.
func WithAutoAdvance(enabled bool) Option {
	return func(c *Controller) { c.autoAdvance = enabled }
}

// WithAdvanceDelay overrides the auto-advance delay.
func WithAdvanceDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithScheduler overrides how delayed advances are scheduled (useful for tests).
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type pendingAdvance struct {
	target Stage
	timer  Timer
	seq    uint64
}

// Controller owns the workflow artifacts and stage pointer. It is the only
// writer of that state; all operations are synchronous.
type Controller struct {
	mu          sync.Mutex
	state       State
	autoAdvance bool
	delay       time.Duration
	scheduler   Scheduler
	pending     *pendingAdvance
	seq         uint64
	logger      *slog.Logger

	notifyMu    sync.Mutex
	subscribers []func(Snapshot)
}

// NewController returns a controller positioned at the first stage.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		state:       Initial(),
		autoAdvance: true,
		delay:       defaultAdvanceDelay,
		scheduler:   realScheduler{},
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "workflow")
	return c
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn must not call back into the controller synchronously.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	c.notifyMu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.notifyMu.Unlock()
}

// Reachable reports whether stage can currently be entered.
func (c *Controller) Reachable(stage Stage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Reachable(c.state.Artifacts, stage)
}

// Stage returns the current stage.
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Stage
}

// Artifacts returns the current artifact slots.
func (c *Controller) Artifacts() Artifacts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Artifacts
}

// SetContent stores mined content, superseding every later artifact.
func (c *Controller) SetContent(v *factory.RawContent) { c.SetArtifact(SetContent(v)) }

// SetScript stores a script, superseding audio and assets.
func (c *Controller) SetScript(v *factory.VideoScript) { c.SetArtifact(SetScript(v)) }

// SetAudio stores the narration set.
func (c *Controller) SetAudio(v *factory.TTSData) { c.SetArtifact(SetAudio(v)) }

// SetAssets stores the visual asset set.
func (c *Controller) SetAssets(v *factory.AssetsData) { c.SetArtifact(SetAssets(v)) }

// SetArtifact applies an artifact event built with SetContent, SetScript,
// SetAudio, or SetAssets. When auto-advance is enabled and the stored kind
// gates a later stage, a move is scheduled after the advance delay.
func (c *Controller) SetArtifact(e Event) {
	if e.Type != EventSetArtifact {
		return
	}
	c.mu.Lock()
	before := c.state.Stage
	c.state = Reduce(c.state, e)
	if c.state.Stage != before {
		c.logger.Info("stage rewound after artifact change",
			logging.String("artifact", string(e.Kind)),
			logging.String("from", before.String()),
			logging.String(logging.FieldStage, c.state.Stage.String()),
		)
	}
	if c.autoAdvance {
		if target, ok := AutoAdvanceTarget(c.state, e.Kind); ok {
			c.scheduleLocked(target)
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// GoTo moves to stage when the gate allows it. A rejected move leaves the
// state untouched and returns false.
func (c *Controller) GoTo(stage Stage) bool {
	return c.navigate(GoTo(stage), func(s State) bool {
		return stage.Valid() && Reachable(s.Artifacts, stage)
	})
}

// Advance moves one stage forward when the next stage is reachable.
func (c *Controller) Advance() bool {
	return c.navigate(Advance(), func(s State) bool {
		next := s.Stage + 1
		return next <= LastStage && Reachable(s.Artifacts, next)
	})
}

// Retreat moves back to the nearest reachable earlier stage.
func (c *Controller) Retreat() bool {
	return c.navigate(Retreat(), func(s State) bool {
		return s.Stage > FirstStage
	})
}

// Reset clears every artifact and returns to the first stage.
func (c *Controller) Reset() {
	c.navigate(Reset(), func(State) bool { return true })
}

func (c *Controller) navigate(e Event, accept func(State) bool) bool {
	c.mu.Lock()
	if !accept(c.state) {
		c.mu.Unlock()
		return false
	}
	c.cancelPendingLocked()
	c.state = Reduce(c.state, e)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
	return true
}

// Flush applies a pending auto-advance immediately. It reports the stage moved
// to, or false when nothing was pending or the gate no longer allows it.
func (c *Controller) Flush() (Stage, bool) {
	c.mu.Lock()
	p := c.pending
	if p == nil {
		c.mu.Unlock()
		return 0, false
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	moved := c.firePendingLocked(p.seq)
	stage := c.state.Stage
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if moved {
		c.publish(snap)
	}
	return stage, moved
}

// Pending returns the scheduled auto-advance target, if any.
func (c *Controller) Pending() (Stage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return 0, false
	}
	return c.pending.target, true
}

// Snapshot returns a copy of the current state with per-stage display status.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Restore replaces the state with a persisted one. The stage pointer is
// re-checked against the gate and any pending advance is dropped.
func (c *Controller) Restore(s State) {
	c.mu.Lock()
	c.cancelPendingLocked()
	if !s.Stage.Valid() {
		s.Stage = FirstStage
	}
	if !Reachable(s.Artifacts, s.Stage) {
		s.Stage = highestReachable(s.Artifacts, s.Stage)
	}
	c.state = s
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

func (c *Controller) scheduleLocked(target Stage) {
	c.cancelPendingLocked()
	c.seq++
	seq := c.seq
	p := &pendingAdvance{target: target, seq: seq}
	c.pending = p
	p.timer = c.scheduler.AfterFunc(c.delay, func() {
		c.mu.Lock()
		moved := c.firePendingLocked(seq)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		if moved {
			c.publish(snap)
		}
	})
	c.logger.Debug("auto-advance scheduled",
		logging.String("target", target.String()),
		logging.Duration("delay", c.delay),
	)
}

// firePendingLocked applies the pending advance identified by seq. Stale
// timers (cancelled or superseded) are ignored.
func (c *Controller) firePendingLocked(seq uint64) bool {
	p := c.pending
	if p == nil || p.seq != seq {
		return false
	}
	c.pending = nil
	if !Reachable(c.state.Artifacts, p.target) || p.target == c.state.Stage {
		return false
	}
	c.state.Stage = p.target
	c.logger.Info("stage auto-advanced", logging.String(logging.FieldStage, p.target.String()))
	return true
}

func (c *Controller) cancelPendingLocked() {
	if c.pending == nil {
		return
	}
	if c.pending.timer != nil {
		c.pending.timer.Stop()
	}
	c.pending = nil
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{State: c.state, Stages: make([]StageView, 0, int(LastStage))}
	if c.pending != nil {
		snap.PendingAdvance = c.pending.target
	}
	for _, s := range AllStages() {
		view := StageView{
			Stage:     s,
			Name:      s.String(),
			Status:    StageUpcoming,
			Reachable: Reachable(c.state.Artifacts, s),
		}
		if kind, ok := s.Output(); ok && c.state.Artifacts.Has(kind) {
			view.Status = StageCompleted
		}
		if s == c.state.Stage {
			view.Status = StageCurrent
		}
		snap.Stages = append(snap.Stages, view)
	}
	return snap
}

func (c *Controller) publish(snap Snapshot) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	for _, fn := range c.subscribers {
		fn(snap)
	}
}
