package poller

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/phase"
	"reelforge/internal/services"
	"reelforge/internal/services/factory"
)

const defaultInterval = 2 * time.Second

// ErrStopped is reported by a handle whose loop was torn down by Stop or SwitchTo.
var ErrStopped = errors.New("poller stopped")

// StatusSource is the subset of the service client used for polling.
type StatusSource interface {
	PipelineStatus(ctx context.Context, sessionID string) (factory.PipelineStatus, error)
	ListPipelines(ctx context.Context) (map[string]factory.PipelineStatus, error)
}

// Update is one snapshot published by the active loop.
type Update struct {
	SessionID string
	Status    factory.PipelineStatus
	Observed  time.Time
}

// Session is a known session as reported by the service.
type Session struct {
	ID                     string `json:"session_id" yaml:"session_id"`
	factory.PipelineStatus `yaml:",inline"`
}

// Option customizes the poller.
type Option func(*Poller)

// WithInterval overrides the polling period.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTransportRetries sets how many consecutive transport failures are
// tolerated before the loop gives up. Zero stops on the first failure.
func WithTransportRetries(n int) Option {
	return func(p *Poller) {
		if n >= 0 {
			p.retries = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Poller runs at most one status loop at a time and is the only writer of the
// observed session snapshot.
type Poller struct {
	source   StatusSource
	interval time.Duration
	retries  int
	logger   *slog.Logger

	mu          sync.Mutex
	active      *Handle
	latest      *Update
	subscribers []func(Update)
}

// New constructs a poller reading from source.
func New(source StatusSource, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		interval: defaultInterval,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "poller")
	return p
}

// Subscribe registers fn for every applied update. Callbacks run on the loop
// goroutine while the poller holds its lock and must not call back into it.
func (p *Poller) Subscribe(fn func(Update)) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.subscribers = append(p.subscribers, fn)
	p.mu.Unlock()
}

// Start begins polling sessionID. Any loop already running is torn down first.
func (p *Poller) Start(ctx context.Context, sessionID string) *Handle {
	return p.SwitchTo(ctx, sessionID)
}

// SwitchTo invalidates the current loop, waits for it to exit, and arms a new
// one for sessionID. No update from the previous loop is applied afterwards.
func (p *Poller) SwitchTo(ctx context.Context, sessionID string) *Handle {
	runCtx, cancel := context.WithCancel(services.WithSessionID(ctx, sessionID))
	h := &Handle{
		sessionID: sessionID,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	p.mu.Lock()
	previous := p.active
	p.active = h
	p.latest = nil
	p.mu.Unlock()

	if previous != nil {
		previous.cancel()
		<-previous.done
	}

	logger := logging.WithContext(runCtx, p.logger)
	logger.Info("polling started", logging.Duration("interval", p.interval))
	go p.run(runCtx, h, logger)
	return h
}

// Stop tears down the active loop, if any, and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	h := p.active
	p.active = nil
	p.mu.Unlock()
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}

// Active returns the session currently being polled.
func (p *Poller) Active() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return "", false
	}
	return p.active.sessionID, true
}

// Latest returns the most recent snapshot applied for the current session.
func (p *Poller) Latest() (Update, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return Update{}, false
	}
	return *p.latest, true
}

// ListKnownSessions performs a one-shot fetch of every session the service
// knows, newest first. It does not touch the active loop.
func (p *Poller) ListKnownSessions(ctx context.Context) ([]Session, error) {
	sessions, err := p.source.ListPipelines(ctx)
	if err != nil {
		return nil, err
	}
	return SortSessions(sessions), nil
}

// SortSessions orders a session map by start time, newest first, then by id.
func SortSessions(sessions map[string]factory.PipelineStatus) []Session {
	out := make([]Session, 0, len(sessions))
	for id, status := range sessions {
		out = append(out, Session{ID: id, PipelineStatus: status})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt != out[j].StartedAt {
			return out[i].StartedAt > out[j].StartedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (p *Poller) run(ctx context.Context, h *Handle, logger *slog.Logger) {
	var finalErr error
	defer func() {
		h.finish(finalErr)
		p.mu.Lock()
		if p.active == h {
			p.active = nil
		}
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		status, err := p.source.PipelineStatus(ctx, h.sessionID)
		h.recordFetch()
		if ctx.Err() != nil {
			finalErr = ErrStopped
			if parentErr := context.Cause(ctx); parentErr != nil && !errors.Is(parentErr, context.Canceled) {
				finalErr = parentErr
			}
			return
		}
		switch {
		case err == nil:
			failures = 0
			if !p.apply(h, status) {
				finalErr = ErrStopped
				return
			}
			if phase.IsTerminal(status.Status) {
				logger.Info("session reached terminal status",
					logging.String("status", status.Status),
					logging.String("phase", status.Phase),
				)
				return
			}
		case services.IsTransport(err) && failures < p.retries:
			failures++
			logging.WarnWithContext(logger, "status fetch failed; will retry", "poll_transport_retry",
				logging.Int("attempt", failures),
				logging.Int("max_retries", p.retries),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the video service is reachable"),
				logging.String(logging.FieldImpact, "session view may lag behind the service"),
			)
		default:
			logging.ErrorWithContext(logger, "polling stopped after fetch failure", "poll_failed",
				logging.Error(err),
				logging.Bool("transport", services.IsTransport(err)),
			)
			finalErr = err
			return
		}

		select {
		case <-ctx.Done():
			finalErr = ErrStopped
			return
		case <-ticker.C:
		}
	}
}

// apply publishes status if h is still the active handle.
func (p *Poller) apply(h *Handle, status factory.PipelineStatus) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != h {
		return false
	}
	update := Update{SessionID: h.sessionID, Status: status, Observed: time.Now()}
	p.latest = &update
	for _, fn := range p.subscribers {
		fn(update)
	}
	return true
}

// Handle identifies one polling loop.
type Handle struct {
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}

	mu      sync.Mutex
	err     error
	fetches int
}

// SessionID returns the polled session.
func (h *Handle) SessionID() string { return h.sessionID }

// Done is closed when the loop exits.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err reports why the loop exited: nil for a terminal status, ErrStopped for
// teardown, or the fetch error that ended it. Valid after Done is closed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Fetches returns how many status requests the loop has issued.
func (h *Handle) Fetches() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fetches
}

// Wait blocks until the loop exits or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) recordFetch() {
	h.mu.Lock()
	h.fetches++
	h.mu.Unlock()
}

func (h *Handle) finish(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	h.cancel()
	close(h.done)
}
