package assets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/services/factory"
)

var (
	// ErrUnknownKeyword is returned for keywords not in the current script.
	ErrUnknownKeyword = fmt.Errorf("%w: unknown keyword", services.ErrValidation)
	// ErrSourceFrozen is returned when changing the source of a downloaded keyword.
	ErrSourceFrozen = fmt.Errorf("%w: source is frozen after download", services.ErrValidation)
)

// Client is the subset of the service client the tracker uses.
type Client interface {
	SearchAssets(ctx context.Context, keyword, source string) (factory.AssetSearch, error)
	DownloadAsset(ctx context.Context, keyword, source, sessionID string) (factory.AssetDownload, error)
	FetchAssets(ctx context.Context, keywords []string, sessionID string) (factory.AssetsData, error)
}

// ArtifactSink receives the aggregate assets artifact.
type ArtifactSink interface {
	SetAssets(*factory.AssetsData)
}

// Option customizes the tracker.
type Option func(*Tracker)

// WithMaxConcurrent bounds the number of requests in flight. Zero is unbounded.
func WithMaxConcurrent(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithDefaultSource sets the source assigned to new keywords.
func WithDefaultSource(source string) Option {
	return func(t *Tracker) {
		source = strings.ToLower(strings.TrimSpace(source))
		if config.IsAssetSource(source) {
			t.defaultSource = source
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Tracker owns the per-keyword preview and download state. Keywords are
// independent: work on one never blocks or alters another.
type Tracker struct {
	client        Client
	sink          ArtifactSink
	sem           *semaphore.Weighted
	defaultSource string
	logger        *slog.Logger

	mu         sync.Mutex
	entries    map[string]*entry
	order      []string
	downloaded []string
	lastError  string
}

// NewTracker constructs a tracker that publishes downloads to sink.
func NewTracker(client Client, sink ArtifactSink, opts ...Option) *Tracker {
	t := &Tracker{
		client:        client,
		sink:          sink,
		defaultSource: config.DefaultAssetSource,
		logger:        logging.NewNop(),
		entries:       map[string]*entry{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.NewComponentLogger(t.logger, "assets")
	return t
}

// SetKeywords replaces the keyword list. Order is kept for display only;
// existing state is kept for keywords that remain.
func (t *Tracker) SetKeywords(keywords []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setKeywordsLocked(keywords)
}

// Reset drops all state and starts over with keywords. Used when a new script
// supersedes the previous one.
func (t *Tracker) Reset(keywords []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = map[string]*entry{}
	t.downloaded = nil
	t.lastError = ""
	t.setKeywordsLocked(keywords)
}

func (t *Tracker) setKeywordsLocked(keywords []string) {
	next := make(map[string]*entry, len(keywords))
	order := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, dup := next[kw]; dup {
			continue
		}
		e, ok := t.entries[kw]
		if !ok {
			e = &entry{keyword: kw, source: t.defaultSource}
		}
		next[kw] = e
		order = append(order, kw)
	}
	kept := t.downloaded[:0]
	for _, kw := range t.downloaded {
		if _, ok := next[kw]; ok {
			kept = append(kept, kw)
		}
	}
	t.entries = next
	t.order = order
	t.downloaded = kept
}

// Keywords returns the keywords in display order.
func (t *Tracker) Keywords() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

// State returns the state of one keyword.
func (t *Tracker) State(keyword string) (KeywordState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[keyword]
	if !ok {
		return KeywordState{}, false
	}
	return e.view(), true
}

// States returns every keyword state in display order.
func (t *Tracker) States() []KeywordState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]KeywordState, 0, len(t.order))
	for _, kw := range t.order {
		out = append(out, t.entries[kw].view())
	}
	return out
}

// Summary counts keywords by status.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Summary{Keywords: len(t.order)}
	for _, kw := range t.order {
		switch t.entries[kw].status() {
		case StatusDownloaded:
			s.Downloaded++
		case StatusDownloading:
			s.Downloading++
		case StatusSearching:
			s.Searching++
		}
	}
	return s
}

// LastError returns the most recent panel-level error message.
func (t *Tracker) LastError() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}

// SetSource chooses the provider for keyword. The choice is frozen once the
// keyword has been downloaded.
func (t *Tracker) SetSource(keyword, source string) error {
	source = strings.ToLower(strings.TrimSpace(source))
	if !config.IsAssetSource(source) {
		return fmt.Errorf("%w: unsupported asset source %q", services.ErrValidation, source)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[keyword]
	if !ok {
		return fmt.Errorf("set source %q: %w", keyword, ErrUnknownKeyword)
	}
	if e.asset != nil {
		return fmt.Errorf("set source %q: %w", keyword, ErrSourceFrozen)
	}
	e.source = source
	return nil
}

// Preview looks up a preview for keyword using its chosen source. It is a
// no-op (applied=false) when the keyword is downloaded or already searching,
// and its result is dropped when a Reset superseded the keyword meanwhile.
// Failures are recorded as the panel error and also returned.
func (t *Tracker) Preview(ctx context.Context, keyword string) (bool, error) {
	t.mu.Lock()
	e, ok := t.entries[keyword]
	if !ok {
		t.mu.Unlock()
		return false, fmt.Errorf("preview %q: %w", keyword, ErrUnknownKeyword)
	}
	if e.asset != nil || e.searching {
		t.mu.Unlock()
		return false, nil
	}
	e.searching = true
	t.lastError = ""
	source := e.source
	t.mu.Unlock()

	ctx = services.WithKeyword(ctx, keyword)
	logger := logging.WithContext(ctx, t.logger)

	result, err := withSlot(ctx, t, func() (factory.AssetSearch, error) {
		return t.client.SearchAssets(ctx, keyword, source)
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	e.searching = false
	if !t.currentLocked(keyword, e) {
		logger.Debug("dropping preview for superseded keyword")
		return false, nil
	}
	if err != nil {
		t.lastError = fmt.Sprintf("Preview for %q failed: %s", keyword, services.OperatorMessage(err))
		logger.Warn("asset preview failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "asset_preview_failed"),
			logging.String(logging.FieldErrorHint, "try another source for this keyword"),
		)
		return true, err
	}
	if result.Preview == nil {
		t.lastError = fmt.Sprintf("No preview found for %q on %s", keyword, source)
		return true, services.Wrap(services.ErrNotFound, "assets", "preview", keyword, nil)
	}
	if e.asset == nil {
		e.preview = result.Preview
	}
	logger.Debug("asset preview stored", logging.String("source", source))
	return true, nil
}

// Download fetches one clip for keyword. On success the keyword is downloaded
// permanently and the aggregate assets artifact is republished with the new
// descriptor appended. It is a no-op when the keyword is already downloaded
// or a download is in flight. A result arriving after a Reset superseded the
// keyword is dropped without touching the artifact.
func (t *Tracker) Download(ctx context.Context, keyword string) (bool, error) {
	t.mu.Lock()
	e, ok := t.entries[keyword]
	if !ok {
		t.mu.Unlock()
		return false, fmt.Errorf("download %q: %w", keyword, ErrUnknownKeyword)
	}
	if e.asset != nil || e.downloading {
		t.mu.Unlock()
		return false, nil
	}
	e.downloading = true
	t.lastError = ""
	source := e.source
	t.mu.Unlock()

	ctx = services.WithKeyword(ctx, keyword)
	logger := logging.WithContext(ctx, t.logger)

	result, err := withSlot(ctx, t, func() (factory.AssetDownload, error) {
		return t.client.DownloadAsset(ctx, keyword, source, "")
	})

	t.mu.Lock()
	e.downloading = false
	if !t.currentLocked(keyword, e) {
		t.mu.Unlock()
		logger.Debug("dropping download for superseded keyword")
		return false, nil
	}
	if err != nil {
		t.lastError = fmt.Sprintf("Download of %q failed: %s", keyword, services.OperatorMessage(err))
		t.mu.Unlock()
		logging.WarnWithContext(logger, "asset download failed", "asset_download_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "retry the download or pick another source"),
			logging.String(logging.FieldImpact, "render stays locked until assets exist"),
		)
		return true, err
	}
	asset := result.Asset
	if asset.Source == "" {
		asset.Source = source
	}
	e.asset = &asset
	e.source = asset.Source
	t.markDownloadedLocked(keyword)
	aggregate := t.aggregateLocked()
	t.mu.Unlock()

	logger.Info("asset downloaded",
		logging.String("source", asset.Source),
		logging.String("path", asset.Path),
	)
	if t.sink != nil {
		t.sink.SetAssets(aggregate)
	}
	return true, nil
}

// DownloadAll fetches every keyword in one batch request. The positional
// result, including nil entries for keywords that failed, replaces the
// aggregate assets artifact. Per-keyword states are not changed.
func (t *Tracker) DownloadAll(ctx context.Context) (factory.AssetsData, error) {
	keywords := t.Keywords()
	if len(keywords) == 0 {
		return factory.AssetsData{}, services.Wrap(services.ErrValidation, "assets", "download all", "no keywords", nil)
	}
	t.mu.Lock()
	t.lastError = ""
	t.mu.Unlock()

	logger := t.logger.With(logging.Int("keywords", len(keywords)))
	data, err := withSlot(ctx, t, func() (factory.AssetsData, error) {
		return t.client.FetchAssets(ctx, keywords, "")
	})
	if err != nil && !(factory.IsWarning(err) && len(data.Assets) > 0) {
		t.mu.Lock()
		t.lastError = fmt.Sprintf("Batch download failed: %s", services.OperatorMessage(err))
		t.mu.Unlock()
		logger.Warn("batch asset fetch failed", logging.Error(err))
		return factory.AssetsData{}, err
	}

	logger.Info("batch asset fetch finished", logging.Int("fetched", data.Fetched()))
	if t.sink != nil {
		result := data
		t.sink.SetAssets(&result)
	}
	return data, err
}

// Restore loads persisted keyword states. In-flight flags are never restored.
func (t *Tracker) Restore(states []KeywordState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string]*entry, len(states))
	t.order = t.order[:0]
	t.downloaded = nil
	for _, s := range states {
		if s.Keyword == "" {
			continue
		}
		if _, dup := t.entries[s.Keyword]; dup {
			continue
		}
		source := s.Source
		if !config.IsAssetSource(source) {
			source = t.defaultSource
		}
		t.entries[s.Keyword] = &entry{
			keyword: s.Keyword,
			source:  source,
			preview: s.Preview,
			asset:   s.Asset,
		}
		t.order = append(t.order, s.Keyword)
		if s.Asset != nil {
			t.markDownloadedLocked(s.Keyword)
		}
	}
}

// currentLocked reports whether e is still the live entry for keyword. A
// Reset or SetKeywords that dropped the keyword detaches its old entry.
func (t *Tracker) currentLocked(keyword string, e *entry) bool {
	return t.entries[keyword] == e
}

func (t *Tracker) markDownloadedLocked(keyword string) {
	for _, kw := range t.downloaded {
		if kw == keyword {
			return
		}
	}
	t.downloaded = append(t.downloaded, keyword)
}

// aggregateLocked builds the assets artifact from downloads in completion order.
func (t *Tracker) aggregateLocked() *factory.AssetsData {
	out := &factory.AssetsData{Assets: make([]*factory.VideoAsset, 0, len(t.downloaded))}
	for _, kw := range t.downloaded {
		e := t.entries[kw]
		if e == nil || e.asset == nil {
			continue
		}
		out.Assets = append(out.Assets, &factory.VideoAsset{
			Keyword:     kw,
			FilePath:    e.asset.Path,
			Exists:      true,
			Source:      e.asset.Source,
			Duration:    e.asset.Duration,
			Orientation: "landscape",
		})
	}
	return out
}

func (t *Tracker) acquire(ctx context.Context) (func(), error) {
	if t.sem == nil {
		return func() {}, nil
	}
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return nil, services.Wrap(services.ErrTransport, "assets", "acquire request slot", "", err)
	}
	return func() { t.sem.Release(1) }, nil
}

func withSlot[T any](ctx context.Context, t *Tracker, fn func() (T, error)) (T, error) {
	release, err := t.acquire(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer release()
	return fn()
}
