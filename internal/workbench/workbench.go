package workbench

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"reelforge/internal/assets"
	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/poller"
	"reelforge/internal/services"
	"reelforge/internal/services/factory"
	"reelforge/internal/workflow"
)

// Service is the subset of the factory client the stage operations call.
type Service interface {
	Mine(ctx context.Context, topic, source string) (factory.RawContent, error)
	WikipediaRandom(ctx context.Context) (factory.RawContent, error)
	WikipediaSearch(ctx context.Context, query string) (factory.RawContent, error)
	GenerateScript(ctx context.Context, rawText, title string) (factory.VideoScript, error)
	GenerateAudio(ctx context.Context, texts []string, sessionID string) (factory.TTSData, error)
	PreviewTTS(ctx context.Context, text string) (factory.TTSPreview, error)
	Render(ctx context.Context, req factory.RenderRequest) (string, error)
	StartPipeline(ctx context.Context, topic string, skipCheck bool) (string, error)
}

// Panel is the operator-visible outcome of the most recent operation.
type Panel struct {
	LastError   string `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	LastMessage string `json:"last_message,omitempty" yaml:"last_message,omitempty"`
}

// Option configures a Workbench.
type Option func(*Workbench)

// WithTracker resets tracker keywords whenever a new script is generated.
func WithTracker(t *assets.Tracker) Option {
	return func(w *Workbench) { w.tracker = t }
}

// WithPoller hands started pipeline sessions to p.
func WithPoller(p *poller.Poller) Option {
	return func(w *Workbench) { w.poller = p }
}

// WithNotifier publishes render submissions through n.
func WithNotifier(n notifications.Service) Option {
	return func(w *Workbench) {
		if n != nil {
			w.notifier = n
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workbench) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Workbench holds the stage call sites for one workspace.
type Workbench struct {
	client     Service
	controller *workflow.Controller
	tracker    *assets.Tracker
	poller     *poller.Poller
	notifier   notifications.Service
	logger     *slog.Logger

	mu    sync.Mutex
	panel Panel
}

// New constructs a workbench writing artifacts into controller.
func New(client Service, controller *workflow.Controller, opts ...Option) *Workbench {
	w := &Workbench{
		client:     client,
		controller: controller,
		notifier:   notifications.NewService(nil),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.NewComponentLogger(w.logger, "workbench")
	return w
}

// Panel returns the outcome of the most recent operation.
func (w *Workbench) Panel() Panel {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.panel
}

// MineTopic collects content for topic and stores it as the Content artifact.
func (w *Workbench) MineTopic(ctx context.Context, topic, source string) (factory.RawContent, error) {
	content, err := w.client.Mine(ctx, topic, source)
	if err != nil {
		return content, w.fail(ctx, "mine topic", err)
	}
	w.storeContent(&content)
	w.succeed("Content mined: " + content.Title)
	return content, nil
}

// MineRandom stores a random encyclopedia article as the Content artifact.
func (w *Workbench) MineRandom(ctx context.Context) (factory.RawContent, error) {
	content, err := w.client.WikipediaRandom(ctx)
	if err != nil {
		return content, w.fail(ctx, "mine random", err)
	}
	w.storeContent(&content)
	w.succeed("Random article: " + content.Title)
	return content, nil
}

// SearchWikipedia stores the best article match for query as Content.
func (w *Workbench) SearchWikipedia(ctx context.Context, query string) (factory.RawContent, error) {
	content, err := w.client.WikipediaSearch(ctx, query)
	if err != nil {
		return content, w.fail(ctx, "search wikipedia", err)
	}
	w.storeContent(&content)
	w.succeed("Article found: " + content.Title)
	return content, nil
}

// storeContent replaces the Content artifact. The controller drops the
// derived script, so the tracker's keywords go with it.
func (w *Workbench) storeContent(content *factory.RawContent) {
	w.controller.SetContent(content)
	if w.tracker != nil {
		w.tracker.Reset(nil)
	}
}

// GenerateScript turns the mined content into a script. An explicit rawText
// overrides the Content artifact's body.
func (w *Workbench) GenerateScript(ctx context.Context, rawText, title string) (factory.VideoScript, error) {
	if strings.TrimSpace(rawText) == "" {
		content := w.controller.Artifacts().Content
		if content == nil {
			err := services.Wrap(services.ErrValidation, "workbench", "generate script", "mine content first", nil)
			return factory.VideoScript{}, w.fail(ctx, "generate script", err)
		}
		rawText = content.Body
		if strings.TrimSpace(title) == "" {
			title = content.Title
		}
	}
	script, err := w.client.GenerateScript(ctx, rawText, title)
	if err != nil {
		return script, w.fail(ctx, "generate script", err)
	}
	w.controller.SetScript(&script)
	if w.tracker != nil {
		w.tracker.Reset(script.Keywords())
	}
	w.succeed("Script generated: " + script.Title)
	return script, nil
}

// GenerateAudio narrates every script segment and stores the Audio artifact.
func (w *Workbench) GenerateAudio(ctx context.Context) (factory.TTSData, error) {
	script := w.controller.Artifacts().Script
	if script == nil {
		err := services.Wrap(services.ErrValidation, "workbench", "generate audio", "generate a script first", nil)
		return factory.TTSData{}, w.fail(ctx, "generate audio", err)
	}
	audio, err := w.client.GenerateAudio(ctx, script.Texts(), "")
	if err != nil {
		return audio, w.fail(ctx, "generate audio", err)
	}
	w.controller.SetAudio(&audio)
	w.succeed("Narration generated")
	return audio, nil
}

// PreviewVoice synthesizes a short sample without touching the workflow.
func (w *Workbench) PreviewVoice(ctx context.Context, text string) (factory.TTSPreview, error) {
	preview, err := w.client.PreviewTTS(ctx, text)
	if err != nil {
		return preview, w.fail(ctx, "preview voice", err)
	}
	w.succeed("Voice preview ready")
	return preview, nil
}

// Render submits the script, narration and downloaded footage for rendering
// and returns the render session id.
func (w *Workbench) Render(ctx context.Context) (string, error) {
	arts := w.controller.Artifacts()
	if !w.controller.Reachable(workflow.StageRender) || arts.Script == nil {
		err := services.Wrap(services.ErrValidation, "workbench", "render", "narration and footage are required before rendering", nil)
		return "", w.fail(ctx, "render", err)
	}
	req := factory.RenderRequest{
		Script:     *arts.Script,
		AudioPaths: arts.Audio.Paths(),
		AssetPaths: arts.Assets.Paths(),
		SessionID:  arts.Audio.SessionID,
	}
	sessionID, err := w.client.Render(ctx, req)
	if err != nil {
		return "", w.fail(ctx, "render", err)
	}
	w.logger.Info("render submitted",
		logging.String(logging.FieldSessionID, sessionID),
		logging.Int("audio_segments", len(req.AudioPaths)),
		logging.Int("asset_clips", len(req.AssetPaths)),
	)
	if err := w.notifier.Publish(ctx, notifications.EventRenderStarted, notifications.Payload{
		"title":      arts.Script.Title,
		"session_id": sessionID,
	}); err != nil {
		logging.WarnWithContext(w.logger, "render notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "operator not alerted"),
		)
	}
	w.succeed("Render submitted: " + sessionID)
	return sessionID, nil
}

// StartPipeline starts the automatic path and hands the session to the
// poller when one is configured.
func (w *Workbench) StartPipeline(ctx context.Context, topic string, skipCheck bool) (string, *poller.Handle, error) {
	sessionID, err := w.client.StartPipeline(ctx, topic, skipCheck)
	if err != nil {
		return "", nil, w.fail(ctx, "start pipeline", err)
	}
	w.succeed("Pipeline started: " + sessionID)
	if w.poller == nil {
		return sessionID, nil, nil
	}
	return sessionID, w.poller.SwitchTo(ctx, sessionID), nil
}

func (w *Workbench) succeed(message string) {
	w.mu.Lock()
	w.panel = Panel{LastMessage: message}
	w.mu.Unlock()
}

func (w *Workbench) fail(ctx context.Context, operation string, err error) error {
	message := services.OperatorMessage(err)
	w.mu.Lock()
	w.panel = Panel{LastError: message}
	w.mu.Unlock()
	logger := logging.WithContext(ctx, w.logger)
	logging.WarnWithContext(logger, operation+" failed", "stage_operation_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, message),
	)
	return err
}
