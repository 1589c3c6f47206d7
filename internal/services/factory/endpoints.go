package factory

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"reelforge/internal/services"
)

// Health reports service readiness and per-dependency checks.
func (c *Client) Health(ctx context.Context) (HealthData, error) {
	return call[HealthData](ctx, c, request{method: http.MethodGet, path: "/health"})
}

// Config returns the service's active configuration.
func (c *Client) Config(ctx context.Context) (AppConfig, error) {
	return call[AppConfig](ctx, c, request{method: http.MethodGet, path: "/config"})
}

// Mine collects content for topic from source.
func (c *Client) Mine(ctx context.Context, topic, source string) (RawContent, error) {
	if strings.TrimSpace(topic) == "" {
		topic = "random"
	}
	if strings.TrimSpace(source) == "" {
		source = "wikipedia"
	}
	body := map[string]string{"topic": topic, "source": source}
	return call[RawContent](ctx, c, request{method: http.MethodPost, path: "/scraper/mine", body: body, class: longCall})
}

// WikipediaRandom returns a random encyclopedia article.
func (c *Client) WikipediaRandom(ctx context.Context) (RawContent, error) {
	return call[RawContent](ctx, c, request{method: http.MethodGet, path: "/scraper/wikipedia/random"})
}

// WikipediaSearch returns the best article match for query.
func (c *Client) WikipediaSearch(ctx context.Context, query string) (RawContent, error) {
	if strings.TrimSpace(query) == "" {
		return RawContent{}, services.Wrap(services.ErrValidation, "factory", "wikipedia search", "query required", nil)
	}
	return call[RawContent](ctx, c, request{
		method: http.MethodGet,
		path:   "/scraper/wikipedia/search",
		query:  url.Values{"query": {query}},
	})
}

// LLMStatus reports language model availability.
func (c *Client) LLMStatus(ctx context.Context) (LLMStatus, error) {
	return call[LLMStatus](ctx, c, request{method: http.MethodGet, path: "/llm/status"})
}

// GenerateScript turns raw text into a segmented video script.
func (c *Client) GenerateScript(ctx context.Context, rawText, title string) (VideoScript, error) {
	if strings.TrimSpace(rawText) == "" {
		return VideoScript{}, services.Wrap(services.ErrValidation, "factory", "generate script", "raw text required", nil)
	}
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	body := map[string]string{"raw_text": rawText, "title": title}
	return call[VideoScript](ctx, c, request{method: http.MethodPost, path: "/llm/generate", body: body, class: longCall})
}

// TTSStatus reports speech synthesis capability.
func (c *Client) TTSStatus(ctx context.Context) (TTSStatus, error) {
	return call[TTSStatus](ctx, c, request{method: http.MethodGet, path: "/tts/status"})
}

// Voices lists the voice catalog.
func (c *Client) Voices(ctx context.Context) (VoiceCatalog, error) {
	return call[VoiceCatalog](ctx, c, request{method: http.MethodGet, path: "/tts/voices"})
}

type generateAudioBody struct {
	Texts     []string `json:"texts"`
	SessionID string   `json:"session_id,omitempty"`
}

// GenerateAudio synthesizes one narration file per text.
func (c *Client) GenerateAudio(ctx context.Context, texts []string, sessionID string) (TTSData, error) {
	if len(texts) == 0 {
		return TTSData{}, services.Wrap(services.ErrValidation, "factory", "generate audio", "at least one text required", nil)
	}
	body := generateAudioBody{Texts: texts, SessionID: sessionID}
	return call[TTSData](ctx, c, request{method: http.MethodPost, path: "/tts/generate", body: body, class: longCall})
}

// PreviewTTS synthesizes a single utterance.
func (c *Client) PreviewTTS(ctx context.Context, text string) (TTSPreview, error) {
	if strings.TrimSpace(text) == "" {
		return TTSPreview{}, services.Wrap(services.ErrValidation, "factory", "preview tts", "text required", nil)
	}
	return call[TTSPreview](ctx, c, request{
		method: http.MethodPost,
		path:   "/tts/preview",
		query:  url.Values{"text": {text}},
	})
}

// AssetsStatus reports stock footage provider availability.
func (c *Client) AssetsStatus(ctx context.Context) (AssetsStatus, error) {
	return call[AssetsStatus](ctx, c, request{method: http.MethodGet, path: "/assets/status"})
}

// SearchAssets looks up a preview for one keyword.
func (c *Client) SearchAssets(ctx context.Context, keyword, source string) (AssetSearch, error) {
	if strings.TrimSpace(keyword) == "" {
		return AssetSearch{}, services.Wrap(services.ErrValidation, "factory", "search assets", "keyword required", nil)
	}
	return call[AssetSearch](ctx, c, request{
		method: http.MethodGet,
		path:   "/assets/search",
		query:  url.Values{"keyword": {keyword}, "source": {defaultSource(source)}},
	})
}

type fetchAssetsBody struct {
	Keywords  []string `json:"keywords"`
	SessionID string   `json:"session_id,omitempty"`
}

// FetchAssets downloads one clip per keyword. The result is positional; a
// keyword that could not be fetched yields a nil entry rather than an error.
func (c *Client) FetchAssets(ctx context.Context, keywords []string, sessionID string) (AssetsData, error) {
	if len(keywords) == 0 {
		return AssetsData{}, services.Wrap(services.ErrValidation, "factory", "fetch assets", "at least one keyword required", nil)
	}
	body := fetchAssetsBody{Keywords: keywords, SessionID: sessionID}
	return call[AssetsData](ctx, c, request{method: http.MethodPost, path: "/assets/fetch", body: body, class: longCall})
}

// DownloadAsset downloads one clip for keyword from source.
func (c *Client) DownloadAsset(ctx context.Context, keyword, source, sessionID string) (AssetDownload, error) {
	if strings.TrimSpace(keyword) == "" {
		return AssetDownload{}, services.Wrap(services.ErrValidation, "factory", "download asset", "keyword required", nil)
	}
	query := url.Values{"keyword": {keyword}, "source": {defaultSource(source)}}
	if sessionID != "" {
		query.Set("session_id", sessionID)
	}
	return call[AssetDownload](ctx, c, request{
		method: http.MethodPost,
		path:   "/assets/download-single",
		query:  query,
		class:  longCall,
	})
}

// EditorPreview returns the renderer's editing parameters.
func (c *Client) EditorPreview(ctx context.Context) (EditorPreview, error) {
	return call[EditorPreview](ctx, c, request{method: http.MethodGet, path: "/editor/preview"})
}

// Render submits a render job and returns its session identifier.
func (c *Client) Render(ctx context.Context, req RenderRequest) (string, error) {
	if len(req.Script.Segments) == 0 {
		return "", services.Wrap(services.ErrValidation, "factory", "render", "script has no segments", nil)
	}
	if req.AudioPaths == nil {
		req.AudioPaths = []string{}
	}
	if req.AssetPaths == nil {
		req.AssetPaths = []string{}
	}
	ref, err := call[sessionRef](ctx, c, request{method: http.MethodPost, path: "/editor/render", body: req, class: longCall})
	return ref.SessionID, err
}

// Outputs lists completed renders.
func (c *Client) Outputs(ctx context.Context) ([]OutputVideo, error) {
	list, err := call[outputList](ctx, c, request{method: http.MethodGet, path: "/outputs"})
	return list.Videos, err
}

type startPipelineBody struct {
	Topic     string `json:"topic"`
	SkipCheck bool   `json:"skip_check"`
}

// StartPipeline starts the automatic end-to-end pipeline for topic.
func (c *Client) StartPipeline(ctx context.Context, topic string, skipCheck bool) (string, error) {
	if strings.TrimSpace(topic) == "" {
		topic = "random"
	}
	ref, err := call[sessionRef](ctx, c, request{
		method: http.MethodPost,
		path:   "/pipeline/start",
		body:   startPipelineBody{Topic: topic, SkipCheck: skipCheck},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(ref.SessionID) == "" {
		return "", services.Wrap(services.ErrApplication, "factory", "start pipeline", "service returned no session id", nil)
	}
	return ref.SessionID, nil
}

// PipelineStatus fetches one snapshot of a session.
func (c *Client) PipelineStatus(ctx context.Context, sessionID string) (PipelineStatus, error) {
	if strings.TrimSpace(sessionID) == "" {
		return PipelineStatus{}, services.Wrap(services.ErrValidation, "factory", "pipeline status", "session id required", nil)
	}
	status, err := call[*PipelineStatus](ctx, c, request{method: http.MethodGet, path: "/pipeline/status/" + sessionID})
	if err != nil {
		if status != nil {
			return *status, err
		}
		return PipelineStatus{}, err
	}
	if status == nil {
		return PipelineStatus{}, &EnvelopeError{Operation: "pipeline status", Status: StatusError, Message: "session not found"}
	}
	return *status, nil
}

// ListPipelines returns every session the service knows about, keyed by id.
func (c *Client) ListPipelines(ctx context.Context) (map[string]PipelineStatus, error) {
	list, err := call[sessionList](ctx, c, request{method: http.MethodGet, path: "/pipeline/list"})
	if list.Sessions == nil && err == nil {
		return map[string]PipelineStatus{}, nil
	}
	return list.Sessions, err
}

func defaultSource(source string) string {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		return "pexels"
	}
	return source
}
