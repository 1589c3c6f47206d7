package factory

// Envelope is the uniform response wrapper returned by every endpoint.
type Envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    *T     `json:"data"`
}

// Envelope status values.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusWarning = "warning"
)

// HealthData reports service readiness and per-dependency checks.
type HealthData struct {
	Checks map[string]bool `json:"checks" yaml:"checks"`
	Issues []string        `json:"issues" yaml:"issues"`
}

// AppConfig echoes the service's active configuration.
type AppConfig struct {
	Video   VideoConfig   `json:"video" yaml:"video"`
	Content ContentConfig `json:"content" yaml:"content"`
	TTS     TTSConfig     `json:"tts" yaml:"tts"`
	LLM     LLMConfig     `json:"llm" yaml:"llm"`
	Scraper ScraperConfig `json:"scraper" yaml:"scraper"`
}

type VideoConfig struct {
	MaxClipDuration float64 `json:"max_clip_duration" yaml:"max_clip_duration"`
	MinClipDuration float64 `json:"min_clip_duration" yaml:"min_clip_duration"`
	Format          string  `json:"format" yaml:"format"`
	Resolution      []int   `json:"resolution" yaml:"resolution"`
	FPS             int     `json:"fps" yaml:"fps"`
}

type ContentConfig struct {
	Language          string  `json:"language" yaml:"language"`
	Style             string  `json:"style" yaml:"style"`
	MaxScriptDuration float64 `json:"max_script_duration" yaml:"max_script_duration"`
}

type TTSConfig struct {
	Model   string `json:"model" yaml:"model"`
	VoiceID string `json:"voice_id" yaml:"voice_id"`
}

type LLMConfig struct {
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

type ScraperConfig struct {
	Subreddits []string `json:"subreddits" yaml:"subreddits"`
	PostLimit  int      `json:"post_limit" yaml:"post_limit"`
}

// RawContent is the mined source material (Content artifact).
type RawContent struct {
	Title     string  `json:"title" yaml:"title"`
	Body      string  `json:"body" yaml:"body"`
	Source    string  `json:"source" yaml:"source"`
	URL       string  `json:"url" yaml:"url"`
	Author    string  `json:"author" yaml:"author"`
	Score     float64 `json:"score" yaml:"score"`
	CreatedAt string  `json:"created_at" yaml:"created_at"`
	Category  string  `json:"category" yaml:"category"`
}

// Segment is one narrated slice of a script.
type Segment struct {
	Text             string  `json:"text" yaml:"text"`
	VisualKeyword    string  `json:"visual_keyword" yaml:"visual_keyword"`
	DurationEstimate float64 `json:"duration_estimate" yaml:"duration_estimate"`
}

// VideoScript is the structured script (Script artifact).
type VideoScript struct {
	Title         string    `json:"title" yaml:"title"`
	SourceURL     string    `json:"source_url" yaml:"source_url"`
	TotalDuration float64   `json:"total_duration" yaml:"total_duration"`
	Segments      []Segment `json:"segments" yaml:"segments"`
}

// Keywords returns the visual keywords in segment order, skipping blanks and
// repeats.
func (s *VideoScript) Keywords() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(s.Segments))
	out := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		if seg.VisualKeyword == "" {
			continue
		}
		if _, ok := seen[seg.VisualKeyword]; ok {
			continue
		}
		seen[seg.VisualKeyword] = struct{}{}
		out = append(out, seg.VisualKeyword)
	}
	return out
}

// Texts returns the narration text of every segment in order.
func (s *VideoScript) Texts() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		out = append(out, seg.Text)
	}
	return out
}

// AudioSegment describes one synthesized narration file.
type AudioSegment struct {
	Index    int     `json:"index" yaml:"index"`
	Text     string  `json:"text" yaml:"text"`
	FilePath string  `json:"file_path" yaml:"file_path"`
	Exists   bool    `json:"exists" yaml:"exists"`
	Duration float64 `json:"duration" yaml:"duration"`
}

// TTSData is the synthesized narration set (Audio artifact).
type TTSData struct {
	SessionID string         `json:"session_id" yaml:"session_id"`
	Segments  []AudioSegment `json:"segments" yaml:"segments"`
}

// Paths returns the file path of every audio segment in order.
func (d *TTSData) Paths() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.Segments))
	for _, seg := range d.Segments {
		out = append(out, seg.FilePath)
	}
	return out
}

type TTSStatus struct {
	EdgeTTS      bool   `json:"edge_tts" yaml:"edge_tts"`
	XTTSKaggle   bool   `json:"xtts_kaggle" yaml:"xtts_kaggle"`
	CurrentModel string `json:"current_model" yaml:"current_model"`
	VoiceID      string `json:"voice_id" yaml:"voice_id"`
}

type Voice struct {
	Name      string `json:"Name" yaml:"name"`
	ShortName string `json:"ShortName" yaml:"short_name"`
	Gender    string `json:"Gender" yaml:"gender"`
	Locale    string `json:"Locale" yaml:"locale"`
}

type VoiceCatalog struct {
	Voices       []Voice `json:"voices" yaml:"voices"`
	CurrentVoice string  `json:"current_voice" yaml:"current_voice"`
}

type TTSPreview struct {
	FilePath string  `json:"file_path" yaml:"file_path"`
	Duration float64 `json:"duration" yaml:"duration"`
}

type LLMStatus struct {
	Available bool   `json:"available" yaml:"available"`
	Model     string `json:"model" yaml:"model"`
	URL       string `json:"url" yaml:"url"`
}

// VideoAsset describes one downloaded stock clip.
type VideoAsset struct {
	Keyword     string  `json:"keyword" yaml:"keyword"`
	FilePath    string  `json:"file_path" yaml:"file_path"`
	Exists      bool    `json:"exists" yaml:"exists"`
	Source      string  `json:"source" yaml:"source"`
	Duration    float64 `json:"duration" yaml:"duration"`
	Orientation string  `json:"orientation" yaml:"orientation"`
}

// AssetsData is the fetched visual asset set (Assets artifact). Entries are
// positional; a nil entry marks a keyword that could not be fetched.
type AssetsData struct {
	SessionID string        `json:"session_id" yaml:"session_id"`
	Assets    []*VideoAsset `json:"assets" yaml:"assets"`
}

// Paths returns the file paths of the fetched entries, skipping failures.
func (d *AssetsData) Paths() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.Assets))
	for _, asset := range d.Assets {
		if asset == nil || asset.FilePath == "" {
			continue
		}
		out = append(out, asset.FilePath)
	}
	return out
}

// Fetched counts the non-nil entries.
func (d *AssetsData) Fetched() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, asset := range d.Assets {
		if asset != nil {
			n++
		}
	}
	return n
}

type AssetsStatus struct {
	Pexels        bool   `json:"pexels" yaml:"pexels"`
	Pixabay       bool   `json:"pixabay" yaml:"pixabay"`
	PrimarySource string `json:"primary_source" yaml:"primary_source"`
	CacheEnabled  bool   `json:"cache_enabled" yaml:"cache_enabled"`
}

// AssetPreview is the thumbnail metadata returned by a keyword search.
type AssetPreview struct {
	Title     string  `json:"title" yaml:"title"`
	URL       string  `json:"url" yaml:"url"`
	Thumbnail string  `json:"thumbnail" yaml:"thumbnail"`
	Duration  float64 `json:"duration" yaml:"duration"`
	Width     int     `json:"width" yaml:"width"`
	Height    int     `json:"height" yaml:"height"`
}

type AssetSearch struct {
	Keyword  string         `json:"keyword" yaml:"keyword"`
	Source   string         `json:"source" yaml:"source"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
	Preview  *AssetPreview  `json:"preview,omitempty" yaml:"preview,omitempty"`
}

// AssetDescriptor is the persisted result of a single-keyword download.
type AssetDescriptor struct {
	Path        string  `json:"path" yaml:"path"`
	Source      string  `json:"source" yaml:"source"`
	OriginalURL string  `json:"original_url" yaml:"original_url"`
	Duration    float64 `json:"duration" yaml:"duration"`
}

type AssetDownload struct {
	Keyword string          `json:"keyword" yaml:"keyword"`
	Source  string          `json:"source" yaml:"source"`
	Asset   AssetDescriptor `json:"asset" yaml:"asset"`
}

type EditorPreview struct {
	MaxClipDuration float64 `json:"max_clip_duration" yaml:"max_clip_duration"`
	MinClipDuration float64 `json:"min_clip_duration" yaml:"min_clip_duration"`
	Resolution      []int   `json:"resolution" yaml:"resolution"`
	FPS             int     `json:"fps" yaml:"fps"`
	BGMusicVolume   float64 `json:"bg_music_volume" yaml:"bg_music_volume"`
}

// RenderRequest is the body of POST /editor/render.
type RenderRequest struct {
	Script     VideoScript `json:"script"`
	AudioPaths []string    `json:"audio_paths"`
	AssetPaths []string    `json:"asset_paths"`
	SessionID  string      `json:"session_id,omitempty"`
}

type OutputVideo struct {
	Name    string  `json:"name" yaml:"name"`
	Path    string  `json:"path" yaml:"path"`
	SizeMB  float64 `json:"size_mb" yaml:"size_mb"`
	Created string  `json:"created" yaml:"created"`
}

// KeywordProgress is the per-keyword asset status inside a session snapshot.
type KeywordProgress struct {
	Keyword string `json:"keyword" yaml:"keyword"`
	Status  string `json:"status" yaml:"status"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
}

type AssetsDetail struct {
	Total    int               `json:"total" yaml:"total"`
	Fetched  int               `json:"fetched" yaml:"fetched"`
	Keywords []KeywordProgress `json:"keywords" yaml:"keywords"`
}

// PipelineStatus is one snapshot of a remote session.
type PipelineStatus struct {
	Status       string        `json:"status" yaml:"status"`
	Phase        string        `json:"phase" yaml:"phase"`
	Progress     int           `json:"progress" yaml:"progress"`
	Message      string        `json:"message" yaml:"message"`
	StartedAt    string        `json:"started_at" yaml:"started_at"`
	Topic        string        `json:"topic" yaml:"topic"`
	Output       string        `json:"output,omitempty" yaml:"output,omitempty"`
	CompletedAt  string        `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	AssetsDetail *AssetsDetail `json:"assets_detail,omitempty" yaml:"assets_detail,omitempty"`
}

type sessionRef struct {
	SessionID string `json:"session_id"`
}

type sessionList struct {
	Sessions map[string]PipelineStatus `json:"sessions"`
}

type outputList struct {
	Videos []OutputVideo `json:"videos"`
}
