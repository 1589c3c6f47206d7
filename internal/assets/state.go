package assets

import (
	"fmt"

	"reelforge/internal/services/factory"
)

// Status is the display status of one keyword.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusSearching   Status = "searching"
	StatusDownloading Status = "downloading"
	StatusDownloaded  Status = "downloaded"
)

// KeywordState is the externally visible state of one keyword.
type KeywordState struct {
	Keyword string                   `json:"keyword" yaml:"keyword"`
	Source  string                   `json:"source" yaml:"source"`
	Status  Status                   `json:"status" yaml:"status"`
	Preview *factory.AssetPreview    `json:"preview,omitempty" yaml:"preview,omitempty"`
	Asset   *factory.AssetDescriptor `json:"asset,omitempty" yaml:"asset,omitempty"`
}

// Summary counts keywords by status.
type Summary struct {
	Keywords    int `json:"keywords" yaml:"keywords"`
	Downloaded  int `json:"downloaded" yaml:"downloaded"`
	Searching   int `json:"searching" yaml:"searching"`
	Downloading int `json:"downloading" yaml:"downloading"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d keywords | %d downloaded", s.Keywords, s.Downloaded)
}

// entry is the tracker's private record. The in-flight flags are independent
// so a search and a download for the same keyword may overlap.
type entry struct {
	keyword     string
	source      string
	preview     *factory.AssetPreview
	asset       *factory.AssetDescriptor
	searching   bool
	downloading bool
}

func (e *entry) status() Status {
	switch {
	case e.asset != nil:
		return StatusDownloaded
	case e.downloading:
		return StatusDownloading
	case e.searching:
		return StatusSearching
	default:
		return StatusIdle
	}
}

func (e *entry) view() KeywordState {
	return KeywordState{
		Keyword: e.keyword,
		Source:  e.source,
		Status:  e.status(),
		Preview: e.preview,
		Asset:   e.asset,
	}
}
