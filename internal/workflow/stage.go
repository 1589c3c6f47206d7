package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage identifies one of the five manual workflow steps.
type Stage int

const (
	StageMining Stage = iota + 1
	StageScripting
	StageNarration
	StageAssets
	StageRender
)

const (
	FirstStage = StageMining
	LastStage  = StageRender
)

var stageNames = map[Stage]string{
	StageMining:    "mining",
	StageScripting: "scripting",
	StageNarration: "narration",
	StageAssets:    "assets",
	StageRender:    "render",
}

// AllStages returns the stages in order.
func AllStages() []Stage {
	return []Stage{StageMining, StageScripting, StageNarration, StageAssets, StageRender}
}

// Valid reports whether s is within 1..5.
func (s Stage) Valid() bool {
	return s >= FirstStage && s <= LastStage
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ParseStage accepts a stage number (1-5) or name.
func ParseStage(raw string) (Stage, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(raw); err == nil {
		s := Stage(n)
		if !s.Valid() {
			return 0, fmt.Errorf("parse stage: %d out of range 1-%d", n, int(LastStage))
		}
		return s, nil
	}
	for stage, name := range stageNames {
		if name == raw {
			return stage, nil
		}
	}
	return 0, fmt.Errorf("parse stage: unknown stage %q", raw)
}

// ArtifactKind names one of the four artifact slots.
type ArtifactKind string

const (
	KindContent ArtifactKind = "content"
	KindScript  ArtifactKind = "script"
	KindAudio   ArtifactKind = "audio"
	KindAssets  ArtifactKind = "assets"
)

// Output returns the artifact a stage produces. Render produces none.
func (s Stage) Output() (ArtifactKind, bool) {
	switch s {
	case StageMining:
		return KindContent, true
	case StageScripting:
		return KindScript, true
	case StageNarration:
		return KindAudio, true
	case StageAssets:
		return KindAssets, true
	default:
		return "", false
	}
}
