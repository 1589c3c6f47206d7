package workflow

import "reelforge/internal/services/factory"

// Artifacts holds the latest value of each artifact slot. Values are treated as
// immutable once stored; producing a new artifact replaces the pointer.
type Artifacts struct {
	Content *factory.RawContent  `json:"content,omitempty" yaml:"content,omitempty"`
	Script  *factory.VideoScript `json:"script,omitempty" yaml:"script,omitempty"`
	Audio   *factory.TTSData     `json:"audio,omitempty" yaml:"audio,omitempty"`
	Assets  *factory.AssetsData  `json:"assets,omitempty" yaml:"assets,omitempty"`
}

// Has reports whether the slot for kind is filled.
func (a Artifacts) Has(kind ArtifactKind) bool {
	switch kind {
	case KindContent:
		return a.Content != nil
	case KindScript:
		return a.Script != nil
	case KindAudio:
		return a.Audio != nil
	case KindAssets:
		return a.Assets != nil
	default:
		return false
	}
}

// State is the controller's complete state: artifacts plus the stage pointer.
type State struct {
	Stage     Stage     `json:"stage" yaml:"stage"`
	Artifacts Artifacts `json:"artifacts" yaml:"artifacts"`
}

// Initial returns the empty state positioned at the first stage.
func Initial() State {
	return State{Stage: FirstStage}
}

// Reachable is the gate: stage 1 is always open, stages 2-4 need a script,
// and stage 5 needs both audio and assets.
func Reachable(a Artifacts, s Stage) bool {
	switch s {
	case StageMining:
		return true
	case StageScripting, StageNarration, StageAssets:
		return a.Script != nil
	case StageRender:
		return a.Audio != nil && a.Assets != nil
	default:
		return false
	}
}

// highestReachable returns the highest reachable stage not above ceiling.
func highestReachable(a Artifacts, ceiling Stage) Stage {
	if ceiling > LastStage {
		ceiling = LastStage
	}
	for s := ceiling; s > FirstStage; s-- {
		if Reachable(a, s) {
			return s
		}
	}
	return FirstStage
}
