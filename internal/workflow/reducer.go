package workflow

import "reelforge/internal/services/factory"

// EventType selects the transition applied by Reduce.
type EventType int

const (
	EventSetArtifact EventType = iota + 1
	EventGoTo
	EventAdvance
	EventRetreat
	EventReset
)

// Event is one input to the state machine. Build events with the constructors
// below rather than by hand.
type Event struct {
	Type  EventType
	Kind  ArtifactKind
	Stage Stage
	value Artifacts
}

func SetContent(v *factory.RawContent) Event {
	return Event{Type: EventSetArtifact, Kind: KindContent, value: Artifacts{Content: v}}
}

func SetScript(v *factory.VideoScript) Event {
	return Event{Type: EventSetArtifact, Kind: KindScript, value: Artifacts{Script: v}}
}

func SetAudio(v *factory.TTSData) Event {
	return Event{Type: EventSetArtifact, Kind: KindAudio, value: Artifacts{Audio: v}}
}

func SetAssets(v *factory.AssetsData) Event {
	return Event{Type: EventSetArtifact, Kind: KindAssets, value: Artifacts{Assets: v}}
}

func GoTo(s Stage) Event { return Event{Type: EventGoTo, Stage: s} }

func Advance() Event { return Event{Type: EventAdvance} }

func Retreat() Event { return Event{Type: EventRetreat} }

func Reset() Event { return Event{Type: EventReset} }

// Reduce applies e to s and returns the next state. Navigation that the gate
// rejects returns s unchanged.
func Reduce(s State, e Event) State {
	switch e.Type {
	case EventSetArtifact:
		return setArtifact(s, e.Kind, e.value)
	case EventGoTo:
		if !e.Stage.Valid() || !Reachable(s.Artifacts, e.Stage) {
			return s
		}
		s.Stage = e.Stage
		return s
	case EventAdvance:
		next := s.Stage + 1
		if next > LastStage || !Reachable(s.Artifacts, next) {
			return s
		}
		s.Stage = next
		return s
	case EventRetreat:
		if s.Stage <= FirstStage {
			return s
		}
		s.Stage = highestReachable(s.Artifacts, s.Stage-1)
		return s
	case EventReset:
		return Initial()
	default:
		return s
	}
}

// setArtifact stores the slot and clears the artifacts derived from it. Audio
// and assets both derive from the script but not from each other.
func setArtifact(s State, kind ArtifactKind, v Artifacts) State {
	a := s.Artifacts
	switch kind {
	case KindContent:
		a.Content = v.Content
		a.Script, a.Audio, a.Assets = nil, nil, nil
	case KindScript:
		a.Script = v.Script
		a.Audio, a.Assets = nil, nil
	case KindAudio:
		a.Audio = v.Audio
	case KindAssets:
		a.Assets = v.Assets
	default:
		return s
	}
	s.Artifacts = a
	if !s.Stage.Valid() {
		s.Stage = FirstStage
	}
	if !Reachable(a, s.Stage) {
		s.Stage = highestReachable(a, s.Stage)
	}
	return s
}

// AutoAdvanceTarget returns the stage the controller should move to after
// kind was stored in s, if any. Only forward moves are proposed.
func AutoAdvanceTarget(s State, kind ArtifactKind) (Stage, bool) {
	var target Stage
	switch kind {
	case KindScript:
		target = StageNarration
	case KindAudio:
		if s.Artifacts.Assets != nil {
			target = StageRender
		} else {
			target = StageAssets
		}
	case KindAssets:
		if s.Artifacts.Audio == nil {
			return 0, false
		}
		target = StageRender
	default:
		return 0, false
	}
	if !s.Artifacts.Has(kind) || target <= s.Stage || !Reachable(s.Artifacts, target) {
		return 0, false
	}
	return target, true
}
