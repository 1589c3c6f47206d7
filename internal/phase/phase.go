package phase

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Phase is a named sub-step of a remote pipeline session.
type Phase string

const (
	Initializing Phase = "initializing"
	Mining       Phase = "mining"
	Scripting    Phase = "scripting"
	TTS          Phase = "tts"
	Assets       Phase = "assets"
	Rendering    Phase = "rendering"
	Done         Phase = "done"
	Error        Phase = "error"
)

var allPhases = []Phase{Initializing, Mining, Scripting, TTS, Assets, Rendering, Done, Error}

// Info is the display metadata for a phase.
type Info struct {
	Label       string
	Emoji       string
	Description string
}

var catalog = map[Phase]Info{
	Initializing: {Label: "Initializing", Emoji: "🚀", Description: "Preparing the pipeline..."},
	Mining:       {Label: "Mining Content", Emoji: "📝", Description: "Collecting source material..."},
	Scripting:    {Label: "Generating Script", Emoji: "🧠", Description: "Writing the video script..."},
	TTS:          {Label: "Generating Audio", Emoji: "🎙️", Description: "Synthesizing narration..."},
	Assets:       {Label: "Downloading Assets", Emoji: "📹", Description: "Fetching stock footage..."},
	Rendering:    {Label: "Rendering Video", Emoji: "🎬", Description: "Assembling the final video..."},
	Done:         {Label: "Done", Emoji: "✅", Description: "Pipeline finished!"},
	Error:        {Label: "Failed", Emoji: "❌", Description: "Pipeline stopped with an error."},
}

var titleCaser = cases.Title(language.English)

// All returns the ordered list of known phases.
func All() []Phase {
	return append([]Phase(nil), allPhases...)
}

// Parse normalizes a raw phase tag. Unknown tags are returned as-is with ok=false.
func Parse(tag string) (Phase, bool) {
	p := Phase(strings.ToLower(strings.TrimSpace(tag)))
	_, ok := catalog[p]
	return p, ok
}

// Describe maps a remote phase tag to display metadata. Unknown tags are
// labelled with their title-cased name.
func Describe(tag string) Info {
	p, ok := Parse(tag)
	if ok {
		return catalog[p]
	}
	label := strings.TrimSpace(strings.ReplaceAll(tag, "_", " "))
	if label == "" {
		label = "Unknown"
	} else {
		label = titleCaser.String(label)
	}
	return Info{Label: label, Emoji: "⏳", Description: "Processing..."}
}

// Index returns the position of p in the pipeline order, or -1.
func Index(p Phase) int {
	for i, known := range allPhases {
		if known == p {
			return i
		}
	}
	return -1
}
