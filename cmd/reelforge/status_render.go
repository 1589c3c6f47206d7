package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"reelforge/internal/phase"
	"reelforge/internal/services/factory"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
	progressWidth    = 20
)

func renderStatusLine(label string, kind phase.Kind, message string, colorize bool) string {
	statusText := kindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		return kindColor(kind).Sprint(base)
	}
	return base
}

func kindLabel(kind phase.Kind) string {
	switch kind {
	case phase.KindSuccess:
		return "OK"
	case phase.KindWarning:
		return "WARN"
	case phase.KindError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func kindColor(kind phase.Kind) text.Colors {
	switch kind {
	case phase.KindSuccess:
		return text.Colors{text.FgGreen}
	case phase.KindWarning:
		return text.Colors{text.FgYellow}
	case phase.KindError:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgBlue}
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		blue := text.Colors{text.FgBlue}
		line = blue.Sprint(line)
		rule = blue.Sprint(rule)
	}
	return []string{line, rule}
}

// renderProgressBar draws a fixed-width bar for a 0-100 progress value.
func renderProgressBar(progress int) string {
	progress = max(0, min(progress, 100))
	filled := progress * progressWidth / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat("-", progressWidth-filled), progress)
}

// renderSessionLine summarises one pipeline snapshot on a single line.
func renderSessionLine(status factory.PipelineStatus, colorize bool) string {
	info := phase.Describe(status.Phase)
	line := fmt.Sprintf("%s %-12s %s", info.Emoji, info.Label, renderProgressBar(status.Progress))
	message := strings.TrimSpace(status.Message)
	if message == "" {
		message = info.Description
	}
	line += "  " + message
	if detail := status.AssetsDetail; detail != nil && detail.Total > 0 {
		line += fmt.Sprintf("  (%d/%d clips)", detail.Fetched, detail.Total)
	}
	if colorize {
		return kindColor(phase.StatusKind(status.Status)).Sprint(line)
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
