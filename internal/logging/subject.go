package logging

import "strings"

// FormatSubject builds the session/stage/keyword subject used in console output.
func FormatSubject(sessionID, stage, keyword string) string {
	sessionID = strings.TrimSpace(sessionID)
	stage = strings.TrimSpace(stage)
	keyword = strings.TrimSpace(keyword)
	parts := make([]string, 0, 3)
	if sessionID != "" {
		parts = append(parts, "Session "+sessionID)
	}
	if stage != "" {
		parts = append(parts, stage)
	}
	if keyword != "" {
		parts = append(parts, "\""+keyword+"\"")
	}
	return strings.Join(parts, " · ")
}
