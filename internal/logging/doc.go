// Package logging assembles structured slog loggers and formatting helpers used
// across reelforge.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so the poller, asset tracker, and
// workbench can tag log lines with session IDs, stages, keywords, and
// correlation IDs. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
package logging
