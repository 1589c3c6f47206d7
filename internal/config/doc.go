// Package config loads, normalizes, and validates reelforge configuration.
//
// Configuration lives in TOML (default ~/.config/reelforge/config.toml, or
// ./reelforge.toml in the working directory). Load applies repository defaults,
// expands ~ in paths, honours REELFORGE_BASE_URL and NTFY_TOPIC from the
// environment, and rejects values the orchestration core cannot run with.
//
// The service section carries the two timeout classes used by the remote
// client: a short bound for metadata, status, and search calls and a long
// bound for generation-class calls.
package config
