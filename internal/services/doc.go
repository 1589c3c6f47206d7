// Package services defines shared utilities consumed by the orchestration
// components and the remote video service client.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, stage names, keywords, and
//     correlation identifiers for logging and request headers.
//   - Structured error markers plus the Wrap helper that separate transport
//     failures from application failures reported by the service envelope.
//
// Use these helpers when wiring new call sites so error reporting and
// observability stay uniform across the workbench, poller, and asset tracker.
package services
