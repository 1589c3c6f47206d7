// Package workflow gates manual progression through the five video stages.
//
// Each stage produces one artifact (content, script, audio, assets) and later
// stages are reachable only once their inputs exist: stages 2-4 need a script,
// and the render stage needs both audio and assets in either order. Reduce is
// the pure transition function; Controller wraps it with locking, change
// subscriptions, and the short delayed auto-advance that follows a newly
// stored artifact.
//
// Storing an artifact supersedes everything derived from it, so a regenerated
// script drops stale audio and assets instead of mixing them.
package workflow
