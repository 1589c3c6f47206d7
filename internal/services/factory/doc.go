// Package factory is the HTTP client for the remote content-to-video service.
//
// Every endpoint answers with a {status, message, data} envelope; the client
// decodes it generically and returns either the typed payload or an error.
// Transport problems (connection refused, timeouts, undecodable bodies) wrap
// services.ErrTransport. A status other than "ok" yields *EnvelopeError, which
// unwraps to services.ErrApplication and keeps the service's message verbatim.
//
// Requests use one of two timeout classes: a short bound for metadata, status,
// and search calls, and a long bound for generation work (mining, scripting,
// speech synthesis, asset downloads, rendering). Each request carries an
// X-Request-ID header taken from the context or freshly minted.
package factory
