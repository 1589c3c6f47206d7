// Package workbench binds the manual stage operations to the remote service.
//
// Each operation issues one request and, on success, writes the resulting
// artifact into the workflow controller. Failures are recorded on the Panel so
// a caller rendering the workspace can show the service's own message, and are
// also returned to the caller.
package workbench
