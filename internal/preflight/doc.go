// Package preflight provides readiness checks for the local workspace.
//
// The health command runs them next to the remote status checks so an
// operator can tell a broken service from an unwritable state directory.
package preflight
