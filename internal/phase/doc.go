// Package phase classifies remote pipeline phases and session statuses.
//
// Describe turns a phase tag into a label, emoji, and description for
// rendering; IsTerminal decides when a session stops changing. Both are pure
// lookups with no state.
package phase
