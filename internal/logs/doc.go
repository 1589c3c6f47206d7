// Package logs reads the CLI's log file for the `reelforge logs` command.
//
// Reads are line oriented with bounded memory: Last returns the final N lines
// and the byte offset after them, From resumes at an offset, and Follow polls
// for appended lines until its context ends.
package logs
