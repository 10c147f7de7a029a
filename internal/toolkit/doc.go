// Package toolkit provides the context handed to every tool command: a
// configured logger, a shell executor, the effective verbosity, and helpers
// for running external commands with timeouts and output streaming.
package toolkit
