// Package execshell provides structured helpers for invoking external tools.
//
// It wraps the execkit engine with logging and lifecycle observation via
// ShellExecutor, and defines the abstractions tool commands use to run
// external programs in a testable manner. Non-zero exit codes flow through
// as ordinary results; only operational failures and elapsed timeouts
// surface as errors.
package execshell
