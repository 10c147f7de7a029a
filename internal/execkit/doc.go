// Package execkit implements the native command execution engine backing
// toolr commands.
//
// ProcessEngine spawns one child process per invocation, drains standard
// output and standard error concurrently while duplicating chunks to
// optional capture and live destinations, enforces wall-clock and idle
// timeout policies, and terminates and reaps the child process tree on
// every exit path. Non-zero exit codes are ordinary results, never errors.
package execkit
