// Package taskfile loads YAML task definitions and runs their steps through
// the tool context. A task is a named sequence of command steps; execution
// stops at the first step that fails or exits non-zero.
package taskfile
