// Package registry collects tool command builders and assembles them into
// Cobra commands for the root CLI. Tools register under a unique name; the
// application asks the registry for the full command set at startup.
package registry
