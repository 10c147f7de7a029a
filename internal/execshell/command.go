package execshell

import "time"

// CommandName identifies the executable a ShellCommand runs; it is resolved
// through the host's standard executable-search rule.
type CommandName string

// CommandDetails captures the options for one tool invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	WallClockTimeout     time.Duration
	IdleTimeout          time.Duration
	// StreamOutput duplicates chunks to the host console as they arrive;
	// output is captured into the result either way.
	StreamOutput bool
}

// ShellCommand couples an executable name with specific invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}
