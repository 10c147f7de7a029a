// Package runcmd implements the "run" subcommand: a single external command
// executed through the engine with timeout, environment, and streaming
// controls, mirroring the child's exit code.
package runcmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolr/toolr/internal/toolkit"
	"github.com/toolr/toolr/internal/utils/flags"
	pathutils "github.com/toolr/toolr/internal/utils/path"
)

const (
	commandUseConstant   = "run [flags] -- command [arguments...]"
	commandNameConstant  = "run"
	commandShortConstant = "Run an external command through the execution engine"
	commandLongConstant  = "Run spawns the given command with the inherited environment, streams its " +
		"output to the console while capturing it, and exits with the command's own exit code. " +
		"Wall-clock and idle timeouts terminate the whole process tree when exceeded."

	workingDirectoryFlagNameConstant  = "cwd"
	workingDirectoryFlagUsageConstant = "Working directory for the command."
	environmentFlagNameConstant       = "env"
	environmentFlagUsageConstant      = "Environment override as KEY=VALUE (repeatable)."
	inputFlagNameConstant             = "input"
	inputFlagUsageConstant            = "File whose contents feed the command's stdin (\"-\" reads this process's stdin)."
	timeoutFlagNameConstant           = "timeout-secs"
	timeoutFlagUsageConstant          = "Wall-clock timeout in seconds (0 disables)."
	idleTimeoutFlagNameConstant       = "idle-timeout-secs"
	idleTimeoutFlagUsageConstant      = "Idle timeout in seconds, reset on every output chunk (0 disables)."
	streamFlagNameConstant            = "stream"
	streamFlagUsageConstant           = "Stream command output to the console."

	contextProviderMissingMessageConstant  = "run command requires a context provider"
	environmentEntryInvalidTemplateConst   = "environment override %q is not KEY=VALUE"
	environmentKeyEmptyTemplateConstant    = "environment override %q has an empty key"
	inputFileReadErrorTemplateConstant     = "reading stdin payload from %s: %w"
	standardInputReadErrorTemplateConstant = "reading stdin payload: %w"
	environmentEntrySeparatorConstant      = "="
	standardInputPathLiteralConstant       = "-"
	environmentEntrySplitLimitConstant     = 2

	timeoutConfigurationSuffixConstant     = ".timeout_secs"
	idleTimeoutConfigurationSuffixConstant = ".idle_timeout_secs"
	streamConfigurationSuffixConstant      = ".stream_output"
)

// CommandConfiguration carries the configurable defaults for the run command.
type CommandConfiguration struct {
	TimeoutSeconds     float64 `mapstructure:"timeout_secs"`
	IdleTimeoutSeconds float64 `mapstructure:"idle_timeout_secs"`
	StreamOutput       bool    `mapstructure:"stream_output"`
}

// DefaultConfigurationValues exposes viper defaults under the supplied key.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	return map[string]any{
		configurationKey + timeoutConfigurationSuffixConstant:     float64(0),
		configurationKey + idleTimeoutConfigurationSuffixConstant: float64(0),
		configurationKey + streamConfigurationSuffixConstant:      true,
	}
}

// CommandBuilder assembles the run command.
type CommandBuilder struct {
	ConfigurationProvider func() CommandConfiguration
}

// Build implements registry.CommandBuilder.
func (builder CommandBuilder) Build(contextProvider toolkit.ContextProvider) (*cobra.Command, error) {
	if contextProvider == nil {
		return nil, fmt.Errorf(contextProviderMissingMessageConstant)
	}

	var workingDirectoryFlagValue string
	var environmentFlagValues []string
	var inputFlagValue string
	var timeoutFlagValue float64
	var idleTimeoutFlagValue float64
	var streamFlagValue bool

	homeExpander := pathutils.NewHomeExpander()

	runCommand := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration := builder.resolveConfiguration()

			wallClockTimeoutSeconds := configuration.TimeoutSeconds
			if command.Flags().Changed(timeoutFlagNameConstant) {
				wallClockTimeoutSeconds = timeoutFlagValue
			}
			idleTimeoutSeconds := configuration.IdleTimeoutSeconds
			if command.Flags().Changed(idleTimeoutFlagNameConstant) {
				idleTimeoutSeconds = idleTimeoutFlagValue
			}
			streamOutput := configuration.StreamOutput
			if command.Flags().Changed(streamFlagNameConstant) {
				streamOutput = streamFlagValue
			}

			environmentVariables, environmentError := parseEnvironmentOverrides(environmentFlagValues)
			if environmentError != nil {
				return environmentError
			}

			standardInputPayload, inputError := readStandardInputPayload(command.InOrStdin(), inputFlagValue)
			if inputError != nil {
				return inputError
			}

			toolContext := contextProvider()
			if len(workingDirectoryFlagValue) > 0 {
				toolContext = toolContext.WithWorkingDirectory(homeExpander.Expand(workingDirectoryFlagValue))
			}

			runOptions := make([]toolkit.RunOption, 0, 5)
			if len(environmentVariables) > 0 {
				runOptions = append(runOptions, toolkit.WithEnvironmentVariables(environmentVariables))
			}
			if standardInputPayload != nil {
				runOptions = append(runOptions, toolkit.WithStandardInput(standardInputPayload))
			}
			if wallClockTimeoutSeconds > 0 {
				runOptions = append(runOptions, toolkit.WithWallClockTimeout(secondsToDuration(wallClockTimeoutSeconds)))
			}
			if idleTimeoutSeconds > 0 {
				runOptions = append(runOptions, toolkit.WithIdleTimeout(secondsToDuration(idleTimeoutSeconds)))
			}
			if !streamOutput {
				runOptions = append(runOptions, toolkit.WithoutStreaming())
			}

			result, runError := toolContext.Run(command.Context(), arguments, runOptions...)
			if runError != nil {
				return runError
			}
			if result.ExitCode != 0 {
				return toolkit.ExitCodeError{Code: result.ExitCode}
			}
			return nil
		},
	}

	runCommand.Flags().SetInterspersed(false)
	runCommand.Flags().StringVar(&workingDirectoryFlagValue, workingDirectoryFlagNameConstant, "", workingDirectoryFlagUsageConstant)
	runCommand.Flags().StringArrayVar(&environmentFlagValues, environmentFlagNameConstant, nil, environmentFlagUsageConstant)
	runCommand.Flags().StringVar(&inputFlagValue, inputFlagNameConstant, "", inputFlagUsageConstant)
	runCommand.Flags().Float64Var(&timeoutFlagValue, timeoutFlagNameConstant, 0, timeoutFlagUsageConstant)
	runCommand.Flags().Float64Var(&idleTimeoutFlagValue, idleTimeoutFlagNameConstant, 0, idleTimeoutFlagUsageConstant)
	flags.AddToggleFlag(runCommand.Flags(), &streamFlagValue, streamFlagNameConstant, "", true, streamFlagUsageConstant)

	return runCommand, nil
}

func (builder CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{StreamOutput: true}
	}
	return builder.ConfigurationProvider()
}

func parseEnvironmentOverrides(environmentEntries []string) (map[string]string, error) {
	if len(environmentEntries) == 0 {
		return nil, nil
	}

	environmentVariables := make(map[string]string, len(environmentEntries))
	for _, environmentEntry := range environmentEntries {
		entryParts := strings.SplitN(environmentEntry, environmentEntrySeparatorConstant, environmentEntrySplitLimitConstant)
		if len(entryParts) != environmentEntrySplitLimitConstant {
			return nil, fmt.Errorf(environmentEntryInvalidTemplateConst, environmentEntry)
		}
		if len(strings.TrimSpace(entryParts[0])) == 0 {
			return nil, fmt.Errorf(environmentKeyEmptyTemplateConstant, environmentEntry)
		}
		environmentVariables[entryParts[0]] = entryParts[1]
	}
	return environmentVariables, nil
}

func readStandardInputPayload(standardInput io.Reader, inputPath string) ([]byte, error) {
	if len(inputPath) == 0 {
		return nil, nil
	}
	if inputPath == standardInputPathLiteralConstant {
		payload, readError := io.ReadAll(standardInput)
		if readError != nil {
			return nil, fmt.Errorf(standardInputReadErrorTemplateConstant, readError)
		}
		return payload, nil
	}

	payload, readError := os.ReadFile(inputPath)
	if readError != nil {
		return nil, fmt.Errorf(inputFileReadErrorTemplateConstant, inputPath, readError)
	}
	return payload, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// Name reports the subcommand name used for registration.
func Name() string {
	return commandNameConstant
}
