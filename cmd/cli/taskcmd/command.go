// Package taskcmd implements the "tasks" subcommand: it lists the tasks a
// task file defines and runs a named task's steps through the engine.
package taskcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toolr/toolr/internal/taskfile"
	"github.com/toolr/toolr/internal/toolkit"
	pathutils "github.com/toolr/toolr/internal/utils/path"
)

const (
	commandUseConstant   = "tasks [task]"
	commandNameConstant  = "tasks"
	commandShortConstant = "List or run tasks from a task file"
	commandLongConstant  = "Tasks reads a YAML task file, lists the defined tasks when called without " +
		"arguments, and otherwise runs the named task's steps in order, stopping at the first failure."

	taskfileFlagNameConstant  = "file"
	taskfileFlagUsageConstant = "Path to the task file."

	contextProviderMissingMessageConstant = "tasks command requires a context provider"
	taskListLineTemplateConstant          = "%s\n"

	taskfileConfigurationSuffixConstant = ".file"
	defaultTaskfileNameConstant         = "tasks.yaml"
)

// CommandConfiguration carries the configurable defaults for the tasks command.
type CommandConfiguration struct {
	File string `mapstructure:"file"`
}

// DefaultConfigurationValues exposes viper defaults under the supplied key.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	return map[string]any{
		configurationKey + taskfileConfigurationSuffixConstant: defaultTaskfileNameConstant,
	}
}

// CommandBuilder assembles the tasks command.
type CommandBuilder struct {
	ConfigurationProvider func() CommandConfiguration
}

// Build implements registry.CommandBuilder.
func (builder CommandBuilder) Build(contextProvider toolkit.ContextProvider) (*cobra.Command, error) {
	if contextProvider == nil {
		return nil, fmt.Errorf(contextProviderMissingMessageConstant)
	}

	var taskfileFlagValue string
	homeExpander := pathutils.NewHomeExpander()

	tasksCommand := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			taskfilePath := builder.resolveConfiguration().File
			if command.Flags().Changed(taskfileFlagNameConstant) {
				taskfilePath = taskfileFlagValue
			}

			configuration, loadError := taskfile.LoadConfiguration(homeExpander.Expand(taskfilePath))
			if loadError != nil {
				return loadError
			}

			if len(arguments) == 0 {
				for _, taskName := range configuration.TaskNames() {
					fmt.Fprintf(command.OutOrStdout(), taskListLineTemplateConstant, taskName)
				}
				return nil
			}

			executor := taskfile.NewExecutor(contextProvider())
			return executor.RunTask(command.Context(), configuration, arguments[0])
		},
	}

	tasksCommand.Flags().StringVar(&taskfileFlagValue, taskfileFlagNameConstant, defaultTaskfileNameConstant, taskfileFlagUsageConstant)

	return tasksCommand, nil
}

func (builder CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{File: defaultTaskfileNameConstant}
	}
	return builder.ConfigurationProvider()
}

// Name reports the subcommand name used for registration.
func Name() string {
	return commandNameConstant
}
