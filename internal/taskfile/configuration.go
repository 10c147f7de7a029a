package taskfile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	taskfileReadErrorTemplateConstant      = "reading task file %s: %w"
	taskfileParseErrorTemplateConstant     = "parsing task file %s: %w"
	taskfileNoTasksMessageConstant         = "task file defines no tasks"
	taskNameEmptyTemplateConstant          = "task %d has no name"
	taskNameDuplicateTemplateConstant      = "task %q is defined more than once"
	taskWithoutStepsTemplateConstant       = "task %q has no steps"
	stepWithoutArgumentsTemplateConstant   = "task %q step %d has an empty run list"
	stepExecutableArgumentBlankTemplateStr = "task %q step %d has a blank executable"
)

// Configuration is the root of a parsed task file.
type Configuration struct {
	Tasks []TaskConfiguration `yaml:"tasks"`
}

// TaskConfiguration names an ordered sequence of command steps.
type TaskConfiguration struct {
	Name  string              `yaml:"name"`
	Steps []StepConfiguration `yaml:"steps"`
}

// StepConfiguration is a single command invocation inside a task. Run holds
// the argument vector; With carries optional execution settings decoded by
// DecodeStepOptions.
type StepConfiguration struct {
	Run  []string       `yaml:"run"`
	With map[string]any `yaml:"with"`
}

// LoadConfiguration reads and validates a task file.
func LoadConfiguration(taskfilePath string) (Configuration, error) {
	fileContents, readError := os.ReadFile(taskfilePath)
	if readError != nil {
		return Configuration{}, fmt.Errorf(taskfileReadErrorTemplateConstant, taskfilePath, readError)
	}

	configuration := Configuration{}
	if unmarshalError := yaml.Unmarshal(fileContents, &configuration); unmarshalError != nil {
		return Configuration{}, fmt.Errorf(taskfileParseErrorTemplateConstant, taskfilePath, unmarshalError)
	}

	if validationError := configuration.validate(); validationError != nil {
		return Configuration{}, validationError
	}
	return configuration, nil
}

// TaskByName looks up a task definition.
func (configuration Configuration) TaskByName(taskName string) (TaskConfiguration, bool) {
	for _, task := range configuration.Tasks {
		if task.Name == taskName {
			return task, true
		}
	}
	return TaskConfiguration{}, false
}

// TaskNames lists defined task names in file order.
func (configuration Configuration) TaskNames() []string {
	taskNames := make([]string, 0, len(configuration.Tasks))
	for _, task := range configuration.Tasks {
		taskNames = append(taskNames, task.Name)
	}
	return taskNames
}

func (configuration Configuration) validate() error {
	if len(configuration.Tasks) == 0 {
		return fmt.Errorf(taskfileNoTasksMessageConstant)
	}

	seenTaskNames := make(map[string]struct{}, len(configuration.Tasks))
	for taskIndex, task := range configuration.Tasks {
		trimmedTaskName := strings.TrimSpace(task.Name)
		if len(trimmedTaskName) == 0 {
			return fmt.Errorf(taskNameEmptyTemplateConstant, taskIndex)
		}
		if _, alreadySeen := seenTaskNames[trimmedTaskName]; alreadySeen {
			return fmt.Errorf(taskNameDuplicateTemplateConstant, trimmedTaskName)
		}
		seenTaskNames[trimmedTaskName] = struct{}{}

		if len(task.Steps) == 0 {
			return fmt.Errorf(taskWithoutStepsTemplateConstant, trimmedTaskName)
		}
		for stepIndex, step := range task.Steps {
			if len(step.Run) == 0 {
				return fmt.Errorf(stepWithoutArgumentsTemplateConstant, trimmedTaskName, stepIndex)
			}
			if len(strings.TrimSpace(step.Run[0])) == 0 {
				return fmt.Errorf(stepExecutableArgumentBlankTemplateStr, trimmedTaskName, stepIndex)
			}
		}
	}
	return nil
}
