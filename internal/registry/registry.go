package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolr/toolr/internal/toolkit"
)

const (
	emptyToolNameMessageConstant          = "tool name must not be empty"
	duplicateToolNameTemplateConstant     = "tool %q is already registered"
	nilCommandBuilderTemplateConstant     = "tool %q has no command builder"
	commandBuildFailureTemplateConstant   = "building command for tool %q: %w"
	builtCommandMissingTemplateConstant   = "tool %q produced a nil command"
	builtCommandNameMismatchTemplateConst = "tool %q produced a command named %q"
)

// CommandBuilder produces a Cobra command wired to the shared tool context.
// The provider resolves lazily so built commands see the fully initialized
// context when they run.
type CommandBuilder interface {
	Build(contextProvider toolkit.ContextProvider) (*cobra.Command, error)
}

// BuilderFunc adapts a plain function into a CommandBuilder.
type BuilderFunc func(contextProvider toolkit.ContextProvider) (*cobra.Command, error)

// Build implements CommandBuilder.
func (builder BuilderFunc) Build(contextProvider toolkit.ContextProvider) (*cobra.Command, error) {
	return builder(contextProvider)
}

// Registry tracks registered tools by name. The zero value is not usable;
// construct instances with NewRegistry.
type Registry struct {
	buildersByName map[string]CommandBuilder
}

// NewRegistry constructs an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{buildersByName: map[string]CommandBuilder{}}
}

// Register associates a builder with a tool name. Registration fails when the
// name is blank, already taken, or the builder is nil.
func (toolRegistry *Registry) Register(toolName string, builder CommandBuilder) error {
	trimmedToolName := strings.TrimSpace(toolName)
	if len(trimmedToolName) == 0 {
		return fmt.Errorf(emptyToolNameMessageConstant)
	}
	if builder == nil {
		return fmt.Errorf(nilCommandBuilderTemplateConstant, trimmedToolName)
	}
	if _, alreadyRegistered := toolRegistry.buildersByName[trimmedToolName]; alreadyRegistered {
		return fmt.Errorf(duplicateToolNameTemplateConstant, trimmedToolName)
	}

	toolRegistry.buildersByName[trimmedToolName] = builder
	return nil
}

// RegisteredToolNames lists registered tool names in lexical order.
func (toolRegistry *Registry) RegisteredToolNames() []string {
	toolNames := make([]string, 0, len(toolRegistry.buildersByName))
	for toolName := range toolRegistry.buildersByName {
		toolNames = append(toolNames, toolName)
	}
	sort.Strings(toolNames)
	return toolNames
}

// BuildCommands materializes every registered tool into a Cobra command,
// ordered by tool name. Each built command must use its registered name so
// the CLI surface matches the registry.
func (toolRegistry *Registry) BuildCommands(contextProvider toolkit.ContextProvider) ([]*cobra.Command, error) {
	builtCommands := make([]*cobra.Command, 0, len(toolRegistry.buildersByName))
	for _, toolName := range toolRegistry.RegisteredToolNames() {
		builder := toolRegistry.buildersByName[toolName]
		builtCommand, buildError := builder.Build(contextProvider)
		if buildError != nil {
			return nil, fmt.Errorf(commandBuildFailureTemplateConstant, toolName, buildError)
		}
		if builtCommand == nil {
			return nil, fmt.Errorf(builtCommandMissingTemplateConstant, toolName)
		}
		if builtCommand.Name() != toolName {
			return nil, fmt.Errorf(builtCommandNameMismatchTemplateConst, toolName, builtCommand.Name())
		}
		builtCommands = append(builtCommands, builtCommand)
	}
	return builtCommands, nil
}
