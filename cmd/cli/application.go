package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/toolr/toolr/cmd/cli/runcmd"
	"github.com/toolr/toolr/cmd/cli/taskcmd"
	"github.com/toolr/toolr/internal/console"
	"github.com/toolr/toolr/internal/execkit"
	"github.com/toolr/toolr/internal/execshell"
	"github.com/toolr/toolr/internal/registry"
	"github.com/toolr/toolr/internal/toolkit"
	"github.com/toolr/toolr/internal/utils"
	"github.com/toolr/toolr/internal/utils/flags"
)

const (
	applicationNameConstant             = "toolr"
	applicationShortDescriptionConstant = "Command-line interface for project tooling"
	applicationLongDescriptionConstant  = "toolr turns project tooling into CLI subcommands and runs external " +
		"commands through a native execution engine with output capture, streaming, and timeout supervision."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	quietFlagNameConstant                   = "quiet"
	quietFlagShorthandConstant              = "q"
	quietFlagUsageConstant                  = "Suppress informational console output."
	verboseFlagNameConstant                 = "verbose"
	verboseFlagShorthandConstant            = "v"
	verboseFlagUsageConstant                = "Emit diagnostic console output."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "TOOLR"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	executorCreationErrorTemplateConstant   = "unable to create shell executor: %w"
	contextCreationErrorTemplateConstant    = "unable to create tool context: %w"
	commandRegistrationErrorTemplateConst   = "unable to register tool commands: %w"
	commandAssemblyErrorTemplateConstant    = "unable to assemble tool commands: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	toolsConfigurationKeyConstant           = "tools"
	runConfigurationKeyConstant             = toolsConfigurationKeyConstant + ".run"
	tasksConfigurationKeyConstant           = toolsConfigurationKeyConstant + ".tasks"
	rootCommandInfoMessageConstant          = "toolr CLI executed"
	rootCommandDebugMessageConstant         = "toolr CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds configuration for CLI subcommands grouped by tool.
type ApplicationToolsConfiguration struct {
	Run   runcmd.CommandConfiguration  `mapstructure:"run"`
	Tasks taskcmd.CommandConfiguration `mapstructure:"tasks"`
}

// Application wires the Cobra root command, configuration loader, tool
// registry, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	toolRegistry           *registry.Registry
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	quietFlagValue         bool
	verboseFlagValue       bool
	commandContextAccessor utils.CommandContextAccessor
	toolContext            *toolkit.Context
	consoleStandardOutput  io.Writer
	consoleStandardError   io.Writer
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() (*Application, error) {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)

	application := &Application{
		toolRegistry:           registry.NewRegistry(),
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		consoleStandardOutput:  execkit.NewSynchronizedWriter(utils.NewFlushingWriter(os.Stdout)),
		consoleStandardError:   execkit.NewSynchronizedWriter(utils.NewFlushingWriter(os.Stderr)),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(
		&application.logLevelFlagValue,
		logLevelFlagNameConstant,
		"",
		flags.FormatChoiceUsage(
			string(utils.LogLevelInfo),
			[]string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)},
			logLevelFlagUsageConstant,
		),
	)
	cobraCommand.PersistentFlags().StringVar(
		&application.logFormatFlagValue,
		logFormatFlagNameConstant,
		"",
		flags.FormatChoiceUsage(
			string(utils.LogFormatStructured),
			[]string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)},
			logFormatFlagUsageConstant,
		),
	)
	flags.AddToggleFlag(cobraCommand.PersistentFlags(), &application.quietFlagValue, quietFlagNameConstant, quietFlagShorthandConstant, false, quietFlagUsageConstant)
	flags.AddToggleFlag(cobraCommand.PersistentFlags(), &application.verboseFlagValue, verboseFlagNameConstant, verboseFlagShorthandConstant, false, verboseFlagUsageConstant)

	if registrationError := application.registerToolCommands(); registrationError != nil {
		return nil, fmt.Errorf(commandRegistrationErrorTemplateConst, registrationError)
	}

	toolCommands, assemblyError := application.toolRegistry.BuildCommands(application.provideToolContext)
	if assemblyError != nil {
		return nil, fmt.Errorf(commandAssemblyErrorTemplateConstant, assemblyError)
	}
	for _, toolCommand := range toolCommands {
		cobraCommand.AddCommand(toolCommand)
	}

	application.rootCommand = cobraCommand

	return application, nil
}

// Execute runs the configured Cobra command hierarchy using the process
// arguments and ensures logger flushing.
func (application *Application) Execute() error {
	return application.ExecuteWithArguments(os.Args[1:])
}

// ExecuteWithArguments runs the command hierarchy with an explicit argument
// vector. Toggle flags are normalized so "--quiet yes" parses like
// "--quiet=yes".
func (application *Application) ExecuteWithArguments(arguments []string) error {
	application.rootCommand.SetArgs(flags.NormalizeToggleArguments(arguments))
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// RootCommand exposes the assembled Cobra root command.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	application, creationError := NewApplication()
	if creationError != nil {
		return creationError
	}
	return application.Execute()
}

func (application *Application) registerToolCommands() error {
	runBuilder := runcmd.CommandBuilder{
		ConfigurationProvider: func() runcmd.CommandConfiguration {
			return application.configuration.Tools.Run
		},
	}
	if registrationError := application.toolRegistry.Register(runcmd.Name(), runBuilder); registrationError != nil {
		return registrationError
	}

	tasksBuilder := taskcmd.CommandBuilder{
		ConfigurationProvider: func() taskcmd.CommandConfiguration {
			return application.configuration.Tools.Tasks
		},
	}
	return application.toolRegistry.Register(taskcmd.Name(), tasksBuilder)
}

func (application *Application) provideToolContext() *toolkit.Context {
	return application.toolContext
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: "",
	}
	for configurationKey, configurationValue := range runcmd.DefaultConfigurationValues(runConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range taskcmd.DefaultConfigurationValues(tasksConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if len(application.configuration.Common.LogFormat) == 0 {
		application.configuration.Common.LogFormat = string(console.DetectDefaultLogFormat(os.Stderr))
	}

	logLevel, logLevelError := utils.ParseLogLevel(application.configuration.Common.LogLevel)
	if logLevelError != nil {
		return logLevelError
	}
	logFormat, logFormatError := utils.ParseLogFormat(application.configuration.Common.LogFormat)
	if logFormatError != nil {
		return logFormatError
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(logLevel, logFormat)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	if contextError := application.initializeToolContext(logFormat); contextError != nil {
		return contextError
	}

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) initializeToolContext(logFormat utils.LogFormat) error {
	engine := execkit.NewProcessEngine(application.logger)

	executorOptions := []execshell.ExecutorOption{
		execshell.WithConsoleWriters(application.consoleStandardOutput, application.consoleStandardError),
	}
	if logFormat == utils.LogFormatConsole {
		executorOptions = append(executorOptions, execshell.WithObservers(console.NewConsoleCommandEventLogger(application.logger)))
	}

	shellExecutor, executorError := execshell.NewShellExecutor(application.logger, engine, executorOptions...)
	if executorError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	toolContext, contextError := toolkit.NewContext(application.logger, shellExecutor, application.resolveVerbosity())
	if contextError != nil {
		return fmt.Errorf(contextCreationErrorTemplateConstant, contextError)
	}

	application.toolContext = toolContext
	return nil
}

func (application *Application) resolveVerbosity() console.Verbosity {
	switch {
	case application.quietFlagValue:
		return console.VerbosityQuiet
	case application.verboseFlagValue:
		return console.VerbosityVerbose
	default:
		return console.VerbosityNormal
	}
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
