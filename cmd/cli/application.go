package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/devserver"
	"github.com/temirov/ledgermigrate/internal/flagstore"
	"github.com/temirov/ledgermigrate/internal/migration"
	"github.com/temirov/ledgermigrate/internal/utils"
	flagutils "github.com/temirov/ledgermigrate/internal/utils/flags"
	pathutils "github.com/temirov/ledgermigrate/internal/utils/path"
)

const (
	applicationNameConstant                 = "ledgermigrate"
	applicationShortDescriptionConstant     = "Migrate legacy ledger accounts to the successor ledger"
	applicationLongDescriptionConstant      = "ledgermigrate resolves the active ledger version, burns and migrates legacy accounts, and reports the client to use once migration is settled."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	commonLogLevelConfigKeyConstant         = "common.log_level"
	commonLogFormatConfigKeyConstant        = "common.log_format"
	serverAddressConfigKeyConstant          = "server.address"
	environmentPrefixConstant               = "LEDGERMIGRATE"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	defaultConfigurationSearchPathConstant  = "."
	userConfigurationSearchPathConstant     = "~/.ledgermigrate"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common     ApplicationCommonConfiguration    `mapstructure:"common"`
	Migration  migration.Configuration           `mapstructure:"migration"`
	Network    migration.NetworkConfiguration    `mapstructure:"network"`
	FlagStore  flagstore.Configuration           `mapstructure:"flag_store"`
	Simulation migration.SimulationConfiguration `mapstructure:"simulation"`
	Server     devserver.Configuration           `mapstructure:"server"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
}

type commandBuilder interface {
	Build() (*cobra.Command, error)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant, pathutils.NewHomeExpander().Expand(userConfigurationSearchPathConstant)},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
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
			return command.Help()
		},
	}

	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flagutils.AddChoiceFlag(
		persistentFlags,
		&application.logLevelFlagValue,
		logLevelFlagNameConstant,
		string(utils.LogLevelInfo),
		[]string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)},
		logLevelFlagUsageConstant,
	)
	flagutils.AddChoiceFlag(
		persistentFlags,
		&application.logFormatFlagValue,
		logFormatFlagNameConstant,
		string(utils.LogFormatStructured),
		[]string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)},
		logFormatFlagUsageConstant,
	)

	loggerProvider := func() *zap.Logger {
		return application.logger
	}
	migrationConfigurationProvider := func() migration.CommandConfiguration {
		return application.migrationConfiguration()
	}

	builders := []commandBuilder{
		&migration.RunCommandBuilder{
			LoggerProvider:               loggerProvider,
			ConfigurationProvider:        migrationConfigurationProvider,
			HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		},
		&migration.ResolveVersionCommandBuilder{LoggerProvider: loggerProvider, ConfigurationProvider: migrationConfigurationProvider},
		&migration.StatusCommandBuilder{LoggerProvider: loggerProvider, ConfigurationProvider: migrationConfigurationProvider},
		&migration.ResetCommandBuilder{LoggerProvider: loggerProvider, ConfigurationProvider: migrationConfigurationProvider},
		&devserver.CommandBuilder{
			LoggerProvider: func() *zap.Logger {
				return application.logger
			},
			ConfigurationProvider: application.serverConfiguration,
		},
	}
	for _, builder := range builders {
		subcommand, buildError := builder.Build()
		if buildError == nil {
			cobraCommand.AddCommand(subcommand)
		}
	}

	application.rootCommand = cobraCommand

	return application
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormat, parseError := utils.ParseLogFormat(application.configuration.Common.LogFormat)
	return parseError == nil && logFormat == utils.LogFormatConsole
}

// Command exposes the root command, mainly so callers can set arguments and outputs.
func (application *Application) Command() *cobra.Command {
	return application.rootCommand
}

// Configuration returns the configuration resolved by the last invocation.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// ExecuteContext runs the command hierarchy with executionContext and flushes the logger.
func (application *Application) ExecuteContext(executionContext context.Context) error {
	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and runs it until completion or interruption.
func Execute() error {
	signalContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewApplication().ExecuteContext(signalContext)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
		serverAddressConfigKeyConstant:   devserver.DefaultAddress,
	}
	for configurationKey, configurationValue := range migration.DefaultConfigurationValues() {
		defaultValues[configurationKey] = configurationValue
	}

	application.configuration = ApplicationConfiguration{}
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logLevel, levelError := utils.ParseLogLevel(application.configuration.Common.LogLevel)
	if levelError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, levelError)
	}
	logFormat, formatError := utils.ParseLogFormat(application.configuration.Common.LogFormat)
	if formatError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, formatError)
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(logLevel, logFormat)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, string(logLevel)),
		zap.String(configurationLogFormatFieldConstant, string(logFormat)),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
		updatedContext = application.commandContextAccessor.WithLogLevel(updatedContext, logLevel)
		command.SetContext(updatedContext)
	}

	return nil
}

func (application *Application) migrationConfiguration() migration.CommandConfiguration {
	return migration.CommandConfiguration{
		Migration:  application.configuration.Migration,
		Network:    application.configuration.Network,
		FlagStore:  application.configuration.FlagStore,
		Simulation: application.configuration.Simulation,
	}
}

func (application *Application) serverConfiguration() devserver.Configuration {
	serverConfiguration := application.configuration.Server
	if len(strings.TrimSpace(serverConfiguration.Fixture)) == 0 {
		serverConfiguration.Fixture = application.configuration.Simulation.Fixture
	}
	return serverConfiguration
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
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{command.PersistentFlags(), command.InheritedFlags()}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}
