package migration

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/clientfactory"
	"github.com/temirov/ledgermigrate/internal/flagstore"
	"github.com/temirov/ledgermigrate/internal/metrics"
	"github.com/temirov/ledgermigrate/internal/telemetry"
	"github.com/temirov/ledgermigrate/internal/ui"
	flagutils "github.com/temirov/ledgermigrate/internal/utils/flags"
)

const (
	runCommandUseConstant                  = "run"
	runCommandShortDescriptionConstant     = "Run the legacy-to-successor ledger migration"
	runCommandLongDescriptionConstant      = "run resolves the active ledger version, burns and migrates legacy accounts when required, persists the completion flag and prints the ready client."
	resolveCommandUseConstant              = "resolve-version"
	resolveCommandShortDescriptionConstant = "Print the active ledger version"
	statusCommandUseConstant               = "status"
	statusCommandShortDescriptionConstant  = "Print the persisted migration completion flag"
	resetCommandUseConstant                = "reset"
	resetCommandShortDescriptionConstant   = "Clear the persisted migration completion flag"
	metricsFileFlagNameConstant            = "metrics-file"
	metricsFileFlagUsageConstant           = "Write Prometheus textfile metrics to this path after the run"
	fixtureFlagNameConstant                = "fixture"
	fixtureFlagUsageConstant               = "Simulation fixture describing the legacy and successor ledgers"
	versionFlagNameConstant                = "version"
	versionFlagUsageConstant               = "Skip version discovery and use this version token"
	confirmFlagNameConstant                = "yes"
	confirmFlagShorthandConstant           = "y"
	confirmFlagUsageConstant               = "Confirm clearing the completion flag"
	resetNotConfirmedMessageConstant       = "reset clears the migration completion flag; pass --yes to confirm"
	runFailedTemplateConstant              = "%s: %w"
	readyOutputTemplateConstant            = "%s (%s)\n"
	failureOutputTemplateConstant          = "not burned: %s: %v\n"
	flagOutputTemplateConstant             = "%s=%s\n"
	versionOutputTemplateConstant          = "%s\n"
	migrationEventLogMessageConstant       = "Migration event"
	metricsWriteFailedLogMessageConstant   = "Writing metrics textfile failed"
	flagResetLogMessageConstant            = "Migration completion flag cleared"
	logFieldEventConstant                  = "event"
	logFieldPublicAddressConstant          = "public_address"
	logFieldClientConstant                 = "client"
	logFieldPathConstant                   = "path"
)

// ErrResetNotConfirmed indicates reset was invoked without --yes.
var ErrResetNotConfirmed = errors.New(resetNotConfirmedMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the loaded configuration.
type ConfigurationProvider func() CommandConfiguration

// HumanReadableLoggingProvider reports whether console output should use human-readable sentences.
type HumanReadableLoggingProvider func() bool

// RunCommandBuilder assembles the run command.
type RunCommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
}

// Build constructs the run command.
func (builder *RunCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           runCommandUseConstant,
		Short:         runCommandShortDescriptionConstant,
		Long:          runCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}
	command.Flags().String(metricsFileFlagNameConstant, "", metricsFileFlagUsageConstant)
	command.Flags().String(fixtureFlagNameConstant, "", fixtureFlagUsageConstant)
	command.Flags().String(versionFlagNameConstant, "", versionFlagUsageConstant)
	return command, nil
}

func (builder *RunCommandBuilder) run(command *cobra.Command, _ []string) error {
	logger := resolveLogger(builder.LoggerProvider)
	configuration := applyOverrides(command, resolveConfiguration(builder.ConfigurationProvider))
	metricsFilePath, _ := command.Flags().GetString(metricsFileFlagNameConstant)

	registry := prometheus.NewRegistry()
	observer := telemetry.Multi(builder.progressObserver(logger), metrics.NewObserver(registry))

	assembly, assemblyError := Assemble(AssemblyOptions{
		Configuration: configuration,
		Observer:      observer,
		Registry:      registry,
		Logger:        logger,
	})
	if assemblyError != nil {
		return assemblyError
	}
	defer assembly.Close()

	run, startError := assembly.Manager.Start(command.Context())
	if startError != nil {
		return startError
	}
	for event := range run.Events() {
		logEvent(logger, event)
	}
	outcome, runError := run.Wait(command.Context())

	if len(metricsFilePath) > 0 {
		if writeError := metrics.WriteTextfile(configurationHomeExpander.Expand(metricsFilePath), registry); writeError != nil {
			logger.Warn(metricsWriteFailedLogMessageConstant, zap.String(logFieldPathConstant, metricsFilePath), zap.Error(writeError))
		}
	}

	if runError != nil {
		var migrationError Error
		if errors.As(runError, &migrationError) {
			return fmt.Errorf(runFailedTemplateConstant, migrationError.Description(), runError)
		}
		return runError
	}

	output := command.OutOrStdout()
	fmt.Fprintf(output, readyOutputTemplateConstant, clientfactory.Describe(outcome.Client), outcome.Reason)
	for _, failure := range outcome.Failures {
		fmt.Fprintf(output, failureOutputTemplateConstant, failure.PublicAddress, failure.Cause)
	}
	return nil
}

func (builder *RunCommandBuilder) progressObserver(logger *zap.Logger) telemetry.Observer {
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		return ui.NewConsoleMigrationObserver(logger)
	}
	return telemetry.NewLoggingObserver(logger)
}

// ResolveVersionCommandBuilder assembles the resolve-version command.
type ResolveVersionCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the resolve-version command.
func (builder *ResolveVersionCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           resolveCommandUseConstant,
		Short:         resolveCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			logger := resolveLogger(builder.LoggerProvider)
			configuration := applyOverrides(command, resolveConfiguration(builder.ConfigurationProvider))

			assembly, assemblyError := AssembleResolver(AssemblyOptions{Configuration: configuration, Logger: logger})
			if assemblyError != nil {
				return assemblyError
			}
			defer assembly.Close()

			activeVersion, resolveError := assembly.Resolver.ResolveVersion(command.Context())
			if resolveError != nil {
				return Error{Stage: StageVersion, Cause: resolveError}
			}
			fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, activeVersion)
			return nil
		},
	}
	command.Flags().String(fixtureFlagNameConstant, "", fixtureFlagUsageConstant)
	return command, nil
}

// StatusCommandBuilder assembles the status command.
type StatusCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the status command.
func (builder *StatusCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:           statusCommandUseConstant,
		Short:         statusCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			configuration := resolveConfiguration(builder.ConfigurationProvider).Sanitize()
			return withFlagStore(configuration, func(store flagstore.Store) error {
				completed, readError := store.Bool(command.Context(), configuration.Migration.FlagKey)
				if readError != nil {
					return Error{Stage: StageFlag, Cause: readError}
				}
				fmt.Fprintf(command.OutOrStdout(), flagOutputTemplateConstant, configuration.Migration.FlagKey, strconv.FormatBool(completed))
				return nil
			})
		},
	}, nil
}

// ResetCommandBuilder assembles the reset command.
type ResetCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the reset command.
func (builder *ResetCommandBuilder) Build() (*cobra.Command, error) {
	var confirmed bool
	command := &cobra.Command{
		Use:           resetCommandUseConstant,
		Short:         resetCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			if !confirmed {
				return ErrResetNotConfirmed
			}
			logger := resolveLogger(builder.LoggerProvider)
			configuration := resolveConfiguration(builder.ConfigurationProvider).Sanitize()
			return withFlagStore(configuration, func(store flagstore.Store) error {
				if writeError := store.SetBool(command.Context(), configuration.Migration.FlagKey, false); writeError != nil {
					return Error{Stage: StageFlag, Cause: writeError}
				}
				logger.Info(flagResetLogMessageConstant, zap.String(logFieldFlagKeyConstant, configuration.Migration.FlagKey))
				fmt.Fprintf(command.OutOrStdout(), flagOutputTemplateConstant, configuration.Migration.FlagKey, strconv.FormatBool(false))
				return nil
			})
		},
	}
	flagutils.AddToggleFlag(command.Flags(), &confirmed, confirmFlagNameConstant, confirmFlagShorthandConstant, false, confirmFlagUsageConstant)
	return command, nil
}

func withFlagStore(configuration CommandConfiguration, use func(store flagstore.Store) error) error {
	store, openError := flagstore.Open(configuration.FlagStore)
	if openError != nil {
		return Error{Stage: StageFlag, Cause: openError}
	}
	if closer, closable := store.(io.Closer); closable {
		defer closer.Close()
	}
	return use(store)
}

func logEvent(logger *zap.Logger, event Event) {
	fields := []zap.Field{
		zap.String(logFieldEventConstant, string(event.Kind)),
		zap.String(logFieldRunIDConstant, event.RunID),
	}
	if len(event.Reason) > 0 {
		fields = append(fields, zap.String(logFieldReasonConstant, string(event.Reason)))
	}
	if len(event.PublicAddress) > 0 {
		fields = append(fields, zap.String(logFieldPublicAddressConstant, event.PublicAddress))
	}
	if event.Client != nil {
		fields = append(fields, zap.String(logFieldClientConstant, clientfactory.Describe(event.Client)))
	}
	if event.Err != nil {
		fields = append(fields, zap.Error(event.Err))
	}
	logger.Info(migrationEventLogMessageConstant, fields...)
}

func applyOverrides(command *cobra.Command, configuration CommandConfiguration) CommandConfiguration {
	if fixtureFlag := command.Flags().Lookup(fixtureFlagNameConstant); fixtureFlag != nil && fixtureFlag.Changed {
		configuration.Simulation.Fixture = fixtureFlag.Value.String()
	}
	if versionFlag := command.Flags().Lookup(versionFlagNameConstant); versionFlag != nil && versionFlag.Changed {
		configuration.Migration.Version = versionFlag.Value.String()
	}
	return configuration
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	if logger := provider(); logger != nil {
		return logger
	}
	return zap.NewNop()
}

func resolveConfiguration(provider ConfigurationProvider) CommandConfiguration {
	if provider == nil {
		return DefaultCommandConfiguration()
	}
	return provider()
}
