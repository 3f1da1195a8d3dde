package migration_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/ledgermigrate/internal/flagstore"
	"github.com/temirov/ledgermigrate/internal/migration"
)

const (
	testFixtureFileNameConstant   = "ledgers.yaml"
	testFlagFileNameConstant      = "flags.yaml"
	testMetricsFileNameConstant   = "ledgermigrate.prom"
	testReadyOutputConstant       = "successor client on testnet via http://horizon-testnet.kininfrastructure.com (migrated)\n"
	testFlagTrueOutputConstant    = testFlagKeyConstant + "=true\n"
	testFlagFalseOutputConstant   = testFlagKeyConstant + "=false\n"
	testLegacyFixtureConstant     = "version: \"2\"\nlegacy_accounts:\n  - public_address: GFIRST\n"
	testPartialBurnFixtureContent = `
legacy_accounts:
  - public_address: GFIRST
  - public_address: GBROKEN
    burn_error: horizon unavailable
`
)

type commandFixture struct {
	configuration migration.CommandConfiguration
	directory     string
}

func newCommandFixture(testInstance *testing.T, fixtureContents string) *commandFixture {
	testInstance.Helper()
	directory := testInstance.TempDir()
	fixturePath := filepath.Join(directory, testFixtureFileNameConstant)
	require.NoError(testInstance, os.WriteFile(fixturePath, []byte(fixtureContents), 0o600))

	configuration := migration.DefaultCommandConfiguration()
	configuration.Migration.FlagKey = testFlagKeyConstant
	configuration.Migration.RetryDelay = 0
	configuration.FlagStore = flagstore.Configuration{Backend: flagstore.BackendFile, Path: filepath.Join(directory, testFlagFileNameConstant)}
	configuration.Simulation.Fixture = fixturePath
	return &commandFixture{configuration: configuration, directory: directory}
}

func (fixture *commandFixture) provider() migration.ConfigurationProvider {
	return func() migration.CommandConfiguration {
		return fixture.configuration
	}
}

type commandBuilder interface {
	Build() (*cobra.Command, error)
}

func execute(testInstance *testing.T, builder commandBuilder, arguments ...string) (string, error) {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	var output bytes.Buffer
	command.SetOut(&output)
	command.SetErr(&output)
	command.SetArgs(arguments)
	executionError := command.ExecuteContext(context.Background())
	return output.String(), executionError
}

func TestRunCommandMigratesAndReportsReadyClient(testInstance *testing.T) {
	fixture := newCommandFixture(testInstance, successorFixtureConstant)
	metricsPath := filepath.Join(fixture.directory, testMetricsFileNameConstant)

	output, runError := execute(testInstance, &migration.RunCommandBuilder{ConfigurationProvider: fixture.provider()}, "--metrics-file", metricsPath)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, testReadyOutputConstant, output)

	metricsContent, readError := os.ReadFile(metricsPath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(metricsContent), "ledgermigrate_migrations_started_total 1")
	require.Contains(testInstance, string(metricsContent), "ledgermigrate_devserver_migrate_requests_total")

	statusOutput, statusError := execute(testInstance, &migration.StatusCommandBuilder{ConfigurationProvider: fixture.provider()})
	require.NoError(testInstance, statusError)
	require.Equal(testInstance, testFlagTrueOutputConstant, statusOutput)

	secondOutput, secondError := execute(testInstance, &migration.RunCommandBuilder{ConfigurationProvider: fixture.provider()})
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, "successor client on testnet via http://horizon-testnet.kininfrastructure.com (already_migrated)\n", secondOutput)
}

func TestRunCommandReportsBurnFailuresWithoutPersisting(testInstance *testing.T) {
	fixture := newCommandFixture(testInstance, testPartialBurnFixtureContent)

	output, runError := execute(testInstance, &migration.RunCommandBuilder{ConfigurationProvider: fixture.provider()})
	require.NoError(testInstance, runError)
	require.Contains(testInstance, output, "(migrated)\n")
	require.Contains(testInstance, output, "not burned: GBROKEN")

	statusOutput, statusError := execute(testInstance, &migration.StatusCommandBuilder{ConfigurationProvider: fixture.provider()})
	require.NoError(testInstance, statusError)
	require.Equal(testInstance, testFlagFalseOutputConstant, statusOutput)
}

func TestRunCommandVersionOverrideSkipsBurn(testInstance *testing.T) {
	fixture := newCommandFixture(testInstance, successorFixtureConstant)

	output, runError := execute(testInstance, &migration.RunCommandBuilder{ConfigurationProvider: fixture.provider()}, "--version", "2")
	require.NoError(testInstance, runError)
	require.Contains(testInstance, output, "legacy client on testnet")
	require.Contains(testInstance, output, "(api_check)")
}

func TestRunCommandEmitsHumanReadableProgress(testInstance *testing.T) {
	fixture := newCommandFixture(testInstance, successorFixtureConstant)
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)
	builder := &migration.RunCommandBuilder{
		LoggerProvider:               func() *zap.Logger { return zap.New(observedCore) },
		ConfigurationProvider:        fixture.provider(),
		HumanReadableLoggingProvider: func() bool { return true },
	}

	_, runError := execute(testInstance, builder)
	require.NoError(testInstance, runError)

	var messages []string
	for _, entry := range observedLogs.All() {
		messages = append(messages, entry.Message)
	}
	require.Contains(testInstance, messages, "Migrating legacy accounts")
	require.Contains(testInstance, messages, "Ready on successor ledger (migrated)")
}

func TestRunCommandRequiresFixture(testInstance *testing.T) {
	fixture := newCommandFixture(testInstance, successorFixtureConstant)
	fixture.configuration.Simulation.Fixture = ""

	_, runError := execute(testInstance, &migration.RunCommandBuilder{ConfigurationProvider: fixture.provider()})
	require.ErrorIs(testInstance, runError, migration.ErrMissingFixture)
}

func TestRunCommandDescribesStagedFailures(testInstance *testing.T) {
	fixture := newCommandFixture(testInstance, successorFixtureConstant)
	fixture.configuration.Network.Name = "custom"
	fixture.configuration.Network.NetworkID = "private"

	_, runError := execute(testInstance, &migration.RunCommandBuilder{ConfigurationProvider: fixture.provider()})
	var migrationError migration.Error
	require.ErrorAs(testInstance, runError, &migrationError)
	require.Equal(testInstance, migration.StageClient, migrationError.Stage)
}

func TestResolveVersionCommand(testInstance *testing.T) {
	testCases := []struct {
		name           string
		fixture        string
		arguments      []string
		expectedOutput string
	}{
		{name: "fixture_successor", fixture: successorFixtureConstant, expectedOutput: "successor\n"},
		{name: "fixture_legacy", fixture: testLegacyFixtureConstant, expectedOutput: "legacy\n"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			fixture := newCommandFixture(subTest, testCase.fixture)
			output, resolveError := execute(subTest, &migration.ResolveVersionCommandBuilder{ConfigurationProvider: fixture.provider()}, testCase.arguments...)
			require.NoError(subTest, resolveError)
			require.Equal(subTest, testCase.expectedOutput, output)
		})
	}
}

func TestResolveVersionCommandRequiresSource(testInstance *testing.T) {
	fixture := newCommandFixture(testInstance, successorFixtureConstant)
	fixture.configuration.Simulation.Fixture = ""

	_, resolveError := execute(testInstance, &migration.ResolveVersionCommandBuilder{ConfigurationProvider: fixture.provider()})
	require.ErrorIs(testInstance, resolveError, migration.ErrMissingVersionSource)
}

func TestResetCommandRequiresConfirmation(testInstance *testing.T) {
	fixture := newCommandFixture(testInstance, successorFixtureConstant)
	store, openError := flagstore.Open(fixture.configuration.FlagStore)
	require.NoError(testInstance, openError)
	require.NoError(testInstance, store.SetBool(context.Background(), testFlagKeyConstant, true))

	_, resetError := execute(testInstance, &migration.ResetCommandBuilder{ConfigurationProvider: fixture.provider()})
	require.ErrorIs(testInstance, resetError, migration.ErrResetNotConfirmed)

	output, confirmedError := execute(testInstance, &migration.ResetCommandBuilder{ConfigurationProvider: fixture.provider()}, "--yes")
	require.NoError(testInstance, confirmedError)
	require.Equal(testInstance, testFlagFalseOutputConstant, output)

	completed, readError := store.Bool(context.Background(), testFlagKeyConstant)
	require.NoError(testInstance, readError)
	require.False(testInstance, completed)
}
