package cli_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ledgermigrate/cmd/cli"
	"github.com/temirov/ledgermigrate/internal/devserver"
	"github.com/temirov/ledgermigrate/internal/flagstore"
	"github.com/temirov/ledgermigrate/internal/migration"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testFixtureFileNameConstant       = "ledgers.yaml"
	testFlagFileNameConstant          = "flags.yaml"
	testConfigurationTemplateConstant = "common:\n  log_level: %s\nflag_store:\n  path: %s\nsimulation:\n  fixture: %s\n"
	testFixtureContentConstant        = "legacy_accounts:\n  - public_address: GFIRST\n  - public_address: GSECOND\n    state: burned\n"
	testFlagKeyEnvironmentVariable    = "LEDGERMIGRATE_MIGRATION_FLAG_KEY"
	testCustomFlagKeyConstant         = "custom_migration_flag"
	testStatusCommandConstant         = "status"
	testDefaultLogLevelConstant       = "error"
)

type applicationFixture struct {
	configurationPath string
	flagPath          string
}

func newApplicationFixture(testInstance *testing.T, logLevel string) applicationFixture {
	testInstance.Helper()
	directory := testInstance.TempDir()

	fixturePath := filepath.Join(directory, testFixtureFileNameConstant)
	require.NoError(testInstance, os.WriteFile(fixturePath, []byte(testFixtureContentConstant), 0o600))

	flagPath := filepath.Join(directory, testFlagFileNameConstant)
	configurationPath := filepath.Join(directory, testConfigurationFileNameConstant)
	configurationContent := fmt.Sprintf(testConfigurationTemplateConstant, logLevel, flagPath, fixturePath)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationContent), 0o600))

	return applicationFixture{configurationPath: configurationPath, flagPath: flagPath}
}

func executeApplication(testInstance *testing.T, application *cli.Application, arguments ...string) (string, error) {
	testInstance.Helper()
	var output bytes.Buffer
	application.Command().SetOut(&output)
	application.Command().SetErr(&output)
	application.Command().SetArgs(arguments)
	executionError := application.ExecuteContext(context.Background())
	return output.String(), executionError
}

func TestApplicationRegistersCommands(testInstance *testing.T) {
	application := cli.NewApplication()

	var commandNames []string
	for _, subcommand := range application.Command().Commands() {
		commandNames = append(commandNames, subcommand.Name())
	}
	for _, expectedName := range []string{"run", "resolve-version", "status", "reset", "serve"} {
		require.Contains(testInstance, commandNames, expectedName)
	}
}

func TestApplicationEmbeddedDefaults(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance, testDefaultLogLevelConstant)
	application := cli.NewApplication()

	output, executionError := executeApplication(testInstance, application, "--config", fixture.configurationPath, testStatusCommandConstant)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, migration.DefaultFlagKey+"=false\n", output)

	configuration := application.Configuration()
	require.Equal(testInstance, 3, configuration.Migration.RetryChances)
	require.Equal(testInstance, 250*time.Millisecond, configuration.Migration.RetryDelay)
	require.Equal(testInstance, 15*time.Second, configuration.Migration.RequestTimeout)
	require.Equal(testInstance, 8, configuration.Migration.Concurrency)
	require.Equal(testInstance, "testnet", configuration.Network.Name)
	require.Equal(testInstance, flagstore.BackendFile, configuration.FlagStore.Backend)
	require.Equal(testInstance, fixture.flagPath, configuration.FlagStore.Path)
	require.Equal(testInstance, devserver.DefaultAddress, configuration.Server.Address)
	require.Equal(testInstance, "structured", configuration.Common.LogFormat)
}

func TestApplicationRunStatusAndReset(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance, testDefaultLogLevelConstant)

	runOutput, runError := executeApplication(testInstance, cli.NewApplication(), "--config", fixture.configurationPath, "run")
	require.NoError(testInstance, runError)
	require.Contains(testInstance, runOutput, "successor client on testnet")
	require.Contains(testInstance, runOutput, "(migrated)")

	statusOutput, statusError := executeApplication(testInstance, cli.NewApplication(), "--config", fixture.configurationPath, testStatusCommandConstant)
	require.NoError(testInstance, statusError)
	require.Equal(testInstance, migration.DefaultFlagKey+"=true\n", statusOutput)

	resetOutput, resetError := executeApplication(testInstance, cli.NewApplication(), "--config", fixture.configurationPath, "reset", "--yes")
	require.NoError(testInstance, resetError)
	require.Equal(testInstance, migration.DefaultFlagKey+"=false\n", resetOutput)

	versionOutput, versionError := executeApplication(testInstance, cli.NewApplication(), "--config", fixture.configurationPath, "resolve-version")
	require.NoError(testInstance, versionError)
	require.Equal(testInstance, "successor\n", versionOutput)
}

func TestApplicationEnvironmentOverridesConfiguration(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance, testDefaultLogLevelConstant)
	testInstance.Setenv(testFlagKeyEnvironmentVariable, testCustomFlagKeyConstant)

	output, executionError := executeApplication(testInstance, cli.NewApplication(), "--config", fixture.configurationPath, testStatusCommandConstant)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, testCustomFlagKeyConstant+"=false\n", output)
}

func TestApplicationLogSettings(testInstance *testing.T) {
	testCases := []struct {
		name             string
		configuredLevel  string
		arguments        []string
		expectError      bool
		expectedLogLevel string
	}{
		{name: "flag_overrides_configuration", configuredLevel: "warn", arguments: []string{"--log-level", "debug"}, expectedLogLevel: "debug"},
		{name: "configuration_level_used", configuredLevel: "warn", expectedLogLevel: "warn"},
		{name: "invalid_flag_rejected", configuredLevel: "warn", arguments: []string{"--log-level", "verbose"}, expectError: true},
		{name: "invalid_configuration_rejected", configuredLevel: "verbose", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			fixture := newApplicationFixture(subTest, testCase.configuredLevel)
			application := cli.NewApplication()

			arguments := append([]string{"--config", fixture.configurationPath}, testCase.arguments...)
			arguments = append(arguments, testStatusCommandConstant)
			_, executionError := executeApplication(subTest, application, arguments...)
			if testCase.expectError {
				require.Error(subTest, executionError)
				return
			}
			require.NoError(subTest, executionError)
			require.Equal(subTest, testCase.expectedLogLevel, application.Configuration().Common.LogLevel)
		})
	}
}

func TestApplicationRejectsMissingConfigurationFile(testInstance *testing.T) {
	missingPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	_, executionError := executeApplication(testInstance, cli.NewApplication(), "--config", missingPath, testStatusCommandConstant)
	require.Error(testInstance, executionError)
}

func TestEmbeddedDefaultConfigurationIsCopied(testInstance *testing.T) {
	firstContent, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", configurationType)
	require.NotEmpty(testInstance, firstContent)

	firstContent[0] = '#'
	secondContent, _ := cli.EmbeddedDefaultConfiguration()
	require.NotEqual(testInstance, firstContent[0], secondContent[0])
}
