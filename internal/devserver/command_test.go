package devserver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ledgermigrate/internal/devserver"
	"github.com/temirov/ledgermigrate/internal/ledger"
)

const testLoopbackAddressConstant = "127.0.0.1:0"

func writeFixture(testInstance *testing.T, contents string) string {
	testInstance.Helper()
	fixturePath := filepath.Join(testInstance.TempDir(), "ledgers.yaml")
	require.NoError(testInstance, os.WriteFile(fixturePath, []byte(contents), 0o600))
	return fixturePath
}

func executeServe(testInstance *testing.T, configuration devserver.Configuration, arguments ...string) error {
	testInstance.Helper()
	builder := devserver.CommandBuilder{ConfigurationProvider: func() devserver.Configuration { return configuration }}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()
	command.SetArgs(arguments)
	return command.ExecuteContext(cancelledContext)
}

func TestServeCommandStopsWithContext(testInstance *testing.T) {
	configuration := devserver.Configuration{Address: testLoopbackAddressConstant, Fixture: writeFixture(testInstance, testFixtureConstant)}
	require.NoError(testInstance, executeServe(testInstance, configuration))
}

func TestServeCommandFlagsOverrideConfiguration(testInstance *testing.T) {
	fixturePath := writeFixture(testInstance, testFixtureConstant)
	require.NoError(testInstance, executeServe(testInstance, devserver.DefaultConfiguration(), "--fixture", fixturePath, "--address", testLoopbackAddressConstant))
}

func TestServeCommandValidatesInputs(testInstance *testing.T) {
	require.ErrorIs(testInstance, executeServe(testInstance, devserver.Configuration{Address: testLoopbackAddressConstant}), devserver.ErrMissingFixture)

	badToken := devserver.Configuration{Address: testLoopbackAddressConstant, VersionToken: "4", Fixture: writeFixture(testInstance, testFixtureConstant)}
	var versionError ledger.InvalidVersionError
	require.ErrorAs(testInstance, executeServe(testInstance, badToken), &versionError)

	missingFile := devserver.Configuration{Address: testLoopbackAddressConstant, Fixture: filepath.Join(testInstance.TempDir(), "absent.yaml")}
	require.Error(testInstance, executeServe(testInstance, missingFile))
}
