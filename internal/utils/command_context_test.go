package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ledgermigrate/internal/utils"
)

func TestCommandContextAccessorRoundTrip(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, pathAvailable := accessor.ConfigurationFilePath(context.Background())
	require.False(testInstance, pathAvailable)

	executionContext := accessor.WithConfigurationFilePath(context.Background(), "/etc/ledgermigrate/config.yaml")
	executionContext = accessor.WithLogLevel(executionContext, utils.LogLevelWarn)

	configurationFilePath, pathAvailable := accessor.ConfigurationFilePath(executionContext)
	require.True(testInstance, pathAvailable)
	require.Equal(testInstance, "/etc/ledgermigrate/config.yaml", configurationFilePath)

	logLevel, levelAvailable := accessor.LogLevel(executionContext)
	require.True(testInstance, levelAvailable)
	require.Equal(testInstance, utils.LogLevelWarn, logLevel)
}
