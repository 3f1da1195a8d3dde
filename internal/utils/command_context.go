package utils

import "context"

type commandContextKey string

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	logLevelContextKeyConstant              = commandContextKey("logLevel")
)

// CommandContextAccessor stores per-invocation settings resolved by the root command.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to parentContext.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return withValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithLogLevel attaches the effective log level.
func (accessor CommandContextAccessor) WithLogLevel(parentContext context.Context, logLevel LogLevel) context.Context {
	return withValue(parentContext, logLevelContextKeyConstant, string(logLevel))
}

// LogLevel extracts the effective log level.
func (accessor CommandContextAccessor) LogLevel(executionContext context.Context) (LogLevel, bool) {
	value, available := stringValue(executionContext, logLevelContextKeyConstant)
	return LogLevel(value), available
}

func withValue(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

func stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, available := executionContext.Value(key).(string)
	return value, available
}
