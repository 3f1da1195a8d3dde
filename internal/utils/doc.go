// Package utils holds the ambient helpers shared by every ledgermigrate command:
// the layered viper ConfigurationLoader, the zap LoggerFactory and the accessor
// that threads root-command settings through command contexts.
package utils
