// Package cli constructs the ledgermigrate command-line interface: the Cobra
// command hierarchy, the layered configuration loader and the zap logger shared
// by the run, resolve-version, status, reset and serve commands.
package cli
