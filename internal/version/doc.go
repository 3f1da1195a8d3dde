// Package version discovers which ledger is currently active for the application.
package version
