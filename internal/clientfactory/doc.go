// Package clientfactory builds ready-to-use ledger clients for a resolved version.
package clientfactory
