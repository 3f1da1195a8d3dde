// Package migration orchestrates the one-time move of accounts from the legacy ledger to
// the successor ledger.
//
// A Manager resolves the active ledger version, burns and migrates legacy accounts when
// the successor ledger is active, records completion in a durable flag, and hands back a
// ready ledger client. Progress is observed through the Run returned by Start, either by
// reading its event stream or by registering a Delegate.
package migration
