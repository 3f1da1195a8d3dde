// Package accounts burns legacy accounts and migrates them to the successor ledger.
//
// Both phases fan out one task per account under a concurrency cap and join only after
// every account reached a terminal outcome. Recoverable per-account conditions (missing
// account, missing trustline, already burned, already migrated) are success outcomes
// carrying a reason rather than errors.
package accounts
