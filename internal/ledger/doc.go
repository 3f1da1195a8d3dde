// Package ledger describes the capability surface the migration core consumes from
// the legacy and successor ledger SDKs: accounts, burning, key export and import,
// and the opaque client handle returned to callers once migration settles.
//
// It also owns the Version and Network value types shared by every other package.
package ledger
