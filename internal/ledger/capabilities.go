package ledger

import (
	"context"
	"errors"
)

const (
	missingAccountMessageConstant = "account does not exist on the ledger"
	missingBalanceMessageConstant = "account holds no balance or trustline"
)

var (
	// ErrMissingAccount is returned by LegacyAccount.Burn when the account was never created.
	ErrMissingAccount = errors.New(missingAccountMessageConstant)
	// ErrMissingBalance is returned by LegacyAccount.Burn when the account has no trustline or balance to burn.
	ErrMissingBalance = errors.New(missingBalanceMessageConstant)
)

// TransactionID identifies a ledger transaction. An empty value means no transaction was submitted.
type TransactionID string

// Account is the minimal handle shared by both ledgers.
type Account interface {
	PublicAddress() string
}

// LegacyAccount is an account on the legacy ledger that can be burned and exported.
type LegacyAccount interface {
	Account
	// Burn invalidates the account. An empty TransactionID with a nil error means the account was already burned.
	Burn(executionContext context.Context) (TransactionID, error)
	// Export serializes the account key material protected by passphrase.
	Export(passphrase string) (string, error)
}

// LegacyLedger lists the accounts held in the legacy keystore.
type LegacyLedger interface {
	Accounts(executionContext context.Context) ([]LegacyAccount, error)
}

// SuccessorLedger lists and imports accounts in the successor keystore.
type SuccessorLedger interface {
	Accounts(executionContext context.Context) ([]Account, error)
	ImportAccount(executionContext context.Context, exportedAccount string, passphrase string) (Account, error)
}

// Client is the ready-to-use ledger client handed back once migration settles.
type Client interface {
	Version() Version
	Network() Network
	NodeURL() string
	AppID() string
}
