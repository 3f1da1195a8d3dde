package simulated

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/temirov/ledgermigrate/internal/ledger"
)

const (
	decodeExportedAccountTemplate = "decode exported account: %w"
	passphraseMismatchMessage     = "passphrase does not match exported account"
	transactionIDPrefixConstant   = "burn-"
	missingExportedAddressMessage = "exported account carries no public address"
)

var (
	errPassphraseMismatch     = errors.New(passphraseMismatchMessage)
	errMissingExportedAddress = errors.New(missingExportedAddressMessage)
)

type exportedAccount struct {
	PublicAddress string `json:"public_address"`
	Passphrase    string `json:"passphrase"`
}

// LegacyAccount is a simulated legacy account. It is safe for concurrent use.
type LegacyAccount struct {
	mutex         sync.Mutex
	publicAddress string
	state         AccountState
	burnError     error
	migrateCode   int
	burnCount     int
}

// PublicAddress implements ledger.Account.
func (account *LegacyAccount) PublicAddress() string {
	return account.publicAddress
}

// Burn implements ledger.LegacyAccount. Funded accounts transition to burned and report a
// fresh transaction id; burned accounts report an empty id.
func (account *LegacyAccount) Burn(executionContext context.Context) (ledger.TransactionID, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return "", contextError
	}
	account.mutex.Lock()
	defer account.mutex.Unlock()
	account.burnCount++

	if account.burnError != nil {
		return "", account.burnError
	}
	switch account.state {
	case AccountStateMissing:
		return "", ledger.ErrMissingAccount
	case AccountStateNoTrustline:
		return "", ledger.ErrMissingBalance
	case AccountStateBurned:
		return "", nil
	default:
		account.state = AccountStateBurned
		return ledger.TransactionID(transactionIDPrefixConstant + uuid.NewString()), nil
	}
}

// Export implements ledger.LegacyAccount.
func (account *LegacyAccount) Export(passphrase string) (string, error) {
	encoded, encodeError := json.Marshal(exportedAccount{PublicAddress: account.publicAddress, Passphrase: passphrase})
	if encodeError != nil {
		return "", encodeError
	}
	return string(encoded), nil
}

// State reports the current ledger state.
func (account *LegacyAccount) State() AccountState {
	account.mutex.Lock()
	defer account.mutex.Unlock()
	return account.state
}

// BurnCount reports how many burns were attempted.
func (account *LegacyAccount) BurnCount() int {
	account.mutex.Lock()
	defer account.mutex.Unlock()
	return account.burnCount
}

// MigrateCode reports the fixture override for migration answers, or zero.
func (account *LegacyAccount) MigrateCode() int {
	return account.migrateCode
}

// LegacyLedger is a simulated legacy keystore.
type LegacyLedger struct {
	accounts []*LegacyAccount
	index    map[string]*LegacyAccount
}

// NewLegacyLedger seeds a LegacyLedger from fixture.
func NewLegacyLedger(fixture Fixture) *LegacyLedger {
	legacyLedger := &LegacyLedger{index: map[string]*LegacyAccount{}}
	for _, accountFixture := range fixture.LegacyAccounts {
		account := &LegacyAccount{
			publicAddress: accountFixture.PublicAddress,
			state:         accountFixture.State,
			migrateCode:   accountFixture.MigrateCode,
		}
		if len(accountFixture.BurnError) > 0 {
			account.burnError = errors.New(accountFixture.BurnError)
		}
		legacyLedger.accounts = append(legacyLedger.accounts, account)
		legacyLedger.index[account.publicAddress] = account
	}
	return legacyLedger
}

// Accounts implements ledger.LegacyLedger.
func (legacyLedger *LegacyLedger) Accounts(executionContext context.Context) ([]ledger.LegacyAccount, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}
	listed := make([]ledger.LegacyAccount, 0, len(legacyLedger.accounts))
	for _, account := range legacyLedger.accounts {
		listed = append(listed, account)
	}
	return listed, nil
}

// Account looks up a simulated account by address.
func (legacyLedger *LegacyLedger) Account(publicAddress string) (*LegacyAccount, bool) {
	account, found := legacyLedger.index[publicAddress]
	return account, found
}

type successorAccount struct {
	publicAddress string
}

func (account successorAccount) PublicAddress() string {
	return account.publicAddress
}

// SuccessorLedger is a simulated successor keystore. Imports never deduplicate so that
// callers' own idempotence is observable.
type SuccessorLedger struct {
	mutex       sync.Mutex
	accounts    []ledger.Account
	importCount map[string]int
}

// NewSuccessorLedger seeds a SuccessorLedger from fixture.
func NewSuccessorLedger(fixture Fixture) *SuccessorLedger {
	successorLedger := &SuccessorLedger{importCount: map[string]int{}}
	for _, publicAddress := range fixture.SuccessorAccounts {
		successorLedger.accounts = append(successorLedger.accounts, successorAccount{publicAddress: publicAddress})
	}
	return successorLedger
}

// Accounts implements ledger.SuccessorLedger.
func (successorLedger *SuccessorLedger) Accounts(executionContext context.Context) ([]ledger.Account, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}
	successorLedger.mutex.Lock()
	defer successorLedger.mutex.Unlock()
	return append([]ledger.Account(nil), successorLedger.accounts...), nil
}

// ImportAccount implements ledger.SuccessorLedger.
func (successorLedger *SuccessorLedger) ImportAccount(executionContext context.Context, exported string, passphrase string) (ledger.Account, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}
	var decoded exportedAccount
	if decodeError := json.Unmarshal([]byte(exported), &decoded); decodeError != nil {
		return nil, fmt.Errorf(decodeExportedAccountTemplate, decodeError)
	}
	if len(decoded.PublicAddress) == 0 {
		return nil, errMissingExportedAddress
	}
	if decoded.Passphrase != passphrase {
		return nil, errPassphraseMismatch
	}

	successorLedger.mutex.Lock()
	defer successorLedger.mutex.Unlock()
	imported := successorAccount{publicAddress: decoded.PublicAddress}
	successorLedger.accounts = append(successorLedger.accounts, imported)
	successorLedger.importCount[decoded.PublicAddress]++
	return imported, nil
}

// ImportCount reports how many times publicAddress was imported.
func (successorLedger *SuccessorLedger) ImportCount(publicAddress string) int {
	successorLedger.mutex.Lock()
	defer successorLedger.mutex.Unlock()
	return successorLedger.importCount[publicAddress]
}

// Addresses lists the public addresses held by the keystore.
func (successorLedger *SuccessorLedger) Addresses() []string {
	successorLedger.mutex.Lock()
	defer successorLedger.mutex.Unlock()
	addresses := make([]string, 0, len(successorLedger.accounts))
	for _, account := range successorLedger.accounts {
		addresses = append(addresses, account.PublicAddress())
	}
	return addresses
}
