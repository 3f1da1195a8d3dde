package accounts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/ledger"
)

const (
	missingSuccessorLedgerMessageConstant = "successor ledger is required"
	listSuccessorAccountsTemplateConstant = "list successor accounts: %w"
	exportAccountTemplateConstant         = "export account %s: %w"
	importAccountTemplateConstant         = "import account %s: %w"
	keyCopiedLogMessageConstant           = "Account key copied to successor keystore"
	keyAlreadyPresentLogMessageConstant   = "Account key already present in successor keystore"
)

// ErrMissingSuccessorLedger indicates a KeyCopier was constructed without a successor ledger.
var ErrMissingSuccessorLedger = errors.New(missingSuccessorLedgerMessageConstant)

// KeyCopier moves account key material from the legacy keystore to the successor keystore.
// Copies are serialized per public address and skipped when the address is already present.
type KeyCopier struct {
	successorLedger ledger.SuccessorLedger
	passphrase      string
	logger          *zap.Logger
	addressLocks    sync.Map
}

// NewKeyCopier constructs a KeyCopier exporting with passphrase.
func NewKeyCopier(successorLedger ledger.SuccessorLedger, passphrase string, logger *zap.Logger) (*KeyCopier, error) {
	if successorLedger == nil {
		return nil, ErrMissingSuccessorLedger
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeyCopier{successorLedger: successorLedger, passphrase: passphrase, logger: logger}, nil
}

// Copy imports legacyAccount into the successor keystore unless an account with the same
// public address already exists there. It reports whether an import happened.
func (copier *KeyCopier) Copy(executionContext context.Context, legacyAccount ledger.LegacyAccount) (bool, error) {
	publicAddress := legacyAccount.PublicAddress()
	addressLock := copier.lockFor(publicAddress)
	addressLock.Lock()
	defer addressLock.Unlock()

	present, lookupError := copier.isPresent(executionContext, publicAddress)
	if lookupError != nil {
		return false, lookupError
	}
	if present {
		copier.logger.Debug(keyAlreadyPresentLogMessageConstant, zap.String(logFieldPublicAddressConstant, publicAddress))
		return false, nil
	}

	exportedAccount, exportError := legacyAccount.Export(copier.passphrase)
	if exportError != nil {
		return false, fmt.Errorf(exportAccountTemplateConstant, publicAddress, exportError)
	}

	if _, importError := copier.successorLedger.ImportAccount(executionContext, exportedAccount, copier.passphrase); importError != nil {
		return false, fmt.Errorf(importAccountTemplateConstant, publicAddress, importError)
	}

	copier.logger.Info(keyCopiedLogMessageConstant, zap.String(logFieldPublicAddressConstant, publicAddress))
	return true, nil
}

func (copier *KeyCopier) lockFor(publicAddress string) *sync.Mutex {
	lock, _ := copier.addressLocks.LoadOrStore(publicAddress, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (copier *KeyCopier) isPresent(executionContext context.Context, publicAddress string) (bool, error) {
	successorAccounts, listError := copier.successorLedger.Accounts(executionContext)
	if listError != nil {
		return false, fmt.Errorf(listSuccessorAccountsTemplateConstant, listError)
	}
	for _, successorAccount := range successorAccounts {
		if successorAccount.PublicAddress() == publicAddress {
			return true, nil
		}
	}
	return false, nil
}
