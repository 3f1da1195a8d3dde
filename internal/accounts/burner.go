package accounts

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/telemetry"
)

const (
	burnClassifiedLogMessageConstant = "Burn classified"
	burnFailedLogMessageConstant     = "Burn failed"
	logFieldPublicAddressConstant    = "public_address"
	logFieldReasonConstant           = "reason"
	logFieldEligibleConstant         = "eligible"
	logFieldTransactionIDConstant    = "transaction_id"
)

// BurnerOptions configures a Burner.
type BurnerOptions struct {
	Observer    telemetry.Observer
	Concurrency int
	Logger      *zap.Logger
}

// Burner invalidates legacy accounts ahead of their migration.
type Burner struct {
	observer    telemetry.Observer
	concurrency int
	logger      *zap.Logger
}

type burnOutcome struct {
	account MigrateableAccount
	failure *AccountFailure
}

// NewBurner constructs a Burner.
func NewBurner(options BurnerOptions) *Burner {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Burner{
		observer:    telemetry.Serialized(options.Observer),
		concurrency: normalizeConcurrency(options.Concurrency),
		logger:      logger,
	}
}

// BurnAll burns every account concurrently and classifies each outcome. Accounts that
// failed are reported in BurnResult.Failures; a BurnFailedError is returned only when
// every account failed.
func (burner *Burner) BurnAll(executionContext context.Context, legacyAccounts []ledger.LegacyAccount) (BurnResult, error) {
	outcomes := fanOut(executionContext, burner.concurrency, legacyAccounts, burner.burn)

	result := BurnResult{Accounts: make([]MigrateableAccount, 0, len(outcomes))}
	for _, outcome := range outcomes {
		if outcome.failure != nil {
			result.Failures = append(result.Failures, *outcome.failure)
			continue
		}
		result.Accounts = append(result.Accounts, outcome.account)
	}

	if len(legacyAccounts) > 0 && len(result.Failures) == len(legacyAccounts) {
		return result, BurnFailedError{Failures: result.Failures}
	}
	return result, nil
}

func (burner *Burner) burn(executionContext context.Context, legacyAccount ledger.LegacyAccount) burnOutcome {
	publicAddress := legacyAccount.PublicAddress()
	burner.observer.BurnStarted(publicAddress)

	transactionID, burnError := legacyAccount.Burn(executionContext)
	migrateableAccount := MigrateableAccount{Account: legacyAccount, TransactionID: transactionID}

	switch {
	case burnError == nil && len(transactionID) > 0:
		migrateableAccount.Eligible = true
		migrateableAccount.Reason = telemetry.BurnReasonBurned
	case burnError == nil:
		migrateableAccount.Eligible = true
		migrateableAccount.Reason = telemetry.BurnReasonAlreadyBurned
	case errors.Is(burnError, ledger.ErrMissingAccount):
		migrateableAccount.Reason = telemetry.BurnReasonNoAccount
	case errors.Is(burnError, ledger.ErrMissingBalance):
		migrateableAccount.Reason = telemetry.BurnReasonNoTrustline
	default:
		burner.observer.BurnFailed(publicAddress, burnError)
		burner.logger.Warn(
			burnFailedLogMessageConstant,
			zap.String(logFieldPublicAddressConstant, publicAddress),
			zap.Error(burnError),
		)
		return burnOutcome{failure: &AccountFailure{PublicAddress: publicAddress, Cause: burnError}}
	}

	burner.observer.BurnSucceeded(migrateableAccount.Reason, publicAddress)
	burner.logger.Debug(
		burnClassifiedLogMessageConstant,
		zap.String(logFieldPublicAddressConstant, publicAddress),
		zap.String(logFieldReasonConstant, string(migrateableAccount.Reason)),
		zap.Bool(logFieldEligibleConstant, migrateableAccount.Eligible),
		zap.String(logFieldTransactionIDConstant, string(transactionID)),
	)
	return burnOutcome{account: migrateableAccount}
}
