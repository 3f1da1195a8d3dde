package accounts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/telemetry"
)

// Wire codes answered by the migration service.
const (
	CodeSuccess                = 200
	CodeAccountNotBurned       = 4001
	CodeAccountAlreadyMigrated = 4002
	CodeInvalidPublicAddress   = 4003
	CodeAccountNotFound        = 4041
)

const (
	// PhaseMigrate names the migrate phase in PhaseError.
	PhaseMigrate = "migrate"

	accountFailureTemplateConstant   = "account %s: %v"
	burnFailedTemplateConstant       = "burn failed for all %d accounts: %s"
	phaseFailedTemplateConstant      = "%s phase failed for %d of its accounts: %s"
	migrationFailedTemplateConstant  = "migration service answered with code %d: %s"
	failureSeparatorConstant         = "; "
	migrationFailedNoMessageTemplate = "migration service answered with code %d"
)

// MigrateableAccount is the outcome of burning a single legacy account.
type MigrateableAccount struct {
	Account       ledger.LegacyAccount
	Eligible      bool
	Reason        telemetry.BurnReason
	TransactionID ledger.TransactionID
}

// PublicAddress returns the address of the wrapped account.
func (migrateableAccount MigrateableAccount) PublicAddress() string {
	if migrateableAccount.Account == nil {
		return ""
	}
	return migrateableAccount.Account.PublicAddress()
}

// AccountFailure records an unrecoverable error for one account.
type AccountFailure struct {
	PublicAddress string
	Cause         error
}

// Error describes the failure.
func (failure AccountFailure) Error() string {
	return fmt.Sprintf(accountFailureTemplateConstant, failure.PublicAddress, failure.Cause)
}

// Unwrap exposes the underlying error.
func (failure AccountFailure) Unwrap() error {
	return failure.Cause
}

// BurnResult holds per-account burn outcomes in input order, excluding failed accounts.
type BurnResult struct {
	Accounts []MigrateableAccount
	Failures []AccountFailure
}

// EligibleCount reports how many accounts still need a remote migration request.
func (result BurnResult) EligibleCount() int {
	count := 0
	for _, migrateableAccount := range result.Accounts {
		if migrateableAccount.Eligible {
			count++
		}
	}
	return count
}

// BurnFailedError reports that every account failed to burn.
type BurnFailedError struct {
	Failures []AccountFailure
}

// Error describes the failures.
func (burnError BurnFailedError) Error() string {
	return fmt.Sprintf(burnFailedTemplateConstant, len(burnError.Failures), describeFailures(burnError.Failures))
}

// Unwrap exposes the per-account failures.
func (burnError BurnFailedError) Unwrap() []error {
	return failureErrors(burnError.Failures)
}

// PhaseError reports that a phase completed with at least one failed account.
type PhaseError struct {
	Phase    string
	Failures []AccountFailure
}

// Error describes the failures.
func (phaseError PhaseError) Error() string {
	return fmt.Sprintf(phaseFailedTemplateConstant, phaseError.Phase, len(phaseError.Failures), describeFailures(phaseError.Failures))
}

// Unwrap exposes the per-account failures.
func (phaseError PhaseError) Unwrap() []error {
	return failureErrors(phaseError.Failures)
}

// MigrationFailedError carries a non-success code returned by the migration service.
type MigrationFailedError struct {
	Code    int
	Message string
}

// Error describes the code.
func (migrationError MigrationFailedError) Error() string {
	if len(migrationError.Message) == 0 {
		return fmt.Sprintf(migrationFailedNoMessageTemplate, migrationError.Code)
	}
	return fmt.Sprintf(migrationFailedTemplateConstant, migrationError.Code, migrationError.Message)
}

func describeFailures(failures []AccountFailure) string {
	descriptions := make([]string, 0, len(failures))
	for _, failure := range failures {
		descriptions = append(descriptions, failure.Error())
	}
	return strings.Join(descriptions, failureSeparatorConstant)
}

func failureErrors(failures []AccountFailure) []error {
	wrapped := make([]error, 0, len(failures))
	for _, failure := range failures {
		wrapped = append(wrapped, failure)
	}
	return wrapped
}

// FailuresOf extracts per-account failures from errors produced by this package.
func FailuresOf(err error) []AccountFailure {
	var burnError BurnFailedError
	if errors.As(err, &burnError) {
		return burnError.Failures
	}
	var phaseError PhaseError
	if errors.As(err, &phaseError) {
		return phaseError.Failures
	}
	return nil
}
