package migration

import (
	"errors"
	"fmt"

	"github.com/temirov/ledgermigrate/internal/accounts"
	"github.com/temirov/ledgermigrate/internal/clientfactory"
	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/request"
)

// Stage names the step in which a run failed.
type Stage string

// Run stages.
const (
	StageFlag     Stage = Stage("flag")
	StageVersion  Stage = Stage("version")
	StageAccounts Stage = Stage("accounts")
	StageBurn     Stage = Stage("burn")
	StageMigrate  Stage = Stage("migrate")
	StageClient   Stage = Stage("client")
)

const (
	missingDelegateMessageConstant    = "delegate is required"
	missingDependencyTemplateConstant = "migration dependency %s is required"
	stageErrorTemplateConstant        = "migration %s stage: %v"
	describeTransportMessage          = "The migration service could not be reached. Check the network connection and try again."
	describeDecodingMessage           = "The migration service returned a response that could not be read."
	describeRejectedTemplate          = "The migration service rejected an account with code %d."
	describeInvalidVersionMessage     = "The active ledger version could not be determined."
	describeBurnFailedMessage         = "None of the legacy accounts could be burned."
	describeMigrationURLMessage       = "The migration service address is missing or invalid."
	describeCustomNodeURLMessage      = "A custom network requires a node address."
	describeInvalidAppIDMessage       = "The application identifier must be four letters or digits."
	describeGenericTemplateConstant   = "Migration failed during the %s stage."
	dependencyVersionResolverConstant = "version resolver"
	dependencyLegacyLedgerConstant    = "legacy ledger"
	dependencyBurnerConstant          = "account burner"
	dependencyMigratorConstant        = "account migrator"
	dependencyClientFactoryConstant   = "client factory"
	dependencyFlagStoreConstant       = "flag store"
)

// ErrMissingDelegate indicates StartWithDelegate was called without a delegate.
var ErrMissingDelegate = errors.New(missingDelegateMessageConstant)

// DependencyError reports a collaborator missing from Dependencies.
type DependencyError struct {
	Dependency string
}

// Error describes the missing collaborator.
func (dependencyError DependencyError) Error() string {
	return fmt.Sprintf(missingDependencyTemplateConstant, dependencyError.Dependency)
}

// Error wraps every failure that ends a run.
type Error struct {
	Stage Stage
	Cause error
}

// Error describes the failure.
func (migrationError Error) Error() string {
	return fmt.Sprintf(stageErrorTemplateConstant, migrationError.Stage, migrationError.Cause)
}

// Unwrap exposes the underlying failure.
func (migrationError Error) Unwrap() error {
	return migrationError.Cause
}

// Description renders the failure for end users.
func (migrationError Error) Description() string {
	var (
		responseFailedError request.ResponseFailedError
		decodingError       request.DecodingFailedError
		rejectedError       accounts.MigrationFailedError
		invalidVersionError ledger.InvalidVersionError
		burnFailedError     accounts.BurnFailedError
		appIDError          clientfactory.InvalidAppIDError
	)

	switch cause := migrationError.Cause; {
	case errors.As(cause, &rejectedError):
		return fmt.Sprintf(describeRejectedTemplate, rejectedError.Code)
	case errors.As(cause, &responseFailedError):
		return describeTransportMessage
	case errors.As(cause, &decodingError), errors.Is(cause, request.ErrResponseEmpty):
		return describeDecodingMessage
	case errors.As(cause, &invalidVersionError):
		return describeInvalidVersionMessage
	case errors.As(cause, &burnFailedError):
		return describeBurnFailedMessage
	case errors.Is(cause, accounts.ErrInvalidMigrationURL):
		return describeMigrationURLMessage
	case errors.Is(cause, clientfactory.ErrMissingCustomNodeURL):
		return describeCustomNodeURLMessage
	case errors.As(cause, &appIDError):
		return describeInvalidAppIDMessage
	default:
		return fmt.Sprintf(describeGenericTemplateConstant, migrationError.Stage)
	}
}
