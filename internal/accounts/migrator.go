package accounts

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/request"
	"github.com/temirov/ledgermigrate/internal/telemetry"
)

const (
	missingExecutorMessageConstant       = "request executor is required"
	missingKeyCopierMessageConstant      = "key copier is required"
	accountMigratedLogMessageConstant    = "Account migrated"
	accountNotMigratedLogMessageConstant = "Account migration failed"
	logFieldCodeConstant                 = "code"
	logFieldKeyCopiedConstant            = "key_copied"
)

var (
	// ErrMissingExecutor indicates a Migrator was constructed without a request executor.
	ErrMissingExecutor = errors.New(missingExecutorMessageConstant)
	// ErrMissingKeyCopier indicates a Migrator was constructed without a key copier.
	ErrMissingKeyCopier = errors.New(missingKeyCopierMessageConstant)
)

// Response is the migration service envelope.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MigratorDependencies enumerates the collaborators required by a Migrator.
type MigratorDependencies struct {
	Executor    *request.Executor
	Endpoint    Endpoint
	KeyCopier   *KeyCopier
	Observer    telemetry.Observer
	Concurrency int
	Logger      *zap.Logger
}

// Migrator requests remote migration for burned accounts and copies their keys.
type Migrator struct {
	executor    *request.Executor
	endpoint    Endpoint
	keyCopier   *KeyCopier
	observer    telemetry.Observer
	concurrency int
	logger      *zap.Logger
}

// NewMigrator validates dependencies and constructs a Migrator.
func NewMigrator(dependencies MigratorDependencies) (*Migrator, error) {
	if dependencies.Executor == nil {
		return nil, ErrMissingExecutor
	}
	if dependencies.Endpoint.IsZero() {
		return nil, ErrInvalidMigrationURL
	}
	if dependencies.KeyCopier == nil {
		return nil, ErrMissingKeyCopier
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{
		executor:    dependencies.Executor,
		endpoint:    dependencies.Endpoint,
		keyCopier:   dependencies.KeyCopier,
		observer:    telemetry.Serialized(dependencies.Observer),
		concurrency: normalizeConcurrency(dependencies.Concurrency),
		logger:      logger,
	}, nil
}

// MigrateAll migrates every account concurrently. It waits for all accounts and returns a
// PhaseError listing each failed account when any failed.
func (migrator *Migrator) MigrateAll(executionContext context.Context, migrateableAccounts []MigrateableAccount) error {
	failures := fanOut(executionContext, migrator.concurrency, migrateableAccounts, func(taskContext context.Context, migrateableAccount MigrateableAccount) *AccountFailure {
		if _, migrateError := migrator.Migrate(taskContext, migrateableAccount); migrateError != nil {
			return &AccountFailure{PublicAddress: migrateableAccount.PublicAddress(), Cause: migrateError}
		}
		return nil
	})

	var phaseFailures []AccountFailure
	for _, failure := range failures {
		if failure != nil {
			phaseFailures = append(phaseFailures, *failure)
		}
	}
	if len(phaseFailures) > 0 {
		return PhaseError{Phase: PhaseMigrate, Failures: phaseFailures}
	}
	return nil
}

// Migrate migrates a single account and reports the success reason.
func (migrator *Migrator) Migrate(executionContext context.Context, migrateableAccount MigrateableAccount) (telemetry.MigrateReason, error) {
	publicAddress := migrateableAccount.PublicAddress()

	if !migrateableAccount.Eligible {
		if _, copyError := migrator.keyCopier.Copy(executionContext, migrateableAccount.Account); copyError != nil {
			migrator.reportFailure(publicAddress, copyError, 0)
			return "", copyError
		}
		migrator.observer.MigrationRequestSucceeded(telemetry.MigrateReasonNoAccount, publicAddress)
		return telemetry.MigrateReasonNoAccount, nil
	}

	migrator.observer.MigrationRequestStarted(publicAddress)

	var response Response
	performError := migrator.executor.Perform(
		executionContext,
		request.Request{Method: http.MethodPost, URL: migrator.endpoint.URL(publicAddress)},
		&response,
	)
	if performError != nil {
		migrator.reportFailure(publicAddress, performError, 0)
		return "", performError
	}

	var reason telemetry.MigrateReason
	switch response.Code {
	case CodeSuccess:
		reason = telemetry.MigrateReasonMigrated
	case CodeAccountAlreadyMigrated:
		reason = telemetry.MigrateReasonAlreadyMigrated
	case CodeAccountNotFound:
		reason = telemetry.MigrateReasonNoAccount
	default:
		migrationError := MigrationFailedError{Code: response.Code, Message: response.Message}
		migrator.reportFailure(publicAddress, migrationError, response.Code)
		return "", migrationError
	}

	keyCopied := false
	if reason != telemetry.MigrateReasonNoAccount {
		copied, copyError := migrator.keyCopier.Copy(executionContext, migrateableAccount.Account)
		if copyError != nil {
			migrator.reportFailure(publicAddress, copyError, response.Code)
			return "", copyError
		}
		keyCopied = copied
	}

	migrator.observer.MigrationRequestSucceeded(reason, publicAddress)
	migrator.logger.Info(
		accountMigratedLogMessageConstant,
		zap.String(logFieldPublicAddressConstant, publicAddress),
		zap.String(logFieldReasonConstant, string(reason)),
		zap.Int(logFieldCodeConstant, response.Code),
		zap.Bool(logFieldKeyCopiedConstant, keyCopied),
	)
	return reason, nil
}

func (migrator *Migrator) reportFailure(publicAddress string, failure error, code int) {
	migrator.observer.MigrationRequestFailed(publicAddress, failure)
	migrator.logger.Warn(
		accountNotMigratedLogMessageConstant,
		zap.String(logFieldPublicAddressConstant, publicAddress),
		zap.Int(logFieldCodeConstant, code),
		zap.Error(failure),
	)
}
