package telemetry

import (
	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/ledger"
)

const (
	migrationStartedMessageConstant          = "Migration started"
	migrationReadyMessageConstant            = "Migration ready"
	migrationFailedMessageConstant           = "Migration failed"
	versionRequestStartedMessageConstant     = "Version request started"
	versionRequestSucceededMessageConstant   = "Version request succeeded"
	versionRequestFailedMessageConstant      = "Version request failed"
	burnStartedMessageConstant               = "Burn started"
	burnSucceededMessageConstant             = "Burn succeeded"
	burnFailedMessageConstant                = "Burn failed"
	migrationRequestStartedMessageConstant   = "Account migration request started"
	migrationRequestSucceededMessageConstant = "Account migration request succeeded"
	migrationRequestFailedMessageConstant    = "Account migration request failed"
	logFieldReasonConstant                   = "reason"
	logFieldVersionConstant                  = "version"
	logFieldPublicAddressConstant            = "public_address"
)

// LoggingObserver writes every notification as a structured log entry.
type LoggingObserver struct {
	logger *zap.Logger
}

// NewLoggingObserver constructs a LoggingObserver; a nil logger discards output.
func NewLoggingObserver(logger *zap.Logger) *LoggingObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingObserver{logger: logger}
}

// MigrationStarted implements Observer.
func (observer *LoggingObserver) MigrationStarted() {
	observer.logger.Info(migrationStartedMessageConstant)
}

// MigrationReady implements Observer.
func (observer *LoggingObserver) MigrationReady(reason ReadyReason, version ledger.Version) {
	observer.logger.Info(
		migrationReadyMessageConstant,
		zap.String(logFieldReasonConstant, string(reason)),
		zap.String(logFieldVersionConstant, string(version)),
	)
}

// MigrationFailed implements Observer.
func (observer *LoggingObserver) MigrationFailed(failure error) {
	observer.logger.Error(migrationFailedMessageConstant, zap.Error(failure))
}

// VersionRequestStarted implements Observer.
func (observer *LoggingObserver) VersionRequestStarted() {
	observer.logger.Debug(versionRequestStartedMessageConstant)
}

// VersionRequestSucceeded implements Observer.
func (observer *LoggingObserver) VersionRequestSucceeded(version ledger.Version) {
	observer.logger.Info(versionRequestSucceededMessageConstant, zap.String(logFieldVersionConstant, string(version)))
}

// VersionRequestFailed implements Observer.
func (observer *LoggingObserver) VersionRequestFailed(failure error) {
	observer.logger.Warn(versionRequestFailedMessageConstant, zap.Error(failure))
}

// BurnStarted implements Observer.
func (observer *LoggingObserver) BurnStarted(publicAddress string) {
	observer.logger.Debug(burnStartedMessageConstant, zap.String(logFieldPublicAddressConstant, publicAddress))
}

// BurnSucceeded implements Observer.
func (observer *LoggingObserver) BurnSucceeded(reason BurnReason, publicAddress string) {
	observer.logger.Info(
		burnSucceededMessageConstant,
		zap.String(logFieldPublicAddressConstant, publicAddress),
		zap.String(logFieldReasonConstant, string(reason)),
	)
}

// BurnFailed implements Observer.
func (observer *LoggingObserver) BurnFailed(publicAddress string, failure error) {
	observer.logger.Warn(
		burnFailedMessageConstant,
		zap.String(logFieldPublicAddressConstant, publicAddress),
		zap.Error(failure),
	)
}

// MigrationRequestStarted implements Observer.
func (observer *LoggingObserver) MigrationRequestStarted(publicAddress string) {
	observer.logger.Debug(migrationRequestStartedMessageConstant, zap.String(logFieldPublicAddressConstant, publicAddress))
}

// MigrationRequestSucceeded implements Observer.
func (observer *LoggingObserver) MigrationRequestSucceeded(reason MigrateReason, publicAddress string) {
	observer.logger.Info(
		migrationRequestSucceededMessageConstant,
		zap.String(logFieldPublicAddressConstant, publicAddress),
		zap.String(logFieldReasonConstant, string(reason)),
	)
}

// MigrationRequestFailed implements Observer.
func (observer *LoggingObserver) MigrationRequestFailed(publicAddress string, failure error) {
	observer.logger.Warn(
		migrationRequestFailedMessageConstant,
		zap.String(logFieldPublicAddressConstant, publicAddress),
		zap.Error(failure),
	)
}
