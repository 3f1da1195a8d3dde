package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/telemetry"
)

const (
	migrationStartedMessageConstant         = "Migrating legacy accounts"
	migrationReadyMessageTemplateConstant   = "Ready on %s ledger (%s)"
	migrationFailedMessageTemplateConstant  = "Migration failed: %s"
	versionStartedMessageConstant           = "Resolving active ledger version"
	versionSucceededMessageTemplateConstant = "Active ledger version is %s"
	versionFailedMessageTemplateConstant    = "Resolving ledger version failed: %s"
	burnStartedMessageTemplateConstant      = "Burning %s"
	burnSucceededMessageTemplateConstant    = "Burn of %s finished: %s"
	burnFailedMessageTemplateConstant       = "Burn of %s failed: %s"
	migrateStartedMessageTemplateConstant   = "Requesting migration of %s"
	migrateSucceededMessageTemplateConstant = "Migration of %s finished: %s"
	migrateFailedMessageTemplateConstant    = "Migration of %s failed: %s"
	unknownFailureMessageConstant           = "unknown error"
	reasonWordSeparatorConstant             = "_"
	reasonHumanSeparatorConstant            = " "
)

// MigrationEventFormatter builds human-readable messages for migration notifications.
type MigrationEventFormatter struct{}

// BuildStartedMessage formats the message emitted once burning has finished and migration begins.
func (formatter MigrationEventFormatter) BuildStartedMessage() string {
	return migrationStartedMessageConstant
}

// BuildReadyMessage formats the message describing the ready state of a run.
func (formatter MigrationEventFormatter) BuildReadyMessage(reason telemetry.ReadyReason, version ledger.Version) string {
	return fmt.Sprintf(migrationReadyMessageTemplateConstant, version, formatter.formatReason(string(reason)))
}

// BuildFailureMessage formats the message describing a failed run.
func (formatter MigrationEventFormatter) BuildFailureMessage(failure error) string {
	return fmt.Sprintf(migrationFailedMessageTemplateConstant, formatter.formatFailure(failure))
}

// BuildVersionStartedMessage formats the message emitted before version discovery.
func (formatter MigrationEventFormatter) BuildVersionStartedMessage() string {
	return versionStartedMessageConstant
}

// BuildVersionSucceededMessage formats the message describing the resolved version.
func (formatter MigrationEventFormatter) BuildVersionSucceededMessage(version ledger.Version) string {
	return fmt.Sprintf(versionSucceededMessageTemplateConstant, version)
}

// BuildVersionFailedMessage formats the message describing a version discovery failure.
func (formatter MigrationEventFormatter) BuildVersionFailedMessage(failure error) string {
	return fmt.Sprintf(versionFailedMessageTemplateConstant, formatter.formatFailure(failure))
}

// BuildBurnStartedMessage formats the message emitted before burning an account.
func (formatter MigrationEventFormatter) BuildBurnStartedMessage(publicAddress string) string {
	return fmt.Sprintf(burnStartedMessageTemplateConstant, publicAddress)
}

// BuildBurnSucceededMessage formats the message describing a completed burn.
func (formatter MigrationEventFormatter) BuildBurnSucceededMessage(reason telemetry.BurnReason, publicAddress string) string {
	return fmt.Sprintf(burnSucceededMessageTemplateConstant, publicAddress, formatter.formatReason(string(reason)))
}

// BuildBurnFailedMessage formats the message describing a failed burn.
func (formatter MigrationEventFormatter) BuildBurnFailedMessage(publicAddress string, failure error) string {
	return fmt.Sprintf(burnFailedMessageTemplateConstant, publicAddress, formatter.formatFailure(failure))
}

// BuildMigrateStartedMessage formats the message emitted before requesting an account migration.
func (formatter MigrationEventFormatter) BuildMigrateStartedMessage(publicAddress string) string {
	return fmt.Sprintf(migrateStartedMessageTemplateConstant, publicAddress)
}

// BuildMigrateSucceededMessage formats the message describing a completed account migration.
func (formatter MigrationEventFormatter) BuildMigrateSucceededMessage(reason telemetry.MigrateReason, publicAddress string) string {
	return fmt.Sprintf(migrateSucceededMessageTemplateConstant, publicAddress, formatter.formatReason(string(reason)))
}

// BuildMigrateFailedMessage formats the message describing a failed account migration.
func (formatter MigrationEventFormatter) BuildMigrateFailedMessage(publicAddress string, failure error) string {
	return fmt.Sprintf(migrateFailedMessageTemplateConstant, publicAddress, formatter.formatFailure(failure))
}

func (formatter MigrationEventFormatter) formatReason(reason string) string {
	return strings.ReplaceAll(reason, reasonWordSeparatorConstant, reasonHumanSeparatorConstant)
}

func (formatter MigrationEventFormatter) formatFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

// ConsoleMigrationObserver renders migration notifications using a zap logger configured for human-readable output.
type ConsoleMigrationObserver struct {
	logger    *zap.Logger
	formatter MigrationEventFormatter
}

var _ telemetry.Observer = (*ConsoleMigrationObserver)(nil)

// NewConsoleMigrationObserver constructs a console observer backed by the provided zap logger.
func NewConsoleMigrationObserver(logger *zap.Logger) *ConsoleMigrationObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMigrationObserver{logger: logger, formatter: MigrationEventFormatter{}}
}

// MigrationStarted implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) MigrationStarted() {
	observer.logger.Info(observer.formatter.BuildStartedMessage())
}

// MigrationReady implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) MigrationReady(reason telemetry.ReadyReason, version ledger.Version) {
	observer.logger.Info(observer.formatter.BuildReadyMessage(reason, version))
}

// MigrationFailed implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) MigrationFailed(failure error) {
	observer.logger.Error(observer.formatter.BuildFailureMessage(failure))
}

// VersionRequestStarted implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) VersionRequestStarted() {
	observer.logger.Debug(observer.formatter.BuildVersionStartedMessage())
}

// VersionRequestSucceeded implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) VersionRequestSucceeded(version ledger.Version) {
	observer.logger.Info(observer.formatter.BuildVersionSucceededMessage(version))
}

// VersionRequestFailed implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) VersionRequestFailed(failure error) {
	observer.logger.Warn(observer.formatter.BuildVersionFailedMessage(failure))
}

// BurnStarted implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) BurnStarted(publicAddress string) {
	observer.logger.Debug(observer.formatter.BuildBurnStartedMessage(publicAddress))
}

// BurnSucceeded implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) BurnSucceeded(reason telemetry.BurnReason, publicAddress string) {
	observer.logger.Info(observer.formatter.BuildBurnSucceededMessage(reason, publicAddress))
}

// BurnFailed implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) BurnFailed(publicAddress string, failure error) {
	observer.logger.Warn(observer.formatter.BuildBurnFailedMessage(publicAddress, failure))
}

// MigrationRequestStarted implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) MigrationRequestStarted(publicAddress string) {
	observer.logger.Debug(observer.formatter.BuildMigrateStartedMessage(publicAddress))
}

// MigrationRequestSucceeded implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) MigrationRequestSucceeded(reason telemetry.MigrateReason, publicAddress string) {
	observer.logger.Info(observer.formatter.BuildMigrateSucceededMessage(reason, publicAddress))
}

// MigrationRequestFailed implements telemetry.Observer.
func (observer *ConsoleMigrationObserver) MigrationRequestFailed(publicAddress string, failure error) {
	observer.logger.Warn(observer.formatter.BuildMigrateFailedMessage(publicAddress, failure))
}
