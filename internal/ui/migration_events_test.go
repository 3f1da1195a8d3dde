package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/telemetry"
	"github.com/temirov/ledgermigrate/internal/ui"
)

const (
	testPublicAddressConstant   = "GLEGACYACCOUNT"
	testFailureReasonConstant   = "ledger unavailable"
	testReadyMessageConstant    = "Ready on successor ledger (already migrated)"
	testBurnMessageConstant     = "Burn of GLEGACYACCOUNT finished: no trustline"
	testBurnFailureMessage      = "Burn of GLEGACYACCOUNT failed: ledger unavailable"
	testMigrateMessageConstant  = "Migration of GLEGACYACCOUNT finished: migrated"
	testVersionMessageConstant  = "Active ledger version is legacy"
	testRunFailureMessage       = "Migration failed: unknown error"
	testMigrationStartedMessage = "Migrating legacy accounts"
)

func TestConsoleMigrationObserverFormatsNotifications(testInstance *testing.T) {
	testCases := []struct {
		name            string
		invoke          func(*ui.ConsoleMigrationObserver)
		expectedLevel   zapcore.Level
		expectedMessage string
	}{
		{
			name: "migration_started",
			invoke: func(consoleObserver *ui.ConsoleMigrationObserver) {
				consoleObserver.MigrationStarted()
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testMigrationStartedMessage,
		},
		{
			name: "migration_ready",
			invoke: func(consoleObserver *ui.ConsoleMigrationObserver) {
				consoleObserver.MigrationReady(telemetry.ReadyReasonAlreadyMigrated, ledger.VersionSuccessor)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testReadyMessageConstant,
		},
		{
			name: "migration_failed_without_cause",
			invoke: func(consoleObserver *ui.ConsoleMigrationObserver) {
				consoleObserver.MigrationFailed(nil)
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: testRunFailureMessage,
		},
		{
			name: "version_succeeded",
			invoke: func(consoleObserver *ui.ConsoleMigrationObserver) {
				consoleObserver.VersionRequestSucceeded(ledger.VersionLegacy)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testVersionMessageConstant,
		},
		{
			name: "burn_succeeded",
			invoke: func(consoleObserver *ui.ConsoleMigrationObserver) {
				consoleObserver.BurnSucceeded(telemetry.BurnReasonNoTrustline, testPublicAddressConstant)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testBurnMessageConstant,
		},
		{
			name: "burn_failed",
			invoke: func(consoleObserver *ui.ConsoleMigrationObserver) {
				consoleObserver.BurnFailed(testPublicAddressConstant, errors.New(testFailureReasonConstant))
			},
			expectedLevel:   zapcore.WarnLevel,
			expectedMessage: testBurnFailureMessage,
		},
		{
			name: "migrate_succeeded",
			invoke: func(consoleObserver *ui.ConsoleMigrationObserver) {
				consoleObserver.MigrationRequestSucceeded(telemetry.MigrateReasonMigrated, testPublicAddressConstant)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testMigrateMessageConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			consoleObserver := ui.NewConsoleMigrationObserver(zap.New(observerCore))

			testCase.invoke(consoleObserver)

			entries := observedLogs.All()
			require.Len(testInstance, entries, 1)
			require.Equal(testInstance, testCase.expectedLevel, entries[0].Level)
			require.Equal(testInstance, testCase.expectedMessage, entries[0].Message)
		})
	}
}

func TestConsoleMigrationObserverToleratesNilLogger(testInstance *testing.T) {
	consoleObserver := ui.NewConsoleMigrationObserver(nil)
	require.NotPanics(testInstance, func() {
		consoleObserver.MigrationRequestFailed(testPublicAddressConstant, errors.New(testFailureReasonConstant))
	})
}
