package telemetry_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/telemetry"
)

const (
	testPublicAddressConstant = "GTESTACCOUNT"
)

func TestMultiObserverFansOutInOrder(testInstance *testing.T) {
	firstRecorder := &telemetry.Recorder{}
	secondRecorder := &telemetry.Recorder{}

	multiObserver := telemetry.Multi(firstRecorder, nil, secondRecorder)
	multiObserver.BurnStarted(testPublicAddressConstant)
	multiObserver.BurnSucceeded(telemetry.BurnReasonBurned, testPublicAddressConstant)
	multiObserver.MigrationReady(telemetry.ReadyReasonMigrated, ledger.VersionSuccessor)

	expectedEvents := []string{
		"burn_started:GTESTACCOUNT",
		"burn_succeeded:burned:GTESTACCOUNT",
		"migration_ready:migrated:successor",
	}
	require.Equal(testInstance, expectedEvents, firstRecorder.Events())
	require.Equal(testInstance, expectedEvents, secondRecorder.Events())
}

func TestSerializedObserverToleratesConcurrentNotifications(testInstance *testing.T) {
	recorder := &telemetry.Recorder{}
	serializedObserver := telemetry.Serialized(recorder)
	require.Same(testInstance, serializedObserver, telemetry.Serialized(serializedObserver))

	const workerCount = 32
	var waitGroup sync.WaitGroup
	waitGroup.Add(workerCount)
	for workerIndex := 0; workerIndex < workerCount; workerIndex++ {
		go func() {
			defer waitGroup.Done()
			serializedObserver.MigrationRequestStarted(testPublicAddressConstant)
		}()
	}
	waitGroup.Wait()

	require.Equal(testInstance, workerCount, recorder.Count("migrate_started:GTESTACCOUNT"))
}

func TestSerializedObserverResolvesNilDelegate(testInstance *testing.T) {
	serializedObserver := telemetry.Serialized(nil)
	require.NotPanics(testInstance, func() {
		serializedObserver.MigrationFailed(errors.New("boom"))
	})
}

func TestLoggingObserverWritesStructuredFields(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	loggingObserver := telemetry.NewLoggingObserver(zap.New(observedCore))

	loggingObserver.MigrationRequestSucceeded(telemetry.MigrateReasonAlreadyMigrated, testPublicAddressConstant)
	loggingObserver.BurnFailed(testPublicAddressConstant, errors.New("ledger unavailable"))

	entries := observedLogs.All()
	require.Len(testInstance, entries, 2)
	require.Equal(testInstance, "Account migration request succeeded", entries[0].Message)
	require.Equal(testInstance, testPublicAddressConstant, entries[0].ContextMap()["public_address"])
	require.Equal(testInstance, "already_migrated", entries[0].ContextMap()["reason"])
	require.Equal(testInstance, zapcore.WarnLevel, entries[1].Level)
}
