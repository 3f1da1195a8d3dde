package telemetry

import (
	"fmt"
	"sync"

	"github.com/temirov/ledgermigrate/internal/ledger"
)

const (
	recordedEventTemplateConstant     = "%s:%s"
	recordedEventWithReasonTemplate   = "%s:%s:%s"
	recordedEventMigrationStartedName = "migration_started"
	recordedEventMigrationReadyName   = "migration_ready"
	recordedEventMigrationFailedName  = "migration_failed"
	recordedEventVersionStartedName   = "version_started"
	recordedEventVersionSucceededName = "version_succeeded"
	recordedEventVersionFailedName    = "version_failed"
	recordedEventBurnStartedName      = "burn_started"
	recordedEventBurnSucceededName    = "burn_succeeded"
	recordedEventBurnFailedName       = "burn_failed"
	recordedEventMigrateStartedName   = "migrate_started"
	recordedEventMigrateSucceededName = "migrate_succeeded"
	recordedEventMigrateFailedName    = "migrate_failed"
)

// Recorder keeps a flat, ordered log of notifications. It is safe for concurrent use
// and is primarily used to assert on migration behavior.
type Recorder struct {
	mutex  sync.Mutex
	events []string
}

// Events returns a copy of the recorded notifications.
func (recorder *Recorder) Events() []string {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	return append([]string(nil), recorder.events...)
}

// Count returns how many recorded notifications equal event.
func (recorder *Recorder) Count(event string) int {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	count := 0
	for _, recordedEvent := range recorder.events {
		if recordedEvent == event {
			count++
		}
	}
	return count
}

func (recorder *Recorder) record(event string) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.events = append(recorder.events, event)
}

// MigrationStarted implements Observer.
func (recorder *Recorder) MigrationStarted() {
	recorder.record(recordedEventMigrationStartedName)
}

// MigrationReady implements Observer.
func (recorder *Recorder) MigrationReady(reason ReadyReason, version ledger.Version) {
	recorder.record(fmt.Sprintf(recordedEventWithReasonTemplate, recordedEventMigrationReadyName, reason, version))
}

// MigrationFailed implements Observer.
func (recorder *Recorder) MigrationFailed(error) {
	recorder.record(recordedEventMigrationFailedName)
}

// VersionRequestStarted implements Observer.
func (recorder *Recorder) VersionRequestStarted() {
	recorder.record(recordedEventVersionStartedName)
}

// VersionRequestSucceeded implements Observer.
func (recorder *Recorder) VersionRequestSucceeded(version ledger.Version) {
	recorder.record(fmt.Sprintf(recordedEventTemplateConstant, recordedEventVersionSucceededName, version))
}

// VersionRequestFailed implements Observer.
func (recorder *Recorder) VersionRequestFailed(error) {
	recorder.record(recordedEventVersionFailedName)
}

// BurnStarted implements Observer.
func (recorder *Recorder) BurnStarted(publicAddress string) {
	recorder.record(fmt.Sprintf(recordedEventTemplateConstant, recordedEventBurnStartedName, publicAddress))
}

// BurnSucceeded implements Observer.
func (recorder *Recorder) BurnSucceeded(reason BurnReason, publicAddress string) {
	recorder.record(fmt.Sprintf(recordedEventWithReasonTemplate, recordedEventBurnSucceededName, reason, publicAddress))
}

// BurnFailed implements Observer.
func (recorder *Recorder) BurnFailed(publicAddress string, _ error) {
	recorder.record(fmt.Sprintf(recordedEventTemplateConstant, recordedEventBurnFailedName, publicAddress))
}

// MigrationRequestStarted implements Observer.
func (recorder *Recorder) MigrationRequestStarted(publicAddress string) {
	recorder.record(fmt.Sprintf(recordedEventTemplateConstant, recordedEventMigrateStartedName, publicAddress))
}

// MigrationRequestSucceeded implements Observer.
func (recorder *Recorder) MigrationRequestSucceeded(reason MigrateReason, publicAddress string) {
	recorder.record(fmt.Sprintf(recordedEventWithReasonTemplate, recordedEventMigrateSucceededName, reason, publicAddress))
}

// MigrationRequestFailed implements Observer.
func (recorder *Recorder) MigrationRequestFailed(publicAddress string, _ error) {
	recorder.record(fmt.Sprintf(recordedEventTemplateConstant, recordedEventMigrateFailedName, publicAddress))
}
