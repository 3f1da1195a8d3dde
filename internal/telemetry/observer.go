package telemetry

import (
	"sync"

	"github.com/temirov/ledgermigrate/internal/ledger"
)

// BurnReason explains why a burn completed without error.
type BurnReason string

// Burn reasons.
const (
	BurnReasonNoAccount     BurnReason = BurnReason("no_account")
	BurnReasonNoTrustline   BurnReason = BurnReason("no_trustline")
	BurnReasonBurned        BurnReason = BurnReason("burned")
	BurnReasonAlreadyBurned BurnReason = BurnReason("already_burned")
)

// MigrateReason explains why an account migration completed without error.
type MigrateReason string

// Migrate reasons.
const (
	MigrateReasonNoAccount       MigrateReason = MigrateReason("no_account")
	MigrateReasonMigrated        MigrateReason = MigrateReason("migrated")
	MigrateReasonAlreadyMigrated MigrateReason = MigrateReason("already_migrated")
)

// ReadyReason explains how a run reached its ready state.
type ReadyReason string

// Ready reasons.
const (
	ReadyReasonNoAccountToMigrate ReadyReason = ReadyReason("no_account_to_migrate")
	ReadyReasonAPICheck           ReadyReason = ReadyReason("api_check")
	ReadyReasonMigrated           ReadyReason = ReadyReason("migrated")
	ReadyReasonAlreadyMigrated    ReadyReason = ReadyReason("already_migrated")
)

// Observer receives telemetry for every migration step.
type Observer interface {
	MigrationStarted()
	MigrationReady(reason ReadyReason, version ledger.Version)
	MigrationFailed(failure error)

	VersionRequestStarted()
	VersionRequestSucceeded(version ledger.Version)
	VersionRequestFailed(failure error)

	BurnStarted(publicAddress string)
	BurnSucceeded(reason BurnReason, publicAddress string)
	BurnFailed(publicAddress string, failure error)

	MigrationRequestStarted(publicAddress string)
	MigrationRequestSucceeded(reason MigrateReason, publicAddress string)
	MigrationRequestFailed(publicAddress string, failure error)
}

// NoopObserver discards all notifications.
type NoopObserver struct{}

// MigrationStarted implements Observer.
func (NoopObserver) MigrationStarted() {}

// MigrationReady implements Observer.
func (NoopObserver) MigrationReady(ReadyReason, ledger.Version) {}

// MigrationFailed implements Observer.
func (NoopObserver) MigrationFailed(error) {}

// VersionRequestStarted implements Observer.
func (NoopObserver) VersionRequestStarted() {}

// VersionRequestSucceeded implements Observer.
func (NoopObserver) VersionRequestSucceeded(ledger.Version) {}

// VersionRequestFailed implements Observer.
func (NoopObserver) VersionRequestFailed(error) {}

// BurnStarted implements Observer.
func (NoopObserver) BurnStarted(string) {}

// BurnSucceeded implements Observer.
func (NoopObserver) BurnSucceeded(BurnReason, string) {}

// BurnFailed implements Observer.
func (NoopObserver) BurnFailed(string, error) {}

// MigrationRequestStarted implements Observer.
func (NoopObserver) MigrationRequestStarted(string) {}

// MigrationRequestSucceeded implements Observer.
func (NoopObserver) MigrationRequestSucceeded(MigrateReason, string) {}

// MigrationRequestFailed implements Observer.
func (NoopObserver) MigrationRequestFailed(string, error) {}

// Resolve returns observer, or a NoopObserver when observer is nil.
func Resolve(observer Observer) Observer {
	if observer == nil {
		return NoopObserver{}
	}
	return observer
}

type multiObserver struct {
	observers []Observer
}

// Multi fans notifications out to every non-nil observer in order.
func Multi(observers ...Observer) Observer {
	filtered := make([]Observer, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			filtered = append(filtered, observer)
		}
	}
	return &multiObserver{observers: filtered}
}

func (multi *multiObserver) MigrationStarted() {
	for _, observer := range multi.observers {
		observer.MigrationStarted()
	}
}

func (multi *multiObserver) MigrationReady(reason ReadyReason, version ledger.Version) {
	for _, observer := range multi.observers {
		observer.MigrationReady(reason, version)
	}
}

func (multi *multiObserver) MigrationFailed(failure error) {
	for _, observer := range multi.observers {
		observer.MigrationFailed(failure)
	}
}

func (multi *multiObserver) VersionRequestStarted() {
	for _, observer := range multi.observers {
		observer.VersionRequestStarted()
	}
}

func (multi *multiObserver) VersionRequestSucceeded(version ledger.Version) {
	for _, observer := range multi.observers {
		observer.VersionRequestSucceeded(version)
	}
}

func (multi *multiObserver) VersionRequestFailed(failure error) {
	for _, observer := range multi.observers {
		observer.VersionRequestFailed(failure)
	}
}

func (multi *multiObserver) BurnStarted(publicAddress string) {
	for _, observer := range multi.observers {
		observer.BurnStarted(publicAddress)
	}
}

func (multi *multiObserver) BurnSucceeded(reason BurnReason, publicAddress string) {
	for _, observer := range multi.observers {
		observer.BurnSucceeded(reason, publicAddress)
	}
}

func (multi *multiObserver) BurnFailed(publicAddress string, failure error) {
	for _, observer := range multi.observers {
		observer.BurnFailed(publicAddress, failure)
	}
}

func (multi *multiObserver) MigrationRequestStarted(publicAddress string) {
	for _, observer := range multi.observers {
		observer.MigrationRequestStarted(publicAddress)
	}
}

func (multi *multiObserver) MigrationRequestSucceeded(reason MigrateReason, publicAddress string) {
	for _, observer := range multi.observers {
		observer.MigrationRequestSucceeded(reason, publicAddress)
	}
}

func (multi *multiObserver) MigrationRequestFailed(publicAddress string, failure error) {
	for _, observer := range multi.observers {
		observer.MigrationRequestFailed(publicAddress, failure)
	}
}

// SerializedObserver guarantees notifications never overlap even when emitted from concurrent workers.
type SerializedObserver struct {
	mutex    sync.Mutex
	delegate Observer
}

// Serialized wraps observer so that each notification holds a shared lock.
func Serialized(observer Observer) *SerializedObserver {
	if serialized, alreadySerialized := observer.(*SerializedObserver); alreadySerialized {
		return serialized
	}
	return &SerializedObserver{delegate: Resolve(observer)}
}

// MigrationStarted implements Observer.
func (serialized *SerializedObserver) MigrationStarted() {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.MigrationStarted()
}

// MigrationReady implements Observer.
func (serialized *SerializedObserver) MigrationReady(reason ReadyReason, version ledger.Version) {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.MigrationReady(reason, version)
}

// MigrationFailed implements Observer.
func (serialized *SerializedObserver) MigrationFailed(failure error) {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.MigrationFailed(failure)
}

// VersionRequestStarted implements Observer.
func (serialized *SerializedObserver) VersionRequestStarted() {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.VersionRequestStarted()
}

// VersionRequestSucceeded implements Observer.
func (serialized *SerializedObserver) VersionRequestSucceeded(version ledger.Version) {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.VersionRequestSucceeded(version)
}

// VersionRequestFailed implements Observer.
func (serialized *SerializedObserver) VersionRequestFailed(failure error) {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.VersionRequestFailed(failure)
}

// BurnStarted implements Observer.
func (serialized *SerializedObserver) BurnStarted(publicAddress string) {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.BurnStarted(publicAddress)
}

// BurnSucceeded implements Observer.
func (serialized *SerializedObserver) BurnSucceeded(reason BurnReason, publicAddress string) {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.BurnSucceeded(reason, publicAddress)
}

// BurnFailed implements Observer.
func (serialized *SerializedObserver) BurnFailed(publicAddress string, failure error) {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.BurnFailed(publicAddress, failure)
}

// MigrationRequestStarted implements Observer.
func (serialized *SerializedObserver) MigrationRequestStarted(publicAddress string) {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.MigrationRequestStarted(publicAddress)
}

// MigrationRequestSucceeded implements Observer.
func (serialized *SerializedObserver) MigrationRequestSucceeded(reason MigrateReason, publicAddress string) {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.MigrationRequestSucceeded(reason, publicAddress)
}

// MigrationRequestFailed implements Observer.
func (serialized *SerializedObserver) MigrationRequestFailed(publicAddress string, failure error) {
	serialized.mutex.Lock()
	defer serialized.mutex.Unlock()
	serialized.delegate.MigrationRequestFailed(publicAddress, failure)
}
