package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/telemetry"
)

// Namespace prefixes every metric name.
const Namespace = "ledgermigrate"

const (
	labelOutcomeConstant   = "outcome"
	labelReasonConstant    = "reason"
	labelVersionConstant   = "version"
	outcomeStartedConstant = "started"
	outcomeSucceeded       = "succeeded"
	outcomeFailedConstant  = "failed"
	noReasonLabelConstant  = ""
)

// Observer counts telemetry notifications. It implements telemetry.Observer.
type Observer struct {
	migrationsStarted prometheus.Counter
	migrationsReady   *prometheus.CounterVec
	migrationsFailed  prometheus.Counter
	versionRequests   *prometheus.CounterVec
	burns             *prometheus.CounterVec
	accountMigrations *prometheus.CounterVec
}

// NewObserver registers the migration counters with registerer.
func NewObserver(registerer prometheus.Registerer) *Observer {
	factory := promauto.With(registerer)
	return &Observer{
		migrationsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "migrations_started_total",
			Help:      "Runs that began burning and migrating accounts.",
		}),
		migrationsReady: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "migrations_ready_total",
			Help:      "Runs that handed back a ready client.",
		}, []string{labelReasonConstant, labelVersionConstant}),
		migrationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "migrations_failed_total",
			Help:      "Runs that ended in failure.",
		}),
		versionRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "version_requests_total",
			Help:      "Version resolution attempts by outcome.",
		}, []string{labelOutcomeConstant, labelVersionConstant}),
		burns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "account_burns_total",
			Help:      "Per-account burns by outcome and reason.",
		}, []string{labelOutcomeConstant, labelReasonConstant}),
		accountMigrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "account_migrations_total",
			Help:      "Per-account migration requests by outcome and reason.",
		}, []string{labelOutcomeConstant, labelReasonConstant}),
	}
}

var _ telemetry.Observer = (*Observer)(nil)

// MigrationStarted implements telemetry.Observer.
func (observer *Observer) MigrationStarted() {
	observer.migrationsStarted.Inc()
}

// MigrationReady implements telemetry.Observer.
func (observer *Observer) MigrationReady(reason telemetry.ReadyReason, version ledger.Version) {
	observer.migrationsReady.WithLabelValues(string(reason), string(version)).Inc()
}

// MigrationFailed implements telemetry.Observer.
func (observer *Observer) MigrationFailed(error) {
	observer.migrationsFailed.Inc()
}

// VersionRequestStarted implements telemetry.Observer.
func (observer *Observer) VersionRequestStarted() {
	observer.versionRequests.WithLabelValues(outcomeStartedConstant, noReasonLabelConstant).Inc()
}

// VersionRequestSucceeded implements telemetry.Observer.
func (observer *Observer) VersionRequestSucceeded(version ledger.Version) {
	observer.versionRequests.WithLabelValues(outcomeSucceeded, string(version)).Inc()
}

// VersionRequestFailed implements telemetry.Observer.
func (observer *Observer) VersionRequestFailed(error) {
	observer.versionRequests.WithLabelValues(outcomeFailedConstant, noReasonLabelConstant).Inc()
}

// BurnStarted implements telemetry.Observer.
func (observer *Observer) BurnStarted(string) {
	observer.burns.WithLabelValues(outcomeStartedConstant, noReasonLabelConstant).Inc()
}

// BurnSucceeded implements telemetry.Observer.
func (observer *Observer) BurnSucceeded(reason telemetry.BurnReason, _ string) {
	observer.burns.WithLabelValues(outcomeSucceeded, string(reason)).Inc()
}

// BurnFailed implements telemetry.Observer.
func (observer *Observer) BurnFailed(string, error) {
	observer.burns.WithLabelValues(outcomeFailedConstant, noReasonLabelConstant).Inc()
}

// MigrationRequestStarted implements telemetry.Observer.
func (observer *Observer) MigrationRequestStarted(string) {
	observer.accountMigrations.WithLabelValues(outcomeStartedConstant, noReasonLabelConstant).Inc()
}

// MigrationRequestSucceeded implements telemetry.Observer.
func (observer *Observer) MigrationRequestSucceeded(reason telemetry.MigrateReason, _ string) {
	observer.accountMigrations.WithLabelValues(outcomeSucceeded, string(reason)).Inc()
}

// MigrationRequestFailed implements telemetry.Observer.
func (observer *Observer) MigrationRequestFailed(string, error) {
	observer.accountMigrations.WithLabelValues(outcomeFailedConstant, noReasonLabelConstant).Inc()
}
