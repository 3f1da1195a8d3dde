package migration

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/accounts"
	"github.com/temirov/ledgermigrate/internal/clientfactory"
	"github.com/temirov/ledgermigrate/internal/flagstore"
	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/telemetry"
	"github.com/temirov/ledgermigrate/internal/version"
)

// DefaultFlagKey names the durable completion flag.
const DefaultFlagKey = "ledger_migration_completed"

const (
	runStartedLogMessageConstant        = "Migration run started"
	runAlreadyActiveLogMessageConstant  = "Migration run already in progress"
	runCompletedLogMessageConstant      = "Migration run completed"
	runFailedLogMessageConstant         = "Migration run failed"
	accountsProcessedLogMessageConstant = "Legacy accounts processed"
	burnPartialLogMessageConstant       = "Some accounts could not be burned; completion flag left unset"
	flagPersistedLogMessageConstant     = "Migration completion flag persisted"
	logFieldRunIDConstant               = "run_id"
	logFieldVersionConstant             = "version"
	logFieldReasonConstant              = "reason"
	logFieldStageConstant               = "stage"
	logFieldAccountCountConstant        = "accounts"
	logFieldEligibleCountConstant       = "eligible"
	logFieldFailedCountConstant         = "failed"
	logFieldFlagKeyConstant             = "flag_key"
)

// AccountBurner burns legacy accounts.
type AccountBurner interface {
	BurnAll(executionContext context.Context, legacyAccounts []ledger.LegacyAccount) (accounts.BurnResult, error)
}

// AccountMigrator migrates burned accounts.
type AccountMigrator interface {
	MigrateAll(executionContext context.Context, migrateableAccounts []accounts.MigrateableAccount) error
}

// ClientFactory builds ledger clients.
type ClientFactory interface {
	Build(version ledger.Version, parameters clientfactory.ConnectionParameters) (ledger.Client, error)
}

// Dependencies enumerates the collaborators required by a Manager.
type Dependencies struct {
	VersionResolver      version.Resolver
	LegacyLedger         ledger.LegacyLedger
	Burner               AccountBurner
	Migrator             AccountMigrator
	ClientFactory        ClientFactory
	ConnectionParameters clientfactory.ConnectionParameters
	FlagStore            flagstore.Store
	FlagKey              string
	Observer             telemetry.Observer
	Logger               *zap.Logger
}

// Manager runs the migration state machine. At most one run is active at a time.
type Manager struct {
	versionResolver      version.Resolver
	legacyLedger         ledger.LegacyLedger
	burner               AccountBurner
	migrator             AccountMigrator
	clientFactory        ClientFactory
	connectionParameters clientfactory.ConnectionParameters
	flagStore            flagstore.Store
	flagKey              string
	observer             *telemetry.SerializedObserver
	logger               *zap.Logger

	runMutex   sync.Mutex
	currentRun *Run

	clientMutex sync.Mutex
	clients     map[ledger.Version]ledger.Client
}

// NewManager validates dependencies and constructs a Manager.
func NewManager(dependencies Dependencies) (*Manager, error) {
	switch {
	case dependencies.VersionResolver == nil:
		return nil, DependencyError{Dependency: dependencyVersionResolverConstant}
	case dependencies.LegacyLedger == nil:
		return nil, DependencyError{Dependency: dependencyLegacyLedgerConstant}
	case dependencies.Burner == nil:
		return nil, DependencyError{Dependency: dependencyBurnerConstant}
	case dependencies.Migrator == nil:
		return nil, DependencyError{Dependency: dependencyMigratorConstant}
	case dependencies.ClientFactory == nil:
		return nil, DependencyError{Dependency: dependencyClientFactoryConstant}
	case dependencies.FlagStore == nil:
		return nil, DependencyError{Dependency: dependencyFlagStoreConstant}
	}

	if parametersError := dependencies.ConnectionParameters.Validate(); parametersError != nil {
		return nil, Error{Stage: StageClient, Cause: parametersError}
	}

	flagKey := strings.TrimSpace(dependencies.FlagKey)
	if len(flagKey) == 0 {
		flagKey = DefaultFlagKey
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		versionResolver:      dependencies.VersionResolver,
		legacyLedger:         dependencies.LegacyLedger,
		burner:               dependencies.Burner,
		migrator:             dependencies.Migrator,
		clientFactory:        dependencies.ClientFactory,
		connectionParameters: dependencies.ConnectionParameters,
		flagStore:            dependencies.FlagStore,
		flagKey:              flagKey,
		observer:             telemetry.Serialized(dependencies.Observer),
		logger:               logger,
		clients:              map[ledger.Version]ledger.Client{},
	}, nil
}

// Start begins a run, or returns the run already in progress.
func (manager *Manager) Start(executionContext context.Context) (*Run, error) {
	manager.runMutex.Lock()
	defer manager.runMutex.Unlock()

	if manager.currentRun != nil && !manager.currentRun.finished() {
		manager.logger.Debug(runAlreadyActiveLogMessageConstant, zap.String(logFieldRunIDConstant, manager.currentRun.ID()))
		return manager.currentRun, nil
	}

	run := newRun(uuid.NewString())
	manager.currentRun = run
	go manager.execute(executionContext, run)
	return run, nil
}

// StartWithDelegate begins a run and reports its events to delegate on a single goroutine.
func (manager *Manager) StartWithDelegate(executionContext context.Context, delegate Delegate) (*Run, error) {
	if delegate == nil {
		return nil, ErrMissingDelegate
	}
	run, startError := manager.Start(executionContext)
	if startError != nil {
		return nil, startError
	}
	go dispatch(run.Events(), delegate)
	return run, nil
}

// Completed reports whether the durable completion flag is set.
func (manager *Manager) Completed(executionContext context.Context) (bool, error) {
	return manager.flagStore.Bool(executionContext, manager.flagKey)
}

func (manager *Manager) execute(executionContext context.Context, run *Run) {
	logger := manager.logger.With(zap.String(logFieldRunIDConstant, run.ID()))
	logger.Info(runStartedLogMessageConstant)

	outcome, runError := manager.migrate(executionContext, run, logger)
	if runError != nil {
		var stagedError Error
		if !errors.As(runError, &stagedError) {
			stagedError = Error{Stage: StageClient, Cause: runError}
			runError = stagedError
		}
		stage := stagedError.Stage
		manager.observer.MigrationFailed(runError)
		logger.Error(runFailedLogMessageConstant, zap.String(logFieldStageConstant, string(stage)), zap.Error(runError))
		run.fail(runError)
		return
	}

	manager.observer.MigrationReady(outcome.Reason, outcome.Version)
	logger.Info(
		runCompletedLogMessageConstant,
		zap.String(logFieldVersionConstant, string(outcome.Version)),
		zap.String(logFieldReasonConstant, string(outcome.Reason)),
	)
	run.complete(outcome)
}

func (manager *Manager) migrate(executionContext context.Context, run *Run, logger *zap.Logger) (Outcome, error) {
	completed, flagError := manager.flagStore.Bool(executionContext, manager.flagKey)
	if flagError != nil {
		return Outcome{}, Error{Stage: StageFlag, Cause: flagError}
	}
	if completed {
		return manager.ready(ledger.VersionSuccessor, telemetry.ReadyReasonAlreadyMigrated, nil)
	}

	manager.observer.VersionRequestStarted()
	activeVersion, versionError := manager.versionResolver.ResolveVersion(executionContext)
	if versionError != nil {
		manager.observer.VersionRequestFailed(versionError)
		return Outcome{}, Error{Stage: StageVersion, Cause: versionError}
	}
	manager.observer.VersionRequestSucceeded(activeVersion)
	run.setState(StateVersionResolved)

	if !activeVersion.RequiresBurn() {
		return manager.ready(activeVersion, telemetry.ReadyReasonAPICheck, nil)
	}

	legacyAccounts, accountsError := manager.legacyLedger.Accounts(executionContext)
	if accountsError != nil {
		return Outcome{}, Error{Stage: StageAccounts, Cause: accountsError}
	}
	if len(legacyAccounts) == 0 {
		if persistError := manager.persistCompletion(executionContext, logger); persistError != nil {
			return Outcome{}, persistError
		}
		return manager.ready(ledger.VersionSuccessor, telemetry.ReadyReasonNoAccountToMigrate, nil)
	}

	run.setState(StateBurning)
	burnResult, burnError := manager.burner.BurnAll(executionContext, legacyAccounts)
	if burnError != nil {
		return Outcome{}, Error{Stage: StageBurn, Cause: burnError}
	}
	for _, failure := range burnResult.Failures {
		run.publish(Event{Kind: EventAccountFailed, PublicAddress: failure.PublicAddress, Err: failure})
	}

	eligibleCount := burnResult.EligibleCount()
	if eligibleCount > 0 {
		manager.observer.MigrationStarted()
		run.publish(Event{Kind: EventMigrationStarted})
	}

	run.setState(StateMigrating)
	if migrateError := manager.migrator.MigrateAll(executionContext, burnResult.Accounts); migrateError != nil {
		var phaseError accounts.PhaseError
		if errors.As(migrateError, &phaseError) {
			for _, failure := range phaseError.Failures {
				run.publish(Event{Kind: EventAccountFailed, PublicAddress: failure.PublicAddress, Err: failure})
			}
		}
		return Outcome{}, Error{Stage: StageMigrate, Cause: migrateError}
	}

	if len(burnResult.Failures) == 0 {
		if persistError := manager.persistCompletion(executionContext, logger); persistError != nil {
			return Outcome{}, persistError
		}
	} else {
		logger.Warn(burnPartialLogMessageConstant, zap.Int(logFieldFailedCountConstant, len(burnResult.Failures)))
	}

	logger.Info(
		accountsProcessedLogMessageConstant,
		zap.Int(logFieldAccountCountConstant, len(legacyAccounts)),
		zap.Int(logFieldEligibleCountConstant, eligibleCount),
		zap.Int(logFieldFailedCountConstant, len(burnResult.Failures)),
	)

	reason := telemetry.ReadyReasonMigrated
	if eligibleCount == 0 {
		reason = telemetry.ReadyReasonNoAccountToMigrate
	}
	return manager.ready(ledger.VersionSuccessor, reason, burnResult.Failures)
}

func (manager *Manager) persistCompletion(executionContext context.Context, logger *zap.Logger) error {
	if setError := manager.flagStore.SetBool(executionContext, manager.flagKey, true); setError != nil {
		return Error{Stage: StageFlag, Cause: setError}
	}
	logger.Info(flagPersistedLogMessageConstant, zap.String(logFieldFlagKeyConstant, manager.flagKey))
	return nil
}

func (manager *Manager) ready(activeVersion ledger.Version, reason telemetry.ReadyReason, failures []accounts.AccountFailure) (Outcome, error) {
	client, clientError := manager.client(activeVersion)
	if clientError != nil {
		return Outcome{}, Error{Stage: StageClient, Cause: clientError}
	}
	return Outcome{Version: activeVersion, Client: client, Reason: reason, Failures: failures}, nil
}

func (manager *Manager) client(activeVersion ledger.Version) (ledger.Client, error) {
	manager.clientMutex.Lock()
	defer manager.clientMutex.Unlock()

	if cachedClient, cached := manager.clients[activeVersion]; cached {
		return cachedClient, nil
	}
	client, buildError := manager.clientFactory.Build(activeVersion, manager.connectionParameters)
	if buildError != nil {
		return nil, buildError
	}
	manager.clients[activeVersion] = client
	return client, nil
}
