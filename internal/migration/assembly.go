package migration

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/accounts"
	"github.com/temirov/ledgermigrate/internal/clientfactory"
	"github.com/temirov/ledgermigrate/internal/devserver"
	"github.com/temirov/ledgermigrate/internal/flagstore"
	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/ledger/simulated"
	"github.com/temirov/ledgermigrate/internal/request"
	"github.com/temirov/ledgermigrate/internal/telemetry"
	"github.com/temirov/ledgermigrate/internal/version"
)

const (
	missingFixtureMessageConstant           = "simulation.fixture is required to reach the legacy and successor ledgers"
	missingVersionSourceMessageConstant     = "one of migration.version, migration.version_url or simulation.fixture is required"
	loopbackAddressConstant                 = "127.0.0.1:0"
	versionRoutePathConstant                = "version"
	assemblyStepTemplateConstant            = "%s: %w"
	assemblyStepFixtureConstant             = "load fixture"
	assemblyStepDevServerConstant           = "start development server"
	assemblyStepVersionConstant             = "configure version resolver"
	assemblyStepEndpointConstant            = "configure migration endpoint"
	assemblyStepKeyCopyConstant             = "configure key copier"
	assemblyStepMigratorConstant            = "configure migrator"
	assemblyStepNetworkConstant             = "configure network"
	assemblyStepFlagStoreConstant           = "open flag store"
	devServerStartedLogMessageConstant      = "Serving simulated migration service in process"
	logFieldURLConstant                     = "url"
	logFieldFixtureConstant                 = "fixture"
	assemblyReleasedLogMessageConstant      = "Released migration resources"
	assemblyReleaseFailedLogMessageConstant = "Releasing migration resources failed"
)

var (
	// ErrMissingFixture indicates a command needs simulated ledgers but none were configured.
	ErrMissingFixture = errors.New(missingFixtureMessageConstant)
	// ErrMissingVersionSource indicates no way to learn the active ledger version.
	ErrMissingVersionSource = errors.New(missingVersionSourceMessageConstant)
)

// AssemblyOptions carries everything needed to turn configuration into live collaborators.
type AssemblyOptions struct {
	Configuration CommandConfiguration
	Observer      telemetry.Observer
	Registry      *prometheus.Registry
	Logger        *zap.Logger
}

// Assembly owns the collaborators built from configuration and releases them on Close.
type Assembly struct {
	Manager     *Manager
	Resolver    version.Resolver
	Environment *simulated.Environment
	FlagStore   flagstore.Store
	FlagKey     string
	// ServiceURL is the in-process development server address, empty when none was started.
	ServiceURL string

	logger  *zap.Logger
	closers []io.Closer
}

// Assemble builds a ready-to-start Manager. A fixture is required; when the migration
// service or version source is unset the fixture is also served in process.
func Assemble(options AssemblyOptions) (*Assembly, error) {
	assembly, environmentError := newAssembly(options, true)
	if environmentError != nil {
		return nil, environmentError
	}
	if buildError := assembly.buildManager(options); buildError != nil {
		_ = assembly.Close()
		return nil, buildError
	}
	return assembly, nil
}

// AssembleResolver builds only the version resolver, reading a fixture only when needed.
func AssembleResolver(options AssemblyOptions) (*Assembly, error) {
	return newAssembly(options, false)
}

// Close releases the development server and flag store connections.
func (assembly *Assembly) Close() error {
	if assembly == nil {
		return nil
	}
	var closeErrors []error
	for closerIndex := len(assembly.closers) - 1; closerIndex >= 0; closerIndex-- {
		if closeError := assembly.closers[closerIndex].Close(); closeError != nil {
			closeErrors = append(closeErrors, closeError)
		}
	}
	assembly.closers = nil
	joined := errors.Join(closeErrors...)
	if joined != nil {
		assembly.logger.Warn(assemblyReleaseFailedLogMessageConstant, zap.Error(joined))
		return joined
	}
	assembly.logger.Debug(assemblyReleasedLogMessageConstant)
	return nil
}

func newAssembly(options AssemblyOptions, requireFixture bool) (*Assembly, error) {
	configuration := options.Configuration.Sanitize()
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	assembly := &Assembly{FlagKey: configuration.Migration.FlagKey, logger: logger}

	versionConfigured := len(configuration.Migration.Version) > 0 || len(configuration.Migration.VersionURL) > 0
	fixtureConfigured := len(configuration.Simulation.Fixture) > 0
	switch {
	case requireFixture && !fixtureConfigured:
		return nil, ErrMissingFixture
	case !versionConfigured && !fixtureConfigured:
		return nil, ErrMissingVersionSource
	}

	if fixtureConfigured && (requireFixture || !versionConfigured) {
		fixture, fixtureError := simulated.LoadFixture(configuration.Simulation.Fixture)
		if fixtureError != nil {
			return nil, fmt.Errorf(assemblyStepTemplateConstant, assemblyStepFixtureConstant, fixtureError)
		}
		assembly.Environment = simulated.NewEnvironment(fixture)

		needsService := !versionConfigured || (requireFixture && len(configuration.Migration.MigrateBaseURL) == 0)
		if needsService {
			if serviceError := assembly.startDevServer(options.Registry, configuration.Simulation.Fixture); serviceError != nil {
				return nil, serviceError
			}
		}
	}

	resolver, resolverError := assembly.buildResolver(configuration, logger)
	if resolverError != nil {
		_ = assembly.Close()
		return nil, fmt.Errorf(assemblyStepTemplateConstant, assemblyStepVersionConstant, resolverError)
	}
	assembly.Resolver = resolver
	return assembly, nil
}

func (assembly *Assembly) startDevServer(registry *prometheus.Registry, fixturePath string) error {
	server, serverError := devserver.NewServer(devserver.Options{
		LegacyLedger: assembly.Environment.Legacy,
		VersionToken: assembly.Environment.Fixture.Version,
		Registry:     registry,
		Logger:       assembly.logger,
	})
	if serverError != nil {
		return fmt.Errorf(assemblyStepTemplateConstant, assemblyStepDevServerConstant, serverError)
	}
	listener, listenError := devserver.Listen(server, loopbackAddressConstant)
	if listenError != nil {
		return fmt.Errorf(assemblyStepTemplateConstant, assemblyStepDevServerConstant, listenError)
	}
	assembly.closers = append(assembly.closers, listener)
	assembly.ServiceURL = listener.URL()
	assembly.logger.Info(
		devServerStartedLogMessageConstant,
		zap.String(logFieldURLConstant, assembly.ServiceURL),
		zap.String(logFieldFixtureConstant, fixturePath),
	)
	return nil
}

func (assembly *Assembly) buildResolver(configuration CommandConfiguration, logger *zap.Logger) (version.Resolver, error) {
	if len(configuration.Migration.Version) > 0 {
		staticVersion, parseError := ledger.ParseVersionToken(configuration.Migration.Version)
		if parseError != nil {
			return nil, parseError
		}
		return version.StaticResolver{Version: staticVersion}, nil
	}

	versionURL := configuration.Migration.VersionURL
	if len(versionURL) == 0 {
		joinedURL, joinError := url.JoinPath(assembly.ServiceURL, versionRoutePathConstant)
		if joinError != nil {
			return nil, joinError
		}
		versionURL = joinedURL
	}
	return version.NewHTTPResolver(versionURL, newExecutor(configuration.Migration, logger), logger)
}

func (assembly *Assembly) buildManager(options AssemblyOptions) error {
	configuration := options.Configuration.Sanitize()
	logger := assembly.logger

	migrateBaseURL := configuration.Migration.MigrateBaseURL
	if len(migrateBaseURL) == 0 {
		migrateBaseURL = assembly.ServiceURL
	}
	endpoint, endpointError := accounts.NewEndpoint(migrateBaseURL, configuration.Migration.QueryItems)
	if endpointError != nil {
		return fmt.Errorf(assemblyStepTemplateConstant, assemblyStepEndpointConstant, endpointError)
	}

	keyCopier, keyCopierError := accounts.NewKeyCopier(assembly.Environment.Successor, configuration.Migration.Passphrase, logger)
	if keyCopierError != nil {
		return fmt.Errorf(assemblyStepTemplateConstant, assemblyStepKeyCopyConstant, keyCopierError)
	}

	observer := telemetry.Serialized(options.Observer)
	migrator, migratorError := accounts.NewMigrator(accounts.MigratorDependencies{
		Executor:    newExecutor(configuration.Migration, logger),
		Endpoint:    endpoint,
		KeyCopier:   keyCopier,
		Observer:    observer,
		Concurrency: configuration.Migration.Concurrency,
		Logger:      logger,
	})
	if migratorError != nil {
		return fmt.Errorf(assemblyStepTemplateConstant, assemblyStepMigratorConstant, migratorError)
	}

	network, networkError := configuration.Network.Network()
	if networkError != nil {
		return fmt.Errorf(assemblyStepTemplateConstant, assemblyStepNetworkConstant, networkError)
	}

	store, storeError := flagstore.Open(configuration.FlagStore)
	if storeError != nil {
		return fmt.Errorf(assemblyStepTemplateConstant, assemblyStepFlagStoreConstant, storeError)
	}
	assembly.FlagStore = store
	if closer, closable := store.(io.Closer); closable {
		assembly.closers = append(assembly.closers, closer)
	}

	manager, managerError := NewManager(Dependencies{
		VersionResolver: assembly.Resolver,
		LegacyLedger:    assembly.Environment.Legacy,
		Burner: accounts.NewBurner(accounts.BurnerOptions{
			Observer:    observer,
			Concurrency: configuration.Migration.Concurrency,
			Logger:      logger,
		}),
		Migrator:      migrator,
		ClientFactory: clientfactory.NewFactory(assembly.Environment.Builders(), clientfactory.DefaultNodeDirectory()),
		ConnectionParameters: clientfactory.ConnectionParameters{
			Network: network,
			AppID:   configuration.Network.AppID,
			NodeURL: configuration.Network.NodeURL,
		},
		FlagStore: store,
		FlagKey:   configuration.Migration.FlagKey,
		Observer:  observer,
		Logger:    logger,
	})
	if managerError != nil {
		return managerError
	}
	assembly.Manager = manager
	return nil
}

func newExecutor(configuration Configuration, logger *zap.Logger) *request.Executor {
	return request.NewExecutor(request.Options{
		RetryChances: configuration.RetryChances,
		RetryDelay:   configuration.RetryDelay,
		Timeout:      configuration.RequestTimeout,
		Logger:       logger,
	})
}
