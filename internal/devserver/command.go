package devserver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/ledger/simulated"
)

const (
	// DefaultAddress is the listen address used when none is configured.
	DefaultAddress = "127.0.0.1:8089"

	serveCommandUseConstant              = "serve"
	serveCommandShortDescriptionConstant = "Serve the simulated version and migration endpoints"
	serveCommandLongDescriptionConstant  = "serve exposes /version, /migrate and /metrics backed by a simulation fixture until interrupted."
	addressFlagNameConstant              = "address"
	addressFlagUsageConstant             = "Listen address"
	fixtureFlagNameConstant              = "fixture"
	fixtureFlagUsageConstant             = "Simulation fixture describing the legacy ledger"
	missingFixtureMessageConstant        = "serve requires a simulation fixture"
	loadFixtureTemplateConstant          = "load fixture: %w"
)

// ErrMissingFixture indicates serve was invoked without a fixture.
var ErrMissingFixture = errors.New(missingFixtureMessageConstant)

// Configuration captures the server section.
type Configuration struct {
	Address      string `mapstructure:"address"`
	VersionToken string `mapstructure:"version_token"`
	Fixture      string `mapstructure:"fixture"`
}

// DefaultConfiguration returns baseline server settings.
func DefaultConfiguration() Configuration {
	return Configuration{Address: DefaultAddress}
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the serve command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() Configuration
}

// Build constructs the serve command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           serveCommandUseConstant,
		Short:         serveCommandShortDescriptionConstant,
		Long:          serveCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.serve,
	}
	command.Flags().String(addressFlagNameConstant, "", addressFlagUsageConstant)
	command.Flags().String(fixtureFlagNameConstant, "", fixtureFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) serve(command *cobra.Command, _ []string) error {
	logger := zap.NewNop()
	if builder.LoggerProvider != nil {
		if providedLogger := builder.LoggerProvider(); providedLogger != nil {
			logger = providedLogger
		}
	}

	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	if addressFlag := command.Flags().Lookup(addressFlagNameConstant); addressFlag.Changed {
		configuration.Address = addressFlag.Value.String()
	}
	if fixtureFlag := command.Flags().Lookup(fixtureFlagNameConstant); fixtureFlag.Changed {
		configuration.Fixture = fixtureFlag.Value.String()
	}

	fixturePath := strings.TrimSpace(configuration.Fixture)
	if len(fixturePath) == 0 {
		return ErrMissingFixture
	}
	fixture, fixtureError := simulated.LoadFixture(fixturePath)
	if fixtureError != nil {
		return fmt.Errorf(loadFixtureTemplateConstant, fixtureError)
	}

	versionToken := strings.TrimSpace(configuration.VersionToken)
	if len(versionToken) == 0 {
		versionToken = fixture.Version
	}
	if _, tokenError := ledger.ParseVersionToken(versionToken); tokenError != nil {
		return tokenError
	}

	address := strings.TrimSpace(configuration.Address)
	if len(address) == 0 {
		address = DefaultAddress
	}

	server, serverError := NewServer(Options{
		LegacyLedger: simulated.NewLegacyLedger(fixture),
		VersionToken: versionToken,
		Registry:     prometheus.NewRegistry(),
		Logger:       logger,
	})
	if serverError != nil {
		return serverError
	}
	return Serve(command.Context(), server, address)
}
