package migration

import (
	"strings"
	"time"

	"github.com/temirov/ledgermigrate/internal/accounts"
	"github.com/temirov/ledgermigrate/internal/flagstore"
	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/request"
	pathutils "github.com/temirov/ledgermigrate/internal/utils/path"
)

const defaultFlagStorePathConstant = "~/.ledgermigrate/flags.yaml"

var configurationHomeExpander = pathutils.NewHomeExpander()

// Configuration captures the migration section.
type Configuration struct {
	VersionURL     string            `mapstructure:"version_url"`
	Version        string            `mapstructure:"version"`
	MigrateBaseURL string            `mapstructure:"migrate_base_url"`
	QueryItems     map[string]string `mapstructure:"query_items"`
	Passphrase     string            `mapstructure:"passphrase"`
	RetryChances   int               `mapstructure:"retry_chances"`
	RetryDelay     time.Duration     `mapstructure:"retry_delay"`
	RequestTimeout time.Duration     `mapstructure:"request_timeout"`
	Concurrency    int               `mapstructure:"concurrency"`
	FlagKey        string            `mapstructure:"flag_key"`
}

// NetworkConfiguration captures the network section used to build ready clients.
type NetworkConfiguration struct {
	Name      string `mapstructure:"name"`
	Issuer    string `mapstructure:"issuer"`
	NetworkID string `mapstructure:"network_id"`
	NodeURL   string `mapstructure:"node_url"`
	AppID     string `mapstructure:"app_id"`
}

// SimulationConfiguration points at the YAML fixture seeding the simulated ledgers.
type SimulationConfiguration struct {
	Fixture string `mapstructure:"fixture"`
}

// CommandConfiguration groups every section the migration commands read.
type CommandConfiguration struct {
	Migration  Configuration           `mapstructure:"migration"`
	Network    NetworkConfiguration    `mapstructure:"network"`
	FlagStore  flagstore.Configuration `mapstructure:"flag_store"`
	Simulation SimulationConfiguration `mapstructure:"simulation"`
}

// DefaultCommandConfiguration returns baseline values for the migration commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Migration: Configuration{
			RetryChances:   request.DefaultRetryChances,
			RetryDelay:     request.DefaultRetryDelay,
			RequestTimeout: request.DefaultTimeout,
			Concurrency:    accounts.DefaultConcurrency,
			FlagKey:        DefaultFlagKey,
		},
		Network: NetworkConfiguration{
			Name: string(ledger.NetworkTestnet),
		},
		FlagStore: flagstore.Configuration{
			Backend: flagstore.BackendFile,
			Path:    defaultFlagStorePathConstant,
		},
	}
}

// DefaultConfigurationValues exposes DefaultCommandConfiguration as viper defaults.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		"migration.retry_chances":   defaults.Migration.RetryChances,
		"migration.retry_delay":     defaults.Migration.RetryDelay,
		"migration.request_timeout": defaults.Migration.RequestTimeout,
		"migration.concurrency":     defaults.Migration.Concurrency,
		"migration.flag_key":        defaults.Migration.FlagKey,
		"network.name":              defaults.Network.Name,
		"flag_store.backend":        defaults.FlagStore.Backend,
		"flag_store.path":           defaults.FlagStore.Path,
	}
}

// Sanitize trims values and expands home-relative paths.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Migration.VersionURL = strings.TrimSpace(configuration.Migration.VersionURL)
	sanitized.Migration.Version = strings.TrimSpace(configuration.Migration.Version)
	sanitized.Migration.MigrateBaseURL = strings.TrimSpace(configuration.Migration.MigrateBaseURL)
	sanitized.Migration.FlagKey = strings.TrimSpace(configuration.Migration.FlagKey)
	sanitized.Network.Name = strings.TrimSpace(configuration.Network.Name)
	sanitized.Network.NodeURL = strings.TrimSpace(configuration.Network.NodeURL)
	sanitized.Network.AppID = strings.TrimSpace(configuration.Network.AppID)
	sanitized.FlagStore.Backend = strings.ToLower(strings.TrimSpace(configuration.FlagStore.Backend))
	sanitized.FlagStore.Path = configurationHomeExpander.Expand(strings.TrimSpace(configuration.FlagStore.Path))
	sanitized.Simulation.Fixture = configurationHomeExpander.Expand(strings.TrimSpace(configuration.Simulation.Fixture))
	if len(configuration.Migration.QueryItems) > 0 {
		sanitized.Migration.QueryItems = make(map[string]string, len(configuration.Migration.QueryItems))
		for queryKey, queryValue := range configuration.Migration.QueryItems {
			trimmedKey := strings.TrimSpace(queryKey)
			if len(trimmedKey) == 0 {
				continue
			}
			sanitized.Migration.QueryItems[trimmedKey] = strings.TrimSpace(queryValue)
		}
	}
	return sanitized
}

// Network converts the network section into a ledger.Network.
func (configuration NetworkConfiguration) Network() (ledger.Network, error) {
	kind, kindError := ledger.ParseNetworkKind(configuration.Name)
	if kindError != nil {
		return ledger.Network{}, kindError
	}
	network := ledger.Network{Kind: kind}
	if kind == ledger.NetworkCustom {
		network.Issuer = strings.TrimSpace(configuration.Issuer)
		network.NetworkID = strings.TrimSpace(configuration.NetworkID)
	}
	return network, nil
}
