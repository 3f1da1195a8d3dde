package simulated

import (
	"github.com/temirov/ledgermigrate/internal/clientfactory"
	"github.com/temirov/ledgermigrate/internal/ledger"
)

// Client is a ledger.Client backed by a simulated keystore.
type Client struct {
	*clientfactory.Descriptor
	addresses func() []string
}

// Addresses lists the accounts visible to the client.
func (client *Client) Addresses() []string {
	return client.addresses()
}

// Environment bundles the simulated ledgers built from one fixture.
type Environment struct {
	Fixture   Fixture
	Legacy    *LegacyLedger
	Successor *SuccessorLedger
}

// NewEnvironment seeds both ledgers from fixture.
func NewEnvironment(fixture Fixture) *Environment {
	return &Environment{
		Fixture:   fixture,
		Legacy:    NewLegacyLedger(fixture),
		Successor: NewSuccessorLedger(fixture),
	}
}

// Builders returns client builders that expose each version's simulated keystore.
func (environment *Environment) Builders() map[ledger.Version]clientfactory.Builder {
	return map[ledger.Version]clientfactory.Builder{
		ledger.VersionLegacy: clientfactory.BuilderFunc(func(settings clientfactory.Settings) (ledger.Client, error) {
			return &Client{Descriptor: clientfactory.NewDescriptor(settings), addresses: environment.legacyAddresses}, nil
		}),
		ledger.VersionSuccessor: clientfactory.BuilderFunc(func(settings clientfactory.Settings) (ledger.Client, error) {
			return &Client{Descriptor: clientfactory.NewDescriptor(settings), addresses: environment.Successor.Addresses}, nil
		}),
	}
}

func (environment *Environment) legacyAddresses() []string {
	addresses := make([]string, 0, len(environment.Legacy.accounts))
	for _, account := range environment.Legacy.accounts {
		addresses = append(addresses, account.publicAddress)
	}
	return addresses
}
