package simulated

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AccountState is the legacy ledger state of a simulated account.
type AccountState string

// Account states.
const (
	AccountStateFunded      AccountState = AccountState("funded")
	AccountStateBurned      AccountState = AccountState("burned")
	AccountStateMissing     AccountState = AccountState("missing")
	AccountStateNoTrustline AccountState = AccountState("no_trustline")
)

const (
	readFixtureTemplateConstant        = "read fixture %s: %w"
	decodeFixtureTemplateConstant      = "decode fixture: %w"
	unknownStateTemplateConstant       = "account %s: unknown state %q"
	missingAddressTemplateConstant     = "legacy account %d: public address is required"
	duplicateAddressTemplateConstant   = "duplicate public address %s"
	missingSuccessorAddressTemplate    = "successor account %d: public address is required"
	defaultFixtureVersionTokenConstant = "3"
)

// AccountFixture describes one legacy account.
type AccountFixture struct {
	PublicAddress string       `yaml:"public_address"`
	State         AccountState `yaml:"state"`
	BurnError     string       `yaml:"burn_error,omitempty"`
	MigrateCode   int          `yaml:"migrate_code,omitempty"`
}

// Fixture seeds the simulated ledgers and the development server.
type Fixture struct {
	Version           string           `yaml:"version"`
	LegacyAccounts    []AccountFixture `yaml:"legacy_accounts"`
	SuccessorAccounts []string         `yaml:"successor_accounts"`
}

// LoadFixture reads and validates the fixture at path.
func LoadFixture(path string) (Fixture, error) {
	contents, readError := os.ReadFile(path)
	if readError != nil {
		return Fixture{}, fmt.Errorf(readFixtureTemplateConstant, path, readError)
	}
	return ParseFixture(contents)
}

// ParseFixture decodes and validates a YAML fixture. Missing states default to funded and a
// missing version token defaults to the successor ledger.
func ParseFixture(contents []byte) (Fixture, error) {
	var fixture Fixture
	if decodeError := yaml.Unmarshal(contents, &fixture); decodeError != nil {
		return Fixture{}, fmt.Errorf(decodeFixtureTemplateConstant, decodeError)
	}
	if len(strings.TrimSpace(fixture.Version)) == 0 {
		fixture.Version = defaultFixtureVersionTokenConstant
	}

	seenAddresses := map[string]struct{}{}
	for accountIndex := range fixture.LegacyAccounts {
		account := &fixture.LegacyAccounts[accountIndex]
		account.PublicAddress = strings.TrimSpace(account.PublicAddress)
		if len(account.PublicAddress) == 0 {
			return Fixture{}, fmt.Errorf(missingAddressTemplateConstant, accountIndex)
		}
		if _, duplicate := seenAddresses[account.PublicAddress]; duplicate {
			return Fixture{}, fmt.Errorf(duplicateAddressTemplateConstant, account.PublicAddress)
		}
		seenAddresses[account.PublicAddress] = struct{}{}

		if len(account.State) == 0 {
			account.State = AccountStateFunded
		}
		switch account.State {
		case AccountStateFunded, AccountStateBurned, AccountStateMissing, AccountStateNoTrustline:
		default:
			return Fixture{}, fmt.Errorf(unknownStateTemplateConstant, account.PublicAddress, account.State)
		}
	}

	for accountIndex, publicAddress := range fixture.SuccessorAccounts {
		if len(strings.TrimSpace(publicAddress)) == 0 {
			return Fixture{}, fmt.Errorf(missingSuccessorAddressTemplate, accountIndex)
		}
	}
	return fixture, nil
}
