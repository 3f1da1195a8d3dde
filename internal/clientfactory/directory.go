package clientfactory

import (
	"github.com/temirov/ledgermigrate/internal/ledger"
)

const (
	legacyMainnetNodeURLConstant    = "https://horizon-ecosystem.kininfrastructure.com"
	legacyTestNodeURLConstant       = "http://horizon-playground.kininfrastructure.com"
	successorMainnetNodeURLConstant = "http://kin.org"
	successorTestNodeURLConstant    = "http://horizon-testnet.kininfrastructure.com"
)

// NodeDirectory maps built-in networks to node URLs per ledger version.
type NodeDirectory map[ledger.Version]map[ledger.NetworkKind]string

// DefaultNodeDirectory returns the public node URLs for the built-in networks.
func DefaultNodeDirectory() NodeDirectory {
	return NodeDirectory{
		ledger.VersionLegacy: {
			ledger.NetworkMainnet:    legacyMainnetNodeURLConstant,
			ledger.NetworkTestnet:    legacyTestNodeURLConstant,
			ledger.NetworkPlayground: legacyTestNodeURLConstant,
		},
		ledger.VersionSuccessor: {
			ledger.NetworkMainnet:    successorMainnetNodeURLConstant,
			ledger.NetworkTestnet:    successorTestNodeURLConstant,
			ledger.NetworkPlayground: successorTestNodeURLConstant,
		},
	}
}

// Lookup returns the node URL registered for version on networkKind.
func (directory NodeDirectory) Lookup(version ledger.Version, networkKind ledger.NetworkKind) (string, bool) {
	networks, versionKnown := directory[version]
	if !versionKnown {
		return "", false
	}
	nodeURL, networkKnown := networks[networkKind]
	return nodeURL, networkKnown && len(nodeURL) > 0
}
