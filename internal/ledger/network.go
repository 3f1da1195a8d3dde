package ledger

import (
	"errors"
	"fmt"
	"strings"
)

const (
	networkKindMainnetStringConstant        = "mainnet"
	networkKindTestnetStringConstant        = "testnet"
	networkKindPlaygroundStringConstant     = "playground"
	networkKindCustomStringConstant         = "custom"
	unsupportedNetworkErrorTemplateConstant = "unsupported network %q"
	customNetworkIdentifierMissingMessage   = "custom network requires a network identifier"
	customNetworkDescriptionTemplate        = "custom(%s)"
)

// NetworkKind enumerates the networks a ledger client can connect to.
type NetworkKind string

// Supported network kinds.
const (
	NetworkMainnet    NetworkKind = NetworkKind(networkKindMainnetStringConstant)
	NetworkTestnet    NetworkKind = NetworkKind(networkKindTestnetStringConstant)
	NetworkPlayground NetworkKind = NetworkKind(networkKindPlaygroundStringConstant)
	NetworkCustom     NetworkKind = NetworkKind(networkKindCustomStringConstant)
)

// ErrCustomNetworkIdentifierMissing indicates a custom network without a network identifier.
var ErrCustomNetworkIdentifierMissing = errors.New(customNetworkIdentifierMissingMessage)

// UnsupportedNetworkError reports an unknown network name.
type UnsupportedNetworkError struct {
	Name string
}

// Error describes the unsupported network.
func (networkError UnsupportedNetworkError) Error() string {
	return fmt.Sprintf(unsupportedNetworkErrorTemplateConstant, networkError.Name)
}

// Network describes the ledger network; Issuer and NetworkID apply to custom networks only.
type Network struct {
	Kind      NetworkKind
	Issuer    string
	NetworkID string
}

// ParseNetworkKind normalizes a configured network name.
func ParseNetworkKind(name string) (NetworkKind, error) {
	normalizedName := NetworkKind(strings.ToLower(strings.TrimSpace(name)))
	switch normalizedName {
	case NetworkMainnet, NetworkTestnet, NetworkPlayground, NetworkCustom:
		return normalizedName, nil
	default:
		return "", UnsupportedNetworkError{Name: name}
	}
}

// IsCustom reports whether the network is operator-defined.
func (network Network) IsCustom() bool {
	return network.Kind == NetworkCustom
}

// Validate checks that custom networks carry their identifier.
func (network Network) Validate() error {
	if _, parseError := ParseNetworkKind(string(network.Kind)); parseError != nil {
		return parseError
	}
	if network.IsCustom() && len(strings.TrimSpace(network.NetworkID)) == 0 {
		return ErrCustomNetworkIdentifierMissing
	}
	return nil
}

// String returns a human-readable network label.
func (network Network) String() string {
	if network.IsCustom() {
		return fmt.Sprintf(customNetworkDescriptionTemplate, network.NetworkID)
	}
	return string(network.Kind)
}
