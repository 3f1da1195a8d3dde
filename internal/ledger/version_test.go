package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ledgermigrate/internal/ledger"
)

func TestParseVersionToken(testInstance *testing.T) {
	testCases := []struct {
		name            string
		token           string
		expectedVersion ledger.Version
		expectError     bool
	}{
		{name: "legacy_numeric", token: "2", expectedVersion: ledger.VersionLegacy},
		{name: "successor_numeric", token: "3", expectedVersion: ledger.VersionSuccessor},
		{name: "successor_padded_mixed_case", token: "  KIN3 ", expectedVersion: ledger.VersionSuccessor},
		{name: "legacy_name", token: "legacy", expectedVersion: ledger.VersionLegacy},
		{name: "unknown_numeric", token: "4", expectError: true},
		{name: "empty", token: "", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			version, parseError := ledger.ParseVersionToken(testCase.token)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				require.IsType(testInstance, ledger.InvalidVersionError{}, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedVersion, version)
		})
	}
}

func TestVersionValidateAndBurnRequirement(testInstance *testing.T) {
	require.NoError(testInstance, ledger.VersionLegacy.Validate())
	require.NoError(testInstance, ledger.VersionSuccessor.Validate())
	require.Error(testInstance, ledger.Version("kin4").Validate())
	require.False(testInstance, ledger.VersionLegacy.RequiresBurn())
	require.True(testInstance, ledger.VersionSuccessor.RequiresBurn())
}

func TestNetworkValidate(testInstance *testing.T) {
	testCases := []struct {
		name          string
		network       ledger.Network
		expectedError error
		expectError   bool
	}{
		{name: "mainnet", network: ledger.Network{Kind: ledger.NetworkMainnet}},
		{name: "custom_with_identifier", network: ledger.Network{Kind: ledger.NetworkCustom, NetworkID: "private net", Issuer: "GISSUER"}},
		{name: "custom_without_identifier", network: ledger.Network{Kind: ledger.NetworkCustom}, expectError: true, expectedError: ledger.ErrCustomNetworkIdentifierMissing},
		{name: "unknown_kind", network: ledger.Network{Kind: ledger.NetworkKind("moonnet")}, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			validationError := testCase.network.Validate()
			if !testCase.expectError {
				require.NoError(testInstance, validationError)
				return
			}
			require.Error(testInstance, validationError)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, validationError, testCase.expectedError)
			}
		})
	}
}

func TestParseNetworkKind(testInstance *testing.T) {
	kind, parseError := ledger.ParseNetworkKind(" TestNet ")
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, ledger.NetworkTestnet, kind)

	_, unknownError := ledger.ParseNetworkKind("devnet")
	require.IsType(testInstance, ledger.UnsupportedNetworkError{}, unknownError)
}
