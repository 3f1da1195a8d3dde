package accounts_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ledgermigrate/internal/accounts"
	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/telemetry"
)

func TestBurnAllClassifiesOutcomes(testInstance *testing.T) {
	legacyAccounts := []ledger.LegacyAccount{
		&fakeLegacyAccount{publicAddress: "GBURNED", transactionID: "tx-1"},
		&fakeLegacyAccount{publicAddress: "GALREADY"},
		&fakeLegacyAccount{publicAddress: "GMISSING", burnError: ledger.ErrMissingAccount},
		&fakeLegacyAccount{publicAddress: "GNOTRUST", burnError: fmt.Errorf("submit: %w", ledger.ErrMissingBalance)},
		&fakeLegacyAccount{publicAddress: "GBROKEN", burnError: errLedgerUnavailable},
	}
	recorder := &telemetry.Recorder{}
	burner := accounts.NewBurner(accounts.BurnerOptions{Observer: recorder})

	result, burnError := burner.BurnAll(context.Background(), legacyAccounts)
	require.NoError(testInstance, burnError)

	type classification struct {
		publicAddress string
		eligible      bool
		reason        telemetry.BurnReason
	}
	actual := make([]classification, 0, len(result.Accounts))
	for _, migrateableAccount := range result.Accounts {
		actual = append(actual, classification{migrateableAccount.PublicAddress(), migrateableAccount.Eligible, migrateableAccount.Reason})
	}
	require.Equal(testInstance, []classification{
		{"GBURNED", true, telemetry.BurnReasonBurned},
		{"GALREADY", true, telemetry.BurnReasonAlreadyBurned},
		{"GMISSING", false, telemetry.BurnReasonNoAccount},
		{"GNOTRUST", false, telemetry.BurnReasonNoTrustline},
	}, actual)
	require.Equal(testInstance, ledger.TransactionID("tx-1"), result.Accounts[0].TransactionID)
	require.Equal(testInstance, 2, result.EligibleCount())

	require.Len(testInstance, result.Failures, 1)
	require.Equal(testInstance, "GBROKEN", result.Failures[0].PublicAddress)
	require.ErrorIs(testInstance, result.Failures[0], errLedgerUnavailable)

	require.Equal(testInstance, 5, countPrefix(recorder.Events(), "burn_started:"))
	require.Equal(testInstance, 1, recorder.Count("burn_failed:GBROKEN"))
	require.Equal(testInstance, 1, recorder.Count("burn_succeeded:no_trustline:GNOTRUST"))
}

func TestBurnAllFailsWhenEveryAccountFails(testInstance *testing.T) {
	legacyAccounts := []ledger.LegacyAccount{
		&fakeLegacyAccount{publicAddress: "GFIRST", burnError: errLedgerUnavailable},
		&fakeLegacyAccount{publicAddress: "GSECOND", burnError: errLedgerUnavailable},
	}
	burner := accounts.NewBurner(accounts.BurnerOptions{})

	result, burnError := burner.BurnAll(context.Background(), legacyAccounts)

	var burnFailedError accounts.BurnFailedError
	require.ErrorAs(testInstance, burnError, &burnFailedError)
	require.Len(testInstance, burnFailedError.Failures, 2)
	require.ErrorIs(testInstance, burnError, errLedgerUnavailable)
	require.Empty(testInstance, result.Accounts)
	require.Len(testInstance, accounts.FailuresOf(burnError), 2)
}

func TestBurnAllAcceptsNoAccounts(testInstance *testing.T) {
	burner := accounts.NewBurner(accounts.BurnerOptions{})

	result, burnError := burner.BurnAll(context.Background(), nil)

	require.NoError(testInstance, burnError)
	require.Empty(testInstance, result.Accounts)
	require.Empty(testInstance, result.Failures)
}

func TestBurnAllHonorsConcurrencyCap(testInstance *testing.T) {
	const accountCount = 12
	const concurrencyLimit = 3
	var inFlight atomic.Int32
	var maxInFlight atomic.Int32

	legacyAccounts := make([]ledger.LegacyAccount, 0, accountCount)
	for accountIndex := 0; accountIndex < accountCount; accountIndex++ {
		legacyAccounts = append(legacyAccounts, &fakeLegacyAccount{
			publicAddress: fmt.Sprintf("GACCOUNT%02d", accountIndex),
			transactionID: ledger.TransactionID(fmt.Sprintf("tx-%d", accountIndex)),
			burnDelay:     5 * time.Millisecond,
			inFlight:      &inFlight,
			maxInFlight:   &maxInFlight,
		})
	}
	burner := accounts.NewBurner(accounts.BurnerOptions{Concurrency: concurrencyLimit})

	result, burnError := burner.BurnAll(context.Background(), legacyAccounts)

	require.NoError(testInstance, burnError)
	require.Len(testInstance, result.Accounts, accountCount)
	require.LessOrEqual(testInstance, maxInFlight.Load(), int32(concurrencyLimit))
	for accountIndex, migrateableAccount := range result.Accounts {
		require.Equal(testInstance, fmt.Sprintf("GACCOUNT%02d", accountIndex), migrateableAccount.PublicAddress())
	}
}

func countPrefix(events []string, prefix string) int {
	count := 0
	for _, event := range events {
		if len(event) >= len(prefix) && event[:len(prefix)] == prefix {
			count++
		}
	}
	return count
}
