package accounts_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ledgermigrate/internal/accounts"
	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/request"
	"github.com/temirov/ledgermigrate/internal/telemetry"
)

const (
	exportedAccountPrefixConstant = "exported:"
	migrateResponseTemplate       = `{"code":%d,"message":"%s"}`
)

type fakeLegacyAccount struct {
	publicAddress string
	transactionID ledger.TransactionID
	burnError     error
	exportCount   atomic.Int32
	burnDelay     time.Duration
	inFlight      *atomic.Int32
	maxInFlight   *atomic.Int32
}

func (account *fakeLegacyAccount) PublicAddress() string {
	return account.publicAddress
}

func (account *fakeLegacyAccount) Burn(context.Context) (ledger.TransactionID, error) {
	if account.inFlight != nil {
		current := account.inFlight.Add(1)
		defer account.inFlight.Add(-1)
		for {
			observed := account.maxInFlight.Load()
			if current <= observed || account.maxInFlight.CompareAndSwap(observed, current) {
				break
			}
		}
	}
	if account.burnDelay > 0 {
		time.Sleep(account.burnDelay)
	}
	return account.transactionID, account.burnError
}

func (account *fakeLegacyAccount) Export(string) (string, error) {
	account.exportCount.Add(1)
	return exportedAccountPrefixConstant + account.publicAddress, nil
}

type fakeSuccessorAccount struct {
	publicAddress string
}

func (account fakeSuccessorAccount) PublicAddress() string {
	return account.publicAddress
}

type fakeSuccessorLedger struct {
	mutex       sync.Mutex
	accounts    []ledger.Account
	importCount int
	importError error
}

func (successorLedger *fakeSuccessorLedger) Accounts(context.Context) ([]ledger.Account, error) {
	successorLedger.mutex.Lock()
	defer successorLedger.mutex.Unlock()
	return append([]ledger.Account(nil), successorLedger.accounts...), nil
}

func (successorLedger *fakeSuccessorLedger) ImportAccount(_ context.Context, exportedAccount string, _ string) (ledger.Account, error) {
	successorLedger.mutex.Lock()
	defer successorLedger.mutex.Unlock()
	if successorLedger.importError != nil {
		return nil, successorLedger.importError
	}
	// Widen the race window for concurrent copies of the same address.
	time.Sleep(time.Millisecond)
	successorLedger.importCount++
	imported := fakeSuccessorAccount{publicAddress: strings.TrimPrefix(exportedAccount, exportedAccountPrefixConstant)}
	successorLedger.accounts = append(successorLedger.accounts, imported)
	return imported, nil
}

func (successorLedger *fakeSuccessorLedger) count(publicAddress string) int {
	successorLedger.mutex.Lock()
	defer successorLedger.mutex.Unlock()
	count := 0
	for _, account := range successorLedger.accounts {
		if account.PublicAddress() == publicAddress {
			count++
		}
	}
	return count
}

type migrationService struct {
	server   *httptest.Server
	codes    map[string]int
	requests sync.Map
	total    atomic.Int32
}

func newMigrationService(testInstance *testing.T, codes map[string]int) *migrationService {
	testInstance.Helper()
	service := &migrationService{codes: codes}
	service.server = httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, httpRequest *http.Request) {
		publicAddress := httpRequest.URL.Query().Get("public_address")
		service.total.Add(1)
		counter, _ := service.requests.LoadOrStore(publicAddress, &atomic.Int32{})
		counter.(*atomic.Int32).Add(1)
		code, known := service.codes[publicAddress]
		if !known {
			code = accounts.CodeSuccess
		}
		fmt.Fprintf(responseWriter, migrateResponseTemplate, code, http.StatusText(http.StatusOK))
	}))
	testInstance.Cleanup(service.server.Close)
	return service
}

func (service *migrationService) requestsFor(publicAddress string) int32 {
	counter, found := service.requests.Load(publicAddress)
	if !found {
		return 0
	}
	return counter.(*atomic.Int32).Load()
}

func newTestMigrator(testInstance *testing.T, service *migrationService, successorLedger ledger.SuccessorLedger, observer telemetry.Observer) *accounts.Migrator {
	testInstance.Helper()
	endpoint, endpointError := accounts.NewEndpoint(service.server.URL, map[string]string{"app_id": "test"})
	require.NoError(testInstance, endpointError)
	keyCopier, copierError := accounts.NewKeyCopier(successorLedger, "", nil)
	require.NoError(testInstance, copierError)
	migrator, migratorError := accounts.NewMigrator(accounts.MigratorDependencies{
		Executor:  request.NewExecutor(request.Options{RetryDelay: time.Millisecond, Doer: service.server.Client()}),
		Endpoint:  endpoint,
		KeyCopier: keyCopier,
		Observer:  observer,
	})
	require.NoError(testInstance, migratorError)
	return migrator
}

var errLedgerUnavailable = errors.New("ledger unavailable")
