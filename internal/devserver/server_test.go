package devserver_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ledgermigrate/internal/accounts"
	"github.com/temirov/ledgermigrate/internal/devserver"
	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/ledger/simulated"
	"github.com/temirov/ledgermigrate/internal/request"
	"github.com/temirov/ledgermigrate/internal/version"
)

const testFixtureConstant = `
legacy_accounts:
  - public_address: GFUNDED
  - public_address: GBURNED
    state: burned
  - public_address: GMISSING
    state: missing
  - public_address: GOVERRIDE
    state: burned
    migrate_code: 4001
`

func newTestServer(testInstance *testing.T) *httptest.Server {
	testInstance.Helper()
	fixture, parseError := simulated.ParseFixture([]byte(testFixtureConstant))
	require.NoError(testInstance, parseError)
	server, serverError := devserver.NewServer(devserver.Options{
		LegacyLedger: simulated.NewLegacyLedger(fixture),
		VersionToken: "3",
	})
	require.NoError(testInstance, serverError)
	httpServer := httptest.NewServer(server)
	testInstance.Cleanup(httpServer.Close)
	return httpServer
}

func postMigrate(testInstance *testing.T, baseURL string, publicAddress string) devserver.Response {
	testInstance.Helper()
	httpResponse, postError := http.Post(baseURL+"/migrate?public_address="+publicAddress, "application/json", nil)
	require.NoError(testInstance, postError)
	defer httpResponse.Body.Close()
	var response devserver.Response
	require.NoError(testInstance, json.NewDecoder(httpResponse.Body).Decode(&response))
	return response
}

func TestMigrateEndpointAnswersCodes(testInstance *testing.T) {
	httpServer := newTestServer(testInstance)

	testCases := []struct {
		name          string
		publicAddress string
		expectedCode  int
	}{
		{name: "burned account", publicAddress: "GBURNED", expectedCode: accounts.CodeSuccess},
		{name: "repeat request", publicAddress: "GBURNED", expectedCode: accounts.CodeAccountAlreadyMigrated},
		{name: "not burned", publicAddress: "GFUNDED", expectedCode: accounts.CodeAccountNotBurned},
		{name: "missing account", publicAddress: "GMISSING", expectedCode: accounts.CodeAccountNotFound},
		{name: "unknown account", publicAddress: "GUNKNOWN", expectedCode: accounts.CodeAccountNotFound},
		{name: "invalid address", publicAddress: "XBAD", expectedCode: accounts.CodeInvalidPublicAddress},
		{name: "fixture override", publicAddress: "GOVERRIDE", expectedCode: accounts.CodeAccountNotBurned},
	}

	for _, testCase := range testCases {
		response := postMigrate(testInstance, httpServer.URL, testCase.publicAddress)
		require.Equal(testInstance, testCase.expectedCode, response.Code, testCase.name)
		require.NotEmpty(testInstance, response.Message, testCase.name)
	}
}

func TestMigrateEndpointRejectsGet(testInstance *testing.T) {
	httpServer := newTestServer(testInstance)

	httpResponse, getError := http.Get(httpServer.URL + "/migrate?public_address=GBURNED")
	require.NoError(testInstance, getError)
	defer httpResponse.Body.Close()
	require.Equal(testInstance, http.StatusMethodNotAllowed, httpResponse.StatusCode)
}

func TestVersionEndpointResolvesThroughHTTPResolver(testInstance *testing.T) {
	httpServer := newTestServer(testInstance)
	executor := request.NewExecutor(request.Options{RetryDelay: time.Millisecond, Doer: httpServer.Client()})
	resolver, resolverError := version.NewHTTPResolver(httpServer.URL+"/version", executor, nil)
	require.NoError(testInstance, resolverError)

	resolvedVersion, resolveError := resolver.ResolveVersion(context.Background())
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, ledger.VersionSuccessor, resolvedVersion)
}

func TestMetricsEndpointCountsMigrateRequests(testInstance *testing.T) {
	httpServer := newTestServer(testInstance)
	postMigrate(testInstance, httpServer.URL, "GBURNED")
	postMigrate(testInstance, httpServer.URL, "GBURNED")

	httpResponse, getError := http.Get(httpServer.URL + "/metrics")
	require.NoError(testInstance, getError)
	defer httpResponse.Body.Close()
	body, readError := io.ReadAll(httpResponse.Body)
	require.NoError(testInstance, readError)

	require.True(testInstance, strings.Contains(string(body), `ledgermigrate_devserver_migrate_requests_total{code="200"} 1`))
	require.True(testInstance, strings.Contains(string(body), `ledgermigrate_devserver_migrate_requests_total{code="4002"} 1`))
}

func TestListenServesUntilClosed(testInstance *testing.T) {
	fixture, parseError := simulated.ParseFixture([]byte(testFixtureConstant))
	require.NoError(testInstance, parseError)
	server, serverError := devserver.NewServer(devserver.Options{LegacyLedger: simulated.NewLegacyLedger(fixture), VersionToken: "2"})
	require.NoError(testInstance, serverError)

	listener, listenError := devserver.Listen(server, "127.0.0.1:0")
	require.NoError(testInstance, listenError)

	httpResponse, getError := http.Get(listener.URL() + "/version")
	require.NoError(testInstance, getError)
	var response devserver.Response
	require.NoError(testInstance, json.NewDecoder(httpResponse.Body).Decode(&response))
	httpResponse.Body.Close()
	require.Equal(testInstance, "2", response.Message)

	require.NoError(testInstance, listener.Close())
}

func TestServeStopsOnContextCancellation(testInstance *testing.T) {
	fixture, parseError := simulated.ParseFixture([]byte(testFixtureConstant))
	require.NoError(testInstance, parseError)
	server, serverError := devserver.NewServer(devserver.Options{LegacyLedger: simulated.NewLegacyLedger(fixture)})
	require.NoError(testInstance, serverError)

	executionContext, cancel := context.WithCancel(context.Background())
	serveResult := make(chan error, 1)
	go func() {
		serveResult <- devserver.Serve(executionContext, server, "127.0.0.1:0")
	}()
	cancel()

	select {
	case serveError := <-serveResult:
		require.NoError(testInstance, serveError)
	case <-time.After(5 * time.Second):
		testInstance.Fatal("server did not stop")
	}
}

func TestNewServerRequiresLedger(testInstance *testing.T) {
	_, serverError := devserver.NewServer(devserver.Options{})
	require.ErrorIs(testInstance, serverError, devserver.ErrMissingLegacyLedger)
}
