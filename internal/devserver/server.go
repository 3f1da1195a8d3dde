package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/accounts"
	"github.com/temirov/ledgermigrate/internal/ledger/simulated"
)

const (
	versionRoutePathConstant           = "/version"
	migrateRoutePathConstant           = "/migrate"
	metricsRoutePathConstant           = "/metrics"
	publicAddressQueryKeyConstant      = "public_address"
	publicAddressPrefixConstant        = "G"
	contentTypeHeaderConstant          = "Content-Type"
	jsonContentTypeConstant            = "application/json"
	listenTemplateConstant             = "listen on %s: %w"
	missingLegacyLedgerMessageConstant = "legacy ledger is required"
	readHeaderTimeoutConstant          = 5 * time.Second
	shutdownTimeoutConstant            = 5 * time.Second
	urlTemplateConstant                = "http://%s"
	migrateAnsweredLogMessageConstant  = "Migrate request answered"
	serverListeningLogMessageConstant  = "Development server listening"
	serverStoppedLogMessageConstant    = "Development server stopped"
	logFieldPublicAddressConstant      = "public_address"
	logFieldCodeConstant               = "code"
	logFieldAddressConstant            = "address"
	metricsNamespaceConstant           = "ledgermigrate_devserver"
	labelCodeConstant                  = "code"
)

var messagesByCode = map[int]string{
	accounts.CodeSuccess:                "account migrated",
	accounts.CodeAccountNotBurned:       "account not burned",
	accounts.CodeAccountAlreadyMigrated: "account already migrated",
	accounts.CodeInvalidPublicAddress:   "invalid public address",
	accounts.CodeAccountNotFound:        "account not found",
}

// ErrMissingLegacyLedger indicates a Server was constructed without its ledger.
var ErrMissingLegacyLedger = errors.New(missingLegacyLedgerMessageConstant)

// Response is the envelope written by every endpoint.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Options configures a Server.
type Options struct {
	LegacyLedger *simulated.LegacyLedger
	VersionToken string
	Registry     *prometheus.Registry
	Logger       *zap.Logger
}

// Server answers version and migration requests from simulated ledger state.
type Server struct {
	router          *mux.Router
	legacyLedger    *simulated.LegacyLedger
	versionToken    string
	logger          *zap.Logger
	migrateRequests *prometheus.CounterVec

	mutex    sync.Mutex
	migrated map[string]struct{}
}

// NewServer constructs a Server. A nil registry creates a private one.
func NewServer(options Options) (*Server, error) {
	if options.LegacyLedger == nil {
		return nil, ErrMissingLegacyLedger
	}
	registry := options.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &Server{
		router:       mux.NewRouter(),
		legacyLedger: options.LegacyLedger,
		versionToken: strings.TrimSpace(options.VersionToken),
		logger:       logger,
		migrated:     map[string]struct{}{},
		migrateRequests: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Name:      "migrate_requests_total",
			Help:      "Migrate requests answered by code.",
		}, []string{labelCodeConstant}),
	}

	server.router.HandleFunc(versionRoutePathConstant, server.handleVersion).Methods(http.MethodGet)
	server.router.HandleFunc(migrateRoutePathConstant, server.handleMigrate).Methods(http.MethodPost)
	server.router.Handle(metricsRoutePathConstant, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return server, nil
}

// ServeHTTP implements http.Handler.
func (server *Server) ServeHTTP(responseWriter http.ResponseWriter, httpRequest *http.Request) {
	server.router.ServeHTTP(responseWriter, httpRequest)
}

func (server *Server) handleVersion(responseWriter http.ResponseWriter, _ *http.Request) {
	writeResponse(responseWriter, Response{Code: accounts.CodeSuccess, Message: server.versionToken})
}

func (server *Server) handleMigrate(responseWriter http.ResponseWriter, httpRequest *http.Request) {
	publicAddress := strings.TrimSpace(httpRequest.URL.Query().Get(publicAddressQueryKeyConstant))
	code := server.classify(publicAddress)
	server.migrateRequests.WithLabelValues(strconv.Itoa(code)).Inc()
	server.logger.Debug(
		migrateAnsweredLogMessageConstant,
		zap.String(logFieldPublicAddressConstant, publicAddress),
		zap.Int(logFieldCodeConstant, code),
	)
	writeResponse(responseWriter, Response{Code: code, Message: messagesByCode[code]})
}

func (server *Server) classify(publicAddress string) int {
	if len(publicAddress) == 0 || !strings.HasPrefix(publicAddress, publicAddressPrefixConstant) {
		return accounts.CodeInvalidPublicAddress
	}

	account, found := server.legacyLedger.Account(publicAddress)
	if !found {
		return accounts.CodeAccountNotFound
	}
	if overrideCode := account.MigrateCode(); overrideCode != 0 {
		return overrideCode
	}

	switch account.State() {
	case simulated.AccountStateMissing, simulated.AccountStateNoTrustline:
		return accounts.CodeAccountNotFound
	case simulated.AccountStateFunded:
		return accounts.CodeAccountNotBurned
	}

	server.mutex.Lock()
	defer server.mutex.Unlock()
	if _, already := server.migrated[publicAddress]; already {
		return accounts.CodeAccountAlreadyMigrated
	}
	server.migrated[publicAddress] = struct{}{}
	return accounts.CodeSuccess
}

func writeResponse(responseWriter http.ResponseWriter, response Response) {
	responseWriter.Header().Set(contentTypeHeaderConstant, jsonContentTypeConstant)
	_ = json.NewEncoder(responseWriter).Encode(response)
}

// Listener is a Server bound to a network address.
type Listener struct {
	httpServer *http.Server
	listener   net.Listener
	done       chan error
	logger     *zap.Logger
}

// Listen binds server to address and serves in the background until Close.
func Listen(server *Server, address string) (*Listener, error) {
	networkListener, listenError := net.Listen("tcp", address)
	if listenError != nil {
		return nil, fmt.Errorf(listenTemplateConstant, address, listenError)
	}
	listener := &Listener{
		httpServer: &http.Server{Handler: server, ReadHeaderTimeout: readHeaderTimeoutConstant},
		listener:   networkListener,
		done:       make(chan error, 1),
		logger:     server.logger,
	}
	listener.logger.Info(serverListeningLogMessageConstant, zap.String(logFieldAddressConstant, networkListener.Addr().String()))
	go func() {
		serveError := listener.httpServer.Serve(networkListener)
		if errors.Is(serveError, http.ErrServerClosed) {
			serveError = nil
		}
		listener.done <- serveError
	}()
	return listener, nil
}

// URL returns the base URL clients should use.
func (listener *Listener) URL() string {
	return fmt.Sprintf(urlTemplateConstant, listener.listener.Addr().String())
}

// Close shuts the server down and waits for it to stop.
func (listener *Listener) Close() error {
	shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeoutConstant)
	defer cancel()
	shutdownError := listener.httpServer.Shutdown(shutdownContext)
	serveError := <-listener.done
	listener.logger.Info(serverStoppedLogMessageConstant)
	return errors.Join(shutdownError, serveError)
}

// Serve runs server on address until executionContext is cancelled.
func Serve(executionContext context.Context, server *Server, address string) error {
	listener, listenError := Listen(server, address)
	if listenError != nil {
		return listenError
	}
	select {
	case <-executionContext.Done():
		return listener.Close()
	case serveError := <-listener.done:
		return serveError
	}
}
