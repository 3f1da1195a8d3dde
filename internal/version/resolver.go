package version

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/request"
)

const (
	missingVersionURLMessageConstant     = "version url is required"
	missingExecutorMessageConstant       = "request executor is required"
	missingResolverFunctionMessage       = "resolver function is required"
	unexpectedResponseCodeTemplate       = "version service answered with code %d: %s"
	resolveVersionFailedTemplateConstant = "resolve version: %w"
	versionResolvedLogMessageConstant    = "Version resolved"
	logFieldVersionURLConstant           = "version_url"
	logFieldResolvedVersionConstant      = "version"
	successResponseCodeConstant          = 200
)

var (
	// ErrMissingVersionURL indicates the HTTP resolver was constructed without an endpoint.
	ErrMissingVersionURL = errors.New(missingVersionURLMessageConstant)
	// ErrMissingExecutor indicates the HTTP resolver was constructed without a request executor.
	ErrMissingExecutor = errors.New(missingExecutorMessageConstant)
	// ErrMissingResolverFunction indicates a nil ResolverFunc was invoked.
	ErrMissingResolverFunction = errors.New(missingResolverFunctionMessage)
)

// Resolver reports the active ledger version.
type Resolver interface {
	ResolveVersion(executionContext context.Context) (ledger.Version, error)
}

// ResolverFunc adapts a caller-supplied callback to Resolver. The returned version is validated.
type ResolverFunc func(executionContext context.Context) (ledger.Version, error)

// ResolveVersion implements Resolver.
func (resolverFunc ResolverFunc) ResolveVersion(executionContext context.Context) (ledger.Version, error) {
	if resolverFunc == nil {
		return "", ErrMissingResolverFunction
	}
	resolvedVersion, resolveError := resolverFunc(executionContext)
	if resolveError != nil {
		return "", resolveError
	}
	if validationError := resolvedVersion.Validate(); validationError != nil {
		return "", validationError
	}
	return resolvedVersion, nil
}

// StaticResolver always reports the same version.
type StaticResolver struct {
	Version ledger.Version
}

// ResolveVersion implements Resolver.
func (resolver StaticResolver) ResolveVersion(context.Context) (ledger.Version, error) {
	if validationError := resolver.Version.Validate(); validationError != nil {
		return "", validationError
	}
	return resolver.Version, nil
}

// UnexpectedResponseError reports a version service answer whose code is not a success.
type UnexpectedResponseError struct {
	Code    int
	Message string
}

// Error describes the unexpected answer.
func (responseError UnexpectedResponseError) Error() string {
	return fmt.Sprintf(unexpectedResponseCodeTemplate, responseError.Code, responseError.Message)
}

// Response is the version service envelope; Message carries the version token.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HTTPResolver queries a remote version service.
type HTTPResolver struct {
	versionURL string
	executor   *request.Executor
	logger     *zap.Logger
}

// NewHTTPResolver validates its inputs and constructs an HTTPResolver.
func NewHTTPResolver(versionURL string, executor *request.Executor, logger *zap.Logger) (*HTTPResolver, error) {
	trimmedURL := strings.TrimSpace(versionURL)
	if len(trimmedURL) == 0 {
		return nil, ErrMissingVersionURL
	}
	if executor == nil {
		return nil, ErrMissingExecutor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPResolver{versionURL: trimmedURL, executor: executor, logger: logger}, nil
}

// ResolveVersion implements Resolver.
func (resolver *HTTPResolver) ResolveVersion(executionContext context.Context) (ledger.Version, error) {
	var response Response
	performError := resolver.executor.Perform(
		executionContext,
		request.Request{Method: http.MethodGet, URL: resolver.versionURL},
		&response,
	)
	if performError != nil {
		return "", fmt.Errorf(resolveVersionFailedTemplateConstant, performError)
	}

	if response.Code != 0 && response.Code != successResponseCodeConstant {
		return "", UnexpectedResponseError{Code: response.Code, Message: response.Message}
	}

	resolvedVersion, parseError := ledger.ParseVersionToken(response.Message)
	if parseError != nil {
		return "", parseError
	}

	resolver.logger.Debug(
		versionResolvedLogMessageConstant,
		zap.String(logFieldVersionURLConstant, resolver.versionURL),
		zap.String(logFieldResolvedVersionConstant, string(resolvedVersion)),
	)
	return resolvedVersion, nil
}
