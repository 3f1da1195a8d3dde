package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"go.uber.org/zap"
)

const (
	// DefaultRetryChances is the number of re-issues allowed after the first transport failure.
	DefaultRetryChances = 3
	// DefaultRetryDelay separates consecutive attempts.
	DefaultRetryDelay = 250 * time.Millisecond
	// DefaultTimeout bounds a single HTTP call.
	DefaultTimeout = 15 * time.Second

	contentTypeHeaderConstant          = "Content-Type"
	acceptHeaderConstant               = "Accept"
	jsonContentTypeConstant            = "application/json"
	transportRetryLogMessageConstant   = "Transport failure, retrying request"
	transportFailedLogMessageConstant  = "Transport failure, retries exhausted"
	requestCompletedLogMessageConstant = "Request completed"
	logFieldMethodConstant             = "method"
	logFieldURLConstant                = "url"
	logFieldAttemptConstant            = "attempt"
	logFieldStatusCodeConstant         = "status_code"
)

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(request *http.Request) (*http.Response, error)
}

// Request describes a replayable HTTP call.
type Request struct {
	Method string
	URL    string
	Body   []byte
}

// Options configures an Executor.
type Options struct {
	RetryChances int
	RetryDelay   time.Duration
	Timeout      time.Duration
	Doer         Doer
	Clock        clock.Clock
	Logger       *zap.Logger
}

// Executor performs Requests and decodes their JSON bodies.
type Executor struct {
	doer         Doer
	retryChances int
	retryDelay   time.Duration
	clock        clock.Clock
	logger       *zap.Logger
}

// NewExecutor builds an Executor. Unset delays, timeouts, clocks and loggers fall back to
// defaults; RetryChances is used as given and negative values count as zero.
func NewExecutor(options Options) *Executor {
	retryChances := options.RetryChances
	if retryChances < 0 {
		retryChances = 0
	}

	retryDelay := options.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	doer := options.Doer
	if doer == nil {
		timeout := options.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		doer = &http.Client{Timeout: timeout}
	}

	executionClock := options.Clock
	if executionClock == nil {
		executionClock = clock.WallClock
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Executor{
		doer:         doer,
		retryChances: retryChances,
		retryDelay:   retryDelay,
		clock:        executionClock,
		logger:       logger,
	}
}

// RetryChances reports how many re-issues follow a transport failure.
func (executor *Executor) RetryChances() int {
	return executor.retryChances
}

// Perform issues request, retrying on transport failure, and decodes the body into target.
func (executor *Executor) Perform(executionContext context.Context, request Request, target any) error {
	var (
		terminalError      error
		lastTransportError error
		responseBody       []byte
		attemptCount       int
	)

	callError := retry.Call(retry.CallArgs{
		Func: func() error {
			attemptCount++
			body, attemptError := executor.attempt(executionContext, request)
			if attemptError == nil {
				responseBody = body
				return nil
			}
			var failure transportError
			if errors.As(attemptError, &failure) {
				lastTransportError = failure.cause
				return attemptError
			}
			terminalError = attemptError
			return attemptError
		},
		IsFatalError: func(attemptError error) bool {
			var failure transportError
			if !errors.As(attemptError, &failure) {
				return true
			}
			return executionContext.Err() != nil
		},
		NotifyFunc: func(attemptError error, attempt int) {
			executor.logger.Debug(
				transportRetryLogMessageConstant,
				zap.String(logFieldMethodConstant, request.Method),
				zap.String(logFieldURLConstant, request.URL),
				zap.Int(logFieldAttemptConstant, attempt),
				zap.Error(attemptError),
			)
		},
		Attempts: executor.retryChances + 1,
		Delay:    executor.retryDelay,
		Clock:    executor.clock,
		Stop:     executionContext.Done(),
	})

	if callError != nil {
		if terminalError != nil {
			return terminalError
		}
		cause := lastTransportError
		if contextError := executionContext.Err(); contextError != nil {
			cause = contextError
		}
		executor.logger.Warn(
			transportFailedLogMessageConstant,
			zap.String(logFieldMethodConstant, request.Method),
			zap.String(logFieldURLConstant, request.URL),
			zap.Int(logFieldAttemptConstant, attemptCount),
			zap.Error(cause),
		)
		return ResponseFailedError{Attempts: attemptCount, Cause: cause}
	}

	if len(bytes.TrimSpace(responseBody)) == 0 {
		return ErrResponseEmpty
	}

	if target == nil {
		return nil
	}

	if decodeError := json.Unmarshal(responseBody, target); decodeError != nil {
		return DecodingFailedError{Cause: decodeError}
	}

	return nil
}

func (executor *Executor) attempt(executionContext context.Context, request Request) ([]byte, error) {
	var bodyReader io.Reader
	if len(request.Body) > 0 {
		bodyReader = bytes.NewReader(request.Body)
	}

	httpRequest, buildError := http.NewRequestWithContext(executionContext, request.Method, request.URL, bodyReader)
	if buildError != nil {
		return nil, InvalidRequestError{Cause: buildError}
	}
	httpRequest.Header.Set(acceptHeaderConstant, jsonContentTypeConstant)
	if bodyReader != nil {
		httpRequest.Header.Set(contentTypeHeaderConstant, jsonContentTypeConstant)
	}

	httpResponse, doError := executor.doer.Do(httpRequest)
	if doError != nil {
		return nil, transportError{cause: doError}
	}
	defer httpResponse.Body.Close()

	body, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return nil, transportError{cause: readError}
	}

	executor.logger.Debug(
		requestCompletedLogMessageConstant,
		zap.String(logFieldMethodConstant, request.Method),
		zap.String(logFieldURLConstant, request.URL),
		zap.Int(logFieldStatusCodeConstant, httpResponse.StatusCode),
	)

	return body, nil
}
