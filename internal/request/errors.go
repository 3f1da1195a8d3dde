package request

import (
	"errors"
	"fmt"
)

const (
	responseEmptyMessageConstant            = "response was empty"
	responseFailedMessageConstant           = "response failed"
	responseFailedWithCauseTemplateConstant = "response failed: %s"
	decodingFailedTemplateConstant          = "decoding response failed: %s"
	invalidRequestTemplateConstant          = "invalid request: %s"
)

// ErrResponseEmpty indicates the server answered without a body.
var ErrResponseEmpty = errors.New(responseEmptyMessageConstant)

// ResponseFailedError reports that no response was obtained after exhausting retries.
type ResponseFailedError struct {
	Attempts int
	Cause    error
}

// Error describes the transport failure.
func (failedError ResponseFailedError) Error() string {
	if failedError.Cause == nil {
		return responseFailedMessageConstant
	}
	return fmt.Sprintf(responseFailedWithCauseTemplateConstant, failedError.Cause)
}

// Unwrap exposes the last transport error.
func (failedError ResponseFailedError) Unwrap() error {
	return failedError.Cause
}

// DecodingFailedError reports a body that could not be decoded into the target type.
type DecodingFailedError struct {
	Cause error
}

// Error describes the decoding failure.
func (decodingError DecodingFailedError) Error() string {
	return fmt.Sprintf(decodingFailedTemplateConstant, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError DecodingFailedError) Unwrap() error {
	return decodingError.Cause
}

// InvalidRequestError reports a request that could not be constructed.
type InvalidRequestError struct {
	Cause error
}

// Error describes the construction failure.
func (requestError InvalidRequestError) Error() string {
	return fmt.Sprintf(invalidRequestTemplateConstant, requestError.Cause)
}

// Unwrap exposes the underlying error.
func (requestError InvalidRequestError) Unwrap() error {
	return requestError.Cause
}

// transportError marks failures that happened before a complete response was received.
type transportError struct {
	cause error
}

func (failure transportError) Error() string {
	return failure.cause.Error()
}

func (failure transportError) Unwrap() error {
	return failure.cause
}
