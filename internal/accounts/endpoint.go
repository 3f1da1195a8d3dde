package accounts

import (
	"errors"
	"net/url"
	"strings"
)

const (
	invalidMigrationURLMessageConstant = "migration base url is missing or invalid"
	migratePathSegmentConstant         = "migrate"
	publicAddressQueryKeyConstant      = "public_address"
)

// ErrInvalidMigrationURL indicates the migration base URL is missing or cannot be used.
var ErrInvalidMigrationURL = errors.New(invalidMigrationURLMessageConstant)

// Endpoint builds migrate request URLs of the form {base}/migrate?public_address={address}.
type Endpoint struct {
	baseURL    *url.URL
	queryItems url.Values
}

// NewEndpoint validates baseURL and records additional query items appended to every request.
func NewEndpoint(baseURL string, queryItems map[string]string) (Endpoint, error) {
	trimmedURL := strings.TrimSpace(baseURL)
	if len(trimmedURL) == 0 {
		return Endpoint{}, ErrInvalidMigrationURL
	}
	parsedURL, parseError := url.Parse(trimmedURL)
	if parseError != nil || len(parsedURL.Scheme) == 0 || len(parsedURL.Host) == 0 {
		return Endpoint{}, ErrInvalidMigrationURL
	}

	values := url.Values{}
	for queryKey, queryValue := range parsedURL.Query() {
		values[queryKey] = append([]string(nil), queryValue...)
	}
	for queryKey, queryValue := range queryItems {
		if queryKey == publicAddressQueryKeyConstant {
			continue
		}
		values.Set(queryKey, queryValue)
	}

	normalizedURL := parsedURL.JoinPath(migratePathSegmentConstant)
	normalizedURL.RawQuery = ""
	normalizedURL.Fragment = ""
	return Endpoint{baseURL: normalizedURL, queryItems: values}, nil
}

// URL returns the migrate request URL for publicAddress.
func (endpoint Endpoint) URL(publicAddress string) string {
	requestURL := *endpoint.baseURL
	values := url.Values{}
	for queryKey, queryValue := range endpoint.queryItems {
		values[queryKey] = queryValue
	}
	values.Set(publicAddressQueryKeyConstant, publicAddress)
	requestURL.RawQuery = values.Encode()
	return requestURL.String()
}

// IsZero reports whether the endpoint was never constructed.
func (endpoint Endpoint) IsZero() bool {
	return endpoint.baseURL == nil
}
