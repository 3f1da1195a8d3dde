package clientfactory

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/temirov/ledgermigrate/internal/ledger"
)

const (
	missingCustomNodeURLMessageConstant = "custom network requires a node url"
	invalidAppIDTemplateConstant        = "app id %q must be exactly four letters or digits"
	invalidNodeURLTemplateConstant      = "node url %q must be an absolute http(s) url"
	appIDPatternConstant                = `^[a-zA-Z0-9]{4}$`
	httpSchemeConstant                  = "http"
	httpsSchemeConstant                 = "https"
)

// ErrMissingCustomNodeURL indicates a custom network without a node URL.
var ErrMissingCustomNodeURL = errors.New(missingCustomNodeURLMessageConstant)

var appIDPattern = regexp.MustCompile(appIDPatternConstant)

// InvalidAppIDError reports a malformed application identifier.
type InvalidAppIDError struct {
	AppID string
}

// Error describes the malformed identifier.
func (appIDError InvalidAppIDError) Error() string {
	return fmt.Sprintf(invalidAppIDTemplateConstant, appIDError.AppID)
}

// InvalidNodeURLError reports a node URL that cannot be dialed.
type InvalidNodeURLError struct {
	NodeURL string
}

// Error describes the unusable URL.
func (nodeURLError InvalidNodeURLError) Error() string {
	return fmt.Sprintf(invalidNodeURLTemplateConstant, nodeURLError.NodeURL)
}

// ConnectionParameters describe where and as whom a client connects.
// NodeURL is mandatory for custom networks and overrides the directory otherwise.
type ConnectionParameters struct {
	Network ledger.Network
	AppID   string
	NodeURL string
}

// Validate reports configuration errors before any client is built.
func (parameters ConnectionParameters) Validate() error {
	if networkError := parameters.Network.Validate(); networkError != nil {
		return networkError
	}

	nodeURL := strings.TrimSpace(parameters.NodeURL)
	if parameters.Network.IsCustom() && len(nodeURL) == 0 {
		return ErrMissingCustomNodeURL
	}
	if len(nodeURL) > 0 {
		if nodeURLError := validateNodeURL(nodeURL); nodeURLError != nil {
			return nodeURLError
		}
	}

	if len(parameters.AppID) > 0 && !appIDPattern.MatchString(parameters.AppID) {
		return InvalidAppIDError{AppID: parameters.AppID}
	}
	return nil
}

func validateNodeURL(nodeURL string) error {
	parsedURL, parseError := url.Parse(nodeURL)
	if parseError != nil || len(parsedURL.Host) == 0 {
		return InvalidNodeURLError{NodeURL: nodeURL}
	}
	switch strings.ToLower(parsedURL.Scheme) {
	case httpSchemeConstant, httpsSchemeConstant:
		return nil
	default:
		return InvalidNodeURLError{NodeURL: nodeURL}
	}
}
