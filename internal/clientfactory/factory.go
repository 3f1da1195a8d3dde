package clientfactory

import (
	"fmt"
	"strings"

	"github.com/temirov/ledgermigrate/internal/ledger"
)

const (
	missingNodeURLTemplateConstant = "no node url known for %s on %s"
	clientSummaryTemplateConstant  = "%s client on %s via %s"
)

// MissingNodeURLError reports a built-in network with no directory entry for the version.
type MissingNodeURLError struct {
	Version ledger.Version
	Network ledger.Network
}

// Error describes the missing entry.
func (nodeURLError MissingNodeURLError) Error() string {
	return fmt.Sprintf(missingNodeURLTemplateConstant, nodeURLError.Version, nodeURLError.Network)
}

// Settings are the resolved inputs handed to a Builder.
type Settings struct {
	Version ledger.Version
	Network ledger.Network
	NodeURL string
	AppID   string
}

// Builder constructs a client for one ledger version.
type Builder interface {
	Build(settings Settings) (ledger.Client, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(settings Settings) (ledger.Client, error)

// Build implements Builder.
func (builderFunc BuilderFunc) Build(settings Settings) (ledger.Client, error) {
	return builderFunc(settings)
}

// Descriptor is a ledger.Client that only carries its connection settings.
type Descriptor struct {
	settings Settings
}

// NewDescriptor wraps settings as a ledger.Client.
func NewDescriptor(settings Settings) *Descriptor {
	return &Descriptor{settings: settings}
}

// Version implements ledger.Client.
func (descriptor *Descriptor) Version() ledger.Version {
	return descriptor.settings.Version
}

// Network implements ledger.Client.
func (descriptor *Descriptor) Network() ledger.Network {
	return descriptor.settings.Network
}

// NodeURL implements ledger.Client.
func (descriptor *Descriptor) NodeURL() string {
	return descriptor.settings.NodeURL
}

// AppID implements ledger.Client.
func (descriptor *Descriptor) AppID() string {
	return descriptor.settings.AppID
}

// DescriptorBuilder builds Descriptor clients.
var DescriptorBuilder = BuilderFunc(func(settings Settings) (ledger.Client, error) {
	return NewDescriptor(settings), nil
})

// Factory resolves node URLs and dispatches to the Builder registered for a version.
// It performs no I/O.
type Factory struct {
	builders  map[ledger.Version]Builder
	directory NodeDirectory
}

// NewFactory constructs a Factory. Versions without a builder use DescriptorBuilder and a
// nil directory selects DefaultNodeDirectory.
func NewFactory(builders map[ledger.Version]Builder, directory NodeDirectory) *Factory {
	registeredBuilders := map[ledger.Version]Builder{}
	for version, builder := range builders {
		if builder != nil {
			registeredBuilders[version] = builder
		}
	}
	if directory == nil {
		directory = DefaultNodeDirectory()
	}
	return &Factory{builders: registeredBuilders, directory: directory}
}

// Build validates parameters and constructs the client for version.
func (factory *Factory) Build(version ledger.Version, parameters ConnectionParameters) (ledger.Client, error) {
	if versionError := version.Validate(); versionError != nil {
		return nil, versionError
	}
	if validationError := parameters.Validate(); validationError != nil {
		return nil, validationError
	}

	nodeURL := strings.TrimSpace(parameters.NodeURL)
	if len(nodeURL) == 0 {
		directoryURL, known := factory.directory.Lookup(version, parameters.Network.Kind)
		if !known {
			return nil, MissingNodeURLError{Version: version, Network: parameters.Network}
		}
		nodeURL = directoryURL
	}

	builder, registered := factory.builders[version]
	if !registered {
		builder = DescriptorBuilder
	}
	return builder.Build(Settings{
		Version: version,
		Network: parameters.Network,
		NodeURL: nodeURL,
		AppID:   parameters.AppID,
	})
}

// Describe renders a one-line summary of client.
func Describe(client ledger.Client) string {
	return fmt.Sprintf(clientSummaryTemplateConstant, client.Version(), client.Network(), client.NodeURL())
}
