// Package pathutils resolves user-supplied filesystem paths such as fixture,
// flag-store and metrics textfile locations.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tildeSymbolConstant = "~"

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander replaces a leading "~" with the user's home directory. The home
// directory is resolved once; a failed lookup leaves paths untouched.
type HomeExpander struct {
	provider      HomeDirectoryProvider
	homeDirectory string
	resolveOnce   sync.Once
}

// NewHomeExpander constructs a HomeExpander using the operating system lookup.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{provider: provider}
}

// Expand resolves "~" and "~/..." (or the OS separator) prefixes; "~user" forms are returned unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	remainder := strings.TrimPrefix(candidatePath, tildeSymbolConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidatePath
	}

	expander.resolveOnce.Do(func() {
		if homeDirectory, lookupError := expander.provider(); lookupError == nil {
			expander.homeDirectory = homeDirectory
		}
	})
	if len(expander.homeDirectory) == 0 {
		return candidatePath
	}

	return filepath.Join(expander.homeDirectory, remainder)
}
