package ledger

import (
	"fmt"
	"strings"
)

const (
	versionLegacyStringConstant          = "legacy"
	versionSuccessorStringConstant       = "successor"
	invalidVersionErrorTemplateConstant  = "invalid ledger version token %q"
	emptyVersionTokenDescriptionConstant = "empty"
)

// Version identifies which ledger is active for a migration run.
type Version string

// Supported ledger versions.
const (
	VersionLegacy    Version = Version(versionLegacyStringConstant)
	VersionSuccessor Version = Version(versionSuccessorStringConstant)
)

var versionTokenMapping = map[string]Version{
	"2":                            VersionLegacy,
	"kin2":                         VersionLegacy,
	"core":                         VersionLegacy,
	versionLegacyStringConstant:    VersionLegacy,
	"3":                            VersionSuccessor,
	"kin3":                         VersionSuccessor,
	"sdk":                          VersionSuccessor,
	versionSuccessorStringConstant: VersionSuccessor,
}

// InvalidVersionError reports a version token that does not map to a known ledger.
type InvalidVersionError struct {
	Token string
}

// Error describes the invalid token.
func (versionError InvalidVersionError) Error() string {
	token := versionError.Token
	if len(token) == 0 {
		token = emptyVersionTokenDescriptionConstant
	}
	return fmt.Sprintf(invalidVersionErrorTemplateConstant, token)
}

// ParseVersionToken maps a wire token ("2", "3", or a version name) to a Version.
func ParseVersionToken(token string) (Version, error) {
	normalizedToken := strings.ToLower(strings.TrimSpace(token))
	version, known := versionTokenMapping[normalizedToken]
	if !known {
		return "", InvalidVersionError{Token: token}
	}
	return version, nil
}

// Validate reports whether the version is one of the supported values.
func (version Version) Validate() error {
	switch version {
	case VersionLegacy, VersionSuccessor:
		return nil
	default:
		return InvalidVersionError{Token: string(version)}
	}
}

// RequiresBurn reports whether accounts must be burned on the legacy ledger before the version can be used.
func (version Version) RequiresBurn() bool {
	return version == VersionSuccessor
}

// String returns the version name.
func (version Version) String() string {
	return string(version)
}
