package flags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleImplicitValue            = "true"
	toggleValueTypeName            = "bool"
	toggleParseErrorTemplate       = "invalid toggle value %q"
	toggleTruePlaceholderConstant  = "<YES|no>"
	toggleFalsePlaceholderConstant = "<yes|NO>"
	toggleUsageTemplate            = "`%s` %s"
)

var toggleLiterals = map[string]bool{
	"yes": true,
	"y":   true,
	"on":  true,
	"no":  false,
	"n":   false,
	"off": false,
}

// AddToggleFlag registers a boolean flag that also accepts yes/no and on/off spellings.
// A bare --name sets the flag to true.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, description string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	*target = defaultValue
	placeholder := toggleFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleTruePlaceholderConstant
	}
	usage := strings.TrimSpace(fmt.Sprintf(toggleUsageTemplate, placeholder, strings.TrimSpace(description)))

	flagSet.VarP(&toggleValue{target: target}, name, shorthand, usage)
	flagSet.Lookup(name).NoOptDefVal = toggleImplicitValue
}

type toggleValue struct {
	target *bool
}

func (value *toggleValue) Set(rawValue string) error {
	parsed, parseError := parseToggle(rawValue)
	if parseError != nil {
		return parseError
	}
	*value.target = parsed
	return nil
}

func (value *toggleValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *toggleValue) Type() string {
	return toggleValueTypeName
}

func parseToggle(rawValue string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(rawValue))
	if literal, known := toggleLiterals[normalized]; known {
		return literal, nil
	}
	parsed, parseError := strconv.ParseBool(normalized)
	if parseError != nil {
		return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}
	return parsed, nil
}
