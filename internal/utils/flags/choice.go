package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefix    = "<"
	choicePlaceholderSuffix    = ">"
	choiceSeparatorLiteral     = "|"
	choiceUsageTemplate        = "`%s` %s"
	choiceValueTypeName        = "choice"
	choiceRejectedTemplate     = "%q is not one of %s"
	choiceListSeparatorLiteral = ", "
)

// ChoiceValue is a pflag.Value accepting one of a fixed set of case-insensitive strings.
type ChoiceValue struct {
	target  *string
	choices []string
}

// NewChoiceValue stores defaultChoice into target and restricts later values to choices.
func NewChoiceValue(target *string, defaultChoice string, choices []string) *ChoiceValue {
	*target = defaultChoice
	return &ChoiceValue{target: target, choices: normalizeChoices(choices)}
}

// String implements pflag.Value.
func (value *ChoiceValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return *value.target
}

// Set implements pflag.Value.
func (value *ChoiceValue) Set(candidate string) error {
	normalized := strings.ToLower(strings.TrimSpace(candidate))
	for _, choice := range value.choices {
		if choice == normalized {
			*value.target = choice
			return nil
		}
	}
	return fmt.Errorf(choiceRejectedTemplate, candidate, strings.Join(value.choices, choiceListSeparatorLiteral))
}

// Type implements pflag.Value.
func (value *ChoiceValue) Type() string {
	return choiceValueTypeName
}

// AddChoiceFlag registers a ChoiceValue flag whose usage highlights the default.
func AddChoiceFlag(flagSet *pflag.FlagSet, target *string, name string, defaultChoice string, choices []string, description string) {
	if flagSet == nil || len(name) == 0 {
		return
	}
	flagSet.Var(NewChoiceValue(target, defaultChoice, choices), name, FormatChoiceUsage(defaultChoice, choices, description))
}

// FormatChoiceUsage renders choices as a placeholder with the default in upper case.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := normalizeChoices(choices)
	for choiceIndex, choice := range highlighted {
		if choice == normalizedDefault {
			highlighted[choiceIndex] = strings.ToUpper(choice)
		}
	}
	placeholder := choicePlaceholderPrefix + strings.Join(highlighted, choiceSeparatorLiteral) + choicePlaceholderSuffix
	return strings.TrimSpace(fmt.Sprintf(choiceUsageTemplate, placeholder, strings.TrimSpace(description)))
}

func normalizeChoices(choices []string) []string {
	normalized := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		trimmed := strings.ToLower(strings.TrimSpace(choice))
		if len(trimmed) == 0 {
			continue
		}
		if _, duplicate := seen[trimmed]; duplicate {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
