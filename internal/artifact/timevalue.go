package artifact

import (
	"regexp"
	"strings"
)

const defaultTimeRequired = "15-minutes"

// Malformed time estimates are common in generator output, so unlike the
// other enums this field is silently coerced to a supported value. Aliases
// are matched in order; longer patterns come first so "15 minutes" is never
// shadowed by "5 minutes".
var timeAliases = []struct {
	alias      string
	normalized string
}{
	{"45 minutes", "30-minutes"},
	{"15 minutes", "15-minutes"},
	{"30 minutes", "30-minutes"},
	{"10 minutes", "10-minutes"},
	{"5 minutes", "5-minutes"},
	{"45 mins", "30-minutes"},
	{"15 mins", "15-minutes"},
	{"30 mins", "30-minutes"},
	{"10 mins", "10-minutes"},
	{"5 mins", "5-minutes"},
	{"45min", "30-minutes"},
	{"15min", "15-minutes"},
	{"30min", "30-minutes"},
	{"10min", "10-minutes"},
	{"5min", "5-minutes"},
	{"2 hours", "2-hours"},
	{"1 hour", "1-hour"},
	{"2hr", "2-hours"},
	{"1hr", "1-hour"},
	{"quick", "quick-read"},
	{"fast", "5-minutes"},
	{"short", "10-minutes"},
	{"medium", "30-minutes"},
	{"extended", "2-hours"},
	{"long", "1-hour"},
	{"continuous", "ongoing"},
	{"depends", "varies"},
}

var (
	minutePattern = regexp.MustCompile(`(\d+)\s*min(?:ute)?s?`)
	hourPattern   = regexp.MustCompile(`(\d+)\s*h(?:ou)?rs?`)
)

// NormalizeTimeRequired coerces a free-form time estimate to a member of
// TimeRequiredValues. Empty or unrecognizable input yields the default.
func NormalizeTimeRequired(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return defaultTimeRequired
	}

	for _, supported := range TimeRequiredValues {
		if lower == supported {
			return supported
		}
	}
	for _, entry := range timeAliases {
		if strings.Contains(lower, entry.alias) {
			return entry.normalized
		}
	}

	if match := minutePattern.FindStringSubmatch(lower); match != nil {
		if candidate := match[1] + "-minutes"; isMember(candidate, TimeRequiredValues) {
			return candidate
		}
	}
	if match := hourPattern.FindStringSubmatch(lower); match != nil {
		candidate := match[1] + "-hours"
		if match[1] == "1" {
			candidate = "1-hour"
		}
		if isMember(candidate, TimeRequiredValues) {
			return candidate
		}
	}

	return defaultTimeRequired
}
