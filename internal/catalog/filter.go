package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bgricker/adoreport/internal/ado"
	"k8s.io/apimachinery/pkg/util/sets"
)

// matchAll holds environment names that select every pipeline; the environment
// filter step is skipped for them rather than applied as a literal substring.
var matchAll = sets.New("any", "sf_all")

// IsMatchAll reports whether envt is a match-all sentinel.
func IsMatchAll(envt string) bool {
	return matchAll.Has(strings.ToLower(strings.TrimSpace(envt)))
}

// Pattern represents a compiled name filter supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values. A pattern wrapped
// in slashes is a regular expression; anything else is a case-insensitive substring.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Substring(raw))
	}
	return result, nil
}

// Substring returns a case-insensitive containment pattern.
func Substring(s string) Pattern {
	return Pattern{raw: s, lower: strings.ToLower(s)}
}

// String returns the pattern as written.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// FilterByPattern keeps the definitions whose name matches p, preserving order.
func FilterByPattern(defs []ado.DefinitionRef, p Pattern) []ado.DefinitionRef {
	result := make([]ado.DefinitionRef, 0, len(defs))
	for _, d := range defs {
		if p.Match(d.Name) {
			result = append(result, d)
		}
	}
	return result
}

// FilterBySubstring keeps the definitions whose name contains sub, ignoring case.
func FilterBySubstring(defs []ado.DefinitionRef, sub string) []ado.DefinitionRef {
	return FilterByPattern(defs, Substring(sub))
}

// FilterByEnvironment narrows defs to names carrying "_<envt>_". Match-all
// environments return defs unchanged.
func FilterByEnvironment(defs []ado.DefinitionRef, envt string) []ado.DefinitionRef {
	if IsMatchAll(envt) {
		return defs
	}
	return FilterBySubstring(defs, EnvironmentTag(envt))
}

// EnvironmentTag is the name fragment that marks a pipeline as targeting envt.
func EnvironmentTag(envt string) string {
	return "_" + envt + "_"
}
