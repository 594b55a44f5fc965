package catalog

import (
	"strings"
)

const (
	// DeliveryPath is the folder holding the shared delivery pipelines.
	DeliveryPath = `\Automation\MyDelivery`
)

// DefaultFilters is the substring chain applied under DeliveryPath before the
// environment tag.
var DefaultFilters = []string{"SF_", "CloudTests"}

// Selection describes which pipelines a run covers: a folder substring followed
// by an ordered chain of name filters.
type Selection struct {
	Environment string
	Path        string
	Filters     []string
}

// NewSelection builds a Selection for envt. When envFilter is set the
// environment tag is appended to filters, unless envt is a match-all sentinel.
func NewSelection(envt, path string, filters []string, envFilter bool) Selection {
	chain := make([]string, 0, len(filters)+1)
	chain = append(chain, filters...)
	if envFilter && !IsMatchAll(envt) {
		chain = append(chain, EnvironmentTag(envt))
	}
	return Selection{Environment: envt, Path: path, Filters: chain}
}

// ActiveTestrunnersPath is the folder of a dedicated per-project environment.
func ActiveTestrunnersPath(envt string) string {
	return `\Automation\` + envt + `\Active_Testrunners`
}

// DefaultSelection applies the built-in routing: dedicated environments read
// their own folder with no name filters, everything else reads DeliveryPath
// through DefaultFilters and the environment tag.
func DefaultSelection(envt string) Selection {
	switch strings.ToLower(envt) {
	case "projone", "projtwo":
		return NewSelection(envt, ActiveTestrunnersPath(envt), nil, false)
	default:
		return NewSelection(envt, DeliveryPath, DefaultFilters, true)
	}
}
