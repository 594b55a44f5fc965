package ado

import (
	"k8s.io/apimachinery/pkg/util/sets"
)

// Operation names a remote call the client can make.
type Operation string

const (
	OpListProjects         Operation = "list-projects"
	OpListDefinitions      Operation = "list-definitions"
	OpGetDefinition        Operation = "get-definition"
	OpUpdateDefinition     Operation = "update-definition"
	OpGetBuildReport       Operation = "get-build-report"
	OpListTestRuns         Operation = "list-test-runs"
	OpGetTestRunStatistics Operation = "get-test-run-statistics"
)

const (
	// DefaultReleasedVersion is the generally available REST API version.
	DefaultReleasedVersion = "7.1"
	// DefaultPinnedVersion serves operations only exposed on the older surface (build reports in particular).
	DefaultPinnedVersion = "6.0-preview"
)

// Capabilities routes each operation to the API version that supports it, so
// call sites never choose versions themselves.
type Capabilities struct {
	Released string
	Pinned   string
	pinned   sets.Set[Operation]
}

// DefaultCapabilities pins definition listing, build reports and the test endpoints
// to the older surface; everything else uses the released version.
func DefaultCapabilities() Capabilities {
	return NewCapabilities(DefaultReleasedVersion, DefaultPinnedVersion,
		OpListDefinitions, OpGetBuildReport, OpListTestRuns, OpGetTestRunStatistics)
}

// NewCapabilities builds a routing table where pinnedOps use the pinned version.
func NewCapabilities(released, pinned string, pinnedOps ...Operation) Capabilities {
	if released == "" {
		released = DefaultReleasedVersion
	}
	if pinned == "" {
		pinned = DefaultPinnedVersion
	}
	return Capabilities{
		Released: released,
		Pinned:   pinned,
		pinned:   sets.New(pinnedOps...),
	}
}

// VersionFor returns the api-version for op.
func (c Capabilities) VersionFor(op Operation) string {
	if c.pinned.Has(op) {
		return c.Pinned
	}
	if c.Released == "" {
		return DefaultReleasedVersion
	}
	return c.Released
}

// PinnedOperations lists operations routed to the pinned version, sorted.
func (c Capabilities) PinnedOperations() []Operation {
	return sets.List(c.pinned)
}

// ParseOperation validates a configured operation name.
func ParseOperation(name string) (Operation, bool) {
	op := Operation(name)
	return op, allOperations.Has(op)
}

var allOperations = sets.New(
	OpListProjects,
	OpListDefinitions,
	OpGetDefinition,
	OpUpdateDefinition,
	OpGetBuildReport,
	OpListTestRuns,
	OpGetTestRunStatistics,
)
