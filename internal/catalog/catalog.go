package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bgricker/adoreport/internal/ado"
	"k8s.io/apimachinery/pkg/util/sets"
)

// DefinitionLister fetches the definition references of a project.
type DefinitionLister interface {
	ListDefinitions(ctx context.Context, project string) ([]ado.DefinitionRef, error)
}

// Catalog is an immutable snapshot of a project's build definitions.
type Catalog struct {
	project ado.Project
	refs    []ado.DefinitionRef
	logger  *slog.Logger
}

// Load fetches every definition reference of project once.
func Load(ctx context.Context, src DefinitionLister, project ado.Project, logger *slog.Logger) (*Catalog, error) {
	refs, err := src.ListDefinitions(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("load catalog for %s: %w", project.Name, err)
	}
	c := New(project, refs, logger)
	c.logger.Debug("loaded definitions", "project", project.Name, "count", len(refs))
	return c, nil
}

// New wraps an already-fetched list of references.
func New(project ado.Project, refs []ado.DefinitionRef, logger *slog.Logger) *Catalog {
	snapshot := make([]ado.DefinitionRef, len(refs))
	copy(snapshot, refs)
	return &Catalog{project: project, refs: snapshot, logger: orDiscard(logger)}
}

// Project returns the project the catalog was loaded from.
func (c *Catalog) Project() ado.Project {
	return c.project
}

// Len returns the number of references in the snapshot, folders included.
func (c *Catalog) Len() int {
	return len(c.refs)
}

// ListUnderPath returns pipelines whose path contains prefix. Folders are
// dropped and a repeated name keeps its first occurrence.
func (c *Catalog) ListUnderPath(prefix string) []ado.DefinitionRef {
	seen := sets.New[string]()
	result := make([]ado.DefinitionRef, 0, len(c.refs))
	for _, ref := range c.refs {
		if !ref.IsPipeline() || !strings.Contains(ref.Path, prefix) {
			continue
		}
		if seen.Has(ref.Name) {
			c.logger.Warn("duplicate pipeline name ignored", "name", ref.Name, "id", ref.ID)
			continue
		}
		seen.Insert(ref.Name)
		result = append(result, ref)
	}
	return result
}

// Apply lists the selection's path and narrows it through each filter in turn.
func (c *Catalog) Apply(sel Selection) ([]ado.DefinitionRef, error) {
	patterns, err := Compile(sel.Filters)
	if err != nil {
		return nil, fmt.Errorf("apply selection for %s: %w", sel.Environment, err)
	}

	refs := c.ListUnderPath(sel.Path)
	c.logger.Info("pipelines under path", "path", sel.Path, "count", len(refs))
	for _, p := range patterns {
		refs = FilterByPattern(refs, p)
		c.logger.Info("pipelines after filter", "filter", p.String(), "count", len(refs))
	}
	return refs, nil
}
