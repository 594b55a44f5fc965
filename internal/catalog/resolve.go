package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bgricker/adoreport/internal/ado"
)

// ErrProjectNotFound indicates no accessible project carries the configured name.
var ErrProjectNotFound = errors.New("project not found")

// ProjectLister lists the projects visible to the caller.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]ado.Project, error)
}

// ResolveProject scans the first page of projects for an exact, case-sensitive
// name match and returns the first one found.
func ResolveProject(ctx context.Context, src ProjectLister, name string, logger *slog.Logger) (ado.Project, error) {
	logger = orDiscard(logger)

	projects, err := src.ListProjects(ctx)
	if err != nil {
		return ado.Project{}, err
	}
	for _, p := range projects {
		if p.Name == name {
			logger.Info("resolved project", "name", p.Name, "id", p.ID)
			return p, nil
		}
	}
	return ado.Project{}, fmt.Errorf("%w: %q (searched %d projects)", ErrProjectNotFound, name, len(projects))
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
