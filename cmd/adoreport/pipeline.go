package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bgricker/adoreport/internal/ado"
	"github.com/bgricker/adoreport/internal/catalog"
	"github.com/bgricker/adoreport/internal/config"
	"github.com/spf13/cobra"
)

// session bundles an authenticated client with the resolved project.
type session struct {
	cfg     config.Config
	logger  *slog.Logger
	client  *ado.Client
	project ado.Project
}

func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, "", fmt.Errorf("parse --config: %w", err)
	}

	cfg, err := config.Load(root, explicit)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyEnv(&cfg, os.LookupEnv)

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)
	cfg.Envt = strings.ToLower(strings.TrimSpace(cfg.Envt))

	return cfg, root, nil
}

// openSession connects, verifies the token and resolves the configured project.
func openSession(ctx context.Context, cmd *cobra.Command, cfg config.Config) (*session, error) {
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	caps, err := capabilitiesFor(cfg.APIVersions)
	if err != nil {
		return nil, err
	}

	client, err := ado.New(ado.Config{
		OrganizationURL: cfg.OrgURL,
		Token:           cfg.PAT,
		Timeout:         cfg.Timeout,
		RateLimit:       cfg.RateLimit,
		Capabilities:    caps,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("client configured", "org_url", cfg.OrgURL, "released", caps.Released, "pinned", caps.Pinned, "pinned_operations", caps.PinnedOperations())

	if err := client.Verify(ctx); err != nil {
		return nil, err
	}

	project, err := catalog.ResolveProject(ctx, client, cfg.Project, logger)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, client: client, project: project}, nil
}

// selectPipelines loads the catalog and applies the environment's selection.
func selectPipelines(ctx context.Context, s *session) ([]ado.DefinitionRef, catalog.Selection, error) {
	sel := selectionFor(s.cfg)
	cat, err := catalog.Load(ctx, s.client, s.project, s.logger)
	if err != nil {
		return nil, sel, err
	}
	refs, err := cat.Apply(sel)
	if err != nil {
		return nil, sel, err
	}
	return refs, sel, nil
}

func selectionFor(cfg config.Config) catalog.Selection {
	if route, ok := cfg.Route(cfg.Envt); ok {
		return catalog.NewSelection(cfg.Envt, route.Path, route.Filters, route.EnvironmentFilter)
	}
	return catalog.DefaultSelection(cfg.Envt)
}

func capabilitiesFor(versions config.APIVersions) (ado.Capabilities, error) {
	ops := ado.DefaultCapabilities().PinnedOperations()
	if len(versions.PinnedOperations) > 0 {
		ops = make([]ado.Operation, 0, len(versions.PinnedOperations))
		for _, name := range versions.PinnedOperations {
			op, ok := ado.ParseOperation(strings.TrimSpace(name))
			if !ok {
				return ado.Capabilities{}, fmt.Errorf("unknown operation %q in api_versions.pinned_operations", name)
			}
			ops = append(ops, op)
		}
	}
	return ado.NewCapabilities(versions.Released, versions.Pinned, ops...), nil
}
