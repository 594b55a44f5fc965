package main

import (
	"fmt"

	"github.com/bgricker/adoreport/internal/output"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the pipelines an environment selects",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	cmd.Flags().Bool("json", false, "print the listing as JSON")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("parse --json: %w", err)
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	refs, sel, err := selectPipelines(ctx, s)
	if err != nil {
		return err
	}

	if asJSON {
		return output.NewJSON(cmd.OutOrStdout()).Render(output.Listing{
			Project:     s.project.Name,
			Environment: sel.Environment,
			Path:        sel.Path,
			Filters:     sel.Filters,
			Pipelines:   refs,
		})
	}

	if len(refs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching pipelines")
		return nil
	}
	return output.NewPretty(cmd.OutOrStdout()).RenderPipelines(refs)
}
