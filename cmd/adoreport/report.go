package main

import (
	"fmt"

	"github.com/bgricker/adoreport/internal/aggregate"
	"github.com/bgricker/adoreport/internal/output"
	"github.com/bgricker/adoreport/internal/report"
	"github.com/spf13/cobra"
)

func runReport(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	refs, _, err := selectPipelines(ctx, s)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		s.logger.Warn("no pipelines matched", "envt", cfg.Envt)
	}

	agg := aggregate.New(s.client, aggregate.Options{Project: s.project.ID, Logger: s.logger})
	rows, summary, aggErr := agg.Run(ctx, refs)

	path := cfg.Output
	if path == "" {
		path = report.DefaultPath(cfg.Envt, format)
	}
	opts := report.Options{Format: format, LimitFieldset: !cfg.AllFields, Fields: cfg.Fields}
	if dropped := rows.Dropped(opts.Columns(rows)); len(dropped) > 0 {
		s.logger.Warn("statistics outside the column set not written", "fields", dropped)
	}
	if err := report.WriteFile(path, rows, opts); err != nil {
		if aggErr != nil {
			s.logger.Error("aggregation failed", "error", aggErr)
		}
		return err
	}

	if aggErr != nil {
		s.logger.Error("partial report written", "path", path, "rows", len(rows))
		return aggErr
	}

	if err := output.NewPretty(cmd.OutOrStdout()).RenderRows(rows, summary); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
	return nil
}
