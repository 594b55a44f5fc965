package main

import (
	"errors"
	"fmt"

	"github.com/bgricker/adoreport/internal/ado"
	"github.com/spf13/cobra"
)

func newQueueStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue-status",
		Short: "Set the queue status of a single pipeline",
		Args:  cobra.NoArgs,
		RunE:  runQueueStatus,
	}
	cmd.Flags().Int("definition", 0, "build definition id")
	cmd.Flags().String("status", "", "new queue status (enabled|disabled|paused)")
	return cmd
}

func runQueueStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateConnection(); err != nil {
		return err
	}

	id, err := cmd.Flags().GetInt("definition")
	if err != nil {
		return fmt.Errorf("parse --definition: %w", err)
	}
	if id <= 0 {
		return errors.New("--definition must be a positive build definition id")
	}
	raw, err := cmd.Flags().GetString("status")
	if err != nil {
		return fmt.Errorf("parse --status: %w", err)
	}
	status, err := ado.ParseQueueStatus(raw)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	previous, err := s.client.SetQueueStatus(ctx, s.project.ID, id, status)
	if err != nil {
		return err
	}
	s.logger.Info("queue status updated", "definition_id", id, "from", previous, "to", status)
	fmt.Fprintf(cmd.OutOrStdout(), "definition %d: %s -> %s\n", id, displayStatus(previous), status)
	return nil
}

func displayStatus(s ado.QueueStatus) string {
	if s == "" {
		return "unknown"
	}
	return string(s)
}
