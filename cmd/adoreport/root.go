package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "adoreport",
		Short:         "Export Azure DevOps pipeline test-run results to CSV",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          runReport,
	}

	persistent := cmd.PersistentFlags()
	persistent.StringP("pat", "p", "", "personal access token (defaults to $ADO_PAT)")
	persistent.StringP("envt", "e", "", "environment to report on (sf_all|uatcopy1|staging|projone|projtwo)")
	persistent.String("org-url", "", "organization URL")
	persistent.String("project", "", "project name")
	persistent.String("config", "", "config file (defaults to .adoreport.yml in the working directory)")
	persistent.BoolP("verbose", "v", false, "log debug detail to stderr")

	local := cmd.Flags()
	local.StringP("output", "o", "", "report path (defaults to auto_testrunners_report_<envt>.csv)")
	local.String("format", "csv", "report format (csv|json)")
	local.Bool("all-fields", false, "write every collected field instead of the fixed column set")
	local.StringArray("field", nil, "column to write (repeatable, replaces the fixed column set)")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newQueueStatusCmd())

	return cmd
}
