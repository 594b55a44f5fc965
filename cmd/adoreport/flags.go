package main

import (
	"fmt"

	"github.com/bgricker/adoreport/internal/config"
	"github.com/spf13/cobra"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	stringFlags := []struct {
		name   string
		target *config.StringFlag
	}{
		{"pat", &values.PAT},
		{"envt", &values.Envt},
		{"org-url", &values.OrgURL},
		{"project", &values.Project},
		{"output", &values.Output},
		{"format", &values.Format},
	}
	for _, f := range stringFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetString(f.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", f.name, err)
		}
		*f.target = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("field") {
		v, err := flags.GetStringArray("field")
		if err != nil {
			return values, fmt.Errorf("parse --field: %w", err)
		}
		values.Fields = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("all-fields") {
		v, err := flags.GetBool("all-fields")
		if err != nil {
			return values, fmt.Errorf("parse --all-fields: %w", err)
		}
		values.AllFields = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
