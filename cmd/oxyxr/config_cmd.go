package main

import (
	"github.com/spf13/cobra"
)

// newConfigCommand creates the config command, which prints the effective configuration as YAML.
func newConfigCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration oxyxr would run with: the defaults, overlaid with the
file given by --config.

Example:
  oxyxr config
  oxyxr config --config ./oxyxr.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
